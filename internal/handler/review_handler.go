package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/registration-api/internal/dto"
	"github.com/noah-isme/registration-api/internal/middleware"
	"github.com/noah-isme/registration-api/internal/service"
	"github.com/noah-isme/registration-api/internal/utils"
)

// ReviewHandler serves the admin submission list and filtering decisions.
type ReviewHandler struct {
	review    service.ReviewService
	filtering service.FilteringService
	logger    zerolog.Logger
}

// NewReviewHandler constructs the handler.
func NewReviewHandler(review service.ReviewService, filtering service.FilteringService, logger zerolog.Logger) *ReviewHandler {
	return &ReviewHandler{
		review:    review,
		filtering: filtering,
		logger:    logger.With().Str("component", "review_handler").Logger(),
	}
}

// Register wires review routes on the admin submissions group.
func (h *ReviewHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Put("/decision", h.bulkDecision)
	router.Get("/:id", h.get)
	router.Put("/:id/decision", h.setDecision)
}

func (h *ReviewHandler) list(c *fiber.Ctx) error {
	stage, err := parseQueryInt(c, "stage")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid stage")
	}

	items, err := h.review.List(c.UserContext(), dto.SubmissionListRequest{
		Stage:    stage,
		Channels: splitAndTrim(c.Query("channels")),
		Decision: c.Query("decision"),
	})
	if err != nil {
		return respondError(c, h.logger, err, "failed to list submissions")
	}

	return utils.SendSuccess(c, "submissions retrieved", items)
}

func (h *ReviewHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	detail, err := h.review.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load submission")
	}

	return utils.SendSuccess(c, "submission retrieved", detail)
}

func (h *ReviewHandler) setDecision(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.DecisionUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	if err := h.filtering.Set(c.UserContext(), id, payload); err != nil {
		return respondError(c, h.logger, err, "failed to update decision")
	}

	requestLogger := middleware.RequestLogger(h.logger, c)
	requestLogger.Info().Uint("submission_id", id).Str("decision", payload.Decision).Str("admin", middleware.AuthEmail(c)).Msg("filtering decision updated")
	return utils.SendSuccess(c, "decision updated", fiber.Map{"id": id, "decision": payload.Decision})
}

func (h *ReviewHandler) bulkDecision(c *fiber.Ctx) error {
	var payload dto.BulkDecisionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.filtering.BulkSet(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update decisions")
	}

	return utils.SendSuccess(c, "decisions updated", response)
}
