package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/registration-api/internal/dto"
	"github.com/noah-isme/registration-api/internal/middleware"
	"github.com/noah-isme/registration-api/internal/service"
	"github.com/noah-isme/registration-api/internal/utils"
)

// ApplicantHandler serves the signed-in applicant.
type ApplicantHandler struct {
	service service.ApplicantService
	logger  zerolog.Logger
}

// NewApplicantHandler constructs the handler.
func NewApplicantHandler(service service.ApplicantService, logger zerolog.Logger) *ApplicantHandler {
	return &ApplicantHandler{
		service: service,
		logger:  logger.With().Str("component", "applicant_handler").Logger(),
	}
}

// Register wires applicant routes; the group must authenticate the applicant first.
func (h *ApplicantHandler) Register(router fiber.Router) {
	router.Get("/status", h.status)
	router.Post("/stages/:stage", h.submit)
	router.Post("/confirm", h.confirm)
}

func (h *ApplicantHandler) status(c *fiber.Ctx) error {
	status, err := h.service.GetStatus(c.UserContext(), middleware.AuthEmail(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load status")
	}
	return utils.SendSuccess(c, "status retrieved", status)
}

func (h *ApplicantHandler) submit(c *fiber.Ctx) error {
	stage, err := parseStageParam(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.StageSubmissionRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.SubmitStage(c.UserContext(), middleware.AuthEmail(c), stage, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to submit answers")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "answers submitted", response)
}

func (h *ApplicantHandler) confirm(c *fiber.Ctx) error {
	if err := h.service.ConfirmParticipation(c.UserContext(), middleware.AuthEmail(c)); err != nil {
		return respondError(c, h.logger, err, "failed to confirm participation")
	}
	return utils.SendSuccess(c, "participation confirmed", nil)
}
