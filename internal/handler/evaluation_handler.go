package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/registration-api/internal/dto"
	"github.com/noah-isme/registration-api/internal/service"
	"github.com/noah-isme/registration-api/internal/utils"
)

// EvaluationHandler runs AI evaluation of a stored submission on demand.
type EvaluationHandler struct {
	service service.EvaluationService
	logger  zerolog.Logger
}

// NewEvaluationHandler constructs the handler.
func NewEvaluationHandler(service service.EvaluationService, logger zerolog.Logger) *EvaluationHandler {
	return &EvaluationHandler{
		service: service,
		logger:  logger.With().Str("component", "evaluation_handler").Logger(),
	}
}

// Register wires evaluation routes.
func (h *EvaluationHandler) Register(router fiber.Router) {
	router.Post("", h.evaluate)
}

func (h *EvaluationHandler) evaluate(c *fiber.Ctx) error {
	var payload dto.EvaluationRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.EvaluateSubmission(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to evaluate submission")
	}

	return utils.SendSuccess(c, "submission evaluated", response)
}
