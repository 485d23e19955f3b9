package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/registration-api/internal/dto"
	"github.com/noah-isme/registration-api/internal/middleware"
	"github.com/noah-isme/registration-api/internal/service"
	"github.com/noah-isme/registration-api/internal/utils"
)

// StageClosingHandler exposes the stage-closing workflow.
type StageClosingHandler struct {
	service service.StageClosingService
	logger  zerolog.Logger
}

// NewStageClosingHandler constructs the handler.
func NewStageClosingHandler(service service.StageClosingService, logger zerolog.Logger) *StageClosingHandler {
	return &StageClosingHandler{
		service: service,
		logger:  logger.With().Str("component", "stage_closing_handler").Logger(),
	}
}

// Register wires closing routes on the admin stages group.
func (h *StageClosingHandler) Register(router fiber.Router) {
	router.Post("/close", h.close)
}

// close answers with the flat closing report rather than the usual envelope.
func (h *StageClosingHandler) close(c *fiber.Ctx) error {
	var payload dto.StageCloseRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.CloseStage(c.UserContext(), payload)
	if err != nil {
		if errors.Is(err, service.ErrNoSubmissions) {
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		}
		return respondError(c, h.logger, err, "failed to close stage")
	}

	requestLogger := middleware.RequestLogger(h.logger, c)
	requestLogger.Info().
		Str("admin", middleware.AuthEmail(c)).
		Int("stage", payload.Stage).
		Bool("test_mode", response.TestMode).
		Int("errors", len(response.Errors)).
		Msg("stage closing requested")

	return c.Status(fiber.StatusOK).JSON(response)
}
