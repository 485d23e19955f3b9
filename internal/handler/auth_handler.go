package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/registration-api/internal/dto"
	"github.com/noah-isme/registration-api/internal/service"
	"github.com/noah-isme/registration-api/internal/utils"
)

// AuthHandler issues applicant sessions through emailed one-time codes.
type AuthHandler struct {
	service service.OTPService
	logger  zerolog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service service.OTPService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register wires OTP routes.
func (h *AuthHandler) Register(router fiber.Router) {
	router.Post("/otp/request", h.request)
	router.Post("/otp/verify", h.verify)
}

func (h *AuthHandler) request(c *fiber.Ctx) error {
	var payload dto.OTPRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	if err := h.service.Request(c.UserContext(), payload); err != nil {
		return respondError(c, h.logger, err, "failed to issue verification code")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusAccepted, "verification code sent", nil)
}

func (h *AuthHandler) verify(c *fiber.Ctx) error {
	var payload dto.OTPVerifyRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Verify(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to verify code")
	}

	return utils.SendSuccess(c, "signed in", response)
}
