package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/registration-api/internal/dto"
	"github.com/noah-isme/registration-api/internal/service"
	"github.com/noah-isme/registration-api/internal/utils"
)

// InvitationHandler imports invitees and sends invitations.
type InvitationHandler struct {
	service service.InvitationService
	logger  zerolog.Logger
}

// NewInvitationHandler constructs the handler.
func NewInvitationHandler(service service.InvitationService, logger zerolog.Logger) *InvitationHandler {
	return &InvitationHandler{
		service: service,
		logger:  logger.With().Str("component", "invitation_handler").Logger(),
	}
}

// Register wires invitation routes on the admin group.
func (h *InvitationHandler) Register(router fiber.Router) {
	router.Post("/invitees", h.importInvitees)
	router.Post("/invitations/send", h.send)
}

func (h *InvitationHandler) importInvitees(c *fiber.Ctx) error {
	var payload dto.InviteeImportRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Import(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to import invitees")
	}

	return utils.SendSuccess(c, "invitees imported", response)
}

func (h *InvitationHandler) send(c *fiber.Ctx) error {
	var payload dto.InvitationSendRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Send(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to send invitations")
	}

	return utils.SendSuccess(c, "invitations processed", response)
}
