package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/registration-api/internal/dto"
	"github.com/noah-isme/registration-api/internal/service"
	"github.com/noah-isme/registration-api/internal/utils"
)

// StageSettingsHandler exposes stage copy, templates and the portal gate.
type StageSettingsHandler struct {
	service service.StageSettingsService
	logger  zerolog.Logger
}

// NewStageSettingsHandler constructs the handler.
func NewStageSettingsHandler(service service.StageSettingsService, logger zerolog.Logger) *StageSettingsHandler {
	return &StageSettingsHandler{
		service: service,
		logger:  logger.With().Str("component", "stage_settings_handler").Logger(),
	}
}

// Register wires the per-stage settings routes on the admin stages group.
func (h *StageSettingsHandler) Register(router fiber.Router) {
	router.Get("/:stage/settings", h.get)
	router.Put("/:stage/settings", h.save)
}

// RegisterPortal wires the portal gate routes.
func (h *StageSettingsHandler) RegisterPortal(router fiber.Router) {
	router.Get("", h.portal)
	router.Put("", h.updatePortal)
}

func (h *StageSettingsHandler) get(c *fiber.Ctx) error {
	stage, err := parseStageParam(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	settings, err := h.service.Get(c.UserContext(), stage)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load stage settings")
	}

	return utils.SendSuccess(c, "stage settings retrieved", settings)
}

func (h *StageSettingsHandler) save(c *fiber.Ctx) error {
	stage, err := parseStageParam(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.StageSettingsRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	settings, err := h.service.Save(c.UserContext(), stage, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to save stage settings")
	}

	return utils.SendSuccess(c, "stage settings saved", settings)
}

func (h *StageSettingsHandler) portal(c *fiber.Ctx) error {
	state, err := h.service.Portal(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err, "failed to load portal state")
	}
	return utils.SendSuccess(c, "portal state retrieved", state)
}

func (h *StageSettingsHandler) updatePortal(c *fiber.Ctx) error {
	var payload dto.PortalStateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	state, err := h.service.UpdatePortal(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update portal state")
	}
	return utils.SendSuccess(c, "portal state updated", state)
}
