package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/registration-api/internal/dto"
	"github.com/noah-isme/registration-api/internal/models"
	"github.com/noah-isme/registration-api/internal/service"
	"github.com/noah-isme/registration-api/internal/utils"
)

// FormFieldHandler manages the stage forms.
type FormFieldHandler struct {
	service service.FormFieldService
	logger  zerolog.Logger
}

// NewFormFieldHandler constructs the handler.
func NewFormFieldHandler(service service.FormFieldService, logger zerolog.Logger) *FormFieldHandler {
	return &FormFieldHandler{
		service: service,
		logger:  logger.With().Str("component", "form_field_handler").Logger(),
	}
}

// Register wires the admin schema routes.
func (h *FormFieldHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
}

// RegisterPublic wires the applicant-facing form route.
func (h *FormFieldHandler) RegisterPublic(router fiber.Router) {
	router.Get("/:stage/fields", h.public)
}

func (h *FormFieldHandler) list(c *fiber.Ctx) error {
	stage, err := parseQueryInt(c, "stage")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid stage")
	}
	if stage == nil {
		first := models.StageFirst
		stage = &first
	}

	fields, err := h.service.ListByStage(c.UserContext(), *stage)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list form fields")
	}

	return utils.SendSuccess(c, "form fields retrieved", fields)
}

func (h *FormFieldHandler) public(c *fiber.Ctx) error {
	stage, err := parseStageParam(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	fields, err := h.service.PublicFields(c.UserContext(), stage)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load form")
	}

	return utils.SendSuccess(c, "form retrieved", fields)
}

func (h *FormFieldHandler) create(c *fiber.Ctx) error {
	var payload dto.FormFieldRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	field, err := h.service.Create(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create form field")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "form field created", field)
}

func (h *FormFieldHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.FormFieldRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	field, err := h.service.Update(c.UserContext(), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update form field")
	}

	return utils.SendSuccess(c, "form field updated", field)
}

func (h *FormFieldHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return respondError(c, h.logger, err, "failed to delete form field")
	}

	return c.SendStatus(fiber.StatusNoContent)
}
