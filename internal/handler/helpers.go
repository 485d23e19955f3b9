package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/registration-api/internal/middleware"
	"github.com/noah-isme/registration-api/internal/service"
	"github.com/noah-isme/registration-api/internal/utils"
)

// errorStatuses maps service sentinels to HTTP statuses. Anything unlisted is a 500.
var errorStatuses = []struct {
	err    error
	status int
}{
	{service.ErrInvalidDecision, fiber.StatusBadRequest},
	{service.ErrInvalidStage, fiber.StatusBadRequest},
	{service.ErrInvalidFieldType, fiber.StatusBadRequest},
	{service.ErrMissingAIInstruction, fiber.StatusBadRequest},
	{service.ErrMissingAnswers, fiber.StatusBadRequest},
	{service.ErrNothingToSend, fiber.StatusBadRequest},
	{service.ErrUploadTypeNotAllowed, fiber.StatusBadRequest},
	{service.ErrInvalidOTP, fiber.StatusUnauthorized},
	{service.ErrNoSubmissions, fiber.StatusNotFound},
	{service.ErrSubmissionNotFound, fiber.StatusNotFound},
	{service.ErrFormFieldNotFound, fiber.StatusNotFound},
	{service.ErrNotRegistered, fiber.StatusNotFound},
	{service.ErrStageClosed, fiber.StatusConflict},
	{service.ErrStageLocked, fiber.StatusConflict},
	{service.ErrNotEligible, fiber.StatusConflict},
	{service.ErrNotAwaitingConfirmation, fiber.StatusConflict},
	{service.ErrUploadTooLarge, fiber.StatusRequestEntityTooLarge},
	{service.ErrOTPDelivery, fiber.StatusBadGateway},
	{service.ErrUploadsDisabled, fiber.StatusServiceUnavailable},
	{service.ErrEvaluatorUnavailable, fiber.StatusServiceUnavailable},
}

// respondError writes the status mapped from err; unexpected errors are logged and hidden.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error, fallback string) error {
	if details := validationDetails(err); details != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "invalid payload", details)
	}

	for _, mapping := range errorStatuses {
		if errors.Is(err, mapping.err) {
			return utils.SendError(c, mapping.status, err.Error())
		}
	}

	requestLogger := middleware.RequestLogger(logger, c)
	requestLogger.Error().Err(err).Str("path", c.Path()).Msg(fallback)
	return utils.SendError(c, fiber.StatusInternalServerError, fallback)
}

// validationDetails flattens validator errors into field -> rule, or returns nil.
func validationDetails(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	details := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		rule := fieldErr.Tag()
		if fieldErr.Param() != "" {
			rule += "=" + fieldErr.Param()
		}
		details[fieldErr.Namespace()] = rule
	}
	return details
}

func splitAndTrim(input string) []string {
	parts := strings.Split(input, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func parseQueryInt(c *fiber.Ctx, key string) (*int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parseUintParam(c *fiber.Ctx, key string) (uint, error) {
	value, err := strconv.ParseUint(c.Params(key), 10, 64)
	if err != nil || value == 0 {
		return 0, errors.New("invalid " + key)
	}
	return uint(value), nil
}

func parseStageParam(c *fiber.Ctx) (int, error) {
	stage, err := strconv.Atoi(c.Params("stage"))
	if err != nil {
		return 0, service.ErrInvalidStage
	}
	return stage, nil
}
