package handler_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/registration-api/internal/dto"
	"github.com/noah-isme/registration-api/internal/service"
)

func TestStageClosingHandler_ReturnsFlatReport(t *testing.T) {
	svc := &mockClosingService{response: dto.StageCloseResponse{
		Success:            true,
		TotalEmailsSent:    3,
		TotalWhatsappsSent: 2,
		NominatedCount:     1,
		AutoCount:          1,
		ExcludedCount:      1,
		Errors:             []string{"[failed] Budi: whatsapp: gateway down"},
		PromotionErrors:    []string{},
		MovedToNextStage:   2,
	}}
	app := newRoutedApp(t, appServices{closing: svc})

	resp := doJSON(t, app, http.MethodPost, "/api/admin/stages/close", adminToken(t), map[string]interface{}{
		"stage":    1,
		"channels": []string{"instagram"},
		"settings": map[string]string{"passedEmailSubject": "Selamat"},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body dto.StageCloseResponse
	decodeResponse(t, resp, &body)
	require.True(t, body.Success)
	require.Equal(t, 3, body.TotalEmailsSent)
	require.Equal(t, 2, body.MovedToNextStage)
	require.Len(t, body.Errors, 1)

	require.Equal(t, 1, svc.lastRequest.Stage)
	require.Equal(t, []string{"instagram"}, svc.lastRequest.Channels)
	require.NotNil(t, svc.lastRequest.Settings)
	require.Equal(t, "Selamat", svc.lastRequest.Settings.PassedEmailSubject)
}

func TestStageClosingHandler_StatusMapping(t *testing.T) {
	validationErr := validator.New().Struct(dto.StageCloseRequest{Stage: 9})
	require.Error(t, validationErr)

	cases := []struct {
		name    string
		token   func(t *testing.T) string
		body    interface{}
		err     error
		status  int
		message string
	}{
		{
			name:   "missing token",
			token:  func(*testing.T) string { return "" },
			body:   map[string]int{"stage": 1},
			status: fiber.StatusUnauthorized,
		},
		{
			name: "not an admin",
			token: func(t *testing.T) string {
				return signToken(t, adminSecret, map[string]interface{}{"email": "intruder@example.com"})
			},
			body:   map[string]int{"stage": 1},
			status: fiber.StatusUnauthorized,
		},
		{
			name:   "malformed body",
			token:  adminToken,
			body:   "{not json",
			status: fiber.StatusBadRequest,
		},
		{
			name:    "invalid stage",
			token:   adminToken,
			body:    map[string]int{"stage": 9},
			err:     validationErr,
			status:  fiber.StatusBadRequest,
			message: "invalid payload",
		},
		{
			name:    "no submissions",
			token:   adminToken,
			body:    map[string]int{"stage": 2},
			err:     service.ErrNoSubmissions,
			status:  fiber.StatusNotFound,
			message: service.ErrNoSubmissions.Error(),
		},
		{
			name:    "unexpected failure",
			token:   adminToken,
			body:    map[string]int{"stage": 2},
			err:     errors.New("connection reset"),
			status:  fiber.StatusInternalServerError,
			message: "failed to close stage",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newRoutedApp(t, appServices{closing: &mockClosingService{err: tc.err}})

			resp := doJSON(t, app, http.MethodPost, "/api/admin/stages/close", tc.token(t), tc.body)
			require.Equal(t, tc.status, resp.StatusCode)

			var body envelope
			decodeResponse(t, resp, &body)
			require.False(t, body.Success)
			require.NotEmpty(t, body.Error)
			if tc.message != "" {
				require.Equal(t, tc.message, body.Error)
			}
		})
	}
}

func TestStageClosingHandler_ValidationDetails(t *testing.T) {
	validationErr := validator.New().Struct(dto.StageCloseRequest{Stage: 9})
	app := newRoutedApp(t, appServices{closing: &mockClosingService{err: validationErr}})

	resp := doJSON(t, app, http.MethodPost, "/api/admin/stages/close", adminToken(t), map[string]int{"stage": 9})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body envelope
	decodeResponse(t, resp, &body)
	require.Equal(t, "max=3", body.Details["StageCloseRequest.Stage"])
}
