package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/registration-api/internal/config"
	"github.com/noah-isme/registration-api/internal/dto"
	"github.com/noah-isme/registration-api/internal/handler"
	"github.com/noah-isme/registration-api/internal/middleware"
	"github.com/noah-isme/registration-api/internal/router"
	"github.com/noah-isme/registration-api/internal/service"
)

const (
	adminSecret   = "provider-secret"
	sessionSecret = "session-secret"
	adminEmail    = "ops@example.com"
)

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

type staticAdmins map[string]bool

func (s staticAdmins) IsAdmin(_ context.Context, email string) (bool, error) {
	return s[email], nil
}

type mockClosingService struct {
	lastRequest dto.StageCloseRequest
	response    dto.StageCloseResponse
	err         error
}

func (m *mockClosingService) CloseStage(_ context.Context, req dto.StageCloseRequest) (dto.StageCloseResponse, error) {
	m.lastRequest = req
	return m.response, m.err
}

type mockReviewService struct {
	lastList dto.SubmissionListRequest
	items    []dto.SubmissionSummary
	detail   dto.SubmissionDetail
	err      error
}

func (m *mockReviewService) List(_ context.Context, req dto.SubmissionListRequest) ([]dto.SubmissionSummary, error) {
	m.lastList = req
	return m.items, m.err
}

func (m *mockReviewService) Get(_ context.Context, id uint) (dto.SubmissionDetail, error) {
	if m.err != nil {
		return dto.SubmissionDetail{}, m.err
	}
	detail := m.detail
	detail.ID = id
	return detail, nil
}

type mockFilteringService struct {
	lastID   uint
	lastSet  dto.DecisionUpdateRequest
	lastBulk dto.BulkDecisionRequest
	err      error
}

func (m *mockFilteringService) Set(_ context.Context, id uint, req dto.DecisionUpdateRequest) error {
	m.lastID = id
	m.lastSet = req
	return m.err
}

func (m *mockFilteringService) BulkSet(_ context.Context, req dto.BulkDecisionRequest) (dto.BulkDecisionResponse, error) {
	m.lastBulk = req
	if m.err != nil {
		return dto.BulkDecisionResponse{}, m.err
	}
	return dto.BulkDecisionResponse{Updated: int64(len(req.IDs)), Decision: req.Decision}, nil
}

type mockApplicantService struct {
	lastEmail string
	lastStage int
	status    dto.ApplicantStatusResponse
	err       error
}

func (m *mockApplicantService) SubmitStage(_ context.Context, email string, stage int, _ dto.StageSubmissionRequest) (dto.StageSubmissionResponse, error) {
	m.lastEmail = email
	m.lastStage = stage
	if m.err != nil {
		return dto.StageSubmissionResponse{}, m.err
	}
	return dto.StageSubmissionResponse{SubmissionID: 7, Stage: stage, EvaluationQueued: true}, nil
}

func (m *mockApplicantService) ConfirmParticipation(_ context.Context, email string) error {
	m.lastEmail = email
	return m.err
}

func (m *mockApplicantService) GetStatus(_ context.Context, email string) (dto.ApplicantStatusResponse, error) {
	m.lastEmail = email
	status := m.status
	status.Email = email
	return status, m.err
}

type mockOTPService struct {
	requestErr error
	verifyErr  error
	token      string
}

func (m *mockOTPService) Request(context.Context, dto.OTPRequest) error {
	return m.requestErr
}

func (m *mockOTPService) Verify(context.Context, dto.OTPVerifyRequest) (dto.OTPVerifyResponse, error) {
	if m.verifyErr != nil {
		return dto.OTPVerifyResponse{}, m.verifyErr
	}
	return dto.OTPVerifyResponse{Token: m.token, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

type mockUploadService struct {
	fileName string
	response dto.UploadResponse
	err      error
}

func (m *mockUploadService) Upload(_ context.Context, file *multipart.FileHeader) (dto.UploadResponse, error) {
	if file != nil {
		m.fileName = file.Filename
	}
	return m.response, m.err
}

type mockEvaluationService struct {
	lastRequest dto.EvaluationRequest
	err         error
}

func (m *mockEvaluationService) EvaluateSubmission(_ context.Context, req dto.EvaluationRequest) (dto.EvaluationResponse, error) {
	m.lastRequest = req
	if m.err != nil {
		return dto.EvaluationResponse{}, m.err
	}
	return dto.EvaluationResponse{SubmissionID: req.SubmissionID, Stage: 1, Evaluated: 2}, nil
}

type appServices struct {
	closing    service.StageClosingService
	review     service.ReviewService
	filtering  service.FilteringService
	applicant  service.ApplicantService
	otp        service.OTPService
	upload     service.UploadService
	evaluation service.EvaluationService
}

// newRoutedApp mounts the given services behind the production router and auth middleware.
func newRoutedApp(t *testing.T, services appServices) *fiber.App {
	t.Helper()

	logger := zerolog.New(io.Discard)
	deps := router.Dependencies{
		AdminMiddleware:     middleware.AdminAuth(adminSecret, staticAdmins{adminEmail: true}, logger),
		ApplicantMiddleware: middleware.ApplicantAuth(sessionSecret),
	}
	if services.closing != nil {
		deps.StageClosingHandler = handler.NewStageClosingHandler(services.closing, logger)
	}
	if services.review != nil || services.filtering != nil {
		deps.ReviewHandler = handler.NewReviewHandler(services.review, services.filtering, logger)
	}
	if services.applicant != nil {
		deps.ApplicantHandler = handler.NewApplicantHandler(services.applicant, logger)
	}
	if services.otp != nil {
		deps.AuthHandler = handler.NewAuthHandler(services.otp, logger)
	}
	if services.upload != nil {
		deps.UploadHandler = handler.NewUploadHandler(services.upload, logger)
	}
	if services.evaluation != nil {
		deps.EvaluationHandler = handler.NewEvaluationHandler(services.evaluation, logger)
	}

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test"}, deps)
	return app
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func adminToken(t *testing.T) string {
	return signToken(t, adminSecret, jwt.MapClaims{"email": adminEmail})
}

func applicantToken(t *testing.T, email string) string {
	return signToken(t, sessionSecret, jwt.MapClaims{"email": email, "role": service.ApplicantRole})
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	switch payload := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(payload)
	default:
		encoded, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(data, target))
}
