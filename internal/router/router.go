package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/registration-api/internal/config"
	"github.com/noah-isme/registration-api/internal/handler"
	"github.com/noah-isme/registration-api/internal/middleware"
	"github.com/noah-isme/registration-api/internal/observability"
	"github.com/noah-isme/registration-api/internal/service"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	StageClosingHandler  *handler.StageClosingHandler
	EvaluationHandler    *handler.EvaluationHandler
	ReviewHandler        *handler.ReviewHandler
	FormFieldHandler     *handler.FormFieldHandler
	StageSettingsHandler *handler.StageSettingsHandler
	InvitationHandler    *handler.InvitationHandler
	ApplicantHandler     *handler.ApplicantHandler
	AuthHandler          *handler.AuthHandler
	UploadHandler        *handler.UploadHandler
	HealthProbes         map[string]handler.HealthProbe
	AdminMiddleware      fiber.Handler
	ApplicantMiddleware  fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))

	app.Get("/metrics", observability.MetricsHandler())

	adminMiddleware := deps.AdminMiddleware
	if adminMiddleware == nil {
		adminMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	applicantMiddleware := deps.ApplicantMiddleware
	if applicantMiddleware == nil {
		applicantMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Public
	if deps.AuthHandler != nil {
		auth := app.Group("/api/auth", middleware.RateLimit("otp", 10, time.Minute))
		deps.AuthHandler.Register(auth)
	}

	if deps.FormFieldHandler != nil {
		deps.FormFieldHandler.RegisterPublic(app.Group("/api/forms"))
	}

	// Applicant
	if deps.ApplicantHandler != nil {
		applicant := app.Group("/api/applicant", applicantMiddleware, middleware.RequireRole(service.ApplicantRole))
		deps.ApplicantHandler.Register(applicant)
	}

	// Operator dashboard
	if deps.EvaluationHandler != nil {
		deps.EvaluationHandler.Register(app.Group("/api/evaluations", adminMiddleware))
	}

	admin := app.Group("/api/admin", adminMiddleware)

	if deps.ReviewHandler != nil {
		deps.ReviewHandler.Register(admin.Group("/submissions"))
	}

	stages := admin.Group("/stages")
	if deps.StageClosingHandler != nil {
		deps.StageClosingHandler.Register(stages)
	}

	if deps.StageSettingsHandler != nil {
		deps.StageSettingsHandler.Register(stages)
		deps.StageSettingsHandler.RegisterPortal(admin.Group("/portal"))
	}

	if deps.FormFieldHandler != nil {
		deps.FormFieldHandler.Register(admin.Group("/fields"))
	}

	if deps.InvitationHandler != nil {
		deps.InvitationHandler.Register(admin)
	}

	if deps.UploadHandler != nil {
		deps.UploadHandler.Register(admin.Group("/uploads"))
	}
}
