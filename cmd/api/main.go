package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/registration-api/internal/config"
	"github.com/noah-isme/registration-api/internal/database"
	"github.com/noah-isme/registration-api/internal/handler"
	"github.com/noah-isme/registration-api/internal/middleware"
	"github.com/noah-isme/registration-api/internal/repository"
	"github.com/noah-isme/registration-api/internal/router"
	"github.com/noah-isme/registration-api/internal/service"
	"github.com/noah-isme/registration-api/pkg/ai"
	cloud "github.com/noah-isme/registration-api/pkg/cloudinary"
	"github.com/noah-isme/registration-api/pkg/email"
	"github.com/noah-isme/registration-api/pkg/whatsapp"
)

const uploadMaxSizeMB = 5

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable; score cache and otp sign-in disabled")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable; evaluations run in-process")
			natsConn = nil
		} else {
			defer natsConn.Drain()
		}
	}

	var storage service.FileStorage
	imageStore, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("cloudinary unavailable; uploads disabled")
	} else {
		storage = imageStore
	}

	var evaluator ai.Evaluator
	rubricEvaluator, err := ai.NewOpenAIEvaluator(ai.OpenAIConfig{
		APIKey:      cfg.GPTAPIKey,
		BaseURL:     cfg.GPTBaseURL,
		Model:       cfg.GPTModel,
		MaxAttempts: cfg.AIMaxAttempts,
		RetryDelay:  cfg.AIRetryDelay,
		Logger:      logger,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("ai evaluator unavailable")
	} else {
		evaluator = rubricEvaluator
	}

	mailer := email.New(email.Config{
		APIKey: cfg.ResendAPIKey,
		From:   cfg.EmailFrom,
		Brand:  cfg.EmailBrand,
	}, logger)
	whatsappClient := whatsapp.New(whatsapp.Config{
		BaseURL:  cfg.WhatsappAPI,
		Token:    cfg.WhatsappToken,
		SenderID: cfg.WhatsappSenderID,
	}, logger)

	validate := validator.New(validator.WithRequiredStructEnabled())

	submissionRepo := repository.NewSubmissionRepository(db)
	formFieldRepo := repository.NewFormFieldRepository(db)
	settingsRepo := repository.NewStageSettingsRepository(db)
	inviteeRepo := repository.NewInviteeRepository(db)
	adminRepo := repository.NewAdminRepository(db)

	dispatcher := service.NewMessageDispatcher(mailer, whatsappClient, service.DispatcherConfig{
		BatchSize:  cfg.MessageBatchSize,
		BatchDelay: cfg.MessageBatchDelay,
	}, logger)

	evaluationService := service.NewEvaluationService(submissionRepo, formFieldRepo, evaluator, validate, logger)
	evaluationDispatcher := service.NewEvaluationDispatcher(evaluationService, natsConn, cfg.NATSSubjectPrefix, cfg.AIEvaluationTimeout, logger)
	evaluationDispatcher.Start(ctx)

	filteringService := service.NewFilteringService(submissionRepo, validate, logger)
	closingService := service.NewStageClosingService(submissionRepo, settingsRepo, dispatcher, validate, logger)
	reviewService := service.NewReviewService(submissionRepo, formFieldRepo, redisClient, cfg.ScoreCacheTTL, logger)
	formFieldService := service.NewFormFieldService(formFieldRepo, validate, logger)
	settingsService := service.NewStageSettingsService(settingsRepo, validate, logger)
	invitationService := service.NewInvitationService(inviteeRepo, dispatcher, validate, logger)
	applicantService := service.NewApplicantService(submissionRepo, formFieldRepo, settingsRepo, inviteeRepo, evaluationDispatcher, validate, logger)
	uploadService := service.NewUploadService(storage, uploadMaxSizeMB, logger)

	var authHandler *handler.AuthHandler
	if redisClient != nil {
		otpService := service.NewOTPService(service.NewRedisOTPStore(redisClient, cfg.OTPKeyPrefix), mailer, service.OTPConfig{
			CodeTTL:       cfg.OTPTTL,
			SessionTTL:    cfg.SessionTTL,
			SessionSecret: cfg.SessionJWTSecret,
			Subject:       cfg.EmailBrand + " verification code",
		}, validate, logger)
		authHandler = handler.NewAuthHandler(otpService, logger)
	}

	probes := map[string]handler.HealthProbe{
		"postgres": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if redisClient != nil {
		probes["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (uploadMaxSizeMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.SiteURL, AccessLog: os.Stdout})
	router.Register(app, cfg, router.Dependencies{
		StageClosingHandler:  handler.NewStageClosingHandler(closingService, logger),
		EvaluationHandler:    handler.NewEvaluationHandler(evaluationService, logger),
		ReviewHandler:        handler.NewReviewHandler(reviewService, filteringService, logger),
		FormFieldHandler:     handler.NewFormFieldHandler(formFieldService, logger),
		StageSettingsHandler: handler.NewStageSettingsHandler(settingsService, logger),
		InvitationHandler:    handler.NewInvitationHandler(invitationService, logger),
		ApplicantHandler:     handler.NewApplicantHandler(applicantService, logger),
		AuthHandler:          authHandler,
		UploadHandler:        handler.NewUploadHandler(uploadService, logger),
		HealthProbes:         probes,
		AdminMiddleware:      middleware.AdminAuth(cfg.AuthJWTSecret, adminRepo, logger),
		ApplicantMiddleware:  middleware.ApplicantAuth(cfg.SessionJWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(ctx, app, evaluationDispatcher)
}

func waitForShutdown(ctx context.Context, app *fiber.App, evaluations *service.EvaluationDispatcher) {
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	evaluations.Wait()
	log.Println("server stopped")
}
