package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/registration-api/internal/dto"
	"github.com/noah-isme/registration-api/internal/models"
	"github.com/noah-isme/registration-api/internal/observability"
	"github.com/noah-isme/registration-api/internal/repository"
)

// ErrNoSubmissions indicates the closing filter matched nothing.
var ErrNoSubmissions = errors.New("no submissions match the stage filter")

const (
	groupNominated  = "nominated"
	groupExcluded   = "excluded"
	groupTestPassed = "test-passed"
	groupTestFailed = "test-failed"
)

// StageClosingService messages the outcome of a stage and promotes nominated applicants.
type StageClosingService interface {
	CloseStage(ctx context.Context, req dto.StageCloseRequest) (dto.StageCloseResponse, error)
}

type stageClosingService struct {
	submissions repository.SubmissionRepository
	settings    repository.StageSettingsRepository
	dispatcher  *MessageDispatcher
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewStageClosingService constructs the closing workflow.
func NewStageClosingService(submissions repository.SubmissionRepository, settings repository.StageSettingsRepository, dispatcher *MessageDispatcher, validate *validator.Validate, logger zerolog.Logger) StageClosingService {
	return &stageClosingService{
		submissions: submissions,
		settings:    settings,
		dispatcher:  dispatcher,
		validator:   validate,
		logger:      logger.With().Str("component", "stage_closing_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/registration-api/internal/service/stage_closing"),
	}
}

type closingPartition struct {
	nominated []models.Submission
	excluded  []models.Submission
	auto      int
}

// CloseStage runs fetch, partition, send and promote. It is not transactional: messages already
// sent stay sent when promotion fails, and re-running it resends to whoever still matches.
func (s *stageClosingService) CloseStage(ctx context.Context, req dto.StageCloseRequest) (dto.StageCloseResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.StageCloseResponse{}, err
	}

	started := time.Now()
	mode := "live"
	if req.TestMode {
		mode = "test"
	}
	defer func() {
		observability.StageCloseDuration().WithLabelValues(strconv.Itoa(req.Stage), mode).Observe(time.Since(started).Seconds())
	}()

	ctx, span := s.tracer.Start(ctx, "stages.close", trace.WithAttributes(
		attribute.Int("stage.number", req.Stage),
		attribute.Bool("stage.test_mode", req.TestMode),
		attribute.StringSlice("stage.channels", req.Channels),
	))
	defer span.End()

	stage := req.Stage
	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{Stage: &stage, Channels: req.Channels})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch submissions")
		return dto.StageCloseResponse{}, fmt.Errorf("fetch stage %d submissions: %w", req.Stage, err)
	}
	if len(submissions) == 0 {
		span.SetStatus(codes.Error, "no submissions")
		return dto.StageCloseResponse{}, ErrNoSubmissions
	}

	passed, failed, err := s.resolveOutreach(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load stage settings")
		return dto.StageCloseResponse{}, err
	}

	partition := partitionByDecision(submissions)
	response := dto.StageCloseResponse{
		Success:         true,
		NominatedCount:  len(partition.nominated),
		ExcludedCount:   len(partition.excluded),
		AutoCount:       partition.auto,
		Errors:          []string{},
		PromotionErrors: []string{},
		TestMode:        req.TestMode,
	}

	if req.TestMode {
		recipients := testRecipients(req.TestRecipients)
		s.collect(&response, s.dispatcher.Dispatch(ctx, groupTestPassed, recipients, passed, nil))
		s.collect(&response, s.dispatcher.Dispatch(ctx, groupTestFailed, recipients, failed, nil))
	} else {
		s.collect(&response, s.dispatcher.Dispatch(ctx, groupNominated, recipientsOf(partition.nominated), passed, nil))
		s.collect(&response, s.dispatcher.Dispatch(ctx, groupExcluded, recipientsOf(partition.excluded), failed, nil))
	}

	if !req.TestMode && req.Stage < models.StageLastScored {
		s.promote(ctx, req.Stage, partition.nominated, &response)
	}

	span.SetAttributes(
		attribute.Int("stage.emails_sent", response.TotalEmailsSent),
		attribute.Int("stage.whatsapps_sent", response.TotalWhatsappsSent),
		attribute.Int("stage.errors", len(response.Errors)),
		attribute.Int("stage.promoted", response.MovedToNextStage),
	)

	s.logger.Info().
		Int("stage", req.Stage).
		Bool("test_mode", req.TestMode).
		Int("nominated", response.NominatedCount).
		Int("excluded", response.ExcludedCount).
		Int("auto", response.AutoCount).
		Int("emails_sent", response.TotalEmailsSent).
		Int("whatsapps_sent", response.TotalWhatsappsSent).
		Int("errors", len(response.Errors)).
		Int("promoted", response.MovedToNextStage).
		Msg("stage closed")

	return response, nil
}

func (s *stageClosingService) collect(response *dto.StageCloseResponse, summary DispatchSummary) {
	response.TotalEmailsSent += summary.EmailsSent
	response.TotalWhatsappsSent += summary.WhatsappsSent
	response.Errors = append(response.Errors, summary.Errors...)
}

func (s *stageClosingService) promote(ctx context.Context, stage int, nominated []models.Submission, response *dto.StageCloseResponse) {
	if len(nominated) == 0 {
		return
	}

	emails := make([]string, 0, len(nominated))
	for _, submission := range nominated {
		emails = append(emails, submission.UserEmail)
	}

	moved, err := s.submissions.PromoteNominated(ctx, stage, emails)
	if err != nil {
		message := fmt.Sprintf("[promotion] stage %d -> %d: %v", stage, stage+1, err)
		response.Errors = append(response.Errors, message)
		response.PromotionErrors = append(response.PromotionErrors, message)
		s.logger.Error().Err(err).Int("stage", stage).Int("candidates", len(emails)).Msg("promotion failed")
		return
	}

	response.MovedToNextStage = int(moved)
	observability.StagePromotions().WithLabelValues(strconv.Itoa(stage)).Add(float64(moved))
}

// resolveOutreach prefers the request's settings and falls back to the stored post-stage templates.
func (s *stageClosingService) resolveOutreach(ctx context.Context, req dto.StageCloseRequest) (Outreach, Outreach, error) {
	if req.Settings != nil {
		settings := req.Settings
		passed := Outreach{
			EmailSubject:     settings.PassedEmailSubject,
			EmailContent:     settings.PassedEmailContent,
			WhatsappTemplate: settings.PassedWhatsappTemplate,
			WhatsappImage:    settings.PassedWhatsappImage,
		}
		failed := Outreach{
			EmailSubject:     settings.FailedEmailSubject,
			EmailContent:     settings.FailedEmailContent,
			WhatsappTemplate: settings.FailedWhatsappTemplate,
			WhatsappImage:    settings.FailedWhatsappImage,
		}
		return passed, failed, nil
	}

	stored, err := s.settings.Get(ctx, req.Stage)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Outreach{}, Outreach{}, nil
		}
		return Outreach{}, Outreach{}, fmt.Errorf("load stage %d settings: %w", req.Stage, err)
	}

	return outreachFromTemplate(stored.PostPassed), outreachFromTemplate(stored.PostFailed), nil
}

func outreachFromTemplate(template models.MessageTemplate) Outreach {
	return Outreach{
		EmailSubject:     template.EmailSubject,
		EmailContent:     template.EmailContent,
		WhatsappTemplate: template.WhatsappTemplate,
		WhatsappImage:    template.WhatsappImage,
	}
}

func partitionByDecision(submissions []models.Submission) closingPartition {
	partition := closingPartition{}
	for _, submission := range submissions {
		switch submission.Decision() {
		case models.DecisionNominated:
			partition.nominated = append(partition.nominated, submission)
		case models.DecisionExclude:
			partition.excluded = append(partition.excluded, submission)
		default:
			partition.auto++
		}
	}
	return partition
}

func recipientsOf(submissions []models.Submission) []Recipient {
	recipients := make([]Recipient, 0, len(submissions))
	for _, submission := range submissions {
		recipients = append(recipients, recipientFromSubmission(submission))
	}
	return recipients
}

func testRecipients(inputs []dto.TestRecipient) []Recipient {
	recipients := make([]Recipient, 0, len(inputs))
	for _, input := range inputs {
		recipients = append(recipients, Recipient{
			Name:   input.Name,
			Email:  input.Email,
			Phone:  input.Phone,
			Gender: input.Gender,
		})
	}
	return recipients
}
