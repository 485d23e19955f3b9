package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/registration-api/internal/dto"
	"github.com/noah-isme/registration-api/internal/models"
	"github.com/noah-isme/registration-api/internal/observability"
	"github.com/noah-isme/registration-api/internal/repository"
)

var (
	// ErrStageClosed indicates the portal is not accepting answers for the stage.
	ErrStageClosed = errors.New("stage is not accepting submissions")
	// ErrStageLocked indicates the stage answers were already submitted.
	ErrStageLocked = errors.New("stage answers were already submitted")
	// ErrNotRegistered indicates there is no submission for the applicant.
	ErrNotRegistered = errors.New("no registration found for this email")
	// ErrNotEligible indicates the applicant has not reached the requested stage.
	ErrNotEligible = errors.New("applicant is not at this stage")
	// ErrNotAwaitingConfirmation indicates the applicant is not at the confirmation stage.
	ErrNotAwaitingConfirmation = errors.New("applicant is not awaiting confirmation")
	// ErrMissingAnswers indicates required questions were left empty.
	ErrMissingAnswers = errors.New("required answers are missing")
)

// ApplicantService handles the applicant side of the staged pipeline.
type ApplicantService interface {
	SubmitStage(ctx context.Context, email string, stage int, req dto.StageSubmissionRequest) (dto.StageSubmissionResponse, error)
	ConfirmParticipation(ctx context.Context, email string) error
	GetStatus(ctx context.Context, email string) (dto.ApplicantStatusResponse, error)
}

type applicantService struct {
	submissions repository.SubmissionRepository
	fields      repository.FormFieldRepository
	settings    repository.StageSettingsRepository
	invitees    repository.InviteeRepository
	queue       EvaluationQueue
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewApplicantService constructs the applicant workflow. queue may be nil to skip AI evaluation.
func NewApplicantService(submissions repository.SubmissionRepository, fields repository.FormFieldRepository, settings repository.StageSettingsRepository, invitees repository.InviteeRepository, queue EvaluationQueue, validate *validator.Validate, logger zerolog.Logger) ApplicantService {
	return &applicantService{
		submissions: submissions,
		fields:      fields,
		settings:    settings,
		invitees:    invitees,
		queue:       queue,
		validator:   validate,
		logger:      logger.With().Str("component", "applicant_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/registration-api/internal/service/applicant"),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SubmitStage stores the answers of one stage. Each stage can be written once; the AI evaluation
// of free-text answers is queued afterwards and never affects the result.
func (s *applicantService) SubmitStage(ctx context.Context, email string, stage int, req dto.StageSubmissionRequest) (dto.StageSubmissionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.StageSubmissionResponse{}, err
	}
	if !models.IsScoredStage(stage) {
		return dto.StageSubmissionResponse{}, ErrInvalidStage
	}

	email = normalizeEmail(email)
	ctx, span := s.tracer.Start(ctx, "applicant.submit_stage", trace.WithAttributes(attribute.Int("submission.stage", stage)))
	defer span.End()

	portal, err := s.settings.GetPortalState(ctx)
	if err != nil {
		span.RecordError(err)
		return dto.StageSubmissionResponse{}, fmt.Errorf("load portal state: %w", err)
	}
	if !portal.Accepts(stage) {
		s.countSubmission(stage, "closed")
		return dto.StageSubmissionResponse{}, ErrStageClosed
	}

	fields, err := s.fields.ListByStage(ctx, stage)
	if err != nil {
		span.RecordError(err)
		return dto.StageSubmissionResponse{}, fmt.Errorf("load stage %d fields: %w", stage, err)
	}
	if missing := missingRequired(fields, req.Answers); len(missing) > 0 {
		return dto.StageSubmissionResponse{}, fmt.Errorf("%w: %s", ErrMissingAnswers, strings.Join(missing, ", "))
	}

	existing, err := s.submissions.GetByEmail(ctx, email)
	found := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		span.RecordError(err)
		return dto.StageSubmissionResponse{}, err
	}

	var submissionID uint
	switch {
	case stage == models.StageFirst && !found:
		submission := models.Submission{UserEmail: email, Stage: models.StageFirst}
		submission.SetStageAnswers(stage, req.Answers)
		s.copyInvitationTags(ctx, &submission)
		if err := s.submissions.Create(ctx, &submission); err != nil {
			span.RecordError(err)
			return dto.StageSubmissionResponse{}, fmt.Errorf("create submission: %w", err)
		}
		submissionID = submission.ID
	case !found:
		return dto.StageSubmissionResponse{}, ErrNotRegistered
	case existing.HasStageAnswers(stage):
		s.countSubmission(stage, "locked")
		return dto.StageSubmissionResponse{}, ErrStageLocked
	case existing.Stage != stage:
		return dto.StageSubmissionResponse{}, ErrNotEligible
	default:
		if err := s.submissions.SetStageAnswers(ctx, existing.ID, stage, req.Answers); err != nil {
			span.RecordError(err)
			return dto.StageSubmissionResponse{}, fmt.Errorf("store stage %d answers: %w", stage, err)
		}
		submissionID = existing.ID
	}

	s.countSubmission(stage, "accepted")
	response := dto.StageSubmissionResponse{SubmissionID: submissionID, Stage: stage}

	if s.queue != nil && hasAICalculated(fields) {
		job := EvaluationJob{SubmissionID: submissionID, UserEmail: email, Stage: stage}
		if err := s.queue.Enqueue(ctx, job); err != nil {
			s.logger.Warn().Err(err).Uint("submission_id", submissionID).Int("stage", stage).Msg("failed to queue ai evaluation")
		} else {
			response.EvaluationQueued = true
		}
	}

	return response, nil
}

// copyInvitationTags carries the invitee's provenance onto a new submission.
func (s *applicantService) copyInvitationTags(ctx context.Context, submission *models.Submission) {
	if s.invitees == nil {
		return
	}
	invitee, err := s.invitees.GetByEmail(ctx, submission.UserEmail)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn().Err(err).Str("email", maskEmail(submission.UserEmail)).Msg("invitee lookup failed")
		}
		return
	}
	submission.Channel = invitee.Channel
	submission.Note = invitee.Note
}

// ConfirmParticipation moves an applicant from the confirmation stage to the final stage.
func (s *applicantService) ConfirmParticipation(ctx context.Context, email string) error {
	submission, err := s.submissions.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotRegistered
		}
		return err
	}

	if submission.Stage == models.StageFinal {
		return nil
	}
	if submission.Stage != models.StageConfirmation {
		return ErrNotAwaitingConfirmation
	}

	moved, err := s.submissions.AdvanceStage(ctx, submission.ID, models.StageConfirmation, models.StageFinal)
	if err != nil {
		return err
	}
	if moved == 0 {
		return ErrNotAwaitingConfirmation
	}

	s.logger.Info().Uint("submission_id", submission.ID).Msg("participation confirmed")
	return nil
}

func (s *applicantService) GetStatus(ctx context.Context, email string) (dto.ApplicantStatusResponse, error) {
	email = normalizeEmail(email)

	portal, err := s.settings.GetPortalState(ctx)
	if err != nil {
		return dto.ApplicantStatusResponse{}, fmt.Errorf("load portal state: %w", err)
	}

	status := dto.ApplicantStatusResponse{
		Email:        email,
		ActiveStage:  portal.ActiveStage,
		PortalStatus: portal.Status,
		LockedStages: []int{},
	}

	submission, err := s.submissions.GetByEmail(ctx, email)
	switch {
	case err == nil:
		status.Registered = true
		status.Stage = submission.Stage
		for stage := models.StageFirst; stage <= models.StageLastScored; stage++ {
			if submission.HasStageAnswers(stage) {
				status.LockedStages = append(status.LockedStages, stage)
			}
		}
		sort.Ints(status.LockedStages)
		status.CanSubmit = portal.Accepts(submission.Stage) &&
			models.IsScoredStage(submission.Stage) &&
			!submission.HasStageAnswers(submission.Stage)
	case errors.Is(err, gorm.ErrRecordNotFound):
		status.CanSubmit = portal.Accepts(models.StageFirst)
	default:
		return dto.ApplicantStatusResponse{}, err
	}

	settings, err := s.settings.Get(ctx, portal.ActiveStage)
	if err == nil {
		status.Copy = &dto.StageCopy{
			WelcomeText:   settings.WelcomeText,
			SuccessText:   settings.SuccessText,
			AgreementText: settings.AgreementText,
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.ApplicantStatusResponse{}, err
	}

	return status, nil
}

func (s *applicantService) countSubmission(stage int, status string) {
	observability.StageSubmissions().WithLabelValues(strconv.Itoa(stage), status).Inc()
}

func missingRequired(fields []models.FormField, answers map[string]interface{}) []string {
	var missing []string
	for _, field := range fields {
		if !field.Required {
			continue
		}
		value, ok := answers[field.Name]
		if !ok || value == nil {
			missing = append(missing, field.Name)
			continue
		}
		if text, isText := value.(string); isText && strings.TrimSpace(text) == "" {
			missing = append(missing, field.Name)
		}
	}
	return missing
}

func hasAICalculated(fields []models.FormField) bool {
	for _, field := range fields {
		if field.IsAICalculated {
			return true
		}
	}
	return false
}
