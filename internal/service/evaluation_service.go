package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
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
	"github.com/noah-isme/registration-api/internal/repository"
	"github.com/noah-isme/registration-api/pkg/ai"
)

var (
	// ErrInvalidStage indicates a stage outside the scored range.
	ErrInvalidStage = errors.New("stage must be between 1 and 3")
	// ErrEvaluatorUnavailable indicates no AI provider is configured.
	ErrEvaluatorUnavailable = errors.New("ai evaluation is not configured")
)

// EvaluationService scores the AI-calculated answers of a submission.
type EvaluationService interface {
	EvaluateSubmission(ctx context.Context, req dto.EvaluationRequest) (dto.EvaluationResponse, error)
}

type evaluationService struct {
	submissions repository.SubmissionRepository
	fields      repository.FormFieldRepository
	evaluator   ai.Evaluator
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewEvaluationService constructs the evaluation workflow.
func NewEvaluationService(submissions repository.SubmissionRepository, fields repository.FormFieldRepository, evaluator ai.Evaluator, validate *validator.Validate, logger zerolog.Logger) EvaluationService {
	return &evaluationService{
		submissions: submissions,
		fields:      fields,
		evaluator:   evaluator,
		validator:   validate,
		logger:      logger.With().Str("component", "evaluation_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/registration-api/internal/service/evaluation"),
		now:         time.Now,
	}
}

// EvaluateSubmission runs the evaluator over every AI-calculated field of the stage that has a
// non-empty answer and stores the results keyed by the field's question title. Provider failures
// are stored as failed evaluations rather than returned.
func (s *evaluationService) EvaluateSubmission(ctx context.Context, req dto.EvaluationRequest) (dto.EvaluationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.EvaluationResponse{}, err
	}

	stage := req.Stage
	if stage == 0 {
		stage = models.StageFirst
	}
	if !models.IsScoredStage(stage) {
		return dto.EvaluationResponse{}, ErrInvalidStage
	}
	if s.evaluator == nil {
		return dto.EvaluationResponse{}, ErrEvaluatorUnavailable
	}

	ctx, span := s.tracer.Start(ctx, "evaluations.submission", trace.WithAttributes(
		attribute.Int64("submission.id", int64(req.SubmissionID)),
		attribute.Int("submission.stage", stage),
	))
	defer span.End()

	submission, err := s.submissions.GetByID(ctx, req.SubmissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EvaluationResponse{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		return dto.EvaluationResponse{}, err
	}
	if !strings.EqualFold(submission.UserEmail, strings.TrimSpace(req.UserEmail)) {
		return dto.EvaluationResponse{}, ErrSubmissionNotFound
	}

	answers := req.FormData
	if len(answers) == 0 {
		answers = submission.StageAnswers(stage)
	}

	fields, err := s.fields.ListByStage(ctx, stage)
	if err != nil {
		span.RecordError(err)
		return dto.EvaluationResponse{}, fmt.Errorf("load stage %d fields: %w", stage, err)
	}

	evaluations := submission.StageEvaluations(stage)
	response := dto.EvaluationResponse{SubmissionID: submission.ID, Stage: stage, Evaluations: models.AIEvaluations{}}

	for _, field := range fields {
		if !field.IsAICalculated {
			continue
		}
		answer, ok := answers[field.Name].(string)
		if !ok || strings.TrimSpace(answer) == "" {
			continue
		}

		result := s.evaluator.Evaluate(ctx, promptSpecFor(field), answer)
		record := models.AIEvaluationRecord{
			FieldName:   field.Name,
			UserAnswer:  answer,
			Evaluation:  map[string]interface{}(result),
			EvaluatedAt: s.now().UTC(),
		}
		key := field.EvaluationKey()
		evaluations[key] = record
		response.Evaluations[key] = record
		response.Evaluated++
		if result.Failed() {
			response.Failed++
		}
	}

	if response.Evaluated == 0 {
		return response, nil
	}

	if err := s.submissions.SetStageEvaluations(ctx, submission.ID, stage, evaluations); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist evaluations")
		return dto.EvaluationResponse{}, fmt.Errorf("store stage %d evaluations: %w", stage, err)
	}

	s.logger.Info().
		Uint("submission_id", submission.ID).
		Int("stage", stage).
		Int("evaluated", response.Evaluated).
		Int("failed", response.Failed).
		Msg("submission evaluated")

	return response, nil
}

func promptSpecFor(field models.FormField) ai.PromptSpec {
	prompt := field.AIPrompt.Data()
	spec := ai.PromptSpec{
		Instruction: prompt.Instruction,
		Context:     prompt.Context,
		Examples:    prompt.Examples,
	}
	if prompt.Rubric != nil {
		spec.Rubric = &ai.Rubric{Headers: prompt.Rubric.Headers, Rows: prompt.Rubric.Rows}
	}
	if strings.TrimSpace(spec.Instruction) == "" {
		spec.Instruction = field.EvaluationKey()
	}
	return spec
}
