package service

import (
	"context"
	"errors"
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
	// ErrInvalidDecision indicates a decision outside auto, nominated and exclude.
	ErrInvalidDecision = errors.New("filtering decision must be one of auto, nominated, exclude")
	// ErrSubmissionNotFound indicates the submission does not exist.
	ErrSubmissionNotFound = errors.New("submission not found")
)

// FilteringService stores the admin classification of submissions.
type FilteringService interface {
	Set(ctx context.Context, id uint, req dto.DecisionUpdateRequest) error
	BulkSet(ctx context.Context, req dto.BulkDecisionRequest) (dto.BulkDecisionResponse, error)
}

type filteringService struct {
	submissions repository.SubmissionRepository
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewFilteringService constructs the decision store.
func NewFilteringService(submissions repository.SubmissionRepository, validate *validator.Validate, logger zerolog.Logger) FilteringService {
	return &filteringService{
		submissions: submissions,
		validator:   validate,
		logger:      logger.With().Str("component", "filtering_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/registration-api/internal/service/filtering"),
	}
}

func parseDecision(raw string) (models.FilteringDecision, error) {
	decision := models.FilteringDecision(strings.ToLower(strings.TrimSpace(raw)))
	if !decision.Valid() {
		return "", ErrInvalidDecision
	}
	return decision, nil
}

func (s *filteringService) Set(ctx context.Context, id uint, req dto.DecisionUpdateRequest) error {
	decision, err := parseDecision(req.Decision)
	if err != nil {
		return err
	}

	ctx, span := s.tracer.Start(ctx, "filtering.set", trace.WithAttributes(
		attribute.Int64("submission.id", int64(id)),
		attribute.String("submission.decision", string(decision)),
	))
	defer span.End()

	if err := s.submissions.SetDecision(ctx, id, decision); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubmissionNotFound
		}
		span.RecordError(err)
		return err
	}

	observability.DecisionUpdates().WithLabelValues(string(decision)).Inc()
	return nil
}

func (s *filteringService) BulkSet(ctx context.Context, req dto.BulkDecisionRequest) (dto.BulkDecisionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.BulkDecisionResponse{}, err
	}

	decision, err := parseDecision(req.Decision)
	if err != nil {
		return dto.BulkDecisionResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "filtering.bulk_set", trace.WithAttributes(
		attribute.Int("submission.count", len(req.IDs)),
		attribute.String("submission.decision", string(decision)),
	))
	defer span.End()

	updated, err := s.submissions.BulkSetDecision(ctx, req.IDs, decision)
	if err != nil {
		span.RecordError(err)
		return dto.BulkDecisionResponse{}, err
	}

	observability.DecisionUpdates().WithLabelValues(string(decision)).Add(float64(updated))
	s.logger.Info().Int("requested", len(req.IDs)).Int64("updated", updated).Str("decision", string(decision)).Msg("bulk decision applied")

	return dto.BulkDecisionResponse{Updated: updated, Decision: string(decision)}, nil
}
