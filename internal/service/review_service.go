package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/registration-api/internal/dto"
	"github.com/noah-isme/registration-api/internal/models"
	"github.com/noah-isme/registration-api/internal/observability"
	"github.com/noah-isme/registration-api/internal/repository"
	"github.com/noah-isme/registration-api/internal/scoring"
)

// ReviewService lists submissions with their scores computed from the current form schema.
type ReviewService interface {
	List(ctx context.Context, req dto.SubmissionListRequest) ([]dto.SubmissionSummary, error)
	Get(ctx context.Context, id uint) (dto.SubmissionDetail, error)
}

type reviewService struct {
	submissions repository.SubmissionRepository
	fields      repository.FormFieldRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewReviewService constructs the review service. cache may be nil.
func NewReviewService(submissions repository.SubmissionRepository, fields repository.FormFieldRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) ReviewService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &reviewService{
		submissions: submissions,
		fields:      fields,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "review_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/registration-api/internal/service/review"),
	}
}

func (s *reviewService) List(ctx context.Context, req dto.SubmissionListRequest) ([]dto.SubmissionSummary, error) {
	filter := repository.SubmissionFilter{Stage: req.Stage, Channels: req.Channels}
	if req.Stage != nil && (*req.Stage < models.StageFirst || *req.Stage > models.StageFinal) {
		return nil, ErrInvalidStage
	}
	if strings.TrimSpace(req.Decision) != "" {
		decision, err := parseDecision(req.Decision)
		if err != nil {
			return nil, err
		}
		filter.Decision = &decision
	}

	ctx, span := s.tracer.Start(ctx, "review.list")
	defer span.End()

	submissions, err := s.submissions.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	fields, err := s.fields.List(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	scores := s.scoresFor(ctx, submissions, fields)
	span.SetAttributes(attribute.Int("review.count", len(submissions)))

	items := make([]dto.SubmissionSummary, 0, len(submissions))
	for i, submission := range submissions {
		items = append(items, summaryOf(submission, scores[i]))
	}
	return items, nil
}

func (s *reviewService) Get(ctx context.Context, id uint) (dto.SubmissionDetail, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionDetail{}, ErrSubmissionNotFound
		}
		return dto.SubmissionDetail{}, err
	}

	fields, err := s.fields.List(ctx)
	if err != nil {
		return dto.SubmissionDetail{}, err
	}

	scores := s.scoresFor(ctx, []models.Submission{submission}, fields)
	return dto.NewSubmissionDetail(summaryOf(submission, scores[0]), submission), nil
}

// scoresFor computes scores, serving from the cache when the submission and the form schema are
// both unchanged since the entry was written.
func (s *reviewService) scoresFor(ctx context.Context, submissions []models.Submission, fields []models.FormField) []scoring.Scores {
	results := make([]scoring.Scores, len(submissions))
	if len(submissions) == 0 {
		return results
	}

	if s.cache == nil {
		for i, submission := range submissions {
			results[i] = scoring.Compute(submission, fields)
		}
		return results
	}

	fingerprint := fieldsFingerprint(fields)
	keys := make([]string, len(submissions))
	for i, submission := range submissions {
		keys[i] = scoreCacheKey(submission, fingerprint)
	}

	cached, err := s.cache.MGet(ctx, keys...).Result()
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read score cache")
		cached = make([]interface{}, len(keys))
	}

	pipe := s.cache.Pipeline()
	misses := 0
	for i, submission := range submissions {
		if raw, ok := cached[i].(string); ok {
			var scores scoring.Scores
			if err := json.Unmarshal([]byte(raw), &scores); err == nil {
				results[i] = scores
				observability.ScoreCacheRequests().WithLabelValues("hit").Inc()
				continue
			}
		}

		observability.ScoreCacheRequests().WithLabelValues("miss").Inc()
		results[i] = scoring.Compute(submission, fields)
		if payload, err := json.Marshal(results[i]); err == nil {
			pipe.Set(ctx, keys[i], payload, s.cacheTTL)
			misses++
		}
	}

	if misses > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("failed to store score cache")
		}
	}

	return results
}

func scoreCacheKey(submission models.Submission, fingerprint string) string {
	return fmt.Sprintf("scores:submission:%d:%d:%s", submission.ID, submission.UpdatedAt.UnixNano(), fingerprint)
}

// fieldsFingerprint changes whenever a field is added, removed or edited.
func fieldsFingerprint(fields []models.FormField) string {
	hash := sha256.New()
	for _, field := range fields {
		fmt.Fprintf(hash, "%d:%d:%d;", field.ID, field.Stage, field.UpdatedAt.UnixNano())
	}
	return hex.EncodeToString(hash.Sum(nil))[:16]
}

func summaryOf(submission models.Submission, scores scoring.Scores) dto.SubmissionSummary {
	recipient := recipientFromSubmission(submission)
	return dto.SubmissionSummary{
		ID:                submission.ID,
		UserEmail:         submission.UserEmail,
		Name:              recipient.Name,
		Phone:             recipient.Phone,
		Stage:             submission.Stage,
		FilteringDecision: string(submission.Decision()),
		Channel:           submission.Channel,
		Note:              submission.Note,
		Scores:            scores,
		CreatedAt:         submission.CreatedAt,
		UpdatedAt:         submission.UpdatedAt,
	}
}
