package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "registration",
		Subsystem: "ai",
		Name:      "evaluation_duration_seconds",
		Help:      "Duration of AI evaluation requests",
	}, []string{"model"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "registration",
		Subsystem: "ai",
		Name:      "evaluation_failures_total",
		Help:      "Number of failed AI evaluation attempts",
	}, []string{"model"})
)

// ChatClient is the subset of the OpenAI client used by the evaluator.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIConfig defines configuration options for the OpenAI evaluator.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	MaxAttempts int
	RetryDelay  time.Duration
	Logger      zerolog.Logger
}

// RubricEvaluator implements Evaluator against the OpenAI chat completion API.
type RubricEvaluator struct {
	client ChatClient
	cfg    OpenAIConfig
	shapes *shapeValidator
	tracer trace.Tracer
	logger zerolog.Logger
}

var _ Evaluator = (*RubricEvaluator)(nil)

// NewOpenAIEvaluator builds an evaluator backed by the OpenAI API.
func NewOpenAIEvaluator(cfg OpenAIConfig) (*RubricEvaluator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return NewRubricEvaluator(openai.NewClientWithConfig(config), cfg)
}

// NewRubricEvaluator builds an evaluator on top of an arbitrary chat client.
func NewRubricEvaluator(client ChatClient, cfg OpenAIConfig) (*RubricEvaluator, error) {
	if client == nil {
		return nil, errors.New("chat client is required")
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.1
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}

	shapes, err := newShapeValidator()
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &RubricEvaluator{
		client: client,
		cfg:    cfg,
		shapes: shapes,
		tracer: otel.Tracer("github.com/noah-isme/registration-api/pkg/ai/openai"),
		logger: logger.With().Str("component", "rubric_evaluator").Logger(),
	}, nil
}

// Evaluate scores an answer, retrying with linear backoff. After the last failed attempt it
// returns {score: 0, explanation, error: true}.
func (e *RubricEvaluator) Evaluate(parent context.Context, spec PromptSpec, answer string) Evaluation {
	ctx, span := e.tracer.Start(parent, "openai.evaluate", trace.WithAttributes(
		attribute.String("model", e.cfg.Model),
		attribute.Bool("evaluation.rubric", spec.HasRubric()),
	))
	defer span.End()

	request := openai.ChatCompletionRequest{
		Model:       e.cfg.Model,
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: BuildSystemPrompt(spec)},
			{Role: openai.ChatMessageRoleUser, Content: BuildUserPrompt(answer)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	var (
		evaluation Evaluation
		attempts   int
	)
	operation := func() error {
		attempts++
		result, err := e.complete(ctx, request, spec.HasRubric())
		if err != nil {
			aiFailures.WithLabelValues(e.cfg.Model).Inc()
			e.logger.Warn().Err(err).Int("attempt", attempts).Int("max_attempts", e.cfg.MaxAttempts).Msg("ai evaluation attempt failed")
			return err
		}
		evaluation = result
		return nil
	}

	policy := backoff.WithContext(retryPolicy(e.cfg.RetryDelay, e.cfg.MaxAttempts), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "evaluation failed")
		return Evaluation{
			"score":       float64(0),
			"explanation": fmt.Sprintf("evaluation failed after %d/%d attempts: %v", attempts, e.cfg.MaxAttempts, err),
			"error":       true,
		}
	}

	span.SetAttributes(attribute.Int("evaluation.attempts", attempts))
	return evaluation
}

func (e *RubricEvaluator) complete(ctx context.Context, request openai.ChatCompletionRequest, withRubric bool) (Evaluation, error) {
	start := time.Now()
	resp, err := e.client.CreateChatCompletion(ctx, request)
	aiDuration.WithLabelValues(e.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("openai evaluate: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("no choices returned from openai")
	}

	evaluation, err := ParseEvaluation(strings.TrimSpace(resp.Choices[0].Message.Content))
	if err != nil {
		return nil, err
	}

	if err := e.shapes.validate(evaluation, withRubric); err != nil {
		return nil, err
	}

	return evaluation, nil
}
