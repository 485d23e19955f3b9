package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/registration-api/internal/dto"
	"github.com/noah-isme/registration-api/internal/observability"
)

const (
	evaluationQueueGroup     = "registration-evaluations"
	defaultEvaluationTimeout = 2 * time.Minute
	subscriptionDrainTimeout = 10 * time.Second
)

// ErrEvaluationQueueClosed is returned for jobs offered after Wait was called.
var ErrEvaluationQueueClosed = errors.New("evaluation queue is shutting down")

// EvaluationJob asks for the AI evaluation of one stored stage.
type EvaluationJob struct {
	SubmissionID uint      `json:"submission_id"`
	UserEmail    string    `json:"user_email"`
	Stage        int       `json:"stage"`
	QueuedAt     time.Time `json:"queued_at"`
}

// EvaluationQueue accepts evaluation jobs without waiting for them to finish.
type EvaluationQueue interface {
	Enqueue(ctx context.Context, job EvaluationJob) error
}

// EvaluationDispatcher publishes jobs on NATS and consumes them in a queue group. Without a
// broker connection jobs run on a detached goroutine in this process.
type EvaluationDispatcher struct {
	runner  EvaluationService
	nats    *nats.Conn
	subject string
	timeout time.Duration
	logger  zerolog.Logger

	mu      sync.Mutex
	closing bool
	sub     *nats.Subscription
	drained sync.Once
	wg      sync.WaitGroup
}

// NewEvaluationDispatcher constructs a dispatcher. natsConn may be nil.
func NewEvaluationDispatcher(runner EvaluationService, natsConn *nats.Conn, subjectBase string, timeout time.Duration, logger zerolog.Logger) *EvaluationDispatcher {
	subject := ""
	if subjectBase != "" {
		subject = strings.ReplaceAll(subjectBase, ":", ".") + ".evaluations"
	}
	if timeout <= 0 {
		timeout = defaultEvaluationTimeout
	}

	return &EvaluationDispatcher{
		runner:  runner,
		nats:    natsConn,
		subject: subject,
		timeout: timeout,
		logger:  logger.With().Str("component", "evaluation_dispatcher").Logger(),
	}
}

func (d *EvaluationDispatcher) brokered() bool {
	return d.nats != nil && d.subject != ""
}

// Enqueue hands the job to the broker, or to a local goroutine when no broker is configured.
func (d *EvaluationDispatcher) Enqueue(ctx context.Context, job EvaluationJob) error {
	if job.QueuedAt.IsZero() {
		job.QueuedAt = time.Now().UTC()
	}

	if d.brokered() {
		payload, err := json.Marshal(job)
		if err != nil {
			return err
		}
		if err := d.nats.Publish(d.subject, payload); err != nil {
			observability.EvaluationJobs().WithLabelValues("nats", "publish_failed").Inc()
			return err
		}
		observability.EvaluationJobs().WithLabelValues("nats", "queued").Inc()
		return nil
	}

	if !d.track() {
		return ErrEvaluationQueueClosed
	}
	go func() {
		defer d.wg.Done()
		d.run(job, "local")
	}()
	observability.EvaluationJobs().WithLabelValues("local", "queued").Inc()
	return nil
}

// Start subscribes the worker side of the queue; it is a no-op without a broker.
// Cancelling ctx drains the subscription.
func (d *EvaluationDispatcher) Start(ctx context.Context) {
	if !d.brokered() {
		return
	}

	sub, err := d.nats.QueueSubscribe(d.subject, evaluationQueueGroup, d.handleMessage)
	if err != nil {
		d.logger.Error().Err(err).Msg("failed to subscribe to nats evaluation subject")
		return
	}

	d.mu.Lock()
	d.sub = sub
	d.mu.Unlock()

	go func() {
		<-ctx.Done()
		d.drain()
	}()
}

func (d *EvaluationDispatcher) handleMessage(msg *nats.Msg) {
	var job EvaluationJob
	if err := json.Unmarshal(msg.Data, &job); err != nil {
		d.logger.Warn().Err(err).Msg("invalid evaluation job payload")
		observability.EvaluationJobs().WithLabelValues("nats", "invalid").Inc()
		return
	}
	if !d.track() {
		d.logger.Warn().Uint("submission_id", job.SubmissionID).Msg("evaluation job received during shutdown")
		observability.EvaluationJobs().WithLabelValues("nats", "dropped").Inc()
		return
	}
	defer d.wg.Done()
	d.run(job, "nats")
}

// track registers an in-flight job unless Wait has closed the dispatcher.
// Add and the closing check share the mutex so no Add can race with wg.Wait.
func (d *EvaluationDispatcher) track() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closing {
		return false
	}
	d.wg.Add(1)
	return true
}

// drain stops intake from NATS and blocks until buffered messages were handed to handleMessage.
func (d *EvaluationDispatcher) drain() {
	d.drained.Do(func() {
		d.mu.Lock()
		sub := d.sub
		d.mu.Unlock()
		if sub == nil {
			return
		}

		if err := sub.Drain(); err != nil {
			d.logger.Warn().Err(err).Msg("failed to drain evaluation nats subscription")
			return
		}
		deadline := time.Now().Add(subscriptionDrainTimeout)
		for sub.IsValid() && time.Now().Before(deadline) {
			time.Sleep(50 * time.Millisecond)
		}
	})
}

// Wait drains the subscription, refuses new jobs and blocks until in-flight jobs finish.
func (d *EvaluationDispatcher) Wait() {
	d.drain()

	d.mu.Lock()
	d.closing = true
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *EvaluationDispatcher) run(job EvaluationJob, transport string) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	result, err := d.runner.EvaluateSubmission(ctx, dto.EvaluationRequest{
		SubmissionID: job.SubmissionID,
		UserEmail:    job.UserEmail,
		Stage:        job.Stage,
	})
	if err != nil {
		observability.EvaluationJobs().WithLabelValues(transport, "failed").Inc()
		d.logger.Error().Err(err).Uint("submission_id", job.SubmissionID).Int("stage", job.Stage).Msg("evaluation job failed")
		return
	}

	observability.EvaluationJobs().WithLabelValues(transport, "completed").Inc()
	d.logger.Debug().
		Uint("submission_id", job.SubmissionID).
		Int("evaluated", result.Evaluated).
		Dur("queued_for", time.Since(job.QueuedAt)).
		Msg("evaluation job completed")
}
