package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/registration-api/internal/models"
	"github.com/noah-isme/registration-api/pkg/ai"
	"github.com/noah-isme/registration-api/pkg/email"
	"github.com/noah-isme/registration-api/pkg/whatsapp"
)

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.FormField{},
		&models.Submission{},
		&models.Invitee{},
		&models.StageSettings{},
		&models.PortalState{},
		&models.Admin{},
	))
	return db
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func createSubmission(t *testing.T, db *gorm.DB, email string, stage int, decision models.FilteringDecision, data map[string]interface{}) models.Submission {
	t.Helper()
	submission := models.Submission{UserEmail: email, Stage: stage, Data: data, FilteringDecision: decision}
	require.NoError(t, db.Create(&submission).Error)
	return submission
}

type recordingEmailSender struct {
	mu       sync.Mutex
	messages []email.Message
	failFor  map[string]bool
}

func (r *recordingEmailSender) Send(_ context.Context, msg email.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFor[msg.To] {
		return errors.New("provider rejected recipient")
	}
	r.messages = append(r.messages, msg)
	return nil
}

func (r *recordingEmailSender) recipients() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.messages))
	for _, msg := range r.messages {
		out = append(out, msg.To)
	}
	return out
}

type recordingWhatsappSender struct {
	mu       sync.Mutex
	messages []whatsapp.Message
	err      error
}

func (r *recordingWhatsappSender) Send(_ context.Context, msg whatsapp.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.messages = append(r.messages, msg)
	return nil
}

type recordedSleep struct {
	calls []time.Duration
}

func (r *recordedSleep) sleep(_ context.Context, d time.Duration) error {
	r.calls = append(r.calls, d)
	return nil
}

func newTestDispatcher(emailSender EmailSender, whatsappSender WhatsappSender, batchSize int, sleeper *recordedSleep) *MessageDispatcher {
	return NewMessageDispatcher(emailSender, whatsappSender, DispatcherConfig{
		BatchSize:  batchSize,
		BatchDelay: 2 * time.Second,
		Sleep:      sleeper.sleep,
	}, zerolog.Nop())
}

type stubEvaluator struct {
	mu      sync.Mutex
	answers []string
	result  ai.Evaluation
}

func (s *stubEvaluator) Evaluate(_ context.Context, _ ai.PromptSpec, answer string) ai.Evaluation {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers = append(s.answers, answer)
	out := ai.Evaluation{}
	for k, v := range s.result {
		out[k] = v
	}
	return out
}

type recordingQueue struct {
	jobs []EvaluationJob
	err  error
}

func (q *recordingQueue) Enqueue(_ context.Context, job EvaluationJob) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}
