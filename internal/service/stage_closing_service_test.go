package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/registration-api/internal/dto"
	"github.com/noah-isme/registration-api/internal/models"
	"github.com/noah-isme/registration-api/internal/repository"
)

func closingSettings() *dto.ClosingSettings {
	return &dto.ClosingSettings{
		PassedEmailSubject:     "Congratulations {{name}}",
		PassedEmailContent:     "You passed the stage.",
		PassedWhatsappTemplate: "stage_passed",
		FailedEmailSubject:     "Thank you {{name}}",
		FailedEmailContent:     "We will not continue this time.",
		FailedWhatsappTemplate: "stage_failed",
	}
}

func applicantAnswers(name, phone string) map[string]interface{} {
	return map[string]interface{}{"name": name, "phone": phone, "gender": "female"}
}

type closingFixture struct {
	db        *gorm.DB
	service   StageClosingService
	emails    *recordingEmailSender
	whatsapps *recordingWhatsappSender
	sleeper   *recordedSleep
	settings  repository.StageSettingsRepository
}

func newClosingFixture(t *testing.T, batchSize int) closingFixture {
	t.Helper()
	db := setupServiceDB(t)
	emails := &recordingEmailSender{failFor: map[string]bool{}}
	whatsapps := &recordingWhatsappSender{}
	sleeper := &recordedSleep{}
	settings := repository.NewStageSettingsRepository(db)
	dispatcher := newTestDispatcher(emails, whatsapps, batchSize, sleeper)
	service := NewStageClosingService(repository.NewSubmissionRepository(db), settings, dispatcher, newValidator(), zerolog.Nop())
	return closingFixture{db: db, service: service, emails: emails, whatsapps: whatsapps, sleeper: sleeper, settings: settings}
}

func stageOf(t *testing.T, db *gorm.DB, id uint) int {
	t.Helper()
	var submission models.Submission
	require.NoError(t, db.First(&submission, id).Error)
	return submission.Stage
}

func TestStageClosingServiceMessagesAndPromotesByDecision(t *testing.T) {
	fx := newClosingFixture(t, 50)
	a := createSubmission(t, fx.db, "a@example.com", 2, models.DecisionNominated, applicantAnswers("Amal", "0501111111"))
	b := createSubmission(t, fx.db, "b@example.com", 2, models.DecisionExclude, applicantAnswers("Basma", "0502222222"))
	c := createSubmission(t, fx.db, "c@example.com", 2, models.DecisionAuto, applicantAnswers("China", "0503333333"))

	resp, err := fx.service.CloseStage(context.Background(), dto.StageCloseRequest{
		Stage:    2,
		Settings: closingSettings(),
		Channels: []string{},
	})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.False(t, resp.TestMode)
	assert.Equal(t, 1, resp.NominatedCount)
	assert.Equal(t, 1, resp.ExcludedCount)
	assert.Equal(t, 1, resp.AutoCount)
	assert.Equal(t, 2, resp.TotalEmailsSent)
	assert.Equal(t, 2, resp.TotalWhatsappsSent)
	assert.Equal(t, 1, resp.MovedToNextStage)
	assert.Empty(t, resp.Errors)
	assert.Empty(t, resp.PromotionErrors)

	assert.ElementsMatch(t, []string{"a@example.com", "b@example.com"}, fx.emails.recipients())
	assert.NotContains(t, fx.emails.recipients(), "c@example.com")
	require.Len(t, fx.emails.messages, 2)
	assert.Equal(t, "Congratulations Amal", fx.emails.messages[0].Subject)
	assert.Equal(t, "Thank you Basma", fx.emails.messages[1].Subject)

	require.Len(t, fx.whatsapps.messages, 2)
	assert.Equal(t, "0501111111", fx.whatsapps.messages[0].Phone)
	assert.Equal(t, "0502222222", fx.whatsapps.messages[1].Phone)

	assert.Equal(t, 3, stageOf(t, fx.db, a.ID))
	assert.Equal(t, 2, stageOf(t, fx.db, b.ID))
	assert.Equal(t, 2, stageOf(t, fx.db, c.ID))
}

func TestStageClosingServiceContinuesAfterSendFailure(t *testing.T) {
	fx := newClosingFixture(t, 50)
	createSubmission(t, fx.db, "first@example.com", 1, models.DecisionNominated, applicantAnswers("First", ""))
	createSubmission(t, fx.db, "second@example.com", 1, models.DecisionNominated, applicantAnswers("Second", ""))
	createSubmission(t, fx.db, "third@example.com", 1, models.DecisionNominated, applicantAnswers("Third", ""))
	fx.emails.failFor["second@example.com"] = true

	resp, err := fx.service.CloseStage(context.Background(), dto.StageCloseRequest{Stage: 1, Settings: closingSettings()})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.TotalEmailsSent)
	assert.Equal(t, 0, resp.TotalWhatsappsSent)
	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0], "[nominated]")
	assert.Contains(t, resp.Errors[0], "Second")
	assert.ElementsMatch(t, []string{"first@example.com", "third@example.com"}, fx.emails.recipients())
	assert.Equal(t, 3, resp.MovedToNextStage)
}

func TestStageClosingServicePausesBetweenBatches(t *testing.T) {
	fx := newClosingFixture(t, 2)
	for _, address := range []string{"n1@example.com", "n2@example.com", "n3@example.com", "n4@example.com", "n5@example.com"} {
		createSubmission(t, fx.db, address, 1, models.DecisionNominated, applicantAnswers("Nominee", ""))
	}

	resp, err := fx.service.CloseStage(context.Background(), dto.StageCloseRequest{Stage: 1, Settings: closingSettings()})
	require.NoError(t, err)

	assert.Equal(t, 5, resp.TotalEmailsSent)
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, fx.sleeper.calls)
}

func TestStageClosingServiceTestModeSendsBothOutcomesWithoutPromotion(t *testing.T) {
	fx := newClosingFixture(t, 50)
	nominee := createSubmission(t, fx.db, "nominee@example.com", 1, models.DecisionNominated, applicantAnswers("Nominee", ""))

	resp, err := fx.service.CloseStage(context.Background(), dto.StageCloseRequest{
		Stage:    1,
		Settings: closingSettings(),
		TestMode: true,
		TestRecipients: []dto.TestRecipient{
			{Name: "Reviewer", Email: "reviewer@example.com", Phone: "0509999999"},
		},
	})
	require.NoError(t, err)

	assert.True(t, resp.TestMode)
	assert.Equal(t, 2, resp.TotalEmailsSent)
	assert.Equal(t, 2, resp.TotalWhatsappsSent)
	assert.Equal(t, 0, resp.MovedToNextStage)
	assert.Equal(t, 1, resp.NominatedCount)
	assert.Equal(t, []string{"reviewer@example.com", "reviewer@example.com"}, fx.emails.recipients())
	assert.Equal(t, 1, stageOf(t, fx.db, nominee.ID))
}

func TestStageClosingServiceFallsBackToStoredTemplates(t *testing.T) {
	fx := newClosingFixture(t, 50)
	require.NoError(t, fx.settings.Upsert(context.Background(), &models.StageSettings{
		StageNumber: 3,
		PostPassed:  models.MessageTemplate{EmailSubject: "Final pass", EmailContent: "Welcome aboard"},
		PostFailed:  models.MessageTemplate{EmailSubject: "Final result", EmailContent: "Thanks"},
	}))
	nominee := createSubmission(t, fx.db, "finalist@example.com", 3, models.DecisionNominated, applicantAnswers("Finalist", ""))

	resp, err := fx.service.CloseStage(context.Background(), dto.StageCloseRequest{Stage: 3})
	require.NoError(t, err)

	require.Len(t, fx.emails.messages, 1)
	assert.Equal(t, "Final pass", fx.emails.messages[0].Subject)
	assert.Equal(t, 0, resp.MovedToNextStage)
	assert.Equal(t, 3, stageOf(t, fx.db, nominee.ID))
}

func TestStageClosingServiceFiltersByChannel(t *testing.T) {
	fx := newClosingFixture(t, 50)
	tagged := createSubmission(t, fx.db, "tagged@example.com", 1, models.DecisionNominated, applicantAnswers("Tagged", ""))
	require.NoError(t, fx.db.Model(&tagged).Update("channel", "campus").Error)
	createSubmission(t, fx.db, "other@example.com", 1, models.DecisionNominated, applicantAnswers("Other", ""))

	resp, err := fx.service.CloseStage(context.Background(), dto.StageCloseRequest{Stage: 1, Settings: closingSettings(), Channels: []string{"campus"}})
	require.NoError(t, err)

	assert.Equal(t, 1, resp.NominatedCount)
	assert.Equal(t, []string{"tagged@example.com"}, fx.emails.recipients())
}

func TestStageClosingServiceRejectsEmptyStage(t *testing.T) {
	fx := newClosingFixture(t, 50)

	_, err := fx.service.CloseStage(context.Background(), dto.StageCloseRequest{Stage: 2, Settings: closingSettings()})
	assert.True(t, errors.Is(err, ErrNoSubmissions))
}

func TestStageClosingServiceValidatesStage(t *testing.T) {
	fx := newClosingFixture(t, 50)

	_, err := fx.service.CloseStage(context.Background(), dto.StageCloseRequest{Stage: 4})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoSubmissions))
}
