package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/registration-api/internal/models"
)

func setupRegistrationTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
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

func seedSubmission(t *testing.T, db *gorm.DB, email string, stage int, decision models.FilteringDecision, channel string) models.Submission {
	t.Helper()
	submission := models.Submission{
		UserEmail:         email,
		Stage:             stage,
		Data:              map[string]interface{}{"name": strings.Split(email, "@")[0]},
		FilteringDecision: decision,
		Channel:           channel,
	}
	require.NoError(t, db.Create(&submission).Error)
	return submission
}

func TestSubmissionRepositoryListFilters(t *testing.T) {
	db := setupRegistrationTestDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	seedSubmission(t, db, "a@example.com", 2, models.DecisionNominated, "school")
	seedSubmission(t, db, "b@example.com", 2, models.DecisionExclude, "social")
	seedSubmission(t, db, "c@example.com", 2, models.DecisionAuto, "school")
	seedSubmission(t, db, "d@example.com", 1, models.DecisionNominated, "school")

	stage := 2
	items, err := repo.List(ctx, SubmissionFilter{Stage: &stage})
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.Equal(t, "a@example.com", items[0].UserEmail)

	items, err = repo.List(ctx, SubmissionFilter{Stage: &stage, Channels: []string{"school"}})
	require.NoError(t, err)
	require.Len(t, items, 2)

	decision := models.DecisionAuto
	items, err = repo.List(ctx, SubmissionFilter{Decision: &decision})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "c@example.com", items[0].UserEmail)
}

func TestSubmissionRepositoryPromoteNominatedIsScoped(t *testing.T) {
	db := setupRegistrationTestDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	a := seedSubmission(t, db, "a@example.com", 2, models.DecisionNominated, "")
	b := seedSubmission(t, db, "b@example.com", 2, models.DecisionNominated, "")
	c := seedSubmission(t, db, "c@example.com", 2, models.DecisionExclude, "")

	// b was re-classified after the closing run read it
	require.NoError(t, repo.SetDecision(ctx, b.ID, models.DecisionExclude))

	affected, err := repo.PromoteNominated(ctx, 2, []string{a.UserEmail, b.UserEmail, c.UserEmail})
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)

	reloaded, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, 3, reloaded.Stage)

	reloaded, err = repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, 2, reloaded.Stage)

	affected, err = repo.PromoteNominated(ctx, 2, nil)
	require.NoError(t, err)
	require.Zero(t, affected)
}

func TestSubmissionRepositoryStageColumns(t *testing.T) {
	db := setupRegistrationTestDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	submission := seedSubmission(t, db, "a@example.com", 2, models.DecisionAuto, "")

	require.NoError(t, repo.SetStageAnswers(ctx, submission.ID, 2, map[string]interface{}{"q1": "yes"}))
	require.NoError(t, repo.SetStageEvaluations(ctx, submission.ID, 2, models.AIEvaluations{
		"Why?": {FieldName: "why", UserAnswer: "because", Evaluation: map[string]interface{}{"score": float64(10)}},
	}))

	reloaded, err := repo.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.Equal(t, "yes", reloaded.StageAnswers(2)["q1"])
	require.Equal(t, "because", reloaded.StageEvaluations(2)["Why?"].UserAnswer)
	require.Equal(t, "a", reloaded.StageAnswers(1)["name"])

	require.ErrorIs(t, repo.SetStageAnswers(ctx, 999, 2, map[string]interface{}{}), gorm.ErrRecordNotFound)
}

func TestSubmissionRepositoryDecisions(t *testing.T) {
	db := setupRegistrationTestDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	a := seedSubmission(t, db, "a@example.com", 1, models.DecisionAuto, "")
	b := seedSubmission(t, db, "b@example.com", 1, models.DecisionAuto, "")

	require.ErrorIs(t, repo.SetDecision(ctx, 404, models.DecisionNominated), gorm.ErrRecordNotFound)

	affected, err := repo.BulkSetDecision(ctx, []uint{a.ID, b.ID, 404}, models.DecisionExclude)
	require.NoError(t, err)
	require.Equal(t, int64(2), affected)

	reloaded, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, models.DecisionExclude, reloaded.Decision())
}

func TestSubmissionRepositoryAdvanceStage(t *testing.T) {
	db := setupRegistrationTestDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	submission := seedSubmission(t, db, "a@example.com", 4, models.DecisionAuto, "")

	affected, err := repo.AdvanceStage(ctx, submission.ID, 4, 5)
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)

	affected, err = repo.AdvanceStage(ctx, submission.ID, 4, 5)
	require.NoError(t, err)
	require.Zero(t, affected)
}

func TestFormFieldRepositoryOrdering(t *testing.T) {
	db := setupRegistrationTestDB(t)
	repo := NewFormFieldRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.FormField{Name: "b", Label: "B", Type: models.FieldTypeText, Stage: 1, DisplayOrder: 2}))
	require.NoError(t, repo.Create(ctx, &models.FormField{Name: "a", Label: "A", Type: models.FieldTypeText, Stage: 1, DisplayOrder: 1}))
	require.NoError(t, repo.Create(ctx, &models.FormField{Name: "a", Label: "A2", Type: models.FieldTypeText, Stage: 2}))
	require.Error(t, repo.Create(ctx, &models.FormField{Name: "a", Label: "dup", Type: models.FieldTypeText, Stage: 1}))

	fields, err := repo.ListByStage(ctx, 1)
	require.NoError(t, err)
	require.Len(t, fields, 2)
	require.Equal(t, "a", fields[0].Name)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, 2, all[2].Stage)

	require.NoError(t, repo.Delete(ctx, fields[0].ID))
	require.ErrorIs(t, repo.Delete(ctx, fields[0].ID), gorm.ErrRecordNotFound)
}

func TestStageSettingsRepositoryUpsertAndPortal(t *testing.T) {
	db := setupRegistrationTestDB(t)
	repo := NewStageSettingsRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.StageSettings{StageNumber: 2, WelcomeText: "hello"}))
	require.NoError(t, repo.Upsert(ctx, &models.StageSettings{StageNumber: 2, WelcomeText: "updated", PostPassed: models.MessageTemplate{EmailSubject: "Passed"}}))

	settings, err := repo.Get(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, "updated", settings.WelcomeText)
	require.Equal(t, "Passed", settings.PostPassed.EmailSubject)

	_, err = repo.Get(ctx, 3)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	state, err := repo.GetPortalState(ctx)
	require.NoError(t, err)
	require.True(t, state.Accepts(1))

	state.ActiveStage = 2
	state.Status = models.PortalStatusClosed
	require.NoError(t, repo.SavePortalState(ctx, &state))

	state, err = repo.GetPortalState(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, state.ActiveStage)
	require.False(t, state.Accepts(2))
}

func TestInviteeRepositoryUpsertAndDelivery(t *testing.T) {
	db := setupRegistrationTestDB(t)
	repo := NewInviteeRepository(db)
	ctx := context.Background()

	affected, err := repo.UpsertBatch(ctx, []models.Invitee{
		{Name: "Sara", Email: "sara@example.com", Channel: "school"},
		{Name: "Omar", Email: "omar@example.com", Channel: "social"},
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), affected)

	_, err = repo.UpsertBatch(ctx, []models.Invitee{{Name: "Sara A.", Email: "sara@example.com", Channel: "school"}})
	require.NoError(t, err)

	sara, err := repo.GetByEmail(ctx, "sara@example.com")
	require.NoError(t, err)
	require.Equal(t, "Sara A.", sara.Name)

	require.NoError(t, repo.MarkDelivered(ctx, sara.ID, true, false, time.Now()))

	pending, err := repo.List(ctx, InviteeFilter{OnlyPending: true})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "omar@example.com", pending[0].Email)

	school, err := repo.List(ctx, InviteeFilter{Channels: []string{"school"}})
	require.NoError(t, err)
	require.Len(t, school, 1)
	require.True(t, school[0].EmailSent)
	require.False(t, school[0].WhatsappSent)
}

func TestAdminRepositoryIsAdmin(t *testing.T) {
	db := setupRegistrationTestDB(t)
	repo := NewAdminRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.Admin{Email: "admin@example.com"}).Error)

	ok, err := repo.IsAdmin(ctx, " Admin@Example.com ")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.IsAdmin(ctx, "someone@example.com")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = repo.IsAdmin(ctx, "")
	require.NoError(t, err)
	require.False(t, ok)
}
