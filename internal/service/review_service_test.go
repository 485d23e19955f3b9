package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/registration-api/internal/dto"
	"github.com/noah-isme/registration-api/internal/models"
	"github.com/noah-isme/registration-api/internal/repository"
)

func weightedSelect(t *testing.T, db *gorm.DB, weight float64) models.FormField {
	t.Helper()
	field := models.FormField{
		Name:      "experience",
		Label:     "Experience",
		Type:      models.FieldTypeSelect,
		HasWeight: true,
		Options:   datatypes.JSONSlice[models.FieldOption]{{Value: "yes", Label: "Yes", Weight: &weight}},
		Stage:     1,
	}
	require.NoError(t, db.Create(&field).Error)
	return field
}

func newReviewFixture(t *testing.T) (*gorm.DB, *miniredis.Miniredis, ReviewService) {
	t.Helper()
	db := setupServiceDB(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	svc := NewReviewService(repository.NewSubmissionRepository(db), repository.NewFormFieldRepository(db), client, 0, zerolog.Nop())
	return db, mr, svc
}

func TestReviewServiceListComputesAndCachesScores(t *testing.T) {
	db, mr, svc := newReviewFixture(t)
	weightedSelect(t, db, 3)
	createSubmission(t, db, "a@example.com", 1, models.DecisionNominated, map[string]interface{}{"name": "Amal", "experience": "yes"})

	items, err := svc.List(context.Background(), dto.SubmissionListRequest{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Amal", items[0].Name)
	assert.Equal(t, "nominated", items[0].FilteringDecision)
	assert.Equal(t, 3.0, items[0].Scores.Stage1)
	assert.Equal(t, 3.0, items[0].Scores.Total)

	keys := mr.Keys()
	require.Len(t, keys, 1)
	require.NoError(t, mr.Set(keys[0], `{"stage_1":42,"stage_2":0,"stage_3":0,"total":42}`))

	cached, err := svc.List(context.Background(), dto.SubmissionListRequest{})
	require.NoError(t, err)
	assert.Equal(t, 42.0, cached[0].Scores.Total)
}

func TestReviewServiceRecomputesAfterSchemaChange(t *testing.T) {
	db, mr, svc := newReviewFixture(t)
	field := weightedSelect(t, db, 3)
	createSubmission(t, db, "a@example.com", 1, models.DecisionAuto, map[string]interface{}{"experience": "yes"})

	_, err := svc.List(context.Background(), dto.SubmissionListRequest{})
	require.NoError(t, err)

	heavier := 5.0
	field.Options = datatypes.JSONSlice[models.FieldOption]{{Value: "yes", Label: "Yes", Weight: &heavier}}
	require.NoError(t, db.Save(&field).Error)

	items, err := svc.List(context.Background(), dto.SubmissionListRequest{})
	require.NoError(t, err)
	assert.Equal(t, 5.0, items[0].Scores.Stage1)
	assert.Len(t, mr.Keys(), 2)
}

func TestReviewServiceFiltersAndValidates(t *testing.T) {
	db, _, svc := newReviewFixture(t)
	createSubmission(t, db, "a@example.com", 2, models.DecisionExclude, nil)
	createSubmission(t, db, "b@example.com", 2, models.DecisionAuto, nil)
	createSubmission(t, db, "c@example.com", 1, models.DecisionAuto, nil)

	stage := 2
	items, err := svc.List(context.Background(), dto.SubmissionListRequest{Stage: &stage, Decision: "auto"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "b@example.com", items[0].UserEmail)

	invalid := 9
	_, err = svc.List(context.Background(), dto.SubmissionListRequest{Stage: &invalid})
	assert.ErrorIs(t, err, ErrInvalidStage)

	_, err = svc.List(context.Background(), dto.SubmissionListRequest{Decision: "later"})
	assert.ErrorIs(t, err, ErrInvalidDecision)
}

func TestReviewServiceGetWithoutCache(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewReviewService(repository.NewSubmissionRepository(db), repository.NewFormFieldRepository(db), nil, 0, zerolog.Nop())
	submission := createSubmission(t, db, "a@example.com", 1, models.DecisionAuto, map[string]interface{}{"name": "Amal"})

	detail, err := svc.Get(context.Background(), submission.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", detail.UserEmail)
	assert.Equal(t, "Amal", detail.Answers["1"]["name"])

	_, err = svc.Get(context.Background(), 999)
	assert.ErrorIs(t, err, ErrSubmissionNotFound)
}
