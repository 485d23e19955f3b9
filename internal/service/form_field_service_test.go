package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/registration-api/internal/dto"
	"github.com/noah-isme/registration-api/internal/models"
	"github.com/noah-isme/registration-api/internal/repository"
)

func newFormFieldTestService(t *testing.T) FormFieldService {
	t.Helper()
	db := setupServiceDB(t)
	return NewFormFieldService(repository.NewFormFieldRepository(db), newValidator(), zerolog.Nop())
}

func TestFormFieldServiceLifecycle(t *testing.T) {
	svc := newFormFieldTestService(t)
	ctx := context.Background()
	weight := 2.0

	created, err := svc.Create(ctx, dto.FormFieldRequest{
		Name:      " experience ",
		Label:     "Experience",
		Type:      models.FieldTypeRadio,
		HasWeight: true,
		Options:   []models.FieldOption{{Value: "yes", Label: "Yes", Weight: &weight}},
		Required:  true,
		Stage:     1,
	})
	require.NoError(t, err)
	assert.Equal(t, "experience", created.Name)
	assert.Nil(t, created.AIPrompt)

	public, err := svc.PublicFields(ctx, 1)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, []dto.PublicFieldOption{{Value: "yes", Label: "Yes"}}, public[0].Options)

	updated, err := svc.Update(ctx, created.ID, dto.FormFieldRequest{
		Name:           "experience",
		Label:          "Describe your experience",
		Type:           models.FieldTypeTextarea,
		IsAICalculated: true,
		AIPrompt:       &models.AIPrompt{Instruction: "Score relevance"},
		Stage:          1,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.AIPrompt)
	assert.Equal(t, "Score relevance", updated.AIPrompt.Instruction)

	admin, err := svc.ListByStage(ctx, 1)
	require.NoError(t, err)
	require.Len(t, admin, 1)
	assert.Equal(t, "Describe your experience", admin[0].Label)

	require.NoError(t, svc.Delete(ctx, created.ID))
	assert.ErrorIs(t, svc.Delete(ctx, created.ID), ErrFormFieldNotFound)
}

func TestFormFieldServiceValidation(t *testing.T) {
	svc := newFormFieldTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, dto.FormFieldRequest{Name: "x", Label: "X", Type: "checkbox", Stage: 1})
	assert.ErrorIs(t, err, ErrInvalidFieldType)

	_, err = svc.Create(ctx, dto.FormFieldRequest{Name: "essay", Label: "Essay", Type: models.FieldTypeTextarea, IsAICalculated: true, Stage: 2})
	assert.ErrorIs(t, err, ErrMissingAIInstruction)

	_, err = svc.Create(ctx, dto.FormFieldRequest{Name: "late", Label: "Late", Type: models.FieldTypeText, Stage: 4})
	assert.Error(t, err)

	_, err = svc.Update(ctx, 404, dto.FormFieldRequest{Name: "x", Label: "X", Type: models.FieldTypeText, Stage: 1})
	assert.ErrorIs(t, err, ErrFormFieldNotFound)

	_, err = svc.PublicFields(ctx, 5)
	assert.ErrorIs(t, err, ErrInvalidStage)
}
