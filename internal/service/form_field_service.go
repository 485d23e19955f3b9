package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/registration-api/internal/dto"
	"github.com/noah-isme/registration-api/internal/models"
	"github.com/noah-isme/registration-api/internal/repository"
)

var (
	// ErrFormFieldNotFound indicates the field does not exist.
	ErrFormFieldNotFound = errors.New("form field not found")
	// ErrInvalidFieldType indicates an unsupported input type.
	ErrInvalidFieldType = errors.New("unsupported form field type")
	// ErrMissingAIInstruction indicates an AI-calculated field without a prompt instruction.
	ErrMissingAIInstruction = errors.New("ai-calculated fields require a prompt instruction")
)

// FormFieldService manages the per-stage form schema.
type FormFieldService interface {
	ListByStage(ctx context.Context, stage int) ([]dto.FormFieldResponse, error)
	PublicFields(ctx context.Context, stage int) ([]dto.PublicFormFieldResponse, error)
	Create(ctx context.Context, req dto.FormFieldRequest) (dto.FormFieldResponse, error)
	Update(ctx context.Context, id uint, req dto.FormFieldRequest) (dto.FormFieldResponse, error)
	Delete(ctx context.Context, id uint) error
}

type formFieldService struct {
	repo      repository.FormFieldRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewFormFieldService constructs the schema service.
func NewFormFieldService(repo repository.FormFieldRepository, validate *validator.Validate, logger zerolog.Logger) FormFieldService {
	return &formFieldService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "form_field_service").Logger(),
	}
}

func (s *formFieldService) ListByStage(ctx context.Context, stage int) ([]dto.FormFieldResponse, error) {
	if !models.IsScoredStage(stage) {
		return nil, ErrInvalidStage
	}
	fields, err := s.repo.ListByStage(ctx, stage)
	if err != nil {
		return nil, err
	}
	return dto.NewFormFieldResponses(fields), nil
}

func (s *formFieldService) PublicFields(ctx context.Context, stage int) ([]dto.PublicFormFieldResponse, error) {
	if !models.IsScoredStage(stage) {
		return nil, ErrInvalidStage
	}
	fields, err := s.repo.ListByStage(ctx, stage)
	if err != nil {
		return nil, err
	}
	return dto.NewPublicFormFieldResponses(fields), nil
}

func (s *formFieldService) Create(ctx context.Context, req dto.FormFieldRequest) (dto.FormFieldResponse, error) {
	if err := s.validate(req); err != nil {
		return dto.FormFieldResponse{}, err
	}

	field := models.FormField{}
	applyFieldRequest(&field, req)
	if err := s.repo.Create(ctx, &field); err != nil {
		return dto.FormFieldResponse{}, err
	}

	s.logger.Info().Uint("field_id", field.ID).Int("stage", field.Stage).Str("name", field.Name).Msg("form field created")
	return dto.NewFormFieldResponse(field), nil
}

func (s *formFieldService) Update(ctx context.Context, id uint, req dto.FormFieldRequest) (dto.FormFieldResponse, error) {
	if err := s.validate(req); err != nil {
		return dto.FormFieldResponse{}, err
	}

	field, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.FormFieldResponse{}, ErrFormFieldNotFound
		}
		return dto.FormFieldResponse{}, err
	}

	applyFieldRequest(&field, req)
	if err := s.repo.Update(ctx, &field); err != nil {
		return dto.FormFieldResponse{}, err
	}

	s.logger.Info().Uint("field_id", field.ID).Msg("form field updated")
	return dto.NewFormFieldResponse(field), nil
}

func (s *formFieldService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFormFieldNotFound
		}
		return err
	}
	return nil
}

func (s *formFieldService) validate(req dto.FormFieldRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return err
	}
	if !models.IsValidFieldType(req.Type) {
		return ErrInvalidFieldType
	}
	if req.IsAICalculated && (req.AIPrompt == nil || strings.TrimSpace(req.AIPrompt.Instruction) == "") {
		return ErrMissingAIInstruction
	}
	return nil
}

func applyFieldRequest(field *models.FormField, req dto.FormFieldRequest) {
	field.Name = strings.TrimSpace(req.Name)
	field.Label = strings.TrimSpace(req.Label)
	field.Type = req.Type
	field.Options = datatypes.JSONSlice[models.FieldOption](req.Options)
	field.HasWeight = req.HasWeight
	field.IsAICalculated = req.IsAICalculated
	field.QuestionTitle = strings.TrimSpace(req.QuestionTitle)
	field.DisplayOrder = req.DisplayOrder
	field.Required = req.Required
	field.Stage = req.Stage

	prompt := models.AIPrompt{}
	if req.AIPrompt != nil {
		prompt = *req.AIPrompt
	}
	field.AIPrompt = datatypes.NewJSONType(prompt)
}
