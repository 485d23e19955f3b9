package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/registration-api/internal/dto"
	"github.com/noah-isme/registration-api/internal/models"
	"github.com/noah-isme/registration-api/internal/repository"
)

// StageSettingsService manages stage copy, message templates and the portal gate.
type StageSettingsService interface {
	Get(ctx context.Context, stage int) (models.StageSettings, error)
	Save(ctx context.Context, stage int, req dto.StageSettingsRequest) (models.StageSettings, error)
	Portal(ctx context.Context) (models.PortalState, error)
	UpdatePortal(ctx context.Context, req dto.PortalStateRequest) (models.PortalState, error)
}

type stageSettingsService struct {
	repo      repository.StageSettingsRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewStageSettingsService constructs the settings service.
func NewStageSettingsService(repo repository.StageSettingsRepository, validate *validator.Validate, logger zerolog.Logger) StageSettingsService {
	return &stageSettingsService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "stage_settings_service").Logger(),
	}
}

// Get returns the stored settings; a stage without a row yields empty settings.
func (s *stageSettingsService) Get(ctx context.Context, stage int) (models.StageSettings, error) {
	if stage < models.StageFirst || stage > models.StageFinal {
		return models.StageSettings{}, ErrInvalidStage
	}
	settings, err := s.repo.Get(ctx, stage)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.StageSettings{StageNumber: stage}, nil
	}
	return settings, err
}

func (s *stageSettingsService) Save(ctx context.Context, stage int, req dto.StageSettingsRequest) (models.StageSettings, error) {
	if stage < models.StageFirst || stage > models.StageFinal {
		return models.StageSettings{}, ErrInvalidStage
	}
	if err := s.validator.Struct(req); err != nil {
		return models.StageSettings{}, err
	}

	settings := models.StageSettings{
		StageNumber:   stage,
		WelcomeText:   req.WelcomeText,
		SuccessText:   req.SuccessText,
		AgreementText: req.AgreementText,
		PrePassed:     req.PrePassed,
		PreFailed:     req.PreFailed,
		PostPassed:    req.PostPassed,
		PostFailed:    req.PostFailed,
	}
	if err := s.repo.Upsert(ctx, &settings); err != nil {
		return models.StageSettings{}, err
	}

	s.logger.Info().Int("stage", stage).Msg("stage settings saved")
	return s.repo.Get(ctx, stage)
}

func (s *stageSettingsService) Portal(ctx context.Context) (models.PortalState, error) {
	return s.repo.GetPortalState(ctx)
}

func (s *stageSettingsService) UpdatePortal(ctx context.Context, req dto.PortalStateRequest) (models.PortalState, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.PortalState{}, err
	}

	state := models.PortalState{ActiveStage: req.ActiveStage, Status: req.Status}
	if err := s.repo.SavePortalState(ctx, &state); err != nil {
		return models.PortalState{}, err
	}

	s.logger.Info().Int("active_stage", state.ActiveStage).Str("status", state.Status).Msg("portal state updated")
	return state, nil
}
