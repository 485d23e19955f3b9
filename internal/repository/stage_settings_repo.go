package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/registration-api/internal/models"
)

const portalStateID = 1

// StageSettingsRepository stores per-stage copy and the portal gate.
type StageSettingsRepository interface {
	Get(ctx context.Context, stage int) (models.StageSettings, error)
	Upsert(ctx context.Context, settings *models.StageSettings) error
	GetPortalState(ctx context.Context) (models.PortalState, error)
	SavePortalState(ctx context.Context, state *models.PortalState) error
}

type stageSettingsRepository struct {
	db *gorm.DB
}

// NewStageSettingsRepository constructs the repository implementation.
func NewStageSettingsRepository(db *gorm.DB) StageSettingsRepository {
	return &stageSettingsRepository{db: db}
}

func (r *stageSettingsRepository) Get(ctx context.Context, stage int) (models.StageSettings, error) {
	var settings models.StageSettings
	if err := r.db.WithContext(ctx).Where("stage_number = ?", stage).First(&settings).Error; err != nil {
		return models.StageSettings{}, err
	}
	return settings, nil
}

func (r *stageSettingsRepository) Upsert(ctx context.Context, settings *models.StageSettings) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stage_number"}},
		UpdateAll: true,
	}).Create(settings).Error
}

// GetPortalState returns the single portal row, seeding it as stage 1 open when absent.
func (r *stageSettingsRepository) GetPortalState(ctx context.Context) (models.PortalState, error) {
	var state models.PortalState
	err := r.db.WithContext(ctx).First(&state, portalStateID).Error
	if err == nil {
		return state, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.PortalState{}, err
	}

	state = models.PortalState{ID: portalStateID, ActiveStage: models.StageFirst, Status: models.PortalStatusOpen}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&state).Error; err != nil {
		return models.PortalState{}, err
	}
	return state, nil
}

func (r *stageSettingsRepository) SavePortalState(ctx context.Context, state *models.PortalState) error {
	state.ID = portalStateID
	return r.db.WithContext(ctx).Save(state).Error
}
