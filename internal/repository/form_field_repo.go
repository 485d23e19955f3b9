package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/registration-api/internal/models"
)

// FormFieldRepository persists the per-stage form schema.
type FormFieldRepository interface {
	List(ctx context.Context) ([]models.FormField, error)
	ListByStage(ctx context.Context, stage int) ([]models.FormField, error)
	GetByID(ctx context.Context, id uint) (models.FormField, error)
	Create(ctx context.Context, field *models.FormField) error
	Update(ctx context.Context, field *models.FormField) error
	Delete(ctx context.Context, id uint) error
}

type formFieldRepository struct {
	db *gorm.DB
}

// NewFormFieldRepository constructs the repository implementation.
func NewFormFieldRepository(db *gorm.DB) FormFieldRepository {
	return &formFieldRepository{db: db}
}

func (r *formFieldRepository) List(ctx context.Context) ([]models.FormField, error) {
	var fields []models.FormField
	err := r.db.WithContext(ctx).
		Order("stage ASC").
		Order("display_order ASC").
		Order("id ASC").
		Find(&fields).Error
	return fields, err
}

func (r *formFieldRepository) ListByStage(ctx context.Context, stage int) ([]models.FormField, error) {
	var fields []models.FormField
	err := r.db.WithContext(ctx).
		Where("stage = ?", stage).
		Order("display_order ASC").
		Order("id ASC").
		Find(&fields).Error
	return fields, err
}

func (r *formFieldRepository) GetByID(ctx context.Context, id uint) (models.FormField, error) {
	var field models.FormField
	if err := r.db.WithContext(ctx).First(&field, id).Error; err != nil {
		return models.FormField{}, err
	}
	return field, nil
}

func (r *formFieldRepository) Create(ctx context.Context, field *models.FormField) error {
	return r.db.WithContext(ctx).Create(field).Error
}

func (r *formFieldRepository) Update(ctx context.Context, field *models.FormField) error {
	return r.db.WithContext(ctx).Save(field).Error
}

func (r *formFieldRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.FormField{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
