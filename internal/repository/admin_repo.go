package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/registration-api/internal/models"
)

// AdminRepository answers dashboard membership questions.
type AdminRepository interface {
	IsAdmin(ctx context.Context, email string) (bool, error)
}

type adminRepository struct {
	db *gorm.DB
}

// NewAdminRepository constructs the repository implementation.
func NewAdminRepository(db *gorm.DB) AdminRepository {
	return &adminRepository{db: db}
}

func (r *adminRepository) IsAdmin(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false, nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Admin{}).Where("LOWER(email) = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
