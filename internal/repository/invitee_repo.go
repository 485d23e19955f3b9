package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/registration-api/internal/models"
)

// InviteeFilter narrows invitee queries for the invitation workflow.
type InviteeFilter struct {
	IDs         []uint
	Channels    []string
	OnlyPending bool
}

// InviteeRepository stores the invitation audience.
type InviteeRepository interface {
	List(ctx context.Context, filter InviteeFilter) ([]models.Invitee, error)
	GetByEmail(ctx context.Context, email string) (models.Invitee, error)
	UpsertBatch(ctx context.Context, invitees []models.Invitee) (int64, error)
	MarkDelivered(ctx context.Context, id uint, emailSent, whatsappSent bool, at time.Time) error
}

type inviteeRepository struct {
	db *gorm.DB
}

// NewInviteeRepository constructs the repository implementation.
func NewInviteeRepository(db *gorm.DB) InviteeRepository {
	return &inviteeRepository{db: db}
}

func (r *inviteeRepository) List(ctx context.Context, filter InviteeFilter) ([]models.Invitee, error) {
	query := r.db.WithContext(ctx).Model(&models.Invitee{})

	if len(filter.IDs) > 0 {
		query = query.Where("id IN ?", filter.IDs)
	}
	if len(filter.Channels) > 0 {
		query = query.Where("channel IN ?", filter.Channels)
	}
	if filter.OnlyPending {
		query = query.Where("invited_at IS NULL")
	}

	var invitees []models.Invitee
	if err := query.Order("id ASC").Find(&invitees).Error; err != nil {
		return nil, err
	}
	return invitees, nil
}

func (r *inviteeRepository) GetByEmail(ctx context.Context, email string) (models.Invitee, error) {
	var invitee models.Invitee
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&invitee).Error; err != nil {
		return models.Invitee{}, err
	}
	return invitee, nil
}

func (r *inviteeRepository) UpsertBatch(ctx context.Context, invitees []models.Invitee) (int64, error) {
	if len(invitees) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "phone", "gender", "channel", "note", "updated_at"}),
	}).Create(&invitees)
	return result.RowsAffected, result.Error
}

// MarkDelivered records successful deliveries. Flags are only ever raised, never cleared.
func (r *inviteeRepository) MarkDelivered(ctx context.Context, id uint, emailSent, whatsappSent bool, at time.Time) error {
	updates := map[string]interface{}{"invited_at": at}
	if emailSent {
		updates["email_sent"] = true
	}
	if whatsappSent {
		updates["whatsapp_sent"] = true
	}

	result := r.db.WithContext(ctx).Model(&models.Invitee{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
