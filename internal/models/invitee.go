package models

import "time"

// Invitee is a prospective applicant targeted by the invitation workflow.
type Invitee struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Name         string     `gorm:"size:255" json:"name"`
	Email        string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Phone        string     `gorm:"size:32" json:"phone"`
	Gender       string     `gorm:"size:16" json:"gender"`
	Channel      string     `gorm:"size:128;index" json:"channel"`
	Note         string     `gorm:"type:text" json:"note"`
	EmailSent    bool       `gorm:"not null;default:false" json:"email_sent"`
	WhatsappSent bool       `gorm:"not null;default:false" json:"whatsapp_sent"`
	InvitedAt    *time.Time `json:"invited_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
