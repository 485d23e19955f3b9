package models

import "time"

// Portal gate states.
const (
	PortalStatusOpen   = "open"
	PortalStatusClosed = "closed"
)

// MessageTemplate is an email plus WhatsApp template pair sent for one outcome.
type MessageTemplate struct {
	EmailSubject     string `gorm:"size:512" json:"email_subject"`
	EmailContent     string `gorm:"type:text" json:"email_content"`
	WhatsappTemplate string `gorm:"size:128" json:"whatsapp_template"`
	WhatsappImage    string `gorm:"size:1024" json:"whatsapp_image"`
}

// StageSettings holds per-stage copy and messaging templates.
type StageSettings struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	StageNumber   int             `gorm:"uniqueIndex;not null" json:"stage_number"`
	WelcomeText   string          `gorm:"type:text" json:"welcome_text"`
	SuccessText   string          `gorm:"type:text" json:"success_text"`
	AgreementText string          `gorm:"type:text" json:"agreement_text"`
	PrePassed     MessageTemplate `gorm:"embedded;embeddedPrefix:pre_passed_" json:"pre_passed"`
	PreFailed     MessageTemplate `gorm:"embedded;embeddedPrefix:pre_failed_" json:"pre_failed"`
	PostPassed    MessageTemplate `gorm:"embedded;embeddedPrefix:post_passed_" json:"post_passed"`
	PostFailed    MessageTemplate `gorm:"embedded;embeddedPrefix:post_failed_" json:"post_failed"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// PortalState is the single-row pointer to the stage currently accepting submissions.
type PortalState struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ActiveStage int       `gorm:"not null;default:1" json:"active_stage"`
	Status      string    `gorm:"size:16;not null;default:open" json:"status"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Accepts reports whether the portal currently accepts answers for stage.
func (p PortalState) Accepts(stage int) bool {
	return p.Status == PortalStatusOpen && p.ActiveStage == stage
}

// Admin grants dashboard access to an authenticated email.
type Admin struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
