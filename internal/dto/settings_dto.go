package dto

import "github.com/noah-isme/registration-api/internal/models"

// StageSettingsRequest replaces the copy and templates of a stage.
type StageSettingsRequest struct {
	WelcomeText   string                 `json:"welcome_text"`
	SuccessText   string                 `json:"success_text"`
	AgreementText string                 `json:"agreement_text"`
	PrePassed     models.MessageTemplate `json:"pre_passed"`
	PreFailed     models.MessageTemplate `json:"pre_failed"`
	PostPassed    models.MessageTemplate `json:"post_passed"`
	PostFailed    models.MessageTemplate `json:"post_failed"`
}

// PortalStateRequest moves the portal gate.
type PortalStateRequest struct {
	ActiveStage int    `json:"active_stage" validate:"required,min=1,max=5"`
	Status      string `json:"status" validate:"required,oneof=open closed"`
}
