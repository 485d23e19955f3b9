package dto

// ClosingSettings carries the post-stage messages for both outcome groups.
type ClosingSettings struct {
	PassedEmailSubject     string `json:"passedEmailSubject" validate:"omitempty,max=512"`
	PassedEmailContent     string `json:"passedEmailContent"`
	FailedEmailSubject     string `json:"failedEmailSubject" validate:"omitempty,max=512"`
	FailedEmailContent     string `json:"failedEmailContent"`
	PassedWhatsappTemplate string `json:"passedWhatsappTemplate" validate:"omitempty,max=128"`
	PassedWhatsappImage    string `json:"passedWhatsappImage" validate:"omitempty,url"`
	FailedWhatsappTemplate string `json:"failedWhatsappTemplate" validate:"omitempty,max=128"`
	FailedWhatsappImage    string `json:"failedWhatsappImage" validate:"omitempty,url"`
}

// TestRecipient receives test-mode messages in place of real applicants.
type TestRecipient struct {
	Name   string `json:"name" validate:"omitempty,max=255"`
	Email  string `json:"email" validate:"omitempty,email"`
	Phone  string `json:"phone" validate:"omitempty,max=32"`
	Gender string `json:"gender" validate:"omitempty,max=16"`
}

// StageCloseRequest is the body of the stage-closing endpoint.
type StageCloseRequest struct {
	Stage          int              `json:"stage" validate:"required,min=1,max=3"`
	Settings       *ClosingSettings `json:"settings"`
	TestMode       bool             `json:"testMode"`
	TestRecipients []TestRecipient  `json:"testRecipients" validate:"omitempty,dive"`
	Channels       []string         `json:"channels" validate:"omitempty,dive,required"`
}

// StageCloseResponse reports the outcome of a closing run, including partial failures.
type StageCloseResponse struct {
	Success            bool     `json:"success"`
	TotalEmailsSent    int      `json:"totalEmailsSent"`
	TotalWhatsappsSent int      `json:"totalWhatsappsSent"`
	NominatedCount     int      `json:"nominatedCount"`
	ExcludedCount      int      `json:"excludedCount"`
	AutoCount          int      `json:"autoCount"`
	Errors             []string `json:"errors"`
	PromotionErrors    []string `json:"promotionErrors"`
	MovedToNextStage   int      `json:"movedToNextStage"`
	TestMode           bool     `json:"testMode"`
}
