package dto

// InviteeInput is one row of an invitee import.
type InviteeInput struct {
	Name    string `json:"name" validate:"required,max=255"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"omitempty,max=32"`
	Gender  string `json:"gender" validate:"omitempty,max=16"`
	Channel string `json:"channel" validate:"omitempty,max=128"`
	Note    string `json:"note" validate:"omitempty,max=2000"`
}

// InviteeImportRequest upserts invitees by email.
type InviteeImportRequest struct {
	Invitees []InviteeInput `json:"invitees" validate:"required,min=1,dive"`
}

// InviteeImportResponse reports the import size.
type InviteeImportResponse struct {
	Imported int64 `json:"imported"`
}

// InvitationSendRequest selects invitees and the message to send them.
type InvitationSendRequest struct {
	InviteeIDs       []uint   `json:"invitee_ids"`
	Channels         []string `json:"channels" validate:"omitempty,dive,required"`
	OnlyPending      bool     `json:"only_pending"`
	EmailSubject     string   `json:"email_subject" validate:"omitempty,max=512"`
	EmailContent     string   `json:"email_content"`
	WhatsappTemplate string   `json:"whatsapp_template" validate:"omitempty,max=128"`
	WhatsappImage    string   `json:"whatsapp_image" validate:"omitempty,url"`
}

// InvitationSendResponse summarises an invitation run.
type InvitationSendResponse struct {
	Targeted      int      `json:"targeted"`
	EmailsSent    int      `json:"emails_sent"`
	WhatsappsSent int      `json:"whatsapps_sent"`
	Errors        []string `json:"errors"`
}
