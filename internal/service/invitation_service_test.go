package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/registration-api/internal/dto"
	"github.com/noah-isme/registration-api/internal/models"
	"github.com/noah-isme/registration-api/internal/repository"
)

func TestInvitationServiceImportDeduplicates(t *testing.T) {
	db := setupServiceDB(t)
	dispatcher := newTestDispatcher(&recordingEmailSender{}, &recordingWhatsappSender{}, 10, &recordedSleep{})
	svc := NewInvitationService(repository.NewInviteeRepository(db), dispatcher, newValidator(), zerolog.Nop())

	resp, err := svc.Import(context.Background(), dto.InviteeImportRequest{Invitees: []dto.InviteeInput{
		{Name: "Huda", Email: "Huda@Example.com", Channel: "campus"},
		{Name: "Huda again", Email: "huda@example.com"},
		{Name: "Layla", Email: "layla@example.com", Phone: "0501234567"},
	}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Imported)

	var count int64
	require.NoError(t, db.Model(&models.Invitee{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	_, err = svc.Import(context.Background(), dto.InviteeImportRequest{Invitees: []dto.InviteeInput{{Name: "Bad", Email: "not-an-email"}}})
	assert.Error(t, err)
}

func TestInvitationServiceSendRecordsDeliveries(t *testing.T) {
	db := setupServiceDB(t)
	emails := &recordingEmailSender{failFor: map[string]bool{"broken@example.com": true}}
	whatsapps := &recordingWhatsappSender{}
	dispatcher := newTestDispatcher(emails, whatsapps, 10, &recordedSleep{})
	svc := NewInvitationService(repository.NewInviteeRepository(db), dispatcher, newValidator(), zerolog.Nop())

	ok := models.Invitee{Name: "Huda", Email: "huda@example.com", Phone: "0501234567"}
	broken := models.Invitee{Name: "Broken", Email: "broken@example.com"}
	require.NoError(t, db.Create(&ok).Error)
	require.NoError(t, db.Create(&broken).Error)

	resp, err := svc.Send(context.Background(), dto.InvitationSendRequest{
		EmailSubject:     "You are invited, {{name}}",
		EmailContent:     "Register now",
		WhatsappTemplate: "invitation",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Targeted)
	assert.Equal(t, 1, resp.EmailsSent)
	assert.Equal(t, 1, resp.WhatsappsSent)
	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0], "[invitation] Broken")

	var stored models.Invitee
	require.NoError(t, db.First(&stored, ok.ID).Error)
	assert.True(t, stored.EmailSent)
	assert.True(t, stored.WhatsappSent)
	assert.NotNil(t, stored.InvitedAt)

	var brokenStored models.Invitee
	require.NoError(t, db.First(&brokenStored, broken.ID).Error)
	assert.False(t, brokenStored.EmailSent)
	assert.Nil(t, brokenStored.InvitedAt)

	pending, err := svc.Send(context.Background(), dto.InvitationSendRequest{OnlyPending: true, WhatsappTemplate: "reminder"})
	require.NoError(t, err)
	assert.Equal(t, 1, pending.Targeted)
}

func TestInvitationServiceRequiresMessage(t *testing.T) {
	db := setupServiceDB(t)
	dispatcher := newTestDispatcher(&recordingEmailSender{}, &recordingWhatsappSender{}, 10, &recordedSleep{})
	svc := NewInvitationService(repository.NewInviteeRepository(db), dispatcher, newValidator(), zerolog.Nop())

	_, err := svc.Send(context.Background(), dto.InvitationSendRequest{EmailSubject: "Subject only"})
	assert.ErrorIs(t, err, ErrNothingToSend)
}
