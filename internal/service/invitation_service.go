package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/registration-api/internal/dto"
	"github.com/noah-isme/registration-api/internal/models"
	"github.com/noah-isme/registration-api/internal/repository"
)

const groupInvitation = "invitation"

// ErrNothingToSend indicates an invitation run without any configured channel.
var ErrNothingToSend = errors.New("an email subject and content or a whatsapp template is required")

// InvitationService imports prospective applicants and invites them.
type InvitationService interface {
	Import(ctx context.Context, req dto.InviteeImportRequest) (dto.InviteeImportResponse, error)
	Send(ctx context.Context, req dto.InvitationSendRequest) (dto.InvitationSendResponse, error)
}

type invitationService struct {
	invitees   repository.InviteeRepository
	dispatcher *MessageDispatcher
	validator  *validator.Validate
	logger     zerolog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewInvitationService constructs the invitation workflow.
func NewInvitationService(invitees repository.InviteeRepository, dispatcher *MessageDispatcher, validate *validator.Validate, logger zerolog.Logger) InvitationService {
	return &invitationService{
		invitees:   invitees,
		dispatcher: dispatcher,
		validator:  validate,
		logger:     logger.With().Str("component", "invitation_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/registration-api/internal/service/invitation"),
		now:        time.Now,
	}
}

func (s *invitationService) Import(ctx context.Context, req dto.InviteeImportRequest) (dto.InviteeImportResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.InviteeImportResponse{}, err
	}

	invitees := make([]models.Invitee, 0, len(req.Invitees))
	seen := make(map[string]struct{}, len(req.Invitees))
	for _, input := range req.Invitees {
		email := normalizeEmail(input.Email)
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}
		invitees = append(invitees, models.Invitee{
			Name:    strings.TrimSpace(input.Name),
			Email:   email,
			Phone:   strings.TrimSpace(input.Phone),
			Gender:  strings.TrimSpace(input.Gender),
			Channel: strings.TrimSpace(input.Channel),
			Note:    strings.TrimSpace(input.Note),
		})
	}

	imported, err := s.invitees.UpsertBatch(ctx, invitees)
	if err != nil {
		return dto.InviteeImportResponse{}, err
	}

	s.logger.Info().Int("rows", len(invitees)).Int64("imported", imported).Msg("invitees imported")
	return dto.InviteeImportResponse{Imported: imported}, nil
}

// Send invites the selected invitees and records per-invitee delivery flags.
func (s *invitationService) Send(ctx context.Context, req dto.InvitationSendRequest) (dto.InvitationSendResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.InvitationSendResponse{}, err
	}

	outreach := Outreach{
		EmailSubject:     req.EmailSubject,
		EmailContent:     req.EmailContent,
		WhatsappTemplate: req.WhatsappTemplate,
		WhatsappImage:    req.WhatsappImage,
	}
	if !outreach.hasEmail() && !outreach.hasWhatsapp() {
		return dto.InvitationSendResponse{}, ErrNothingToSend
	}

	ctx, span := s.tracer.Start(ctx, "invitations.send")
	defer span.End()

	invitees, err := s.invitees.List(ctx, repository.InviteeFilter{
		IDs:         req.InviteeIDs,
		Channels:    req.Channels,
		OnlyPending: req.OnlyPending,
	})
	if err != nil {
		span.RecordError(err)
		return dto.InvitationSendResponse{}, err
	}

	recipients := make([]Recipient, 0, len(invitees))
	for _, invitee := range invitees {
		recipients = append(recipients, Recipient{
			Name:   invitee.Name,
			Email:  invitee.Email,
			Phone:  invitee.Phone,
			Gender: invitee.Gender,
		})
	}

	response := dto.InvitationSendResponse{Targeted: len(invitees), Errors: []string{}}
	summary := s.dispatcher.Dispatch(ctx, groupInvitation, recipients, outreach, func(index int, delivery Delivery) {
		if !delivery.EmailSent && !delivery.WhatsappSent {
			return
		}
		invitee := invitees[index]
		if err := s.invitees.MarkDelivered(ctx, invitee.ID, delivery.EmailSent, delivery.WhatsappSent, s.now().UTC()); err != nil {
			response.Errors = append(response.Errors, fmt.Sprintf("[%s] %s: record delivery: %v", groupInvitation, recipientLabel(recipients[index]), err))
			s.logger.Warn().Err(err).Uint("invitee_id", invitee.ID).Msg("failed to record invitation delivery")
		}
	})

	response.EmailsSent = summary.EmailsSent
	response.WhatsappsSent = summary.WhatsappsSent
	response.Errors = append(response.Errors, summary.Errors...)

	span.SetAttributes(
		attribute.Int("invitations.targeted", response.Targeted),
		attribute.Int("invitations.errors", len(response.Errors)),
	)
	s.logger.Info().
		Int("targeted", response.Targeted).
		Int("emails_sent", response.EmailsSent).
		Int("whatsapps_sent", response.WhatsappsSent).
		Int("errors", len(response.Errors)).
		Msg("invitations sent")

	return response, nil
}
