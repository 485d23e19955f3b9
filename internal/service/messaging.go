package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/registration-api/internal/observability"
	"github.com/noah-isme/registration-api/pkg/email"
	"github.com/noah-isme/registration-api/pkg/whatsapp"
)

const (
	defaultBatchSize  = 50
	defaultBatchDelay = 2 * time.Second
)

// EmailSender delivers a single transactional email.
type EmailSender interface {
	Send(ctx context.Context, msg email.Message) error
}

// WhatsappSender delivers a single WhatsApp template message.
type WhatsappSender interface {
	Send(ctx context.Context, msg whatsapp.Message) error
}

// Recipient is one addressee of a bulk message run.
type Recipient struct {
	Name   string
	Email  string
	Phone  string
	Gender string
}

// Outreach is the message pair sent to one audience group.
type Outreach struct {
	EmailSubject     string
	EmailContent     string
	WhatsappTemplate string
	WhatsappImage    string
}

func (o Outreach) hasEmail() bool {
	return strings.TrimSpace(o.EmailSubject) != "" && strings.TrimSpace(o.EmailContent) != ""
}

func (o Outreach) hasWhatsapp() bool {
	return strings.TrimSpace(o.WhatsappTemplate) != ""
}

// Delivery reports what happened for one recipient.
type Delivery struct {
	EmailSent    bool
	WhatsappSent bool
	Errors       []string
}

// DispatchSummary aggregates a bulk run over one group.
type DispatchSummary struct {
	EmailsSent    int
	WhatsappsSent int
	Errors        []string
}

// SleepFunc pauses between batches and returns early when ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func contextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// DispatcherConfig tunes the provider rate limiting of bulk sends.
type DispatcherConfig struct {
	BatchSize  int
	BatchDelay time.Duration
	Sleep      SleepFunc
}

// MessageDispatcher sends email and WhatsApp messages to recipients one at a time, in fixed-size
// batches separated by a pause. Individual failures are collected, never returned.
type MessageDispatcher struct {
	email      EmailSender
	whatsapp   WhatsappSender
	batchSize  int
	batchDelay time.Duration
	sleep      SleepFunc
	logger     zerolog.Logger
}

// NewMessageDispatcher constructs a dispatcher. Nil senders behave as unconfigured providers.
func NewMessageDispatcher(emailSender EmailSender, whatsappSender WhatsappSender, cfg DispatcherConfig, logger zerolog.Logger) *MessageDispatcher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.BatchDelay < 0 {
		cfg.BatchDelay = defaultBatchDelay
	}
	if cfg.Sleep == nil {
		cfg.Sleep = contextSleep
	}

	return &MessageDispatcher{
		email:      emailSender,
		whatsapp:   whatsappSender,
		batchSize:  cfg.BatchSize,
		batchDelay: cfg.BatchDelay,
		sleep:      cfg.Sleep,
		logger:     logger.With().Str("component", "message_dispatcher").Logger(),
	}
}

// Dispatch walks recipients in order. onDelivered, when set, is called after each recipient.
func (d *MessageDispatcher) Dispatch(ctx context.Context, group string, recipients []Recipient, outreach Outreach, onDelivered func(index int, delivery Delivery)) DispatchSummary {
	summary := DispatchSummary{}

	for start := 0; start < len(recipients); start += d.batchSize {
		if start > 0 {
			if err := d.sleep(ctx, d.batchDelay); err != nil {
				summary.Errors = append(summary.Errors, fmt.Sprintf("[%s] dispatch interrupted after %d recipients: %v", group, start, err))
				return summary
			}
		}

		end := start + d.batchSize
		if end > len(recipients) {
			end = len(recipients)
		}

		for i := start; i < end; i++ {
			delivery := d.Deliver(ctx, group, recipients[i], outreach)
			if delivery.EmailSent {
				summary.EmailsSent++
			}
			if delivery.WhatsappSent {
				summary.WhatsappsSent++
			}
			summary.Errors = append(summary.Errors, delivery.Errors...)
			if onDelivered != nil {
				onDelivered(i, delivery)
			}
		}
	}

	return summary
}

// Deliver attempts the configured channels for a single recipient.
func (d *MessageDispatcher) Deliver(ctx context.Context, group string, recipient Recipient, outreach Outreach) Delivery {
	delivery := Delivery{}
	name := recipientLabel(recipient)

	if outreach.hasEmail() && strings.TrimSpace(recipient.Email) != "" {
		err := d.sendEmail(ctx, recipient, outreach)
		if err != nil {
			delivery.Errors = append(delivery.Errors, fmt.Sprintf("[%s] %s: email: %v", group, name, err))
			d.logger.Warn().Err(err).Str("group", group).Str("recipient", maskEmail(recipient.Email)).Msg("email delivery failed")
		} else {
			delivery.EmailSent = true
		}
		observability.MessagesSent().WithLabelValues("email", group, outcomeLabel(err)).Inc()
	}

	if outreach.hasWhatsapp() && strings.TrimSpace(recipient.Phone) != "" {
		err := d.sendWhatsapp(ctx, recipient, outreach)
		if err != nil {
			delivery.Errors = append(delivery.Errors, fmt.Sprintf("[%s] %s: whatsapp: %v", group, name, err))
			d.logger.Warn().Err(err).Str("group", group).Str("recipient", maskEmail(recipient.Email)).Msg("whatsapp delivery failed")
		} else {
			delivery.WhatsappSent = true
		}
		observability.MessagesSent().WithLabelValues("whatsapp", group, outcomeLabel(err)).Inc()
	}

	return delivery
}

func (d *MessageDispatcher) sendEmail(ctx context.Context, recipient Recipient, outreach Outreach) error {
	if d.email == nil {
		return email.ErrNotConfigured
	}
	return d.email.Send(ctx, email.Message{
		To:      recipient.Email,
		Subject: email.Personalize(outreach.EmailSubject, recipient.Name),
		Content: email.Personalize(outreach.EmailContent, recipient.Name),
	})
}

func (d *MessageDispatcher) sendWhatsapp(ctx context.Context, recipient Recipient, outreach Outreach) error {
	if d.whatsapp == nil {
		return whatsapp.ErrNotConfigured
	}
	return d.whatsapp.Send(ctx, whatsapp.Message{
		Phone:    recipient.Phone,
		Template: whatsapp.TemplateForGender(outreach.WhatsappTemplate, recipient.Gender),
		Name:     recipient.Name,
		Image:    outreach.WhatsappImage,
	})
}

func recipientLabel(recipient Recipient) string {
	if name := strings.TrimSpace(recipient.Name); name != "" {
		return name
	}
	if recipient.Email != "" {
		return recipient.Email
	}
	return "unknown recipient"
}

func outcomeLabel(err error) string {
	if err != nil {
		return "failed"
	}
	return "sent"
}

func maskEmail(address string) string {
	at := strings.LastIndex(address, "@")
	if at <= 0 {
		return "***"
	}
	local := address[:at]
	if len(local) <= 2 {
		return local[:1] + "***" + address[at:]
	}
	return local[:2] + "***" + address[at:]
}
