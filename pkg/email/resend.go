// Package email sends transactional email through Resend.
package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

// ErrNotConfigured indicates the provider key is missing.
var ErrNotConfigured = errors.New("email provider is not configured")

// Config holds provider credentials and the fixed sender identity.
type Config struct {
	APIKey string
	From   string
	Brand  string
}

// Message is a single plain-text email; it is wrapped in the branded HTML layout on send.
type Message struct {
	To      string
	Subject string
	Content string
}

type emailsAPI interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// Client sends email through the Resend API.
type Client struct {
	emails emailsAPI
	cfg    Config
	logger zerolog.Logger
}

// New constructs a Resend-backed client.
func New(cfg Config, logger zerolog.Logger) *Client {
	var emails emailsAPI
	if strings.TrimSpace(cfg.APIKey) != "" {
		emails = resend.NewClient(cfg.APIKey).Emails
	}
	return newClient(emails, cfg, logger)
}

func newClient(emails emailsAPI, cfg Config, logger zerolog.Logger) *Client {
	if cfg.Brand == "" {
		cfg.Brand = "Registration"
	}
	return &Client{
		emails: emails,
		cfg:    cfg,
		logger: logger.With().Str("component", "email").Logger(),
	}
}

// Send renders and delivers a message.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if c.emails == nil || c.cfg.From == "" {
		return ErrNotConfigured
	}

	to := strings.TrimSpace(msg.To)
	if to == "" {
		return errors.New("email recipient is required")
	}

	html, err := RenderHTML(c.cfg.Brand, msg.Subject, msg.Content)
	if err != nil {
		return fmt.Errorf("render email: %w", err)
	}

	sent, err := c.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    c.cfg.From,
		To:      []string{to},
		Subject: msg.Subject,
		Html:    html,
	})
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	c.logger.Debug().Str("message_id", sent.Id).Msg("email sent")
	return nil
}
