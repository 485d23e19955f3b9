// Package whatsapp sends template messages through the WhatsApp Business gateway.
package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrNotConfigured indicates the gateway URL or credentials are missing.
	ErrNotConfigured = errors.New("whatsapp gateway is not configured")
	// ErrInvalidPhone indicates the recipient phone number is empty after normalisation.
	ErrInvalidPhone = errors.New("invalid phone number")
)

// Config holds gateway credentials.
type Config struct {
	BaseURL  string
	Token    string
	SenderID string
	Timeout  time.Duration
}

// Message is a single template message.
type Message struct {
	Phone      string
	Template   string
	Name       string
	Param2     string
	Image      string
	URLButton  string
	ButtonText string
}

// Client talks to the gateway over plain HTTP query strings.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     zerolog.Logger
}

// New constructs a gateway client. Missing credentials are reported per send, not here.
func New(cfg Config, logger zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.With().Str("component", "whatsapp").Logger(),
	}
}

// Send delivers a template message. A reply carrying an "error" key is a failure.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if c.cfg.BaseURL == "" || c.cfg.Token == "" || c.cfg.SenderID == "" {
		return ErrNotConfigured
	}

	phone := NormalizePhone(msg.Phone)
	if phone == "" {
		return ErrInvalidPhone
	}
	if strings.TrimSpace(msg.Template) == "" {
		return errors.New("whatsapp template is required")
	}

	endpoint, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("parse whatsapp url: %w", err)
	}

	query := endpoint.Query()
	query.Set("token", c.cfg.Token)
	query.Set("sender_id", c.cfg.SenderID)
	query.Set("phone", phone)
	query.Set("template", msg.Template)
	setIfPresent(query, "name", msg.Name)
	setIfPresent(query, "param_2", msg.Param2)
	setIfPresent(query, "image", msg.Image)
	setIfPresent(query, "url_button", msg.URLButton)
	setIfPresent(query, "button_text", msg.ButtonText)
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return fmt.Errorf("read whatsapp response: %w", err)
	}

	if gatewayErr := replyError(body); gatewayErr != "" {
		return fmt.Errorf("whatsapp gateway error: %s", gatewayErr)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("whatsapp gateway status %d: %s", resp.StatusCode, snippet(body))
	}

	c.logger.Debug().Str("template", msg.Template).Msg("whatsapp message sent")
	return nil
}

func replyError(body []byte) string {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	value, ok := payload["error"]
	if !ok || value == nil {
		return ""
	}
	if text, ok := value.(string); ok {
		return text
	}
	encoded, _ := json.Marshal(value)
	return string(encoded)
}

func setIfPresent(values url.Values, key, value string) {
	if strings.TrimSpace(value) != "" {
		values.Set(key, value)
	}
}

func snippet(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > 256 {
		return text[:256] + "..."
	}
	return text
}
