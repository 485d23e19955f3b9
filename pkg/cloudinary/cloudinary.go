// Package cloudinary stores WhatsApp template images on Cloudinary.
package cloudinary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
)

// ErrMissingCredentials indicates the account credentials are incomplete.
var ErrMissingCredentials = errors.New("cloudinary credentials must be provided")

// Config contains credentials required to talk to Cloudinary.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Enabled reports whether every credential is present.
func (c Config) Enabled() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// ImageStore uploads images and returns their public HTTPS URL.
type ImageStore struct {
	client *cloudinary.Cloudinary
	folder string
	tags   []string
	now    func() time.Time
	logger zerolog.Logger
}

// New constructs a Cloudinary-backed image store.
func New(cfg Config, logger zerolog.Logger) (*ImageStore, error) {
	if !cfg.Enabled() {
		return nil, ErrMissingCredentials
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &ImageStore{
		client: cld,
		folder: strings.Trim(cfg.Folder, "/"),
		tags:   []string{"whatsapp-template"},
		now:    time.Now,
		logger: logger.With().Str("component", "cloudinary").Logger(),
	}, nil
}

// Upload stores the image under a unique public id and returns its secure URL.
func (s *ImageStore) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	params := uploader.UploadParams{
		Folder:       s.folder,
		PublicID:     PublicID(name, s.now()),
		ResourceType: "image",
		Tags:         s.tags,
	}

	result, err := s.client.Upload.Upload(ctx, reader, params)
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("cloudinary rejected image: %s", result.Error.Message)
	}

	s.logger.Info().Str("public_id", result.PublicID).Int("bytes", result.Bytes).Msg("image uploaded to cloudinary")
	return result.SecureURL, nil
}

// PublicID derives a URL-safe, timestamped id from a file name.
func PublicID(name string, at time.Time) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, base)

	base = strings.Trim(base, "-")
	if base == "" {
		base = "image"
	}

	return fmt.Sprintf("%s-%d", base, at.Unix())
}
