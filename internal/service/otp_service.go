package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/registration-api/internal/dto"
	"github.com/noah-isme/registration-api/internal/observability"
	"github.com/noah-isme/registration-api/pkg/email"
)

const (
	// ApplicantRole is the role claim carried by applicant session tokens.
	ApplicantRole = "applicant"

	defaultOTPTTL     = 10 * time.Minute
	defaultSessionTTL = 72 * time.Hour
)

var (
	// ErrInvalidOTP indicates an unknown, expired, used or mismatched code.
	ErrInvalidOTP = errors.New("invalid or expired verification code")
	// ErrOTPDelivery indicates the code could not be emailed.
	ErrOTPDelivery = errors.New("failed to deliver verification code")
)

// OTPConfig tunes code and session lifetimes.
type OTPConfig struct {
	CodeTTL       time.Duration
	SessionTTL    time.Duration
	SessionSecret string
	Subject       string
}

// OTPService issues email one-time codes and exchanges them for applicant session tokens.
type OTPService interface {
	Request(ctx context.Context, req dto.OTPRequest) error
	Verify(ctx context.Context, req dto.OTPVerifyRequest) (dto.OTPVerifyResponse, error)
}

type otpService struct {
	store     OTPStore
	mailer    EmailSender
	cfg       OTPConfig
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
	generate  func() (string, error)
}

// NewOTPService constructs the OTP workflow.
func NewOTPService(store OTPStore, mailer EmailSender, cfg OTPConfig, validate *validator.Validate, logger zerolog.Logger) OTPService {
	if cfg.CodeTTL <= 0 {
		cfg.CodeTTL = defaultOTPTTL
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	if cfg.Subject == "" {
		cfg.Subject = "Your verification code"
	}
	return &otpService{
		store:     store,
		mailer:    mailer,
		cfg:       cfg,
		validator: validate,
		logger:    logger.With().Str("component", "otp_service").Logger(),
		now:       time.Now,
		generate:  generateCode,
	}
}

func (s *otpService) Request(ctx context.Context, req dto.OTPRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return err
	}

	address := normalizeEmail(req.Email)
	code, err := s.generate()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	if err := s.store.Put(ctx, address, code, s.cfg.CodeTTL); err != nil {
		observability.OTPRequests().WithLabelValues("request", "store_failed").Inc()
		return fmt.Errorf("store code: %w", err)
	}

	content := fmt.Sprintf("Your verification code is %s\nIt expires in %d minutes.", code, int(s.cfg.CodeTTL.Minutes()))
	if err := s.mailer.Send(ctx, email.Message{To: address, Subject: s.cfg.Subject, Content: content}); err != nil {
		observability.OTPRequests().WithLabelValues("request", "delivery_failed").Inc()
		s.logger.Warn().Err(err).Str("email", maskEmail(address)).Msg("failed to email verification code")
		return fmt.Errorf("%w: %v", ErrOTPDelivery, err)
	}

	observability.OTPRequests().WithLabelValues("request", "sent").Inc()
	return nil
}

// Verify consumes the stored code. A wrong guess also consumes it, so each code allows one attempt.
func (s *otpService) Verify(ctx context.Context, req dto.OTPVerifyRequest) (dto.OTPVerifyResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.OTPVerifyResponse{}, err
	}

	address := normalizeEmail(req.Email)
	stored, ok, err := s.store.TakeIfValid(ctx, address)
	if err != nil {
		return dto.OTPVerifyResponse{}, fmt.Errorf("read code: %w", err)
	}
	if !ok || subtle.ConstantTimeCompare([]byte(stored), []byte(req.Code)) != 1 {
		observability.OTPRequests().WithLabelValues("verify", "rejected").Inc()
		return dto.OTPVerifyResponse{}, ErrInvalidOTP
	}

	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.cfg.SessionTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   address,
		"email": address,
		"role":  ApplicantRole,
		"iat":   issuedAt.Unix(),
		"exp":   expiresAt.Unix(),
	})
	signed, err := token.SignedString([]byte(s.cfg.SessionSecret))
	if err != nil {
		return dto.OTPVerifyResponse{}, fmt.Errorf("sign session token: %w", err)
	}

	observability.OTPRequests().WithLabelValues("verify", "accepted").Inc()
	return dto.OTPVerifyResponse{Token: signed, ExpiresAt: expiresAt}, nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
