package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/registration-api/internal/dto"
	"github.com/noah-isme/registration-api/pkg/email"
)

const otpTestSecret = "session-secret"

type otpFixture struct {
	mr      *miniredis.Miniredis
	mailer  *recordingEmailSender
	service *otpService
}

func newOTPFixture(t *testing.T) otpFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	mailer := &recordingEmailSender{failFor: map[string]bool{}}
	svc := NewOTPService(NewRedisOTPStore(client, ""), mailer, OTPConfig{
		CodeTTL:       5 * time.Minute,
		SessionTTL:    time.Hour,
		SessionSecret: otpTestSecret,
	}, newValidator(), zerolog.Nop()).(*otpService)
	svc.generate = func() (string, error) { return "123456", nil }
	svc.now = func() time.Time { return time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC) }

	return otpFixture{mr: mr, mailer: mailer, service: svc}
}

func TestOTPServiceIssuesSessionToken(t *testing.T) {
	fx := newOTPFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.service.Request(ctx, dto.OTPRequest{Email: "Applicant@Example.com"}))
	require.Len(t, fx.mailer.messages, 1)
	assert.Equal(t, "applicant@example.com", fx.mailer.messages[0].To)
	assert.True(t, strings.Contains(fx.mailer.messages[0].Content, "123456"))
	assert.True(t, fx.mr.Exists("otp:applicant@example.com"))

	resp, err := fx.service.Verify(ctx, dto.OTPVerifyRequest{Email: "applicant@example.com", Code: "123456"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 10, 10, 0, 0, 0, time.UTC), resp.ExpiresAt)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(resp.Token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(otpTestSecret), nil
	}, jwt.WithoutClaimsValidation())
	require.NoError(t, err)
	assert.Equal(t, "applicant@example.com", claims["email"])
	assert.Equal(t, ApplicantRole, claims["role"])

	_, err = fx.service.Verify(ctx, dto.OTPVerifyRequest{Email: "applicant@example.com", Code: "123456"})
	assert.ErrorIs(t, err, ErrInvalidOTP)
}

func TestOTPServiceWrongGuessConsumesCode(t *testing.T) {
	fx := newOTPFixture(t)
	ctx := context.Background()
	require.NoError(t, fx.service.Request(ctx, dto.OTPRequest{Email: "a@example.com"}))

	_, err := fx.service.Verify(ctx, dto.OTPVerifyRequest{Email: "a@example.com", Code: "000000"})
	assert.ErrorIs(t, err, ErrInvalidOTP)

	_, err = fx.service.Verify(ctx, dto.OTPVerifyRequest{Email: "a@example.com", Code: "123456"})
	assert.ErrorIs(t, err, ErrInvalidOTP)
}

func TestOTPServiceCodeExpires(t *testing.T) {
	fx := newOTPFixture(t)
	ctx := context.Background()
	require.NoError(t, fx.service.Request(ctx, dto.OTPRequest{Email: "a@example.com"}))

	fx.mr.FastForward(6 * time.Minute)

	_, err := fx.service.Verify(ctx, dto.OTPVerifyRequest{Email: "a@example.com", Code: "123456"})
	assert.ErrorIs(t, err, ErrInvalidOTP)
}

func TestOTPServiceDeliveryFailure(t *testing.T) {
	fx := newOTPFixture(t)
	fx.mailer.failFor["a@example.com"] = true

	err := fx.service.Request(context.Background(), dto.OTPRequest{Email: "a@example.com"})
	assert.ErrorIs(t, err, ErrOTPDelivery)

	_, err = fx.service.Verify(context.Background(), dto.OTPVerifyRequest{Email: "a@example.com", Code: "12345"})
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidOTP))
}

func TestOTPServiceUnconfiguredMailer(t *testing.T) {
	fx := newOTPFixture(t)
	fx.service.mailer = email.New(email.Config{}, zerolog.Nop())

	err := fx.service.Request(context.Background(), dto.OTPRequest{Email: "a@example.com"})
	assert.ErrorIs(t, err, ErrOTPDelivery)
}

func TestRedisOTPStoreUsesConfiguredPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()

	store := NewRedisOTPStore(client, "apply:codes")
	require.NoError(t, store.Put(ctx, "a@example.com", "654321", time.Minute))
	assert.True(t, mr.Exists("apply:codes:a@example.com"))
	assert.False(t, mr.Exists("otp:a@example.com"))

	value, ok, err := store.TakeIfValid(ctx, "a@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "654321", value)
	assert.False(t, mr.Exists("apply:codes:a@example.com"))
}
