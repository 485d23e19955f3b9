package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/registration-api/internal/utils"
)

const (
	localsAuthEmail = "auth_email"
	localsAuthRole  = "auth_role"
)

var (
	// ErrMissingToken indicates the request carried no bearer token.
	ErrMissingToken = errors.New("authorization header missing")
	// ErrInvalidToken indicates the bearer token failed verification.
	ErrInvalidToken = errors.New("invalid token")
	// ErrNotAdmin indicates a valid token whose email is not an administrator.
	ErrNotAdmin = errors.New("not authorized")
)

// AdminDirectory answers whether an email belongs to an administrator.
type AdminDirectory interface {
	IsAdmin(ctx context.Context, email string) (bool, error)
}

// AdminAuth verifies a bearer token signed by the hosted auth provider and requires its email
// claim to be listed as an administrator. Every failure is reported as 401.
func AdminAuth(secret string, admins AdminDirectory, logger zerolog.Logger) fiber.Handler {
	log := logger.With().Str("component", "admin_auth").Logger()

	return func(c *fiber.Ctx) error {
		claims, err := bearerClaims(c, secret)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
		}

		email := claimString(claims, "email")
		if email == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, ErrNotAdmin.Error())
		}

		ok, err := admins.IsAdmin(c.UserContext(), email)
		if err != nil {
			log.Error().Err(err).Str("correlation_id", GetCorrelationID(c)).Msg("admin lookup failed")
			return utils.SendError(c, fiber.StatusUnauthorized, ErrNotAdmin.Error())
		}
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, ErrNotAdmin.Error())
		}

		c.Locals(localsAuthEmail, email)
		c.Locals(localsAuthRole, "admin")
		return c.Next()
	}
}

// ApplicantAuth verifies an applicant session token issued after OTP sign-in.
func ApplicantAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := bearerClaims(c, secret)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
		}

		email := claimString(claims, "email")
		if email == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, ErrInvalidToken.Error())
		}

		c.Locals(localsAuthEmail, email)
		if role := normalizeRole(claims["role"]); role != "" {
			c.Locals(localsAuthRole, role)
		}
		return c.Next()
	}
}

// AuthEmail returns the email of the authenticated caller, if any.
func AuthEmail(c *fiber.Ctx) string {
	if value, ok := c.Locals(localsAuthEmail).(string); ok {
		return value
	}
	return ""
}

func bearerClaims(c *fiber.Ctx, secret string) (jwt.MapClaims, error) {
	authorization := c.Get("Authorization")
	if authorization == "" {
		return nil, ErrMissingToken
	}

	const bearer = "Bearer "
	if len(authorization) < len(bearer) || !strings.EqualFold(authorization[:len(bearer)], bearer) {
		return nil, ErrInvalidToken
	}

	tokenString := strings.TrimSpace(authorization[len(bearer):])
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func claimString(claims jwt.MapClaims, key string) string {
	value, ok := claims[key].(string)
	if !ok {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(value))
}

func normalizeRole(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.ToLower(strings.TrimSpace(v))
	case []interface{}:
		for _, item := range v {
			if str, ok := item.(string); ok {
				role := strings.ToLower(strings.TrimSpace(str))
				if role != "" {
					return role
				}
			}
		}
	}
	return ""
}
