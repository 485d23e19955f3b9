package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	SiteURL                string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	NATSSubjectPrefix      string
	AuthJWTSecret          string
	SessionJWTSecret       string
	SessionTTL             time.Duration
	WhatsappAPI            string
	WhatsappToken          string
	WhatsappSenderID       string
	ResendAPIKey           string
	EmailFrom              string
	EmailBrand             string
	GPTAPIKey              string
	GPTBaseURL             string
	GPTModel               string
	AIMaxAttempts          int
	AIRetryDelay           time.Duration
	AIEvaluationTimeout    time.Duration
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	ScoreCacheTTL          time.Duration
	OTPTTL                 time.Duration
	OTPKeyPrefix           string
	MessageBatchSize       int
	MessageBatchDelay      time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Registration API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("nats.subject_prefix", "registration")
	v.SetDefault("session.ttl", "72h")
	v.SetDefault("email.brand", "Registration")
	v.SetDefault("gpt.model", "gpt-4o-mini")
	v.SetDefault("ai.max_attempts", 3)
	v.SetDefault("ai.retry_delay", "1s")
	v.SetDefault("ai.evaluation_timeout", "2m")
	v.SetDefault("cloudinary.folder", "registration/whatsapp")
	v.SetDefault("score.cache_ttl", "10m")
	v.SetDefault("otp.ttl", "10m")
	v.SetDefault("otp.key_prefix", "registration:otp")
	v.SetDefault("message.batch_size", 50)
	v.SetDefault("message.batch_delay", "2s")

	durations := map[string]time.Duration{}
	for _, key := range []string{"session.ttl", "ai.retry_delay", "ai.evaluation_timeout", "score.cache_ttl", "otp.ttl", "message.batch_delay"} {
		parsed, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", key, err)
		}
		durations[key] = parsed
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		SiteURL:                strings.TrimRight(v.GetString("site.url"), "/"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		NATSSubjectPrefix:      v.GetString("nats.subject_prefix"),
		AuthJWTSecret:          v.GetString("supabase.jwt_secret"),
		SessionJWTSecret:       v.GetString("session.jwt_secret"),
		SessionTTL:             durations["session.ttl"],
		WhatsappAPI:            v.GetString("whatsapp.api"),
		WhatsappToken:          v.GetString("whatsapp.api_token"),
		WhatsappSenderID:       v.GetString("whatsapp.sender_id"),
		ResendAPIKey:           v.GetString("resend.api_key"),
		EmailFrom:              v.GetString("email.from"),
		EmailBrand:             v.GetString("email.brand"),
		GPTAPIKey:              v.GetString("gpt.api_key"),
		GPTBaseURL:             v.GetString("gpt.base_url"),
		GPTModel:               v.GetString("gpt.model"),
		AIMaxAttempts:          v.GetInt("ai.max_attempts"),
		AIRetryDelay:           durations["ai.retry_delay"],
		AIEvaluationTimeout:    durations["ai.evaluation_timeout"],
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		ScoreCacheTTL:          durations["score.cache_ttl"],
		OTPTTL:                 durations["otp.ttl"],
		OTPKeyPrefix:           v.GetString("otp.key_prefix"),
		MessageBatchSize:       v.GetInt("message.batch_size"),
		MessageBatchDelay:      durations["message.batch_delay"],
	}

	if cfg.AuthJWTSecret == "" || cfg.SessionJWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secrets must be provided")
	}

	if cfg.MessageBatchSize <= 0 {
		cfg.MessageBatchSize = 50
	}

	if cfg.AIMaxAttempts <= 0 {
		cfg.AIMaxAttempts = 3
	}

	return cfg, nil
}
