package service

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// OTPStore holds short-lived one-time secrets.
type OTPStore interface {
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	// TakeIfValid returns the value and removes it; expired or unknown keys report ok=false.
	TakeIfValid(ctx context.Context, key string) (value string, ok bool, err error)
}

// RedisOTPStore keeps one-time codes in Redis so every API instance sees the same codes.
type RedisOTPStore struct {
	client *redis.Client
	prefix string
}

// NewRedisOTPStore constructs a Redis-backed store.
func NewRedisOTPStore(client *redis.Client, prefix string) *RedisOTPStore {
	if prefix == "" {
		prefix = "otp"
	}
	return &RedisOTPStore{client: client, prefix: prefix}
}

func (s *RedisOTPStore) key(key string) string {
	return s.prefix + ":" + key
}

func (s *RedisOTPStore) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, s.key(key), value, ttl).Err()
}

func (s *RedisOTPStore) TakeIfValid(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.GetDel(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}
