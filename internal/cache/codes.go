// Package cache stores short-lived verification codes in Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/benx421/ledger-bank/internal/config"
)

const keyPrefix = "key:"

// ErrCodeNotFound is returned when no code is stored or it has expired
var ErrCodeNotFound = errors.New("verification code not found")

// CodeStore keeps one verification code per identifier with a TTL
type CodeStore struct {
	client redis.Cmdable
}

// NewCodeStore wraps a Redis client
func NewCodeStore(client redis.Cmdable) *CodeStore {
	return &CodeStore{client: client}
}

// Connect opens a Redis client and verifies it answers PING
func Connect(ctx context.Context, cfg *config.RedisConfig, logger *slog.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info("connected to redis", "addr", cfg.Addr(), "db", cfg.DB)
	return rdb, nil
}

// Put stores code for id, replacing any previous code
func (s *CodeStore) Put(ctx context.Context, id, code string, ttl time.Duration) error {
	if err := s.client.Set(ctx, keyPrefix+id, code, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}
	return nil
}

// Get returns the code stored for id
func (s *CodeStore) Get(ctx context.Context, id string) (string, error) {
	code, err := s.client.Get(ctx, keyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCodeNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read verification code: %w", err)
	}
	return code, nil
}

// Delete removes the code stored for id
func (s *CodeStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to delete verification code: %w", err)
	}
	return nil
}
