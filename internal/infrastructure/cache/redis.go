package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/MP2EZ/being-sub003/internal/infrastructure/config"
)

// RedisStore implements Store on a Redis client. Every key is prefixed with
// the configured namespace.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedisStore connects to Redis and verifies the connection with PING.
func NewRedisStore(cfg *config.RedisConfig, logger *zap.Logger) (*RedisStore, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("redis config is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.URL,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info("redis store initialized",
		zap.String("addr", cfg.URL),
		zap.Int("db", cfg.DB),
		zap.String("prefix", cfg.KeyPrefix))

	return &RedisStore{client: client, prefix: cfg.KeyPrefix, logger: logger}, nil
}

func (r *RedisStore) key(k string) string { return r.prefix + k }

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		r.logger.Error("redis get failed", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return b, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		r.logger.Error("redis set failed",
			zap.String("key", key),
			zap.Duration("ttl", ttl),
			zap.Error(err))
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Remove(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		r.logger.Error("redis delete failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// Ping reports whether the server is reachable.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("redis close failed: %w", err)
	}
	r.logger.Info("redis store connection closed")
	return nil
}
