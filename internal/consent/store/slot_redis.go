package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"consentkit/pkg/platform/sentinel"
)

// RedisSlot stores values in Redis. This is the slot for deployments where
// several instances serve the same profiles.
type RedisSlot struct {
	client *redis.Client
	prefix string
}

// RedisSlotOption configures a RedisSlot instance.
type RedisSlotOption func(*RedisSlot)

// WithRedisKeyPrefix namespaces every key, e.g. "myapp:".
func WithRedisKeyPrefix(prefix string) RedisSlotOption {
	return func(r *RedisSlot) {
		r.prefix = prefix
	}
}

// NewRedisSlot constructs a Redis-backed slot. The client lifecycle is managed
// by the caller.
func NewRedisSlot(client *redis.Client, opts ...RedisSlotOption) *RedisSlot {
	r := &RedisSlot{client: client}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *RedisSlot) Get(ctx context.Context, name string) (string, error) {
	value, err := r.client.Get(ctx, r.prefix+name).Result()
	if errors.Is(err, redis.Nil) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get: %w", errors.Join(sentinel.ErrUnavailable, err))
	}
	return value, nil
}

// Set uses SET with EX so value and expiry land atomically. A zero ttl writes
// the key without expiry.
func (r *RedisSlot) Set(ctx context.Context, name, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.prefix+name, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", errors.Join(sentinel.ErrUnavailable, err))
	}
	return nil
}

func (r *RedisSlot) Remove(ctx context.Context, name string) error {
	if err := r.client.Del(ctx, r.prefix+name).Err(); err != nil {
		return fmt.Errorf("redis del: %w", errors.Join(sentinel.ErrUnavailable, err))
	}
	return nil
}

var _ Slot = (*RedisSlot)(nil)
