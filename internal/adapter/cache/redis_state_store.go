package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sabgaby/integration-hub/internal/repository"
)

// RedisStateStore implements StateStore backed by Redis.
type RedisStateStore struct {
	client redis.UniversalClient
}

var _ repository.StateStore = (*RedisStateStore)(nil)

// NewRedisStateStore constructs a Redis-backed state store.
func NewRedisStateStore(client redis.UniversalClient) *RedisStateStore {
	return &RedisStateStore{client: client}
}

// SaveState stores the state token under key with TTL.
func (s *RedisStateStore) SaveState(ctx context.Context, key, token string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, token, ttl).Err(); err != nil {
		return fmt.Errorf("persist state: %w", err)
	}
	return nil
}

// ConsumeState atomically reads and deletes the stored token. GETDEL makes
// the single-use guarantee hold under concurrent duplicate callbacks: only
// one caller sees the token, the rest get absent.
func (s *RedisStateStore) ConsumeState(ctx context.Context, key string) (string, error) {
	token, err := s.client.GetDel(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", fmt.Errorf("consume state: %w", err)
	}
	return token, nil
}
