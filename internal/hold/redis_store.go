package hold

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps holds in Redis with a TTL matching the supplier expiry, so
// hold state survives process restarts and is shared across instances.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed hold store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) key(sessionID string) string {
	return fmt.Sprintf("booking:hold:%s", sessionID)
}

// Put stores the hold with a TTL ending at the supplier expiry.
func (s *RedisStore) Put(ctx context.Context, sessionID string, h Hold) error {
	data, err := json.Marshal(h)
	if err != nil {
		return err
	}
	ttl := time.Until(h.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, s.key(sessionID), data, ttl).Err()
}

// Get returns the hold or nil when the key is absent (expired keys are
// evicted by Redis).
func (s *RedisStore) Get(ctx context.Context, sessionID string) (*Hold, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var h Hold
	if err := json.Unmarshal([]byte(data), &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Delete removes the hold.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, s.key(sessionID)).Err()
}
