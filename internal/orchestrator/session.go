package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/roamstay/service-booking/internal/domain/booking"
)

// State is the position of a booking session in the pipeline. Transitions
// only move forward; CONFIRMED is terminal.
type State string

const (
	StateHeld           State = "HELD"
	StateDetails        State = "DETAILS"
	StateAwaitingAction State = "AWAITING_ACTION"
	StateConfirmed      State = "CONFIRMED"
)

// Session is the externally keyed state of one guest's booking attempt. It
// lives in a TTL store so any instance can pick it up and a restart loses
// nothing that matters.
type Session struct {
	ID            string        `json:"id"`
	State         State         `json:"state"`
	Guest         booking.Guest `json:"guest"`
	PromoCode     string        `json:"promo_code,omitempty"`
	DiscountCents int64         `json:"discount_cents"`
	IntentID      string        `json:"intent_id,omitempty"`
	ActionURL     string        `json:"action_url,omitempty"`
	BookingID     *uuid.UUID    `json:"booking_id,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// SessionStore keeps sessions keyed by session ID with automatic expiry.
type SessionStore interface {
	Put(ctx context.Context, s *Session) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
}

const sessionKeyPrefix = "booking:session:"

// RedisSessionStore stores sessions in Redis with a fixed TTL.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore creates a Redis-backed session store.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func (s *RedisSessionStore) Put(ctx context.Context, sess *Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return s.client.Set(ctx, sessionKeyPrefix+sess.ID, raw, s.ttl).Err()
}

func (s *RedisSessionStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	raw, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &sess, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, sessionKeyPrefix+sessionID).Err()
}

// MemorySessionStore is an in-process store for development and tests.
type MemorySessionStore struct {
	sessions map[string]Session
}

// NewMemorySessionStore creates an in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]Session)}
}

func (s *MemorySessionStore) Put(ctx context.Context, sess *Session) error {
	s.sessions[sess.ID] = *sess
	return nil
}

func (s *MemorySessionStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	if sess, ok := s.sessions[sessionID]; ok {
		out := sess
		return &out, nil
	}
	return nil, nil
}

func (s *MemorySessionStore) Delete(ctx context.Context, sessionID string) error {
	delete(s.sessions, sessionID)
	return nil
}
