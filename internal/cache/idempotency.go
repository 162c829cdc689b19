package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrInFlight is returned when another request with the same key has
// reserved it but not stored a result yet
var ErrInFlight = errors.New("request with this idempotency key is in progress")

const pendingMarker = "__pending__"

// IdempotencyStore remembers the first result per (scope, key)
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewIdempotencyStore creates a store whose entries live for ttl
func NewIdempotencyStore(client *redis.Client, prefix string, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: ttl, prefix: prefix}
}

func (s *IdempotencyStore) key(scope, key string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, scope, key)
}

// Reserve claims the key. When a result was already stored it is decoded
// into out and found is true. A claim held by an unfinished request returns
// ErrInFlight.
func (s *IdempotencyStore) Reserve(ctx context.Context, scope, key string, out any) (found bool, err error) {
	k := s.key(scope, key)

	ok, err := s.client.SetNX(ctx, k, pendingMarker, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	if ok {
		return false, nil
	}

	stored, err := s.client.Get(ctx, k).Result()
	if err == redis.Nil {
		// expired between SETNX and GET; treat as a fresh claim
		return s.Reserve(ctx, scope, key, out)
	}
	if err != nil {
		return false, fmt.Errorf("failed to load idempotency key: %w", err)
	}
	if stored == pendingMarker {
		return false, ErrInFlight
	}
	if err := json.Unmarshal([]byte(stored), out); err != nil {
		return false, fmt.Errorf("failed to decode idempotent result: %w", err)
	}
	return true, nil
}

// Save stores the result for a reserved key
func (s *IdempotencyStore) Save(ctx context.Context, scope, key string, result any) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode idempotent result: %w", err)
	}
	if err := s.client.Set(ctx, s.key(scope, key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save idempotent result: %w", err)
	}
	return nil
}

// Release drops a reservation so the request can be retried
func (s *IdempotencyStore) Release(ctx context.Context, scope, key string) error {
	if err := s.client.Del(ctx, s.key(scope, key)).Err(); err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}
