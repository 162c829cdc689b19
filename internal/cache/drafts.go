package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrDraftNotFound is returned when no draft is stored for the key
var ErrDraftNotFound = errors.New("draft not found")

// DraftStore keeps per-user drafts keyed by a short context key
type DraftStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDraftStore creates a draft store whose entries expire after ttl
func NewDraftStore(client *redis.Client, ttl time.Duration) *DraftStore {
	return &DraftStore{client: client, ttl: ttl}
}

func draftKey(userID, key string) string {
	return "draft:" + userID + ":" + key
}

// Get loads a draft
func (s *DraftStore) Get(ctx context.Context, userID, key string) (string, error) {
	v, err := s.client.Get(ctx, draftKey(userID, key)).Result()
	if err == redis.Nil {
		return "", ErrDraftNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get draft: %w", err)
	}
	return v, nil
}

// Put stores a draft and refreshes its expiry
func (s *DraftStore) Put(ctx context.Context, userID, key, value string) error {
	if err := s.client.Set(ctx, draftKey(userID, key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

// Delete clears a draft. Deleting a missing draft is not an error.
func (s *DraftStore) Delete(ctx context.Context, userID, key string) error {
	if err := s.client.Del(ctx, draftKey(userID, key)).Err(); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}
