package services

import (
	"context"
	"fmt"

	"readalong-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// Toggle actions
const (
	ActionAdded   = "added"
	ActionRemoved = "removed"
)

// ToggleInput is a like toggle request
type ToggleInput struct {
	Ref            models.ShareRef
	ReactionType   string
	IdempotencyKey string
}

// ToggleResult reports what a toggle did. Count is the delta (+1 or -1) and
// LikeCount the share's total afterwards.
type ToggleResult struct {
	Action    string `json:"action"`
	Count     int    `json:"count"`
	LikeCount int    `json:"like_count"`
}

// ReactionService handles likes on shares
type ReactionService struct {
	reactions ReactionStore
	access    shareAccess
	idem      IdempotencyStore
}

// NewReactionService creates a new reaction service. idem may be nil.
func NewReactionService(reactions ReactionStore, shares ShareStore, foods FoodLogStore, groups GroupStore, idem IdempotencyStore) *ReactionService {
	return &ReactionService{
		reactions: reactions,
		access:    shareAccess{shares: shares, foods: foods, groups: groups},
		idem:      idem,
	}
}

// Toggle flips the caller's reaction on a share. With an idempotency key the
// first result is replayed for retries of the same request.
func (s *ReactionService) Toggle(ctx context.Context, userID string, in ToggleInput) (*ToggleResult, error) {
	if in.ReactionType == "" {
		in.ReactionType = models.ReactionLike
	}
	if in.ReactionType != models.ReactionLike {
		return nil, invalid("reaction_type", "must be %q", models.ReactionLike)
	}
	if err := s.access.check(ctx, userID, in.Ref); err != nil {
		return nil, err
	}

	if in.IdempotencyKey == "" || s.idem == nil {
		return s.toggle(ctx, userID, in)
	}

	var stored ToggleResult
	found, err := s.idem.Reserve(ctx, userID, in.IdempotencyKey, &stored)
	if err != nil {
		return nil, err
	}
	if found {
		return &stored, nil
	}

	result, err := s.toggle(ctx, userID, in)
	if err != nil {
		if relErr := s.idem.Release(ctx, userID, in.IdempotencyKey); relErr != nil {
			log.Warn().Err(relErr).Str("user_id", userID).Msg("Failed to release idempotency key")
		}
		return nil, err
	}
	if err := s.idem.Save(ctx, userID, in.IdempotencyKey, result); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Failed to store idempotent result")
	}
	return result, nil
}

func (s *ReactionService) toggle(ctx context.Context, userID string, in ToggleInput) (*ToggleResult, error) {
	added, likeCount, err := s.reactions.Toggle(ctx, in.Ref, userID, in.ReactionType)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle reaction: %w", err)
	}

	if added {
		return &ToggleResult{Action: ActionAdded, Count: 1, LikeCount: likeCount}, nil
	}
	return &ToggleResult{Action: ActionRemoved, Count: -1, LikeCount: likeCount}, nil
}
