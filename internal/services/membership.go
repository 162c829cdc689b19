package services

import (
	"context"
	"errors"
	"fmt"

	"readalong-backend/internal/models"
	"readalong-backend/internal/repository"
)

// primaryGroup returns the group the user joined first, or ErrNoGroup
func primaryGroup(ctx context.Context, groups GroupStore, userID string) (*models.Group, error) {
	group, err := groups.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoGroup
		}
		return nil, fmt.Errorf("failed to load group: %w", err)
	}
	return group, nil
}

func requireMember(ctx context.Context, groups GroupStore, groupID, userID string) error {
	ok, err := groups.IsMember(ctx, groupID, userID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if !ok {
		return ErrNotGroupMember
	}
	return nil
}

// resolveGroupID picks the explicit group after a membership check, or the
// caller's primary group. A caller without any group gets nil.
func resolveGroupID(ctx context.Context, groups GroupStore, userID string, requested *string) (*string, error) {
	if requested != nil && *requested != "" {
		if err := requireMember(ctx, groups, *requested, userID); err != nil {
			return nil, err
		}
		return requested, nil
	}

	group, err := primaryGroup(ctx, groups, userID)
	if errors.Is(err, ErrNoGroup) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &group.ID, nil
}
