package services

import (
	"context"
	"errors"
	"fmt"

	"readalong-backend/internal/models"
	"readalong-backend/internal/repository"
)

// shareAccess decides whether a user may see and interact with a share
type shareAccess struct {
	shares ShareStore
	foods  FoodLogStore
	groups GroupStore
}

// check returns ErrNotFound for unknown shares and ErrForbidden when the
// share is neither the caller's own nor in one of the caller's groups
func (a shareAccess) check(ctx context.Context, userID string, ref models.ShareRef) error {
	var (
		ownerID string
		groupID *string
	)

	switch ref.Type {
	case models.ShareTypeText:
		share, err := a.shares.GetByID(ctx, ref.ID)
		if err != nil {
			return lookupErr(err, "text share")
		}
		ownerID, groupID = share.UserID, share.GroupID
	case models.ShareTypeFood:
		food, err := a.foods.GetByID(ctx, ref.ID)
		if err != nil {
			return lookupErr(err, "food log")
		}
		ownerID, groupID = food.UserID, food.GroupID
	default:
		return invalid("share_type", "must be text_share or food_log")
	}

	if ownerID == userID {
		return nil
	}
	if groupID == nil {
		return ErrForbidden
	}

	ok, err := a.groups.IsMember(ctx, *groupID, userID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

func lookupErr(err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}
