package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"readalong-backend/internal/models"
	"readalong-backend/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// FeedService builds the buddy-share feed for a group
type FeedService struct {
	groups    GroupStore
	shares    ShareStore
	foods     FoodLogStore
	comments  CommentStore
	reactions ReactionStore
	limit     int
}

// NewFeedService creates a new feed service
func NewFeedService(
	groups GroupStore,
	shares ShareStore,
	foods FoodLogStore,
	comments CommentStore,
	reactions ReactionStore,
	limit int,
) *FeedService {
	return &FeedService{
		groups:    groups,
		shares:    shares,
		foods:     foods,
		comments:  comments,
		reactions: reactions,
		limit:     limit,
	}
}

// Build returns other members' text shares and food logs, newest first,
// annotated with comment and like counts. A source or count lookup that
// fails is logged and left empty; only losing both sources is an error.
func (s *FeedService) Build(ctx context.Context, userID string) ([]models.FeedItem, error) {
	group, err := primaryGroup(ctx, s.groups, userID)
	if err != nil {
		return nil, err
	}

	shares, sharesErr := s.shares.List(ctx, repository.ShareFilter{
		GroupID:       group.ID,
		ExcludeUserID: userID,
		Limit:         s.limit,
	})
	if sharesErr != nil {
		log.Warn().Err(sharesErr).Str("group_id", group.ID).Msg("Failed to load feed text shares")
		shares = nil
	}

	foods, foodsErr := s.foods.ListByGroup(ctx, group.ID, userID, s.limit)
	if foodsErr != nil {
		log.Warn().Err(foodsErr).Str("group_id", group.ID).Msg("Failed to load feed food logs")
		foods = nil
	}

	if sharesErr != nil && foodsErr != nil {
		return nil, fmt.Errorf("failed to load feed: %w", errors.Join(sharesErr, foodsErr))
	}

	items := make([]models.FeedItem, 0, len(shares)+len(foods))
	for _, share := range shares {
		day := share.DayNumber
		items = append(items, models.FeedItem{
			ID:        share.ID,
			Type:      models.ShareTypeText,
			UserID:    share.UserID,
			UserName:  models.DisplayName(share.UserID, share.ProfileName),
			Content:   share.Content,
			CreatedAt: share.CreatedAt,
			UpdatedAt: share.UpdatedAt,
			DayNumber: &day,
		})
	}
	for _, food := range foods {
		items = append(items, models.FeedItem{
			ID:            food.ID,
			Type:          models.ShareTypeFood,
			UserID:        food.UserID,
			UserName:      models.DisplayName(food.UserID, food.ProfileName),
			Content:       lo.FromPtr(food.Content),
			CreatedAt:     food.CreatedAt,
			UpdatedAt:     food.UpdatedAt,
			FoodName:      food.FoodName,
			FoodImageURL:  food.ImageURL,
			DetectedFoods: food.DetectedFoods,
		})
	}

	if len(items) > 0 {
		s.annotate(ctx, userID, items)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	return items, nil
}

func (s *FeedService) annotate(ctx context.Context, userID string, items []models.FeedItem) {
	ids := lo.Uniq(lo.Map(items, func(item models.FeedItem, _ int) string { return item.ID }))

	commentCounts := map[models.ShareRef]int{}
	if refs, err := s.comments.RefsForShares(ctx, ids); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Failed to load comment counts")
	} else {
		commentCounts = lo.CountValues(refs)
	}

	likeCounts := map[models.ShareRef]int{}
	if refs, err := s.reactions.RefsForShares(ctx, ids); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Failed to load reaction counts")
	} else {
		likeCounts = lo.CountValues(refs)
	}

	liked := map[models.ShareRef]struct{}{}
	if refs, err := s.reactions.UserRefsForShares(ctx, userID, ids); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Failed to load user reactions")
	} else {
		for _, ref := range refs {
			liked[ref] = struct{}{}
		}
	}

	for i := range items {
		ref := models.ShareRef{Type: items[i].Type, ID: items[i].ID}
		items[i].CommentCount = commentCounts[ref]
		items[i].LikeCount = likeCounts[ref]
		_, items[i].IsLiked = liked[ref]
	}
}
