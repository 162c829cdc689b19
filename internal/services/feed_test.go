package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"readalong-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type feedFixture struct {
	svc       *FeedService
	groups    *fakeGroups
	shares    *fakeShares
	foods     *fakeFoods
	comments  *fakeComments
	reactions *fakeReactions
}

func newFeedFixture() *feedFixture {
	f := &feedFixture{
		groups:    newFakeGroups(),
		shares:    newFakeShares(),
		foods:     &fakeFoods{},
		comments:  &fakeComments{},
		reactions: newFakeReactions(),
	}
	f.groups.addGroup("g1", "CODE01", "me", "bob", "carol")
	f.groups.addGroup("g2", "CODE02", "dave")
	f.svc = NewFeedService(f.groups, f.shares, f.foods, f.comments, f.reactions, 20)

	base := time.Date(2025, 3, 5, 8, 0, 0, 0, time.UTC)
	f.shares.shares = []*models.TextShare{
		{ID: "s-mine", UserID: "me", GroupID: ptr("g1"), DayNumber: 5, Content: "mine", CreatedAt: base},
		{ID: "s-bob", UserID: "bob", GroupID: ptr("g1"), DayNumber: 5, Content: "bob day 5", CreatedAt: base.Add(time.Hour)},
		{ID: "s-dave", UserID: "dave", GroupID: ptr("g2"), DayNumber: 5, Content: "other group", CreatedAt: base.Add(2 * time.Hour)},
	}
	f.shares.names["bob"] = "Bob"
	f.foods.logs = []*models.FoodLog{
		{
			ID:            "f-carol",
			UserID:        "carol1234",
			GroupID:       ptr("g1"),
			FoodName:      ptr("白飯"),
			ImageURL:      ptr("https://img/1.jpg"),
			DetectedFoods: []models.DetectedFood{{Name: "白飯", Portion: "1碗"}},
			CreatedAt:     base.Add(3 * time.Hour),
		},
	}
	return f
}

func TestFeedBuild(t *testing.T) {
	f := newFeedFixture()
	ctx := context.Background()

	_, err := f.comments.Create(ctx, "c1", models.TextShareRef("s-bob"), "me", "nice")
	require.NoError(t, err)
	_, err = f.comments.Create(ctx, "c2", models.TextShareRef("s-bob"), "carol", "yes")
	require.NoError(t, err)
	_, _, err = f.reactions.Toggle(ctx, models.TextShareRef("s-bob"), "me", models.ReactionLike)
	require.NoError(t, err)
	_, _, err = f.reactions.Toggle(ctx, models.FoodLogRef("f-carol"), "bob", models.ReactionLike)
	require.NoError(t, err)

	items, err := f.svc.Build(ctx, "me")
	require.NoError(t, err)
	require.Len(t, items, 2)

	food := items[0]
	assert.Equal(t, "f-carol", food.ID)
	assert.Equal(t, models.ShareTypeFood, food.Type)
	assert.Equal(t, "用戶1234", food.UserName)
	assert.Equal(t, "白飯", *food.FoodName)
	assert.Equal(t, "https://img/1.jpg", *food.FoodImageURL)
	assert.Len(t, food.DetectedFoods, 1)
	assert.Equal(t, 1, food.LikeCount)
	assert.False(t, food.IsLiked)
	assert.Nil(t, food.DayNumber)

	text := items[1]
	assert.Equal(t, "s-bob", text.ID)
	assert.Equal(t, models.ShareTypeText, text.Type)
	assert.Equal(t, "Bob", text.UserName)
	assert.Equal(t, 5, *text.DayNumber)
	assert.Equal(t, 2, text.CommentCount)
	assert.Equal(t, 1, text.LikeCount)
	assert.True(t, text.IsLiked)
}

func TestFeedRequiresGroup(t *testing.T) {
	f := newFeedFixture()

	_, err := f.svc.Build(context.Background(), "stranger")
	assert.ErrorIs(t, err, ErrNoGroup)
}

func TestFeedDegradesOnCountFailure(t *testing.T) {
	f := newFeedFixture()
	ctx := context.Background()
	_, _, err := f.reactions.Toggle(ctx, models.TextShareRef("s-bob"), "me", models.ReactionLike)
	require.NoError(t, err)

	f.comments.refsErr = errors.New("boom")
	f.reactions.refsErr = errors.New("boom")

	items, err := f.svc.Build(ctx, "me")
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, item := range items {
		assert.Zero(t, item.CommentCount)
		assert.Zero(t, item.LikeCount)
	}
	assert.True(t, items[1].IsLiked)
}

func TestFeedDegradesOnSourceFailure(t *testing.T) {
	ctx := context.Background()

	f := newFeedFixture()
	f.shares.listErr = errors.New("shares down")
	items, err := f.svc.Build(ctx, "me")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "f-carol", items[0].ID)

	f = newFeedFixture()
	f.foods.listErr = errors.New("food logs down")
	items, err = f.svc.Build(ctx, "me")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "s-bob", items[0].ID)

	f.shares.listErr = errors.New("shares down")
	_, err = f.svc.Build(ctx, "me")
	assert.ErrorContains(t, err, "shares down")
	assert.ErrorContains(t, err, "food logs down")
}

func TestFeedEmptyGroup(t *testing.T) {
	f := newFeedFixture()

	items, err := f.svc.Build(context.Background(), "dave")
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NotNil(t, items)
}
