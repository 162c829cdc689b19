package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"readalong-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShareFixture() (*ShareService, *fakeShares, *fakeGroups) {
	groups := newFakeGroups()
	groups.addGroup("g1", "CODE01", "alice", "bob")
	groups.addGroup("g2", "CODE02", "carol")
	shares := newFakeShares()

	program := NewProgramService(groups, 21)
	program.now = fixedClock(time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC))

	return NewShareService(shares, groups, program, 500), shares, groups
}

func TestShareSubmitUpsertsPerDay(t *testing.T) {
	svc, shares, _ := newShareFixture()
	ctx := context.Background()

	first, created, err := svc.Submit(ctx, "alice", SubmitShareInput{Content: "今天學到很多", DayNumber: ptr(5)})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 5, first.DayNumber)
	assert.Equal(t, "今天學到很多", first.Content)
	require.NotNil(t, first.GroupID)
	assert.Equal(t, "g1", *first.GroupID)

	second, created, err := svc.Submit(ctx, "alice", SubmitShareInput{Content: "修改心得", DayNumber: ptr(5)})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "修改心得", second.Content)
	assert.True(t, second.UpdatedAt.After(second.CreatedAt))

	assert.Len(t, shares.shares, 1)
}

func TestShareSubmitRequiresDay(t *testing.T) {
	svc, shares, _ := newShareFixture()

	_, _, err := svc.Submit(context.Background(), "alice", SubmitShareInput{Content: "hello"})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "day_number", vErr.Field)
	assert.Empty(t, shares.shares)
}

func TestShareSubmitValidation(t *testing.T) {
	svc, _, _ := newShareFixture()
	ctx := context.Background()

	tests := []struct {
		name string
		in   SubmitShareInput
	}{
		{"empty content", SubmitShareInput{Content: "   ", DayNumber: ptr(1)}},
		{"markup only", SubmitShareInput{Content: "<b></b>", DayNumber: ptr(1)}},
		{"too long", SubmitShareInput{Content: strings.Repeat("字", 501), DayNumber: ptr(1)}},
		{"day zero", SubmitShareInput{Content: "x", DayNumber: ptr(0)}},
		{"day too large", SubmitShareInput{Content: "x", DayNumber: ptr(22)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Submit(ctx, "alice", tt.in)
			var vErr *ValidationError
			assert.ErrorAs(t, err, &vErr)
		})
	}
}

func TestShareSubmitSanitizesContent(t *testing.T) {
	svc, _, _ := newShareFixture()

	share, _, err := svc.Submit(context.Background(), "alice", SubmitShareInput{
		Content:   "  <script>alert(1)</script>讀書 & 運動  ",
		DayNumber: ptr(2),
	})
	require.NoError(t, err)
	assert.Equal(t, "讀書 & 運動", share.Content)
}

func TestShareSubmitGroupMembership(t *testing.T) {
	svc, _, _ := newShareFixture()
	ctx := context.Background()

	_, _, err := svc.Submit(ctx, "alice", SubmitShareInput{Content: "x", DayNumber: ptr(1), GroupID: ptr("g2")})
	assert.ErrorIs(t, err, ErrNotGroupMember)

	share, _, err := svc.Submit(ctx, "nogroup", SubmitShareInput{Content: "x", DayNumber: ptr(1)})
	require.NoError(t, err)
	assert.Nil(t, share.GroupID)
}

func TestShareList(t *testing.T) {
	svc, shares, _ := newShareFixture()
	ctx := context.Background()
	shares.names["bob"] = "Bob"

	_, _, err := svc.Submit(ctx, "alice", SubmitShareInput{Content: "a1", DayNumber: ptr(1)})
	require.NoError(t, err)
	_, _, err = svc.Submit(ctx, "bob", SubmitShareInput{Content: "b1", DayNumber: ptr(1)})
	require.NoError(t, err)
	_, _, err = svc.Submit(ctx, "carol", SubmitShareInput{Content: "c1", DayNumber: ptr(1)})
	require.NoError(t, err)

	own, err := svc.List(ctx, "alice", ListSharesInput{})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "alice", own[0].UserID)
	assert.Equal(t, "用戶lice", own[0].DisplayName)
	assert.Equal(t, defaultShareLimit, shares.lastGet.Limit)

	group, err := svc.List(ctx, "alice", ListSharesInput{AllUsers: true, Limit: 500})
	require.NoError(t, err)
	assert.Len(t, group, 2)
	assert.Equal(t, maxShareLimit, shares.lastGet.Limit)
	for _, s := range group {
		if s.UserID == "bob" {
			assert.Equal(t, "Bob", s.DisplayName)
		}
		assert.NotEqual(t, "carol", s.UserID)
	}

	_, err = svc.List(ctx, "alice", ListSharesInput{AllUsers: true, GroupID: "g2"})
	assert.ErrorIs(t, err, ErrNotGroupMember)

	_, err = svc.List(ctx, "nogroup", ListSharesInput{AllUsers: true})
	assert.ErrorIs(t, err, ErrNoGroup)
}

func TestNamedShareJSON(t *testing.T) {
	named := NamedShare{
		TextShare:   &models.TextShare{ID: "s1", UserID: "u1", DayNumber: 3, Content: "c"},
		DisplayName: "Name",
	}
	data, err := jsonMarshal(named)
	require.NoError(t, err)
	assert.Contains(t, data, `"display_name":"Name"`)
	assert.Contains(t, data, `"day_number":3`)
}
