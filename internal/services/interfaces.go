package services

import (
	"context"
	"time"

	"readalong-backend/internal/models"
	"readalong-backend/internal/repository"
)

// GroupStore is the group membership storage used by most services
type GroupStore interface {
	Create(ctx context.Context, group *models.Group) error
	GetByInviteCode(ctx context.Context, code string) (*models.Group, error)
	GetByUserID(ctx context.Context, userID string) (*models.Group, error)
	GroupIDsForUser(ctx context.Context, userID string) ([]string, error)
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	AddMember(ctx context.Context, member *models.GroupMember) (bool, error)
	Members(ctx context.Context, groupID string) ([]*models.GroupMember, error)
}

type ProfileStore interface {
	GetByUserID(ctx context.Context, userID string) (*models.Profile, error)
	UpsertDisplayName(ctx context.Context, userID string, email *string, displayName string) (*models.Profile, error)
	UpdatePushToken(ctx context.Context, userID string, pushToken *string) error
	PushTokens(ctx context.Context, userIDs []string) (map[string]string, error)
}

type ShareStore interface {
	Upsert(ctx context.Context, share *models.TextShare) (*models.TextShare, bool, error)
	GetByID(ctx context.Context, id string) (*models.TextShare, error)
	List(ctx context.Context, f repository.ShareFilter) ([]*models.TextShare, error)
}

type FoodLogStore interface {
	CreateWithItems(ctx context.Context, log *models.FoodLog, items []models.FoodLogItem) error
	GetByID(ctx context.Context, id string) (*models.FoodLog, error)
	ListByGroup(ctx context.Context, groupID, excludeUserID string, limit int) ([]*models.FoodLog, error)
}

type CommentStore interface {
	Create(ctx context.Context, id string, ref models.ShareRef, userID, content string) (*models.ShareComment, error)
	ListByShare(ctx context.Context, ref models.ShareRef) ([]*models.ShareComment, error)
	RefsForShares(ctx context.Context, ids []string) ([]models.ShareRef, error)
}

type ReactionStore interface {
	Toggle(ctx context.Context, ref models.ShareRef, userID, reactionType string) (bool, int, error)
	RefsForShares(ctx context.Context, ids []string) ([]models.ShareRef, error)
	UserRefsForShares(ctx context.Context, userID string, ids []string) ([]models.ShareRef, error)
}

type ChatStore interface {
	Create(ctx context.Context, msg *models.ChatMessage) error
	Recent(ctx context.Context, groupID string, limit int) ([]*models.ChatMessage, error)
	After(ctx context.Context, groupID string, afterID int64, limit int) ([]*models.ChatMessage, error)
	GetReadState(ctx context.Context, groupID, userID string) (*models.ChatReadState, error)
	CountUnread(ctx context.Context, groupID, userID string, afterID int64) (int, error)
	MarkRead(ctx context.Context, groupID, userID string, at time.Time) (*models.ChatReadState, error)
}

type QuizStore interface {
	GetByDay(ctx context.Context, day int) (*models.Quiz, error)
	CreateResponse(ctx context.Context, resp *models.QuizResponse) error
}

type ContentStore interface {
	GetByDay(ctx context.Context, day int) (*models.DailyContent, error)
}

type ProgressStore interface {
	Activity(ctx context.Context, userID string) (*models.ActivityTimestamps, error)
}

// IdempotencyStore remembers the first result of a keyed request
type IdempotencyStore interface {
	Reserve(ctx context.Context, scope, key string, out any) (bool, error)
	Save(ctx context.Context, scope, key string, result any) error
	Release(ctx context.Context, scope, key string) error
}
