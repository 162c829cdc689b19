package handlers

import (
	"context"

	"readalong-backend/internal/models"
	"readalong-backend/internal/services"
)

// ProgramService resolves the caller's program day
type ProgramService interface {
	Today(ctx context.Context, userID string) (*services.DayInfo, error)
	DayOrToday(ctx context.Context, userID string, requested *int) (int, error)
}

// ShareService handles daily text shares
type ShareService interface {
	Submit(ctx context.Context, userID string, in services.SubmitShareInput) (*models.TextShare, bool, error)
	List(ctx context.Context, userID string, in services.ListSharesInput) ([]services.NamedShare, error)
}

// FeedService builds the buddy feed
type FeedService interface {
	Build(ctx context.Context, userID string) ([]models.FeedItem, error)
}

// CommentService handles comments on shares
type CommentService interface {
	Add(ctx context.Context, userID string, ref models.ShareRef, content string) (*models.ShareComment, error)
	List(ctx context.Context, userID string, ref models.ShareRef) ([]*models.ShareComment, error)
}

// ReactionService toggles likes
type ReactionService interface {
	Toggle(ctx context.Context, userID string, in services.ToggleInput) (*services.ToggleResult, error)
}

// ChatService handles group chat
type ChatService interface {
	Send(ctx context.Context, userID, groupID, message string) (*models.ChatMessage, error)
	History(ctx context.Context, userID, groupID string, afterID *int64) ([]*models.ChatMessage, error)
	Unread(ctx context.Context, userID, groupID string) (*services.UnreadInfo, error)
	MarkRead(ctx context.Context, userID, groupID string) (*models.ChatReadState, error)
	Subscriptions(ctx context.Context, userID string) ([]string, error)
}

// FoodService handles food logs and photo analysis
type FoodService interface {
	Save(ctx context.Context, userID string, in services.SaveFoodInput) (*models.FoodLog, error)
	Analyze(ctx context.Context, encoded string) ([]models.DetectedFood, error)
	UploadURL(ctx context.Context, userID, filename, contentType string) (*services.UploadURL, error)
}

// ProfileService handles user profiles
type ProfileService interface {
	Get(ctx context.Context, id services.Identity) (*services.ProfileView, error)
	UpdateDisplayName(ctx context.Context, id services.Identity, displayName string) (*models.Profile, error)
	SetPushToken(ctx context.Context, userID, pushToken string) error
}

// GroupService handles groups and invite codes
type GroupService interface {
	Create(ctx context.Context, leaderID string, in services.CreateGroupInput) (*models.Group, error)
	Join(ctx context.Context, userID string, in services.JoinGroupInput) (*services.JoinResult, error)
	MyGroup(ctx context.Context, userID string) (*services.GroupView, error)
}

// QuizService serves and scores daily quizzes
type QuizService interface {
	Get(ctx context.Context, day int) (*services.QuizView, error)
	Submit(ctx context.Context, userID string, day int, answers []string) (*services.QuizResult, error)
}

// ContentService serves daily reading content
type ContentService interface {
	Get(ctx context.Context, day int) (*models.DailyContent, error)
}

// ProgressService computes per-user stats
type ProgressService interface {
	Stats(ctx context.Context, userID string) (*services.Progress, error)
}

// DraftStore keeps per-user drafts
type DraftStore interface {
	Get(ctx context.Context, userID, key string) (string, error)
	Put(ctx context.Context, userID, key, value string) error
	Delete(ctx context.Context, userID, key string) error
}
