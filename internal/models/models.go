package models

import (
	"fmt"
	"time"
)

// Profile holds the optional display data for an auth-provider user
type Profile struct {
	UserID      string    `json:"user_id"`
	Email       *string   `json:"email,omitempty"`
	DisplayName *string   `json:"display_name,omitempty"`
	PushToken   *string   `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Group is a cohort sharing chat, feed visibility and an invite code
type Group struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Description      *string    `json:"description,omitempty"`
	InviteCode       string     `json:"invite_code"`
	LeaderID         *string    `json:"leader_id,omitempty"`
	ProgramStartDate *time.Time `json:"program_start_date,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Member roles
const (
	RoleMember = "member"
	RoleLeader = "leader"
)

// GroupMember binds a user to a group
type GroupMember struct {
	GroupID     string    `json:"group_id"`
	UserID      string    `json:"user_id"`
	Role        string    `json:"role"`
	JoinedAt    time.Time `json:"joined_at"`
	ProfileName *string   `json:"-"`
}

// TextShare is a daily journal entry, unique per (user, day)
type TextShare struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	GroupID     *string   `json:"group_id"`
	DayNumber   int       `json:"day_number"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	ProfileName *string   `json:"-"`
}

// DetectedFood is one item recognised in a food photo
type DetectedFood struct {
	Name        string `json:"name"`
	Portion     string `json:"portion"`
	Description string `json:"description"`
}

// FoodLog is a food journal entry with optional image and detected items
type FoodLog struct {
	ID            string         `json:"id"`
	UserID        string         `json:"user_id"`
	GroupID       *string        `json:"group_id"`
	FoodName      *string        `json:"food_name,omitempty"`
	Content       *string        `json:"content,omitempty"`
	ImageURL      *string        `json:"image_url"`
	DetectedFoods []DetectedFood `json:"detected_foods"`
	UserInput     *string        `json:"user_input"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	ProfileName   *string        `json:"-"`
}

// FoodLogItem mirrors one DetectedFood row of a FoodLog
type FoodLogItem struct {
	ID          string `json:"id"`
	FoodLogID   string `json:"food_log_id"`
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Portion     string `json:"portion"`
	Description string `json:"description"`
}

// ChatMessage is an immutable group chat line. IDs increase monotonically
// so clients can resync with "everything after id N".
type ChatMessage struct {
	ID        int64     `json:"id"`
	GroupID   string    `json:"group_id"`
	UserID    string    `json:"user_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatReadState is the per-user read marker in a group
type ChatReadState struct {
	GroupID           string    `json:"group_id"`
	UserID            string    `json:"user_id"`
	LastReadMessageID int64     `json:"last_read_message_id"`
	LastReadAt        time.Time `json:"last_read_at"`
}

// ShareComment is a comment on a text share or food log
type ShareComment struct {
	ID          string    `json:"id"`
	ShareID     string    `json:"share_id"`
	ShareType   ShareType `json:"share_type"`
	UserID      string    `json:"user_id"`
	UserName    string    `json:"user_name"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	ProfileName *string   `json:"-"`
}

// ReactionLike is the only supported reaction type
const ReactionLike = "like"

// ShareReaction is a like on a text share or food log
type ShareReaction struct {
	ID           string    `json:"id"`
	ShareID      string    `json:"share_id"`
	ShareType    ShareType `json:"share_type"`
	UserID       string    `json:"user_id"`
	ReactionType string    `json:"reaction_type"`
	CreatedAt    time.Time `json:"created_at"`
}

// QuizQuestion is one multiple-choice question
type QuizQuestion struct {
	Question      string            `json:"question"`
	Options       map[string]string `json:"options"`
	CorrectAnswer string            `json:"correct_answer"`
	Explanation   string            `json:"explanation"`
}

// Quiz holds the questions for one program day
type Quiz struct {
	ID        string         `json:"id"`
	DayNumber int            `json:"day_number"`
	Questions []QuizQuestion `json:"questions"`
	CreatedAt time.Time      `json:"created_at"`
}

// QuizResponse is one scored attempt; re-attempts accumulate
type QuizResponse struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	DayNumber      int       `json:"day_number"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	AnsweredAt     time.Time `json:"answered_at"`
}

// DailyContent is the reading material for one program day
type DailyContent struct {
	ID        string    `json:"id"`
	DayNumber int       `json:"day_number"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// FeedItem is the uniform buddy-feed shape across text shares and food logs
type FeedItem struct {
	ID            string         `json:"id"`
	Type          ShareType      `json:"type"`
	UserID        string         `json:"user_id"`
	UserName      string         `json:"user_name"`
	Content       string         `json:"content"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	LikeCount     int            `json:"like_count"`
	CommentCount  int            `json:"comment_count"`
	IsLiked       bool           `json:"is_liked"`
	DayNumber     *int           `json:"day_number,omitempty"`
	FoodName      *string        `json:"food_name,omitempty"`
	FoodImageURL  *string        `json:"food_image_url,omitempty"`
	DetectedFoods []DetectedFood `json:"detected_foods,omitempty"`
}

// ActivityTimestamps is the raw input for progress stats
type ActivityTimestamps struct {
	QuizAnsweredAt []time.Time
	ShareDays      []int
	FoodLoggedAt   []time.Time
}

// DisplayName resolves the name shown for a user: the profile name when set,
// otherwise "用戶" followed by the last four characters of the id.
func DisplayName(userID string, profileName *string) string {
	if profileName != nil && *profileName != "" {
		return *profileName
	}
	suffix := []rune(userID)
	if len(suffix) > 4 {
		suffix = suffix[len(suffix)-4:]
	}
	return fmt.Sprintf("用戶%s", string(suffix))
}
