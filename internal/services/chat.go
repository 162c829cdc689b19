package services

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"readalong-backend/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

const (
	maxChatChars  = 2000
	notifyTimeout = 10 * time.Second
)

// ChatPublisher delivers chat messages to live connections
type ChatPublisher interface {
	PublishChat(msg *models.ChatMessage)
	IsOnline(userID string) bool
}

// PushAlert is a device notification
type PushAlert struct {
	Title   string
	Body    string
	GroupID string
}

// Notifier sends device notifications
type Notifier interface {
	Notify(ctx context.Context, deviceTokens []string, alert PushAlert) error
}

// UnreadInfo is a user's unread state in a group
type UnreadInfo struct {
	UnreadCount       int        `json:"unread_count"`
	LastReadMessageID int64      `json:"last_read_message_id"`
	LastReadAt        *time.Time `json:"last_read_at"`
}

// ChatService handles group chat
type ChatService struct {
	chat         ChatStore
	groups       GroupStore
	profiles     ProfileStore
	publisher    ChatPublisher
	notifier     Notifier
	historyLimit int
	now          func() time.Time
}

// NewChatService creates a new chat service. notifier may be nil.
func NewChatService(
	chat ChatStore,
	groups GroupStore,
	profiles ProfileStore,
	publisher ChatPublisher,
	notifier Notifier,
	historyLimit int,
) *ChatService {
	return &ChatService{
		chat:         chat,
		groups:       groups,
		profiles:     profiles,
		publisher:    publisher,
		notifier:     notifier,
		historyLimit: historyLimit,
		now:          time.Now,
	}
}

// Send stores a message, pushes it to connected members and notifies
// offline members with a registered device
func (s *ChatService) Send(ctx context.Context, userID, groupID, message string) (*models.ChatMessage, error) {
	if groupID == "" {
		return nil, invalid("group_id", "is required")
	}
	text := cleanText(message)
	if text == "" {
		return nil, invalid("message", "is required")
	}
	if utf8.RuneCountInString(text) > maxChatChars {
		return nil, invalid("message", "must be %d characters or less", maxChatChars)
	}
	if err := requireMember(ctx, s.groups, groupID, userID); err != nil {
		return nil, err
	}

	msg := &models.ChatMessage{GroupID: groupID, UserID: userID, Message: text}
	if err := s.chat.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	if s.publisher != nil {
		s.publisher.PublishChat(msg)
	}
	if s.notifier != nil {
		go s.notifyOffline(context.WithoutCancel(ctx), msg)
	}

	return msg, nil
}

func (s *ChatService) notifyOffline(ctx context.Context, msg *models.ChatMessage) {
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	members, err := s.groups.Members(ctx, msg.GroupID)
	if err != nil {
		log.Warn().Err(err).Str("group_id", msg.GroupID).Msg("Failed to load members for push")
		return
	}

	var sender string
	offline := lo.FilterMap(members, func(m *models.GroupMember, _ int) (string, bool) {
		if m.UserID == msg.UserID {
			sender = models.DisplayName(m.UserID, m.ProfileName)
			return "", false
		}
		return m.UserID, s.publisher == nil || !s.publisher.IsOnline(m.UserID)
	})
	if len(offline) == 0 {
		return
	}
	if sender == "" {
		sender = models.DisplayName(msg.UserID, nil)
	}

	tokens, err := s.profiles.PushTokens(ctx, offline)
	if err != nil {
		log.Warn().Err(err).Str("group_id", msg.GroupID).Msg("Failed to load push tokens")
		return
	}
	if len(tokens) == 0 {
		return
	}

	alert := PushAlert{Title: sender, Body: msg.Message, GroupID: msg.GroupID}
	if err := s.notifier.Notify(ctx, lo.Values(tokens), alert); err != nil {
		log.Warn().Err(err).Str("group_id", msg.GroupID).Msg("Failed to send push notifications")
	}
}

// History returns the latest messages ascending, or with afterID every
// message newer than it
func (s *ChatService) History(ctx context.Context, userID, groupID string, afterID *int64) ([]*models.ChatMessage, error) {
	if groupID == "" {
		return nil, invalid("group_id", "is required")
	}
	if err := requireMember(ctx, s.groups, groupID, userID); err != nil {
		return nil, err
	}

	var (
		msgs []*models.ChatMessage
		err  error
	)
	if afterID != nil {
		msgs, err = s.chat.After(ctx, groupID, *afterID, s.historyLimit)
	} else {
		msgs, err = s.chat.Recent(ctx, groupID, s.historyLimit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	if msgs == nil {
		msgs = []*models.ChatMessage{}
	}
	return msgs, nil
}

// Unread counts messages from others after the user's read marker
func (s *ChatService) Unread(ctx context.Context, userID, groupID string) (*UnreadInfo, error) {
	if groupID == "" {
		return nil, invalid("group_id", "is required")
	}
	if err := requireMember(ctx, s.groups, groupID, userID); err != nil {
		return nil, err
	}

	state, err := s.chat.GetReadState(ctx, groupID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load read state: %w", err)
	}
	count, err := s.chat.CountUnread(ctx, groupID, userID, state.LastReadMessageID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread: %w", err)
	}

	info := &UnreadInfo{UnreadCount: count, LastReadMessageID: state.LastReadMessageID}
	if !state.LastReadAt.IsZero() {
		info.LastReadAt = &state.LastReadAt
	}
	return info, nil
}

// MarkRead moves the user's read marker to the newest message
func (s *ChatService) MarkRead(ctx context.Context, userID, groupID string) (*models.ChatReadState, error) {
	if groupID == "" {
		return nil, invalid("group_id", "is required")
	}
	if err := requireMember(ctx, s.groups, groupID, userID); err != nil {
		return nil, err
	}

	state, err := s.chat.MarkRead(ctx, groupID, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to mark read: %w", err)
	}
	return state, nil
}

// Subscriptions lists the groups whose messages a connection receives
func (s *ChatService) Subscriptions(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.groups.GroupIDsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load groups: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}
