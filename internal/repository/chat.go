package repository

import (
	"context"
	"fmt"
	"time"

	"readalong-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChatRepository handles database operations for chat messages and read markers
type ChatRepository struct {
	db *pgxpool.Pool
}

// NewChatRepository creates a new chat repository
func NewChatRepository(db *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{db: db}
}

func collectMessages(rows pgx.Rows) ([]*models.ChatMessage, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.ChatMessage, error) {
		var m models.ChatMessage
		err := row.Scan(&m.ID, &m.GroupID, &m.UserID, &m.Message, &m.CreatedAt)
		return &m, err
	})
}

// Create inserts a message and fills its generated id and timestamp
func (r *ChatRepository) Create(ctx context.Context, msg *models.ChatMessage) error {
	query := `
		INSERT INTO chat_messages (group_id, user_id, message)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	if err := r.db.QueryRow(ctx, query, msg.GroupID, msg.UserID, msg.Message).Scan(&msg.ID, &msg.CreatedAt); err != nil {
		return fmt.Errorf("failed to create chat message: %w", err)
	}
	return nil
}

// Recent returns the latest messages of a group in ascending order
func (r *ChatRepository) Recent(ctx context.Context, groupID string, limit int) ([]*models.ChatMessage, error) {
	query := `
		SELECT id, group_id, user_id, message, created_at FROM (
			SELECT id, group_id, user_id, message, created_at
			FROM chat_messages
			WHERE group_id = $1
			ORDER BY id DESC
			LIMIT $2
		) latest
		ORDER BY id ASC
	`
	rows, err := r.db.Query(ctx, query, groupID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent messages: %w", err)
	}
	msgs, err := collectMessages(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan messages: %w", err)
	}
	return msgs, nil
}

// After returns up to limit messages with id > afterID in ascending order
func (r *ChatRepository) After(ctx context.Context, groupID string, afterID int64, limit int) ([]*models.ChatMessage, error) {
	query := `
		SELECT id, group_id, user_id, message, created_at
		FROM chat_messages
		WHERE group_id = $1 AND id > $2
		ORDER BY id ASC
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, groupID, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages after %d: %w", afterID, err)
	}
	msgs, err := collectMessages(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan messages: %w", err)
	}
	return msgs, nil
}

// GetReadState returns the read marker, or a zero marker when none exists
func (r *ChatRepository) GetReadState(ctx context.Context, groupID, userID string) (*models.ChatReadState, error) {
	query := `
		SELECT group_id, user_id, last_read_message_id, last_read_at
		FROM chat_read_states
		WHERE group_id = $1 AND user_id = $2
	`
	var s models.ChatReadState
	err := r.db.QueryRow(ctx, query, groupID, userID).Scan(&s.GroupID, &s.UserID, &s.LastReadMessageID, &s.LastReadAt)
	if err != nil {
		if isNoRows(err) {
			return &models.ChatReadState{GroupID: groupID, UserID: userID}, nil
		}
		return nil, fmt.Errorf("failed to get read state: %w", err)
	}
	return &s, nil
}

// CountUnread counts messages from other users after the given id
func (r *ChatRepository) CountUnread(ctx context.Context, groupID, userID string, afterID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM chat_messages
		WHERE group_id = $1 AND user_id <> $2 AND id > $3
	`
	var n int
	if err := r.db.QueryRow(ctx, query, groupID, userID, afterID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return n, nil
}

// MarkRead moves the read marker to the newest message in the group.
// The marker never moves backwards.
func (r *ChatRepository) MarkRead(ctx context.Context, groupID, userID string, at time.Time) (*models.ChatReadState, error) {
	query := `
		INSERT INTO chat_read_states (group_id, user_id, last_read_message_id, last_read_at)
		VALUES ($1, $2, COALESCE((SELECT MAX(id) FROM chat_messages WHERE group_id = $1), 0), $3)
		ON CONFLICT (group_id, user_id) DO UPDATE
		SET last_read_message_id = GREATEST(chat_read_states.last_read_message_id, EXCLUDED.last_read_message_id),
		    last_read_at = EXCLUDED.last_read_at
		RETURNING group_id, user_id, last_read_message_id, last_read_at
	`
	var s models.ChatReadState
	err := r.db.QueryRow(ctx, query, groupID, userID, at).Scan(&s.GroupID, &s.UserID, &s.LastReadMessageID, &s.LastReadAt)
	if err != nil {
		return nil, fmt.Errorf("failed to mark messages read: %w", err)
	}
	return &s, nil
}
