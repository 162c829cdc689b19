package repository

import (
	"context"
	"fmt"

	"readalong-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CommentRepository handles database operations for share comments
type CommentRepository struct {
	db *pgxpool.Pool
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *pgxpool.Pool) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create inserts a comment on the referenced share and returns it with the
// author's display name
func (r *CommentRepository) Create(ctx context.Context, id string, ref models.ShareRef, userID, content string) (*models.ShareComment, error) {
	textID, foodID := ref.Columns()
	query := `
		WITH inserted AS (
			INSERT INTO share_comments (id, text_share_id, food_log_id, user_id, content)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, share_id, share_type, user_id, content, created_at, updated_at
		)
		SELECT i.id, i.share_id, i.share_type, i.user_id, i.content, i.created_at, i.updated_at, p.display_name
		FROM inserted i
		LEFT JOIN profiles p ON p.user_id = i.user_id
	`
	var c models.ShareComment
	err := r.db.QueryRow(ctx, query, id, textID, foodID, userID, content).Scan(
		&c.ID, &c.ShareID, &c.ShareType, &c.UserID, &c.Content, &c.CreatedAt, &c.UpdatedAt, &c.ProfileName,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return &c, nil
}

// ListByShare returns the comments of one share oldest first
func (r *CommentRepository) ListByShare(ctx context.Context, ref models.ShareRef) ([]*models.ShareComment, error) {
	query := `
		SELECT c.id, c.share_id, c.share_type, c.user_id, c.content, c.created_at, c.updated_at, p.display_name
		FROM share_comments c
		LEFT JOIN profiles p ON p.user_id = c.user_id
		WHERE c.share_id = $1 AND c.share_type = $2
		ORDER BY c.created_at ASC
	`
	rows, err := r.db.Query(ctx, query, ref.ID, string(ref.Type))
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	comments, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.ShareComment, error) {
		var c models.ShareComment
		err := row.Scan(&c.ID, &c.ShareID, &c.ShareType, &c.UserID, &c.Content, &c.CreatedAt, &c.UpdatedAt, &c.ProfileName)
		return &c, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan comments: %w", err)
	}
	return comments, nil
}

// RefsForShares returns one ref per comment whose share id is in ids
func (r *CommentRepository) RefsForShares(ctx context.Context, ids []string) ([]models.ShareRef, error) {
	return selectRefs(ctx, r.db, `SELECT share_id, share_type FROM share_comments WHERE share_id = ANY($1)`, ids)
}

func selectRefs(ctx context.Context, db *pgxpool.Pool, query string, args ...any) ([]models.ShareRef, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select share refs: %w", err)
	}
	refs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.ShareRef, error) {
		var ref models.ShareRef
		err := row.Scan(&ref.ID, &ref.Type)
		return ref, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan share refs: %w", err)
	}
	return refs, nil
}
