package repository

import (
	"context"
	"fmt"
	"strings"

	"readalong-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ShareRepository handles database operations for text shares
type ShareRepository struct {
	db *pgxpool.Pool
}

// NewShareRepository creates a new share repository
func NewShareRepository(db *pgxpool.Pool) *ShareRepository {
	return &ShareRepository{db: db}
}

// Upsert writes the share for (user, day) atomically. A second submission
// for the same day replaces content and bumps updated_at; the returned bool
// is true when a new row was inserted.
func (r *ShareRepository) Upsert(ctx context.Context, share *models.TextShare) (*models.TextShare, bool, error) {
	query := `
		INSERT INTO text_shares (id, user_id, group_id, day_number, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		ON CONFLICT ON CONSTRAINT text_shares_user_day_key DO UPDATE
		SET content = EXCLUDED.content, updated_at = clock_timestamp()
		RETURNING id, user_id, group_id, day_number, content, created_at, updated_at, (xmax = 0) AS inserted
	`
	var (
		out      models.TextShare
		inserted bool
	)
	err := r.db.QueryRow(ctx, query,
		share.ID, share.UserID, share.GroupID, share.DayNumber, share.Content,
	).Scan(
		&out.ID, &out.UserID, &out.GroupID, &out.DayNumber, &out.Content,
		&out.CreatedAt, &out.UpdatedAt, &inserted,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert text share: %w", err)
	}
	return &out, inserted, nil
}

// GetByID retrieves a text share by ID
func (r *ShareRepository) GetByID(ctx context.Context, id string) (*models.TextShare, error) {
	query := `
		SELECT id, user_id, group_id, day_number, content, created_at, updated_at
		FROM text_shares
		WHERE id = $1
	`
	var s models.TextShare
	err := r.db.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.UserID, &s.GroupID, &s.DayNumber, &s.Content, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("text share %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get text share: %w", err)
	}
	return &s, nil
}

// ShareFilter narrows List. Empty fields are not applied.
type ShareFilter struct {
	UserID        string
	GroupID       string
	DayNumber     int
	ExcludeUserID string
	Limit         int
}

// List returns text shares newest first with profile display names
func (r *ShareRepository) List(ctx context.Context, f ShareFilter) ([]*models.TextShare, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.UserID != "" {
		add("s.user_id = $%d", f.UserID)
	}
	if f.GroupID != "" {
		add("s.group_id = $%d", f.GroupID)
	}
	if f.DayNumber > 0 {
		add("s.day_number = $%d", f.DayNumber)
	}
	if f.ExcludeUserID != "" {
		add("s.user_id <> $%d", f.ExcludeUserID)
	}

	query := `
		SELECT s.id, s.user_id, s.group_id, s.day_number, s.content, s.created_at, s.updated_at, p.display_name
		FROM text_shares s
		LEFT JOIN profiles p ON p.user_id = s.user_id
	`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit)
	query += fmt.Sprintf(" ORDER BY s.created_at DESC LIMIT $%d", len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list text shares: %w", err)
	}

	shares, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.TextShare, error) {
		var s models.TextShare
		err := row.Scan(&s.ID, &s.UserID, &s.GroupID, &s.DayNumber, &s.Content, &s.CreatedAt, &s.UpdatedAt, &s.ProfileName)
		return &s, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan text shares: %w", err)
	}
	return shares, nil
}
