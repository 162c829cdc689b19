package repository

import (
	"context"
	"fmt"

	"readalong-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ContentRepository handles database operations for daily reading content
type ContentRepository struct {
	db *pgxpool.Pool
}

// NewContentRepository creates a new content repository
func NewContentRepository(db *pgxpool.Pool) *ContentRepository {
	return &ContentRepository{db: db}
}

// GetByDay retrieves the content for a program day
func (r *ContentRepository) GetByDay(ctx context.Context, day int) (*models.DailyContent, error) {
	query := `SELECT id, day_number, title, content, created_at FROM daily_content WHERE day_number = $1`
	var c models.DailyContent
	if err := r.db.QueryRow(ctx, query, day).Scan(&c.ID, &c.DayNumber, &c.Title, &c.Content, &c.CreatedAt); err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("content for day %d: %w", day, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get content: %w", err)
	}
	return &c, nil
}
