package repository

import (
	"context"
	"fmt"
	"time"

	"readalong-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProgressRepository reads a user's activity timestamps across tables
type ProgressRepository struct {
	db *pgxpool.Pool
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db *pgxpool.Pool) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// Activity loads quiz, share and food-log activity for one user
func (r *ProgressRepository) Activity(ctx context.Context, userID string) (*models.ActivityTimestamps, error) {
	var (
		out models.ActivityTimestamps
		err error
	)

	out.QuizAnsweredAt, err = r.times(ctx, `SELECT answered_at FROM quiz_responses WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load quiz activity: %w", err)
	}

	rows, err := r.db.Query(ctx, `SELECT day_number FROM text_shares WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load share activity: %w", err)
	}
	out.ShareDays, err = pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return nil, fmt.Errorf("failed to scan share activity: %w", err)
	}

	out.FoodLoggedAt, err = r.times(ctx, `SELECT created_at FROM food_logs WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load food activity: %w", err)
	}

	return &out, nil
}

func (r *ProgressRepository) times(ctx context.Context, query, userID string) ([]time.Time, error) {
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[time.Time])
}
