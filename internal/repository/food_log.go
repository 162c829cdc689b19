package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"readalong-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FoodLogRepository handles database operations for food logs
type FoodLogRepository struct {
	db *pgxpool.Pool
}

// NewFoodLogRepository creates a new food log repository
func NewFoodLogRepository(db *pgxpool.Pool) *FoodLogRepository {
	return &FoodLogRepository{db: db}
}

// CreateWithItems inserts a food log and its items in one transaction
func (r *FoodLogRepository) CreateWithItems(ctx context.Context, log *models.FoodLog, items []models.FoodLogItem) error {
	detected, err := json.Marshal(log.DetectedFoods)
	if err != nil {
		return fmt.Errorf("failed to encode detected foods: %w", err)
	}

	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO food_logs (id, user_id, group_id, food_name, content, image_url, detected_foods, user_input, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		`
		_, err := tx.Exec(ctx, query,
			log.ID, log.UserID, log.GroupID, log.FoodName, log.Content, log.ImageURL, detected, log.UserInput, log.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create food log: %w", err)
		}

		if len(items) == 0 {
			return nil
		}

		batch := &pgx.Batch{}
		for _, item := range items {
			batch.Queue(`
				INSERT INTO food_log_items (id, food_log_id, user_id, name, portion, description)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, item.ID, item.FoodLogID, item.UserID, item.Name, item.Portion, item.Description)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to create food log items: %w", err)
		}
		return nil
	})
}

// GetByID retrieves a food log by ID
func (r *FoodLogRepository) GetByID(ctx context.Context, id string) (*models.FoodLog, error) {
	query := `
		SELECT f.id, f.user_id, f.group_id, f.food_name, f.content, f.image_url, f.detected_foods,
		       f.user_input, f.created_at, f.updated_at, p.display_name
		FROM food_logs f
		LEFT JOIN profiles p ON p.user_id = f.user_id
		WHERE f.id = $1
	`
	log, err := scanFoodLog(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("food log %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get food log: %w", err)
	}
	return log, nil
}

// ListByGroup returns a group's food logs newest first, skipping one user
func (r *FoodLogRepository) ListByGroup(ctx context.Context, groupID, excludeUserID string, limit int) ([]*models.FoodLog, error) {
	query := `
		SELECT f.id, f.user_id, f.group_id, f.food_name, f.content, f.image_url, f.detected_foods,
		       f.user_input, f.created_at, f.updated_at, p.display_name
		FROM food_logs f
		LEFT JOIN profiles p ON p.user_id = f.user_id
		WHERE f.group_id = $1 AND f.user_id <> $2
		ORDER BY f.created_at DESC
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, groupID, excludeUserID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list food logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.FoodLog
	for rows.Next() {
		log, err := scanFoodLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan food log: %w", err)
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating food logs: %w", err)
	}
	return logs, nil
}

func scanFoodLog(row interface{ Scan(...any) error }) (*models.FoodLog, error) {
	var (
		f        models.FoodLog
		detected []byte
	)
	err := row.Scan(
		&f.ID, &f.UserID, &f.GroupID, &f.FoodName, &f.Content, &f.ImageURL, &detected,
		&f.UserInput, &f.CreatedAt, &f.UpdatedAt, &f.ProfileName,
	)
	if err != nil {
		return nil, err
	}
	if len(detected) > 0 {
		if err := json.Unmarshal(detected, &f.DetectedFoods); err != nil {
			return nil, fmt.Errorf("failed to decode detected foods: %w", err)
		}
	}
	return &f, nil
}
