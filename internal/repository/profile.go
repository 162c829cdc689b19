package repository

import (
	"context"
	"fmt"

	"readalong-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ProfileRepository handles database operations for profiles
type ProfileRepository struct {
	db *pgxpool.Pool
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetByUserID retrieves a profile by user ID
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	query := `
		SELECT user_id, email, display_name, push_token, created_at, updated_at
		FROM profiles
		WHERE user_id = $1
	`
	var p models.Profile
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&p.UserID, &p.Email, &p.DisplayName, &p.PushToken, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("profile %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

// UpsertDisplayName inserts or updates the display name for a user
func (r *ProfileRepository) UpsertDisplayName(ctx context.Context, userID string, email *string, displayName string) (*models.Profile, error) {
	query := `
		INSERT INTO profiles (user_id, email, display_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET display_name = EXCLUDED.display_name,
		    email = COALESCE(EXCLUDED.email, profiles.email),
		    updated_at = now()
		RETURNING user_id, email, display_name, push_token, created_at, updated_at
	`
	var p models.Profile
	err := r.db.QueryRow(ctx, query, userID, email, displayName).Scan(
		&p.UserID, &p.Email, &p.DisplayName, &p.PushToken, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}
	return &p, nil
}

// UpdatePushToken sets or clears the APNs device token for a user
func (r *ProfileRepository) UpdatePushToken(ctx context.Context, userID string, pushToken *string) error {
	query := `
		INSERT INTO profiles (user_id, push_token)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET push_token = EXCLUDED.push_token, updated_at = now()
	`
	_, err := r.db.Exec(ctx, query, userID, pushToken)
	if err != nil {
		return fmt.Errorf("failed to update push token: %w", err)
	}
	return nil
}

// PushTokens returns the registered device tokens for the given users
func (r *ProfileRepository) PushTokens(ctx context.Context, userIDs []string) (map[string]string, error) {
	tokens := make(map[string]string)
	if len(userIDs) == 0 {
		return tokens, nil
	}

	query := `
		SELECT user_id, push_token
		FROM profiles
		WHERE user_id = ANY($1) AND push_token IS NOT NULL AND push_token <> ''
	`
	rows, err := r.db.Query(ctx, query, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get push tokens: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID, token string
		if err := rows.Scan(&userID, &token); err != nil {
			return nil, fmt.Errorf("failed to scan push token: %w", err)
		}
		tokens[userID] = token
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating push tokens: %w", err)
	}
	return tokens, nil
}
