package repository

import (
	"context"
	"fmt"

	"readalong-backend/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReactionRepository handles database operations for share reactions
type ReactionRepository struct {
	db *pgxpool.Pool
}

// NewReactionRepository creates a new reaction repository
func NewReactionRepository(db *pgxpool.Pool) *ReactionRepository {
	return &ReactionRepository{db: db}
}

// Toggle removes the user's reaction on the share when present, otherwise
// adds it. Concurrent toggles for the same (share, user, type) are serialized
// by a transaction-scoped advisory lock. likeCount is read inside the same
// transaction.
func (r *ReactionRepository) Toggle(ctx context.Context, ref models.ShareRef, userID, reactionType string) (added bool, likeCount int, err error) {
	textID, foodID := ref.Columns()

	err = pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		lockKey := ref.String() + ":" + userID + ":" + reactionType
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, lockKey); err != nil {
			return fmt.Errorf("failed to lock reaction: %w", err)
		}

		result, err := tx.Exec(ctx, `
			DELETE FROM share_reactions
			WHERE share_id = $1 AND share_type = $2 AND user_id = $3 AND reaction_type = $4
		`, ref.ID, string(ref.Type), userID, reactionType)
		if err != nil {
			return fmt.Errorf("failed to remove reaction: %w", err)
		}

		if result.RowsAffected() == 0 {
			_, err = tx.Exec(ctx, `
				INSERT INTO share_reactions (id, text_share_id, food_log_id, user_id, reaction_type)
				VALUES ($1, $2, $3, $4, $5)
			`, uuid.New().String(), textID, foodID, userID, reactionType)
			if err != nil {
				return fmt.Errorf("failed to add reaction: %w", err)
			}
			added = true
		}

		err = tx.QueryRow(ctx, `
			SELECT COUNT(*) FROM share_reactions
			WHERE share_id = $1 AND share_type = $2 AND reaction_type = $3
		`, ref.ID, string(ref.Type), reactionType).Scan(&likeCount)
		if err != nil {
			return fmt.Errorf("failed to count reactions: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, 0, err
	}
	return added, likeCount, nil
}

// RefsForShares returns one ref per reaction whose share id is in ids
func (r *ReactionRepository) RefsForShares(ctx context.Context, ids []string) ([]models.ShareRef, error) {
	return selectRefs(ctx, r.db, `SELECT share_id, share_type FROM share_reactions WHERE share_id = ANY($1)`, ids)
}

// UserRefsForShares returns the refs among ids that userID reacted to
func (r *ReactionRepository) UserRefsForShares(ctx context.Context, userID string, ids []string) ([]models.ShareRef, error) {
	return selectRefs(ctx, r.db,
		`SELECT share_id, share_type FROM share_reactions WHERE user_id = $1 AND share_id = ANY($2)`,
		userID, ids)
}
