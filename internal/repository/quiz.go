package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"readalong-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// QuizRepository handles database operations for quizzes and responses
type QuizRepository struct {
	db *pgxpool.Pool
}

// NewQuizRepository creates a new quiz repository
func NewQuizRepository(db *pgxpool.Pool) *QuizRepository {
	return &QuizRepository{db: db}
}

// GetByDay retrieves the quiz for a program day
func (r *QuizRepository) GetByDay(ctx context.Context, day int) (*models.Quiz, error) {
	query := `SELECT id, day_number, questions, created_at FROM quizzes WHERE day_number = $1`
	var (
		q   models.Quiz
		raw []byte
	)
	if err := r.db.QueryRow(ctx, query, day).Scan(&q.ID, &q.DayNumber, &raw, &q.CreatedAt); err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("quiz for day %d: %w", day, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	questions, err := decodeQuestions(raw)
	if err != nil {
		return nil, fmt.Errorf("quiz for day %d: %w", day, err)
	}
	q.Questions = questions
	return &q, nil
}

// decodeQuestions accepts either a bare array, an object wrapping the
// array under "questions", or either of those double-encoded as a string.
func decodeQuestions(raw []byte) ([]models.QuizQuestion, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		raw = []byte(s)
	}

	var list []models.QuizQuestion
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var wrapped struct {
		Questions []models.QuizQuestion `json:"questions"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to decode questions: %w", err)
	}
	return wrapped.Questions, nil
}

// CreateResponse records one scored quiz attempt
func (r *QuizRepository) CreateResponse(ctx context.Context, resp *models.QuizResponse) error {
	query := `
		INSERT INTO quiz_responses (id, user_id, day_number, score, total_questions, answered_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query, resp.ID, resp.UserID, resp.DayNumber, resp.Score, resp.TotalQuestions, resp.AnsweredAt)
	if err != nil {
		return fmt.Errorf("failed to create quiz response: %w", err)
	}
	return nil
}
