package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"readalong-backend/internal/models"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// QuestionView is a quiz question without its answer
type QuestionView struct {
	Index    int               `json:"index"`
	Question string            `json:"question"`
	Options  map[string]string `json:"options"`
}

// QuizView is a day's quiz as shown before answering
type QuizView struct {
	ID        string         `json:"id"`
	DayNumber int            `json:"day_number"`
	Questions []QuestionView `json:"questions"`
}

// QuestionResult is the outcome for one submitted answer
type QuestionResult struct {
	Index         int    `json:"index"`
	Selected      string `json:"selected"`
	CorrectAnswer string `json:"correct_answer"`
	Correct       bool   `json:"correct"`
	Explanation   string `json:"explanation"`
}

// QuizResult is a scored submission
type QuizResult struct {
	DayNumber  int              `json:"day_number"`
	Score      int              `json:"score"`
	Total      int              `json:"total_questions"`
	Results    []QuestionResult `json:"results"`
	AnsweredAt time.Time        `json:"answered_at"`
}

// QuizService serves and scores daily quizzes
type QuizService struct {
	quizzes QuizStore
	program *ProgramService
	now     func() time.Time
}

// NewQuizService creates a new quiz service
func NewQuizService(quizzes QuizStore, program *ProgramService) *QuizService {
	return &QuizService{quizzes: quizzes, program: program, now: time.Now}
}

func (s *QuizService) load(ctx context.Context, day int) (*models.Quiz, error) {
	if err := s.program.ValidateDay(day); err != nil {
		return nil, err
	}
	quiz, err := s.quizzes.GetByDay(ctx, day)
	if err != nil {
		return nil, lookupErr(err, "quiz")
	}
	return quiz, nil
}

// Get returns the day's questions with the answers withheld
func (s *QuizService) Get(ctx context.Context, day int) (*QuizView, error) {
	quiz, err := s.load(ctx, day)
	if err != nil {
		return nil, err
	}

	return &QuizView{
		ID:        quiz.ID,
		DayNumber: quiz.DayNumber,
		Questions: lo.Map(quiz.Questions, func(q models.QuizQuestion, i int) QuestionView {
			return QuestionView{Index: i, Question: q.Question, Options: q.Options}
		}),
	}, nil
}

// Submit scores answers against the day's quiz and records the attempt.
// Missing answers count as wrong.
func (s *QuizService) Submit(ctx context.Context, userID string, day int, answers []string) (*QuizResult, error) {
	quiz, err := s.load(ctx, day)
	if err != nil {
		return nil, err
	}
	if len(answers) > len(quiz.Questions) {
		return nil, invalid("answers", "expected at most %d answers", len(quiz.Questions))
	}

	result := &QuizResult{
		DayNumber:  day,
		Total:      len(quiz.Questions),
		Results:    make([]QuestionResult, 0, len(quiz.Questions)),
		AnsweredAt: s.now(),
	}
	for i, q := range quiz.Questions {
		selected := ""
		if i < len(answers) {
			selected = strings.TrimSpace(answers[i])
		}
		correct := selected != "" && strings.EqualFold(selected, q.CorrectAnswer)
		if correct {
			result.Score++
		}
		result.Results = append(result.Results, QuestionResult{
			Index:         i,
			Selected:      selected,
			CorrectAnswer: q.CorrectAnswer,
			Correct:       correct,
			Explanation:   q.Explanation,
		})
	}

	err = s.quizzes.CreateResponse(ctx, &models.QuizResponse{
		ID:             uuid.New().String(),
		UserID:         userID,
		DayNumber:      day,
		Score:          result.Score,
		TotalQuestions: result.Total,
		AnsweredAt:     result.AnsweredAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save quiz response: %w", err)
	}
	return result, nil
}

// ContentService serves daily reading content
type ContentService struct {
	contents ContentStore
	program  *ProgramService
}

// NewContentService creates a new content service
func NewContentService(contents ContentStore, program *ProgramService) *ContentService {
	return &ContentService{contents: contents, program: program}
}

// Get returns the reading content for a day
func (s *ContentService) Get(ctx context.Context, day int) (*models.DailyContent, error) {
	if err := s.program.ValidateDay(day); err != nil {
		return nil, err
	}
	content, err := s.contents.GetByDay(ctx, day)
	if err != nil {
		return nil, lookupErr(err, "daily content")
	}
	return content, nil
}
