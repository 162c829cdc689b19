package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"readalong-backend/internal/models"
	"readalong-backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type programMocks struct {
	program  *mockProgram
	quiz     *mockQuiz
	content  *mockContent
	progress *mockProgress
}

func newProgramHandler() (*ProgramHandler, programMocks) {
	m := programMocks{new(mockProgram), new(mockQuiz), new(mockContent), new(mockProgress)}
	return NewProgramHandler(m.program, m.quiz, m.content, m.progress), m
}

func TestProgramToday(t *testing.T) {
	h, m := newProgramHandler()
	start := "2025-03-01"
	m.program.On("Today", mock.Anything, testUser).Return(&services.DayInfo{DayNumber: 5, ProgramLength: 21, StartDate: &start}, nil)

	rec := httptest.NewRecorder()
	h.Today(rec, newRequest(t, http.MethodGet, "/api/v1/program/today", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	info := decodeBody[services.DayInfo](t, rec)
	assert.Equal(t, 5, info.DayNumber)
	assert.Equal(t, 21, info.ProgramLength)
}

func TestGetQuizUsesRequestedOrCurrentDay(t *testing.T) {
	h, m := newProgramHandler()
	m.program.On("DayOrToday", mock.Anything, testUser, intPtr(3)).Return(3, nil)
	m.program.On("DayOrToday", mock.Anything, testUser, (*int)(nil)).Return(4, nil)
	m.program.On("DayOrToday", mock.Anything, testUser, intPtr(22)).
		Return(0, &services.ValidationError{Field: "day_number", Message: "must be between 1 and 21"})
	m.quiz.On("Get", mock.Anything, 3).Return(&services.QuizView{ID: "q3", DayNumber: 3}, nil)
	m.quiz.On("Get", mock.Anything, 4).Return(nil, services.ErrNotFound)

	rec := httptest.NewRecorder()
	h.GetQuiz(rec, newRequest(t, http.MethodGet, "/api/v1/quiz?day=3", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "q3", decodeBody[services.QuizView](t, rec).ID)

	rec = httptest.NewRecorder()
	h.GetQuiz(rec, newRequest(t, http.MethodGet, "/api/v1/quiz", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.GetQuiz(rec, newRequest(t, http.MethodGet, "/api/v1/quiz?day=22", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	m.quiz.AssertNumberOfCalls(t, "Get", 2)
}

func TestSubmitQuiz(t *testing.T) {
	h, m := newProgramHandler()
	answers := []string{"A", "B"}
	m.quiz.On("Submit", mock.Anything, testUser, 3, answers).Return(&services.QuizResult{DayNumber: 3, Score: 2, Total: 2}, nil)

	rec := httptest.NewRecorder()
	h.SubmitQuiz(rec, newRequest(t, http.MethodPost, "/api/v1/quiz/submit", SubmitQuizRequest{DayNumber: 3, Answers: answers}))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 2, decodeBody[services.QuizResult](t, rec).Score)

	rec = httptest.NewRecorder()
	h.SubmitQuiz(rec, newRequest(t, http.MethodPost, "/api/v1/quiz/submit", map[string]any{"day_number": 3}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetContentAndProgress(t *testing.T) {
	h, m := newProgramHandler()
	m.program.On("DayOrToday", mock.Anything, testUser, intPtr(1)).Return(1, nil)
	m.content.On("Get", mock.Anything, 1).Return(&models.DailyContent{ID: "c1", DayNumber: 1, Title: "第一天"}, nil)
	m.progress.On("Stats", mock.Anything, testUser).Return(&services.Progress{ProgramLength: 21, QuizDays: 2}, nil)

	rec := httptest.NewRecorder()
	h.GetContent(rec, newRequest(t, http.MethodGet, "/api/v1/content?day=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "第一天", decodeBody[models.DailyContent](t, rec).Title)

	rec = httptest.NewRecorder()
	h.GetProgress(rec, newRequest(t, http.MethodGet, "/api/v1/progress", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decodeBody[services.Progress](t, rec).QuizDays)
}
