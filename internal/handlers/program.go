package handlers

import (
	"net/http"

	"readalong-backend/internal/middleware"
)

// ProgramHandler serves the day-based reading program
type ProgramHandler struct {
	program  ProgramService
	quiz     QuizService
	content  ContentService
	progress ProgressService
}

// NewProgramHandler creates a new program handler
func NewProgramHandler(program ProgramService, quiz QuizService, content ContentService, progress ProgressService) *ProgramHandler {
	return &ProgramHandler{
		program:  program,
		quiz:     quiz,
		content:  content,
		progress: progress,
	}
}

// Today handles GET /api/v1/program/today
func (h *ProgramHandler) Today(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	info, err := h.program.Today(ctx, userID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to resolve program day")
		return
	}

	respondJSON(w, http.StatusOK, info)
}

// day resolves ?day= or falls back to the caller's current day
func (h *ProgramHandler) day(w http.ResponseWriter, r *http.Request) (int, bool) {
	requested, ok := queryInt(w, r, "day")
	if !ok {
		return 0, false
	}
	day, err := h.program.DayOrToday(r.Context(), middleware.GetUserID(r.Context()), requested)
	if err != nil {
		respondServiceError(w, r, err, "Failed to resolve program day")
		return 0, false
	}
	return day, true
}

// GetQuiz handles GET /api/v1/quiz
func (h *ProgramHandler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	day, ok := h.day(w, r)
	if !ok {
		return
	}

	quiz, err := h.quiz.Get(r.Context(), day)
	if err != nil {
		respondServiceError(w, r, err, "Failed to get quiz")
		return
	}

	respondJSON(w, http.StatusOK, quiz)
}

// SubmitQuizRequest is the body of POST /api/v1/quiz/submit
type SubmitQuizRequest struct {
	DayNumber int      `json:"day_number"`
	Answers   []string `json:"answers"`
}

// SubmitQuiz handles POST /api/v1/quiz/submit
func (h *ProgramHandler) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req SubmitQuizRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Answers == nil {
		respondError(w, "answers is required", http.StatusBadRequest)
		return
	}

	result, err := h.quiz.Submit(ctx, userID, req.DayNumber, req.Answers)
	if err != nil {
		respondServiceError(w, r, err, "Failed to submit quiz")
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

// GetContent handles GET /api/v1/content
func (h *ProgramHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	day, ok := h.day(w, r)
	if !ok {
		return
	}

	content, err := h.content.Get(r.Context(), day)
	if err != nil {
		respondServiceError(w, r, err, "Failed to get content")
		return
	}

	respondJSON(w, http.StatusOK, content)
}

// GetProgress handles GET /api/v1/progress
func (h *ProgramHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	progress, err := h.progress.Stats(ctx, userID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to get progress")
		return
	}

	respondJSON(w, http.StatusOK, progress)
}
