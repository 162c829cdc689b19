package handlers

import (
	"net/http"

	"readalong-backend/internal/middleware"
	"readalong-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// maxAnalyzeBody bounds the base64 payload of a 10 MB image
const maxAnalyzeBody = 15 << 20

// FoodHandler handles food log requests
type FoodHandler struct {
	food FoodService
}

// NewFoodHandler creates a new food handler
func NewFoodHandler(food FoodService) *FoodHandler {
	return &FoodHandler{food: food}
}

// Save handles POST /api/v1/food/save
func (h *FoodHandler) Save(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req services.SaveFoodInput
	if !decodeJSON(w, r, &req) {
		return
	}

	foodLog, err := h.food.Save(ctx, userID, req)
	if err != nil {
		respondServiceError(w, r, err, "Failed to save food log")
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("food_log_id", foodLog.ID).
		Int("items", len(foodLog.DetectedFoods)).
		Msg("Food log saved")

	respondJSON(w, http.StatusCreated, map[string]any{"success": true, "data": foodLog})
}

// AnalyzeRequest is the body of POST /api/v1/food/analyze
type AnalyzeRequest struct {
	Image string `json:"image"`
}

// Analyze handles POST /api/v1/food/analyze
func (h *FoodHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req AnalyzeRequest
	if !decodeJSONLimit(w, r, &req, maxAnalyzeBody) {
		return
	}

	foods, err := h.food.Analyze(ctx, req.Image)
	if err != nil {
		respondServiceError(w, r, err, "Failed to analyze food image")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"foods": foods})
}

// UploadURLRequest is the body of POST /api/v1/food/upload-url
type UploadURLRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

// UploadURL handles POST /api/v1/food/upload-url
func (h *FoodHandler) UploadURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req UploadURLRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	upload, err := h.food.UploadURL(ctx, userID, req.Filename, req.ContentType)
	if err != nil {
		respondServiceError(w, r, err, "Failed to create upload URL")
		return
	}

	respondJSON(w, http.StatusOK, upload)
}
