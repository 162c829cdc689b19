package handlers

import (
	"net/http"

	"readalong-backend/internal/middleware"
	"readalong-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// ShareHandler handles daily text shares
type ShareHandler struct {
	shares ShareService
}

// NewShareHandler creates a new share handler
func NewShareHandler(shares ShareService) *ShareHandler {
	return &ShareHandler{shares: shares}
}

// Submit handles POST /api/v1/shares
func (h *ShareHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req services.SubmitShareInput
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.GroupID != nil && !validID(w, "group_id", *req.GroupID) {
		return
	}

	share, created, err := h.shares.Submit(ctx, userID, req)
	if err != nil {
		respondServiceError(w, r, err, "Failed to save share")
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("share_id", share.ID).
		Int("day_number", share.DayNumber).
		Bool("created", created).
		Msg("Share saved")

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondJSON(w, status, share)
}

// List handles GET /api/v1/shares
func (h *ShareHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	day, ok := queryInt(w, r, "day_number")
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}

	in := services.ListSharesInput{
		GroupID:  r.URL.Query().Get("group_id"),
		AllUsers: queryBool(r, "all_users"),
	}
	if !validID(w, "group_id", in.GroupID) {
		return
	}
	if day != nil {
		if *day == 0 {
			respondError(w, "day_number must be between 1 and the program length", http.StatusBadRequest)
			return
		}
		in.DayNumber = *day
	}
	if limit != nil {
		in.Limit = *limit
	}

	shares, err := h.shares.List(ctx, userID, in)
	if err != nil {
		respondServiceError(w, r, err, "Failed to list shares")
		return
	}

	respondJSON(w, http.StatusOK, shares)
}
