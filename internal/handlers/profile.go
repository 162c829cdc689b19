package handlers

import (
	"net/http"

	"readalong-backend/internal/middleware"

	"github.com/rs/zerolog/log"
)

// ProfileHandler handles the caller's profile
type ProfileHandler struct {
	profiles ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profiles ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Get handles GET /api/v1/user/profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	view, err := h.profiles.Get(ctx, middleware.GetIdentity(ctx))
	if err != nil {
		respondServiceError(w, r, err, "Failed to fetch profile")
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// UpdateProfileRequest is the body of PUT /api/v1/user/profile
type UpdateProfileRequest struct {
	DisplayName string `json:"display_name"`
}

// Update handles PUT /api/v1/user/profile
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := middleware.GetIdentity(ctx)

	var req UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.profiles.UpdateDisplayName(ctx, identity, req.DisplayName)
	if err != nil {
		respondServiceError(w, r, err, "Failed to update profile")
		return
	}

	log.Info().Str("user_id", identity.UserID).Msg("Profile updated")

	respondJSON(w, http.StatusOK, map[string]any{
		"user_id":      identity.UserID,
		"email":        identity.Email,
		"display_name": profile.DisplayName,
		"updated_at":   profile.UpdatedAt,
	})
}

// PushTokenRequest is the body of PUT /api/v1/user/push-token
type PushTokenRequest struct {
	PushToken string `json:"push_token"`
}

// SetPushToken handles PUT /api/v1/user/push-token
func (h *ProfileHandler) SetPushToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req PushTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.profiles.SetPushToken(ctx, userID, req.PushToken); err != nil {
		respondServiceError(w, r, err, "Failed to save push token")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
