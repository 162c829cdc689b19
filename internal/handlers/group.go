package handlers

import (
	"net/http"

	"readalong-backend/internal/middleware"
	"readalong-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// GroupHandler handles group membership requests
type GroupHandler struct {
	groups GroupService
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(groups GroupService) *GroupHandler {
	return &GroupHandler{groups: groups}
}

// Create handles POST /api/v1/groups
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req services.CreateGroupInput
	if !decodeJSON(w, r, &req) {
		return
	}

	group, err := h.groups.Create(ctx, userID, req)
	if err != nil {
		respondServiceError(w, r, err, "Failed to create group")
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("group_id", group.ID).
		Str("invite_code", group.InviteCode).
		Msg("Group created")

	respondJSON(w, http.StatusCreated, group)
}

// Join handles POST /api/v1/groups/join
func (h *GroupHandler) Join(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req services.JoinGroupInput
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.groups.Join(ctx, userID, req)
	if err != nil {
		respondServiceError(w, r, err, "Failed to join group")
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
		log.Info().
			Str("user_id", userID).
			Str("group_id", result.GroupID).
			Msg("Joined group")
	}
	respondJSON(w, status, result)
}

// MyGroup handles GET /api/v1/groups/me
func (h *GroupHandler) MyGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	group, err := h.groups.MyGroup(ctx, userID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to get group")
		return
	}

	respondJSON(w, http.StatusOK, group)
}
