package handlers

import (
	"net/http"
	"strconv"

	"readalong-backend/internal/middleware"

	"github.com/rs/zerolog/log"
)

// ChatHandler handles group chat requests
type ChatHandler struct {
	chat ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chat ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// SendMessageRequest is the body of POST /api/v1/chat/send
type SendMessageRequest struct {
	GroupID string `json:"group_id"`
	Message string `json:"message"`
}

// Send handles POST /api/v1/chat/send
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req SendMessageRequest
	if !decodeJSON(w, r, &req) || !validID(w, "group_id", req.GroupID) {
		return
	}

	msg, err := h.chat.Send(ctx, userID, req.GroupID, req.Message)
	if err != nil {
		respondServiceError(w, r, err, "Failed to send message")
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("group_id", msg.GroupID).
		Int64("message_id", msg.ID).
		Msg("Chat message sent")

	respondJSON(w, http.StatusCreated, map[string]any{"message": msg})
}

// Messages handles GET /api/v1/chat/messages
func (h *ChatHandler) Messages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	groupID := r.URL.Query().Get("group_id")
	if !validID(w, "group_id", groupID) {
		return
	}

	var afterID *int64
	if raw := r.URL.Query().Get("after_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 0 {
			respondError(w, "Invalid after_id", http.StatusBadRequest)
			return
		}
		afterID = &id
	}

	msgs, err := h.chat.History(ctx, userID, groupID, afterID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to load messages")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

// Unread handles GET /api/v1/chat/unread
func (h *ChatHandler) Unread(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	groupID := r.URL.Query().Get("group_id")
	if !validID(w, "group_id", groupID) {
		return
	}

	info, err := h.chat.Unread(ctx, userID, groupID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to count unread messages")
		return
	}

	respondJSON(w, http.StatusOK, info)
}

// MarkReadRequest is the body of POST /api/v1/chat/read
type MarkReadRequest struct {
	GroupID string `json:"group_id"`
}

// MarkRead handles POST /api/v1/chat/read
func (h *ChatHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req MarkReadRequest
	if !decodeJSON(w, r, &req) || !validID(w, "group_id", req.GroupID) {
		return
	}

	state, err := h.chat.MarkRead(ctx, userID, req.GroupID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to mark messages read")
		return
	}

	respondJSON(w, http.StatusOK, state)
}
