package handlers

import (
	"net/http"
	"strings"

	"readalong-backend/internal/middleware"
	"readalong-backend/internal/models"
	"readalong-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// BuddyShareHandler serves the group feed with its comments and likes
type BuddyShareHandler struct {
	feed      FeedService
	comments  CommentService
	reactions ReactionService
}

// NewBuddyShareHandler creates a new buddy share handler
func NewBuddyShareHandler(feed FeedService, comments CommentService, reactions ReactionService) *BuddyShareHandler {
	return &BuddyShareHandler{
		feed:      feed,
		comments:  comments,
		reactions: reactions,
	}
}

// Feed handles GET /api/v1/buddyshare
func (h *BuddyShareHandler) Feed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	items, err := h.feed.Build(ctx, userID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to build feed")
		return
	}

	respondJSON(w, http.StatusOK, items)
}

// parseRef validates a share_id/share_type pair, answering 400 when it is
// incomplete or the type is unknown
func parseRef(w http.ResponseWriter, shareID, shareType string) (models.ShareRef, bool) {
	shareID = strings.TrimSpace(shareID)
	if shareID == "" || shareType == "" {
		respondError(w, "Missing share_id or share_type", http.StatusBadRequest)
		return models.ShareRef{}, false
	}
	t, err := models.ParseShareType(shareType)
	if err != nil {
		respondError(w, "Invalid share_type", http.StatusBadRequest)
		return models.ShareRef{}, false
	}
	if !validID(w, "share_id", shareID) {
		return models.ShareRef{}, false
	}
	return models.ShareRef{Type: t, ID: shareID}, true
}

// CommentRequest is the body of POST /api/v1/buddyshare/comments
type CommentRequest struct {
	ShareID   string `json:"share_id"`
	ShareType string `json:"share_type"`
	Content   string `json:"content"`
}

// AddComment handles POST /api/v1/buddyshare/comments
func (h *BuddyShareHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ref, ok := parseRef(w, req.ShareID, req.ShareType)
	if !ok {
		return
	}

	comment, err := h.comments.Add(ctx, userID, ref, req.Content)
	if err != nil {
		respondServiceError(w, r, err, "Failed to create comment")
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("share", ref.String()).
		Str("comment_id", comment.ID).
		Msg("Comment created")

	respondJSON(w, http.StatusCreated, comment)
}

// ListComments handles GET /api/v1/buddyshare/comments
func (h *BuddyShareHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	q := r.URL.Query()
	ref, ok := parseRef(w, q.Get("share_id"), q.Get("share_type"))
	if !ok {
		return
	}

	comments, err := h.comments.List(ctx, userID, ref)
	if err != nil {
		respondServiceError(w, r, err, "Failed to fetch comments")
		return
	}

	respondJSON(w, http.StatusOK, comments)
}

// ReactionRequest is the body of POST /api/v1/buddyshare/reactions
type ReactionRequest struct {
	ShareID      string `json:"share_id"`
	ShareType    string `json:"share_type"`
	ReactionType string `json:"reaction_type"`
}

// ToggleReaction handles POST /api/v1/buddyshare/reactions. Retries that
// carry the same Idempotency-Key get the first result back.
func (h *BuddyShareHandler) ToggleReaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req ReactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ref, ok := parseRef(w, req.ShareID, req.ShareType)
	if !ok {
		return
	}

	result, err := h.reactions.Toggle(ctx, userID, services.ToggleInput{
		Ref:            ref,
		ReactionType:   req.ReactionType,
		IdempotencyKey: strings.TrimSpace(r.Header.Get("Idempotency-Key")),
	})
	if err != nil {
		respondServiceError(w, r, err, "Failed to toggle reaction")
		return
	}

	respondJSON(w, http.StatusOK, result)
}
