package handlers

import (
	"net/http"
	"regexp"

	"readalong-backend/internal/middleware"

	"github.com/go-chi/chi/v5"
)

const maxDraftBytes = 4 << 10

var draftKeyPattern = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

// DraftHandler stores unsent text per user and context key
type DraftHandler struct {
	drafts DraftStore
}

// NewDraftHandler creates a new draft handler
func NewDraftHandler(drafts DraftStore) *DraftHandler {
	return &DraftHandler{drafts: drafts}
}

// DraftBody is both the request and response of the draft endpoints
type DraftBody struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func draftKeyParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := chi.URLParam(r, "key")
	if !draftKeyPattern.MatchString(key) {
		respondError(w, "Invalid draft key", http.StatusBadRequest)
		return "", false
	}
	return key, true
}

// Get handles GET /api/v1/drafts/{key}
func (h *DraftHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key, ok := draftKeyParam(w, r)
	if !ok {
		return
	}

	value, err := h.drafts.Get(ctx, middleware.GetUserID(ctx), key)
	if err != nil {
		respondServiceError(w, r, err, "Failed to get draft")
		return
	}

	respondJSON(w, http.StatusOK, DraftBody{Key: key, Value: value})
}

// Put handles PUT /api/v1/drafts/{key}
func (h *DraftHandler) Put(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key, ok := draftKeyParam(w, r)
	if !ok {
		return
	}

	var req DraftBody
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Value) > maxDraftBytes {
		respondError(w, "Draft is too large", http.StatusBadRequest)
		return
	}

	if err := h.drafts.Put(ctx, middleware.GetUserID(ctx), key, req.Value); err != nil {
		respondServiceError(w, r, err, "Failed to save draft")
		return
	}

	respondJSON(w, http.StatusOK, DraftBody{Key: key, Value: req.Value})
}

// Delete handles DELETE /api/v1/drafts/{key}
func (h *DraftHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key, ok := draftKeyParam(w, r)
	if !ok {
		return
	}

	if err := h.drafts.Delete(ctx, middleware.GetUserID(ctx), key); err != nil {
		respondServiceError(w, r, err, "Failed to delete draft")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
