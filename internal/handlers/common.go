package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"readalong-backend/internal/cache"
	"readalong-backend/internal/middleware"
	"readalong-backend/internal/services"

	"github.com/rs/zerolog/log"
)

const (
	msgInternal = "Internal server error"

	// maxJSONBody caps request bodies outside /food/analyze
	maxJSONBody = 1 << 20
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondJSON writes body as JSON with the given status
func respondJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}

// errorStatuses maps sentinel errors to the status they are reported with.
// The sentinel's own text is the response message.
var errorStatuses = []struct {
	err    error
	status int
}{
	{services.ErrUnauthorized, http.StatusUnauthorized},
	{services.ErrNoGroup, http.StatusForbidden},
	{services.ErrNotGroupMember, http.StatusForbidden},
	{services.ErrForbidden, http.StatusForbidden},
	{services.ErrNotFound, http.StatusNotFound},
	{services.ErrInvalidInviteCode, http.StatusNotFound},
	{cache.ErrDraftNotFound, http.StatusNotFound},
	{cache.ErrInFlight, http.StatusConflict},
	{services.ErrRateLimited, http.StatusTooManyRequests},
}

// respondServiceError maps a service error to a status code. Unknown errors
// are logged and hidden behind a generic message.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	var vErr *services.ValidationError
	if errors.As(err, &vErr) {
		respondError(w, vErr.Error(), http.StatusBadRequest)
		return
	}
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			respondError(w, e.err.Error(), e.status)
			return
		}
	}

	log.Error().
		Err(err).
		Str("user_id", middleware.GetUserID(r.Context())).
		Str("path", r.URL.Path).
		Msg(action)

	if errors.Is(err, services.ErrAIUnavailable) {
		respondError(w, services.ErrAIUnavailable.Error(), http.StatusInternalServerError)
		return
	}
	respondError(w, msgInternal, http.StatusInternalServerError)
}

// decodeJSON reads the request body into dst, answering 400 on failure
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	return decodeJSONLimit(w, r, dst, maxJSONBody)
}

// decodeJSONLimit is decodeJSON with a caller-chosen size cap. Oversized
// bodies answer 413.
func decodeJSONLimit(w http.ResponseWriter, r *http.Request, dst any, limit int64) bool {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return false
		}
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// validID answers 400 when a supplied id is not a UUID. Empty ids pass so
// that required-field checks stay with the services.
func validID(w http.ResponseWriter, name, value string) bool {
	if value == "" || services.IsUUID(value) {
		return true
	}
	respondError(w, "Invalid "+name, http.StatusBadRequest)
	return false
}

// queryInt parses an optional integer query parameter. A malformed value
// answers 400 and returns ok=false.
func queryInt(w http.ResponseWriter, r *http.Request, name string) (value *int, ok bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		respondError(w, "Invalid "+name, http.StatusBadRequest)
		return nil, false
	}
	return &n, true
}

// queryBool reads flags like ?all_users=true
func queryBool(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return b
}
