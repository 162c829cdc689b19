package services

import (
	"errors"
	"fmt"
)

var (
	ErrNoGroup           = errors.New("user not in any group")
	ErrNotGroupMember    = errors.New("not a member of this group")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrInvalidInviteCode = errors.New("邀請碼無效")
	ErrAIUnavailable     = errors.New("AI service not configured. Please contact administrator.")
	ErrRateLimited       = errors.New("too many requests")
	ErrUnauthorized      = errors.New("unauthorized")
)

// ValidationError is a client input problem; Message is safe to show
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
