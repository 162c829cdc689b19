package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"readalong-backend/internal/models"
	"readalong-backend/internal/repository"
)

const maxDisplayNameChars = 50

// Identity is the authenticated caller as asserted by the auth provider
type Identity struct {
	UserID string
	Email  string
}

// ProfileView is the profile shape returned to clients
type ProfileView struct {
	UserID        string  `json:"user_id"`
	Email         *string `json:"email"`
	DisplayName   string  `json:"display_name"`
	ProfileExists bool    `json:"profile_exists"`
}

// ProfileService handles user profiles
type ProfileService struct {
	profiles ProfileStore
}

// NewProfileService creates a new profile service
func NewProfileService(profiles ProfileStore) *ProfileService {
	return &ProfileService{profiles: profiles}
}

// Get returns the caller's profile. Without a stored name the email local
// part is shown, then "User".
func (s *ProfileService) Get(ctx context.Context, id Identity) (*ProfileView, error) {
	view := &ProfileView{UserID: id.UserID}
	if id.Email != "" {
		email := id.Email
		view.Email = &email
	}

	profile, err := s.profiles.GetByUserID(ctx, id.UserID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}

	if profile != nil {
		view.ProfileExists = true
		if profile.Email != nil && view.Email == nil {
			view.Email = profile.Email
		}
		if profile.DisplayName != nil && *profile.DisplayName != "" {
			view.DisplayName = *profile.DisplayName
			return view, nil
		}
	}

	view.DisplayName = fallbackName(view.Email)
	return view, nil
}

func fallbackName(email *string) string {
	if email != nil {
		if local, _, _ := strings.Cut(*email, "@"); local != "" {
			return local
		}
	}
	return "User"
}

// UpdateDisplayName sets the caller's display name
func (s *ProfileService) UpdateDisplayName(ctx context.Context, id Identity, displayName string) (*models.Profile, error) {
	name, err := requireText("display_name", displayName, maxDisplayNameChars)
	if err != nil {
		return nil, err
	}

	var email *string
	if id.Email != "" {
		email = &id.Email
	}

	profile, err := s.profiles.UpsertDisplayName(ctx, id.UserID, email, name)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return profile, nil
}

// SetPushToken registers the caller's device token; an empty token clears it
func (s *ProfileService) SetPushToken(ctx context.Context, userID, pushToken string) error {
	pushToken = strings.TrimSpace(pushToken)
	if len(pushToken) > 200 {
		return invalid("push_token", "is too long")
	}

	var tok *string
	if pushToken != "" {
		tok = &pushToken
	}
	if err := s.profiles.UpdatePushToken(ctx, userID, tok); err != nil {
		return fmt.Errorf("failed to update push token: %w", err)
	}
	return nil
}
