package services

import (
	"context"
	"fmt"
	"time"

	"readalong-backend/internal/models"
	"readalong-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const (
	defaultShareLimit = 20
	maxShareLimit     = 100
)

// ShareService handles daily text shares
type ShareService struct {
	shares   ShareStore
	groups   GroupStore
	program  *ProgramService
	maxChars int
}

// NewShareService creates a new share service
func NewShareService(shares ShareStore, groups GroupStore, program *ProgramService, maxChars int) *ShareService {
	return &ShareService{
		shares:   shares,
		groups:   groups,
		program:  program,
		maxChars: maxChars,
	}
}

// SubmitShareInput is a text share submission
type SubmitShareInput struct {
	Content   string  `json:"content"`
	DayNumber *int    `json:"day_number"`
	GroupID   *string `json:"group_id"`
}

// Submit writes the caller's share for a day. created is false when an
// existing share for that day was replaced.
func (s *ShareService) Submit(ctx context.Context, userID string, in SubmitShareInput) (*models.TextShare, bool, error) {
	content, err := requireText("content", in.Content, s.maxChars)
	if err != nil {
		return nil, false, err
	}

	if in.DayNumber == nil {
		return nil, false, invalid("day_number", "is required")
	}
	day := *in.DayNumber
	if err := s.program.ValidateDay(day); err != nil {
		return nil, false, err
	}

	groupID, err := resolveGroupID(ctx, s.groups, userID, in.GroupID)
	if err != nil {
		return nil, false, err
	}

	share, created, err := s.shares.Upsert(ctx, &models.TextShare{
		ID:        uuid.New().String(),
		UserID:    userID,
		GroupID:   groupID,
		DayNumber: day,
		Content:   content,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to save share: %w", err)
	}
	return share, created, nil
}

// ListSharesInput narrows a share listing
type ListSharesInput struct {
	GroupID   string
	DayNumber int
	AllUsers  bool
	Limit     int
}

// NamedShare is a text share with its author's display name
type NamedShare struct {
	*models.TextShare
	DisplayName string `json:"display_name"`
}

// List returns the caller's shares, or with AllUsers every share in one of
// the caller's groups.
func (s *ShareService) List(ctx context.Context, userID string, in ListSharesInput) ([]NamedShare, error) {
	if in.DayNumber != 0 {
		if err := s.program.ValidateDay(in.DayNumber); err != nil {
			return nil, err
		}
	}

	filter := repository.ShareFilter{
		DayNumber: in.DayNumber,
		Limit:     clampLimit(in.Limit, defaultShareLimit, maxShareLimit),
	}

	switch {
	case !in.AllUsers:
		filter.UserID = userID
		if in.GroupID != "" {
			filter.GroupID = in.GroupID
		}
	case in.GroupID != "":
		if err := requireMember(ctx, s.groups, in.GroupID, userID); err != nil {
			return nil, err
		}
		filter.GroupID = in.GroupID
	default:
		group, err := primaryGroup(ctx, s.groups, userID)
		if err != nil {
			return nil, err
		}
		filter.GroupID = group.ID
	}

	shares, err := s.shares.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list shares: %w", err)
	}

	return lo.Map(shares, func(share *models.TextShare, _ int) NamedShare {
		return NamedShare{
			TextShare:   share,
			DisplayName: models.DisplayName(share.UserID, share.ProfileName),
		}
	}), nil
}

func clampLimit(limit, def, maxLimit int) int {
	if limit <= 0 {
		return def
	}
	return min(limit, maxLimit)
}
