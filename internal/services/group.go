package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"readalong-backend/internal/models"
	"readalong-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const (
	codeLength = 6
	codeChars  = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	maxGroupNameChars = 100

	msgJoined        = "成功加入群組"
	msgAlreadyMember = "您已經是此群組的成員"
)

// MembershipEvents is told when a user enters a group
type MembershipEvents interface {
	JoinedGroup(userID, groupID string)
}

// GroupService handles groups and invite codes
type GroupService struct {
	groups GroupStore
	events MembershipEvents
	now    func() time.Time
}

// NewGroupService creates a new group service. events may be nil.
func NewGroupService(groups GroupStore, events MembershipEvents) *GroupService {
	return &GroupService{groups: groups, events: events, now: time.Now}
}

func (s *GroupService) joined(userID, groupID string) {
	if s.events != nil {
		s.events.JoinedGroup(userID, groupID)
	}
}

// CreateGroupInput describes a new group
type CreateGroupInput struct {
	Name             string  `json:"name"`
	Description      *string `json:"description"`
	ProgramStartDate *string `json:"program_start_date"`
}

// Create makes a group led by the caller with a fresh invite code
func (s *GroupService) Create(ctx context.Context, leaderID string, in CreateGroupInput) (*models.Group, error) {
	name, err := requireText("name", in.Name, maxGroupNameChars)
	if err != nil {
		return nil, err
	}

	group := &models.Group{
		ID:          uuid.New().String(),
		Name:        name,
		Description: optionalText(in.Description),
		LeaderID:    &leaderID,
		CreatedAt:   s.now(),
	}
	if in.ProgramStartDate != nil && *in.ProgramStartDate != "" {
		start, err := time.Parse(time.DateOnly, *in.ProgramStartDate)
		if err != nil {
			return nil, invalid("program_start_date", "must be YYYY-MM-DD")
		}
		group.ProgramStartDate = &start
	}

	maxAttempts := 10
	for i := 0; i < maxAttempts; i++ {
		group.InviteCode = generateCode()
		err := s.groups.Create(ctx, group)
		if err == nil {
			s.joined(leaderID, group.ID)
			return group, nil
		}
		if !errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("failed to create group: %w", err)
		}
	}
	return nil, fmt.Errorf("failed to generate unique invite code after %d attempts", maxAttempts)
}

// generateCode generates a random invite code
func generateCode() string {
	code := make([]byte, codeLength)
	for i := range code {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(codeChars))))
		code[i] = codeChars[n.Int64()]
	}
	return string(code)
}

// JoinGroupInput is an invite code redemption. UserID, when sent, must be
// the caller.
type JoinGroupInput struct {
	InviteCode string  `json:"invite_code"`
	UserID     *string `json:"user_id"`
}

// JoinResult reports a redemption. Created is false when the caller was
// already a member.
type JoinResult struct {
	Message    string              `json:"message"`
	GroupID    string              `json:"group_id"`
	GroupName  string              `json:"group_name"`
	Membership *models.GroupMember `json:"membership,omitempty"`
	Created    bool                `json:"-"`
}

// Join adds the caller to the group owning the invite code
func (s *GroupService) Join(ctx context.Context, userID string, in JoinGroupInput) (*JoinResult, error) {
	code := strings.TrimSpace(in.InviteCode)
	if code == "" {
		return nil, invalid("", "邀請碼不能為空")
	}
	if in.UserID != nil && *in.UserID != "" && *in.UserID != userID {
		return nil, ErrForbidden
	}

	group, err := s.groups.GetByInviteCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidInviteCode
		}
		return nil, fmt.Errorf("failed to look up invite code: %w", err)
	}

	member := &models.GroupMember{
		GroupID:  group.ID,
		UserID:   userID,
		Role:     models.RoleMember,
		JoinedAt: s.now(),
	}
	created, err := s.groups.AddMember(ctx, member)
	if err != nil {
		return nil, fmt.Errorf("failed to join group: %w", err)
	}

	if !created {
		return &JoinResult{Message: msgAlreadyMember, GroupID: group.ID, GroupName: group.Name}, nil
	}
	s.joined(userID, group.ID)
	return &JoinResult{
		Message:    msgJoined,
		GroupID:    group.ID,
		GroupName:  group.Name,
		Membership: member,
		Created:    true,
	}, nil
}

// MemberView is a group member with a resolved display name
type MemberView struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	JoinedAt    time.Time `json:"joined_at"`
}

// GroupView is the caller's group with its members
type GroupView struct {
	*models.Group
	Members []MemberView `json:"members"`
}

// MyGroup returns the caller's group and members
func (s *GroupService) MyGroup(ctx context.Context, userID string) (*GroupView, error) {
	group, err := primaryGroup(ctx, s.groups, userID)
	if err != nil {
		return nil, err
	}

	members, err := s.groups.Members(ctx, group.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	return &GroupView{
		Group: group,
		Members: lo.Map(members, func(m *models.GroupMember, _ int) MemberView {
			return MemberView{
				UserID:      m.UserID,
				DisplayName: models.DisplayName(m.UserID, m.ProfileName),
				Role:        m.Role,
				JoinedAt:    m.JoinedAt,
			}
		}),
	}, nil
}
