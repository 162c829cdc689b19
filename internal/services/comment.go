package services

import (
	"context"
	"fmt"

	"readalong-backend/internal/models"

	"github.com/google/uuid"
)

const maxCommentChars = 500

// CommentService handles comments on shares
type CommentService struct {
	comments CommentStore
	access   shareAccess
}

// NewCommentService creates a new comment service
func NewCommentService(comments CommentStore, shares ShareStore, foods FoodLogStore, groups GroupStore) *CommentService {
	return &CommentService{
		comments: comments,
		access:   shareAccess{shares: shares, foods: foods, groups: groups},
	}
}

// Add posts a comment on a share the caller can see
func (s *CommentService) Add(ctx context.Context, userID string, ref models.ShareRef, content string) (*models.ShareComment, error) {
	cleaned, err := requireText("content", content, maxCommentChars)
	if err != nil {
		return nil, err
	}
	if err := s.access.check(ctx, userID, ref); err != nil {
		return nil, err
	}

	comment, err := s.comments.Create(ctx, uuid.New().String(), ref, userID, cleaned)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	comment.UserName = models.DisplayName(comment.UserID, comment.ProfileName)
	return comment, nil
}

// List returns a share's comments oldest first
func (s *CommentService) List(ctx context.Context, userID string, ref models.ShareRef) ([]*models.ShareComment, error) {
	if err := s.access.check(ctx, userID, ref); err != nil {
		return nil, err
	}

	comments, err := s.comments.ListByShare(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	for _, c := range comments {
		c.UserName = models.DisplayName(c.UserID, c.ProfileName)
	}
	return comments, nil
}
