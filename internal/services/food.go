package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"readalong-backend/internal/models"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const (
	maxImageBytes     = 10 << 20
	maxFoodInputChars = 1000
)

// FoodAnalyzer recognises food items in an image
type FoodAnalyzer interface {
	Configured() bool
	DetectFoods(ctx context.Context, image []byte, mimeType string) ([]models.DetectedFood, error)
}

// ImageStorage issues upload URLs for images
type ImageStorage interface {
	PresignUpload(ctx context.Context, key, contentType string) (uploadURL, publicURL string, err error)
}

// FoodService handles food logs and photo analysis
type FoodService struct {
	logs     FoodLogStore
	groups   GroupStore
	analyzer FoodAnalyzer
	storage  ImageStorage
	now      func() time.Time
}

// NewFoodService creates a new food service
func NewFoodService(logs FoodLogStore, groups GroupStore, analyzer FoodAnalyzer, storage ImageStorage) *FoodService {
	return &FoodService{
		logs:     logs,
		groups:   groups,
		analyzer: analyzer,
		storage:  storage,
		now:      time.Now,
	}
}

// SaveFoodInput is a food log submission. DetectedFoods must be present
// but may be empty.
type SaveFoodInput struct {
	DetectedFoods []models.DetectedFood `json:"detected_foods"`
	ImageURL      *string               `json:"image_url"`
	UserInput     *string               `json:"user_input"`
	FoodName      *string               `json:"food_name"`
	GroupID       *string               `json:"group_id"`
}

// Save stores a food log with its items in the caller's group
func (s *FoodService) Save(ctx context.Context, userID string, in SaveFoodInput) (*models.FoodLog, error) {
	if in.DetectedFoods == nil {
		return nil, invalid("detected_foods", "Invalid food data")
	}

	foods := lo.Map(in.DetectedFoods, func(f models.DetectedFood, _ int) models.DetectedFood {
		return models.DetectedFood{
			Name:        lo.Ternary(cleanText(f.Name) == "", unknownFoodName, cleanText(f.Name)),
			Portion:     lo.Ternary(cleanText(f.Portion) == "", unknownPortion, cleanText(f.Portion)),
			Description: cleanText(f.Description),
		}
	})

	userInput := optionalText(in.UserInput)
	if userInput != nil && utf8.RuneCountInString(*userInput) > maxFoodInputChars {
		return nil, invalid("user_input", "must be %d characters or less", maxFoodInputChars)
	}

	foodName := optionalText(in.FoodName)
	if foodName == nil && len(foods) > 0 {
		joined := strings.Join(lo.Map(foods, func(f models.DetectedFood, _ int) string { return f.Name }), "、")
		foodName = &joined
	}

	groupID, err := resolveGroupID(ctx, s.groups, userID, in.GroupID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	log := &models.FoodLog{
		ID:            uuid.New().String(),
		UserID:        userID,
		GroupID:       groupID,
		FoodName:      foodName,
		Content:       userInput,
		ImageURL:      optionalText(in.ImageURL),
		DetectedFoods: foods,
		UserInput:     userInput,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	items := lo.Map(foods, func(f models.DetectedFood, _ int) models.FoodLogItem {
		return models.FoodLogItem{
			ID:          uuid.New().String(),
			FoodLogID:   log.ID,
			UserID:      userID,
			Name:        f.Name,
			Portion:     f.Portion,
			Description: f.Description,
		}
	})

	if err := s.logs.CreateWithItems(ctx, log, items); err != nil {
		return nil, fmt.Errorf("failed to save food log: %w", err)
	}
	return log, nil
}

// Analyze decodes a base64 image, checks it is an image and asks the
// analyzer for the foods in it
func (s *FoodService) Analyze(ctx context.Context, encoded string) ([]models.DetectedFood, error) {
	if s.analyzer == nil || !s.analyzer.Configured() {
		return nil, ErrAIUnavailable
	}

	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, invalid("image", "No image provided")
	}
	if _, data, ok := strings.Cut(encoded, ";base64,"); ok && strings.HasPrefix(encoded, "data:") {
		encoded = data
	}

	image, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, invalid("image", "must be base64 encoded")
	}
	if len(image) > maxImageBytes {
		return nil, invalid("image", "must be %d MB or less", maxImageBytes>>20)
	}

	mime := mimetype.Detect(image)
	if !strings.HasPrefix(mime.String(), "image/") {
		return nil, invalid("image", "unsupported file type %s", mime.String())
	}

	foods, err := s.analyzer.DetectFoods(ctx, image, mime.String())
	if err != nil {
		return nil, fmt.Errorf("failed to analyze image: %w", err)
	}
	return foods, nil
}

// UploadURL is a pre-signed image upload target
type UploadURL struct {
	UploadURL string `json:"upload_url"`
	ImageURL  string `json:"image_url"`
	ExpiresIn int    `json:"expires_in"`
}

// UploadURL issues a pre-signed PUT URL for a food photo
func (s *FoodService) UploadURL(ctx context.Context, userID, filename, contentType string) (*UploadURL, error) {
	if s.storage == nil {
		return nil, fmt.Errorf("image storage not configured")
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, invalid("content_type", "must be an image type")
	}

	ext := strings.ToLower(path.Ext(filename))
	if m := mimetype.Lookup(contentType); m != nil {
		ext = m.Extension()
	}
	key := fmt.Sprintf("food/%s/%s%s", userID, uuid.New().String(), ext)

	uploadURL, publicURL, err := s.storage.PresignUpload(ctx, key, contentType)
	if err != nil {
		return nil, err
	}
	return &UploadURL{
		UploadURL: uploadURL,
		ImageURL:  publicURL,
		ExpiresIn: int(presignExpiry.Seconds()),
	}, nil
}

func optionalText(s *string) *string {
	if s == nil {
		return nil
	}
	cleaned := cleanText(*s)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}
