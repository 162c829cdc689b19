package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"readalong-backend/internal/config"
	"readalong-backend/internal/models"

	"github.com/samber/lo"
)

const (
	maxDetectedFoods = 10
	unknownFoodName  = "未知食物"
	unknownPortion   = "未知份量"
)

const foodDetectionPrompt = `Analyze this food image and identify all food items visible.

For each food item, provide:
1. The name of the food (in Traditional Chinese 繁體中文)
2. An estimated portion size (in grams or common measurements like "1碗", "1片", etc.)
3. A brief description (in Traditional Chinese)

Return as JSON in this exact format:
[
  {
    "name": "白飯",
    "portion": "1碗 (約200g)",
    "description": "蒸白米飯"
  },
  {
    "name": "烤雞胸肉",
    "portion": "1塊 (約150g)",
    "description": "烤雞胸肉"
  }
]

Important:
- Use Traditional Chinese (繁體中文) for all text
- Be specific about portion sizes
- If you can't identify a food clearly, still make your best estimate
- Limit to maximum 10 food items

Only return the JSON array, no additional text.`

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// GeminiClient recognises food items in photos with the Gemini REST API
type GeminiClient struct {
	http    httpDoer
	apiKey  string
	model   string
	baseURL string
}

// NewGeminiClient creates a client from AI settings
func NewGeminiClient(cfg config.AIConfig) *GeminiClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &GeminiClient{
		http:    &http.Client{Timeout: timeout},
		apiKey:  strings.TrimSpace(cfg.APIKey),
		model:   strings.TrimSpace(cfg.Model),
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
	}
}

func (c *GeminiClient) SetHTTPClient(client httpDoer) {
	if client == nil {
		c.http = &http.Client{Timeout: 60 * time.Second}
		return
	}
	c.http = client
}

// Configured reports whether an API key is present
func (c *GeminiClient) Configured() bool {
	return c.apiKey != ""
}

// DetectFoods sends the image with the detection prompt and parses the
// returned food list
func (c *GeminiClient) DetectFoods(ctx context.Context, image []byte, mimeType string) ([]models.DetectedFood, error) {
	if !c.Configured() {
		return nil, ErrAIUnavailable
	}

	payload := geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{InlineData: &geminiInlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(image)}},
				{Text: foodDetectionPrompt},
			},
		}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to build gemini request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read gemini response: %w", err)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode gemini response (status %d): %w", resp.StatusCode, err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("gemini error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini returned status %d", resp.StatusCode)
	}
	if len(parsed.Candidates) == 0 {
		return nil, errors.New("gemini returned no candidates")
	}

	var text strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}

	return parseDetectedFoods(text.String())
}

// parseDetectedFoods reads the model's JSON array, tolerating markdown
// fences, and fills missing names and portions
func parseDetectedFoods(text string) ([]models.DetectedFood, error) {
	text = stripCodeFence(text)

	var raw []struct {
		Name        *string `json:"name"`
		Portion     *string `json:"portion"`
		Description *string `json:"description"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}

	foods := make([]models.DetectedFood, 0, min(len(raw), maxDetectedFoods))
	for _, item := range lo.Slice(raw, 0, maxDetectedFoods) {
		foods = append(foods, models.DetectedFood{
			Name:        orDefault(item.Name, unknownFoodName),
			Portion:     orDefault(item.Portion, unknownPortion),
			Description: strings.TrimSpace(lo.FromPtr(item.Description)),
		})
	}
	return foods, nil
}

func orDefault(s *string, def string) string {
	if v := strings.TrimSpace(lo.FromPtr(s)); v != "" {
		return v
	}
	return def
}

func stripCodeFence(text string) string {
	if _, after, ok := strings.Cut(text, "```json"); ok {
		text, _, _ = strings.Cut(after, "```")
	} else if _, after, ok := strings.Cut(text, "```"); ok {
		text, _, _ = strings.Cut(after, "```")
	}
	return strings.TrimSpace(text)
}
