package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"readalong-backend/internal/middleware"
	"readalong-backend/internal/models"
	"readalong-backend/internal/services"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testUser     = "user-1"
	testGroup    = "0f8fad5b-d9cb-469f-a165-70867728950e"
	otherGroup   = "7c9e6679-7425-40de-944b-e07fc1f90ae7"
	testShare    = "16fd2706-8baf-433b-82eb-8c7fada847da"
	testFood     = "886313e1-3b8a-5372-9b90-0c9aee199e5d"
	missingShare = "a8098c1a-f86e-11da-bd1a-00112444be1e"
)

// newRequest builds an authenticated request with an optional JSON body
func newRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	return req.WithContext(middleware.WithIdentity(req.Context(), services.Identity{UserID: testUser, Email: "reader@example.com"}))
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	return decodeBody[ErrorResponse](t, rec).Error
}

func intPtr(n int) *int { return &n }

type mockProgram struct{ mock.Mock }

func (m *mockProgram) Today(ctx context.Context, userID string) (*services.DayInfo, error) {
	args := m.Called(ctx, userID)
	info, _ := args.Get(0).(*services.DayInfo)
	return info, args.Error(1)
}

func (m *mockProgram) DayOrToday(ctx context.Context, userID string, requested *int) (int, error) {
	args := m.Called(ctx, userID, requested)
	return args.Int(0), args.Error(1)
}

type mockShares struct{ mock.Mock }

func (m *mockShares) Submit(ctx context.Context, userID string, in services.SubmitShareInput) (*models.TextShare, bool, error) {
	args := m.Called(ctx, userID, in)
	share, _ := args.Get(0).(*models.TextShare)
	return share, args.Bool(1), args.Error(2)
}

func (m *mockShares) List(ctx context.Context, userID string, in services.ListSharesInput) ([]services.NamedShare, error) {
	args := m.Called(ctx, userID, in)
	shares, _ := args.Get(0).([]services.NamedShare)
	return shares, args.Error(1)
}

type mockFeed struct{ mock.Mock }

func (m *mockFeed) Build(ctx context.Context, userID string) ([]models.FeedItem, error) {
	args := m.Called(ctx, userID)
	items, _ := args.Get(0).([]models.FeedItem)
	return items, args.Error(1)
}

type mockComments struct{ mock.Mock }

func (m *mockComments) Add(ctx context.Context, userID string, ref models.ShareRef, content string) (*models.ShareComment, error) {
	args := m.Called(ctx, userID, ref, content)
	c, _ := args.Get(0).(*models.ShareComment)
	return c, args.Error(1)
}

func (m *mockComments) List(ctx context.Context, userID string, ref models.ShareRef) ([]*models.ShareComment, error) {
	args := m.Called(ctx, userID, ref)
	cs, _ := args.Get(0).([]*models.ShareComment)
	return cs, args.Error(1)
}

type mockReactions struct{ mock.Mock }

func (m *mockReactions) Toggle(ctx context.Context, userID string, in services.ToggleInput) (*services.ToggleResult, error) {
	args := m.Called(ctx, userID, in)
	r, _ := args.Get(0).(*services.ToggleResult)
	return r, args.Error(1)
}

type mockChat struct{ mock.Mock }

func (m *mockChat) Send(ctx context.Context, userID, groupID, message string) (*models.ChatMessage, error) {
	args := m.Called(ctx, userID, groupID, message)
	msg, _ := args.Get(0).(*models.ChatMessage)
	return msg, args.Error(1)
}

func (m *mockChat) History(ctx context.Context, userID, groupID string, afterID *int64) ([]*models.ChatMessage, error) {
	args := m.Called(ctx, userID, groupID, afterID)
	msgs, _ := args.Get(0).([]*models.ChatMessage)
	return msgs, args.Error(1)
}

func (m *mockChat) Unread(ctx context.Context, userID, groupID string) (*services.UnreadInfo, error) {
	args := m.Called(ctx, userID, groupID)
	info, _ := args.Get(0).(*services.UnreadInfo)
	return info, args.Error(1)
}

func (m *mockChat) MarkRead(ctx context.Context, userID, groupID string) (*models.ChatReadState, error) {
	args := m.Called(ctx, userID, groupID)
	state, _ := args.Get(0).(*models.ChatReadState)
	return state, args.Error(1)
}

func (m *mockChat) Subscriptions(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

type mockFood struct{ mock.Mock }

func (m *mockFood) Save(ctx context.Context, userID string, in services.SaveFoodInput) (*models.FoodLog, error) {
	args := m.Called(ctx, userID, in)
	l, _ := args.Get(0).(*models.FoodLog)
	return l, args.Error(1)
}

func (m *mockFood) Analyze(ctx context.Context, encoded string) ([]models.DetectedFood, error) {
	args := m.Called(ctx, encoded)
	foods, _ := args.Get(0).([]models.DetectedFood)
	return foods, args.Error(1)
}

func (m *mockFood) UploadURL(ctx context.Context, userID, filename, contentType string) (*services.UploadURL, error) {
	args := m.Called(ctx, userID, filename, contentType)
	u, _ := args.Get(0).(*services.UploadURL)
	return u, args.Error(1)
}

type mockProfiles struct{ mock.Mock }

func (m *mockProfiles) Get(ctx context.Context, id services.Identity) (*services.ProfileView, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(*services.ProfileView)
	return v, args.Error(1)
}

func (m *mockProfiles) UpdateDisplayName(ctx context.Context, id services.Identity, displayName string) (*models.Profile, error) {
	args := m.Called(ctx, id, displayName)
	p, _ := args.Get(0).(*models.Profile)
	return p, args.Error(1)
}

func (m *mockProfiles) SetPushToken(ctx context.Context, userID, pushToken string) error {
	return m.Called(ctx, userID, pushToken).Error(0)
}

type mockGroups struct{ mock.Mock }

func (m *mockGroups) Create(ctx context.Context, leaderID string, in services.CreateGroupInput) (*models.Group, error) {
	args := m.Called(ctx, leaderID, in)
	g, _ := args.Get(0).(*models.Group)
	return g, args.Error(1)
}

func (m *mockGroups) Join(ctx context.Context, userID string, in services.JoinGroupInput) (*services.JoinResult, error) {
	args := m.Called(ctx, userID, in)
	r, _ := args.Get(0).(*services.JoinResult)
	return r, args.Error(1)
}

func (m *mockGroups) MyGroup(ctx context.Context, userID string) (*services.GroupView, error) {
	args := m.Called(ctx, userID)
	v, _ := args.Get(0).(*services.GroupView)
	return v, args.Error(1)
}

type mockQuiz struct{ mock.Mock }

func (m *mockQuiz) Get(ctx context.Context, day int) (*services.QuizView, error) {
	args := m.Called(ctx, day)
	v, _ := args.Get(0).(*services.QuizView)
	return v, args.Error(1)
}

func (m *mockQuiz) Submit(ctx context.Context, userID string, day int, answers []string) (*services.QuizResult, error) {
	args := m.Called(ctx, userID, day, answers)
	r, _ := args.Get(0).(*services.QuizResult)
	return r, args.Error(1)
}

type mockContent struct{ mock.Mock }

func (m *mockContent) Get(ctx context.Context, day int) (*models.DailyContent, error) {
	args := m.Called(ctx, day)
	c, _ := args.Get(0).(*models.DailyContent)
	return c, args.Error(1)
}

type mockProgress struct{ mock.Mock }

func (m *mockProgress) Stats(ctx context.Context, userID string) (*services.Progress, error) {
	args := m.Called(ctx, userID)
	p, _ := args.Get(0).(*services.Progress)
	return p, args.Error(1)
}
