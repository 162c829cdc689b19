package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"readalong-backend/internal/models"
	"readalong-backend/internal/repository"
)

type fakeGroups struct {
	mu      sync.Mutex
	groups  map[string]*models.Group
	members map[string][]*models.GroupMember
	names   map[string]string
}

func newFakeGroups() *fakeGroups {
	return &fakeGroups{
		groups:  map[string]*models.Group{},
		members: map[string][]*models.GroupMember{},
		names:   map[string]string{},
	}
}

func (f *fakeGroups) addGroup(id, code string, memberIDs ...string) *models.Group {
	g := &models.Group{ID: id, Name: "group " + id, InviteCode: code, CreatedAt: time.Now()}
	f.groups[id] = g
	for i, uid := range memberIDs {
		f.members[id] = append(f.members[id], &models.GroupMember{
			GroupID:  id,
			UserID:   uid,
			Role:     models.RoleMember,
			JoinedAt: time.Date(2025, 1, 1, 0, i, 0, 0, time.UTC),
		})
	}
	return g
}

func (f *fakeGroups) Create(_ context.Context, group *models.Group) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.groups {
		if g.InviteCode == group.InviteCode {
			return repository.ErrConflict
		}
	}
	f.groups[group.ID] = group
	if group.LeaderID != nil {
		f.members[group.ID] = append(f.members[group.ID], &models.GroupMember{
			GroupID: group.ID, UserID: *group.LeaderID, Role: models.RoleLeader, JoinedAt: group.CreatedAt,
		})
	}
	return nil
}

func (f *fakeGroups) GetByInviteCode(_ context.Context, code string) (*models.Group, error) {
	for _, g := range f.groups {
		if g.InviteCode == code {
			return g, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeGroups) GetByUserID(ctx context.Context, userID string) (*models.Group, error) {
	var (
		best   *models.Group
		joined time.Time
	)
	for gid, ms := range f.members {
		for _, m := range ms {
			if m.UserID == userID && (best == nil || m.JoinedAt.Before(joined)) {
				best, joined = f.groups[gid], m.JoinedAt
			}
		}
	}
	if best == nil {
		return nil, repository.ErrNotFound
	}
	return best, nil
}

func (f *fakeGroups) GroupIDsForUser(_ context.Context, userID string) ([]string, error) {
	var ids []string
	for gid, ms := range f.members {
		for _, m := range ms {
			if m.UserID == userID {
				ids = append(ids, gid)
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeGroups) IsMember(_ context.Context, groupID, userID string) (bool, error) {
	for _, m := range f.members[groupID] {
		if m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeGroups) AddMember(ctx context.Context, member *models.GroupMember) (bool, error) {
	if ok, _ := f.IsMember(ctx, member.GroupID, member.UserID); ok {
		return false, nil
	}
	f.members[member.GroupID] = append(f.members[member.GroupID], member)
	return true, nil
}

func (f *fakeGroups) Members(_ context.Context, groupID string) ([]*models.GroupMember, error) {
	var out []*models.GroupMember
	for _, m := range f.members[groupID] {
		cp := *m
		if name, ok := f.names[m.UserID]; ok {
			cp.ProfileName = &name
		}
		out = append(out, &cp)
	}
	return out, nil
}

type fakeShares struct {
	shares  []*models.TextShare
	names   map[string]string
	lastGet repository.ShareFilter
	listErr error
}

func newFakeShares() *fakeShares {
	return &fakeShares{names: map[string]string{}}
}

func (f *fakeShares) Upsert(_ context.Context, share *models.TextShare) (*models.TextShare, bool, error) {
	for _, s := range f.shares {
		if s.UserID == share.UserID && s.DayNumber == share.DayNumber {
			s.Content = share.Content
			s.UpdatedAt = s.UpdatedAt.Add(time.Second)
			cp := *s
			return &cp, false, nil
		}
	}
	cp := *share
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	f.shares = append(f.shares, &cp)
	out := cp
	return &out, true, nil
}

func (f *fakeShares) GetByID(_ context.Context, id string) (*models.TextShare, error) {
	for _, s := range f.shares {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeShares) List(_ context.Context, filter repository.ShareFilter) ([]*models.TextShare, error) {
	f.lastGet = filter
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*models.TextShare
	for _, s := range f.shares {
		if filter.UserID != "" && s.UserID != filter.UserID {
			continue
		}
		if filter.GroupID != "" && (s.GroupID == nil || *s.GroupID != filter.GroupID) {
			continue
		}
		if filter.DayNumber > 0 && s.DayNumber != filter.DayNumber {
			continue
		}
		if filter.ExcludeUserID != "" && s.UserID == filter.ExcludeUserID {
			continue
		}
		cp := *s
		if name, ok := f.names[s.UserID]; ok {
			cp.ProfileName = &name
		}
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

type fakeFoods struct {
	logs    []*models.FoodLog
	items   []models.FoodLogItem
	err     error
	listErr error
}

func (f *fakeFoods) CreateWithItems(_ context.Context, log *models.FoodLog, items []models.FoodLogItem) error {
	if f.err != nil {
		return f.err
	}
	f.logs = append(f.logs, log)
	f.items = append(f.items, items...)
	return nil
}

func (f *fakeFoods) GetByID(_ context.Context, id string) (*models.FoodLog, error) {
	for _, l := range f.logs {
		if l.ID == id {
			return l, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeFoods) ListByGroup(_ context.Context, groupID, excludeUserID string, limit int) ([]*models.FoodLog, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*models.FoodLog
	for _, l := range f.logs {
		if l.GroupID != nil && *l.GroupID == groupID && l.UserID != excludeUserID {
			out = append(out, l)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeComments struct {
	comments []*models.ShareComment
	refsErr  error
}

func (f *fakeComments) Create(_ context.Context, id string, ref models.ShareRef, userID, content string) (*models.ShareComment, error) {
	c := &models.ShareComment{
		ID:        id,
		ShareID:   ref.ID,
		ShareType: ref.Type,
		UserID:    userID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	f.comments = append(f.comments, c)
	return c, nil
}

func (f *fakeComments) ListByShare(_ context.Context, ref models.ShareRef) ([]*models.ShareComment, error) {
	var out []*models.ShareComment
	for _, c := range f.comments {
		if c.ShareID == ref.ID && c.ShareType == ref.Type {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeComments) RefsForShares(_ context.Context, ids []string) ([]models.ShareRef, error) {
	if f.refsErr != nil {
		return nil, f.refsErr
	}
	var refs []models.ShareRef
	for _, c := range f.comments {
		for _, id := range ids {
			if c.ShareID == id {
				refs = append(refs, models.ShareRef{Type: c.ShareType, ID: c.ShareID})
			}
		}
	}
	return refs, nil
}

type reactionKey struct {
	ref    models.ShareRef
	userID string
}

type fakeReactions struct {
	mu      sync.Mutex
	rows    map[reactionKey]bool
	toggles int
	refsErr error
}

func newFakeReactions() *fakeReactions {
	return &fakeReactions{rows: map[reactionKey]bool{}}
}

func (f *fakeReactions) Toggle(_ context.Context, ref models.ShareRef, userID, _ string) (bool, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toggles++

	key := reactionKey{ref: ref, userID: userID}
	added := !f.rows[key]
	if added {
		f.rows[key] = true
	} else {
		delete(f.rows, key)
	}

	count := 0
	for k := range f.rows {
		if k.ref == ref {
			count++
		}
	}
	return added, count, nil
}

func (f *fakeReactions) RefsForShares(_ context.Context, ids []string) ([]models.ShareRef, error) {
	if f.refsErr != nil {
		return nil, f.refsErr
	}
	var refs []models.ShareRef
	for k := range f.rows {
		for _, id := range ids {
			if k.ref.ID == id {
				refs = append(refs, k.ref)
			}
		}
	}
	return refs, nil
}

func (f *fakeReactions) UserRefsForShares(_ context.Context, userID string, ids []string) ([]models.ShareRef, error) {
	var refs []models.ShareRef
	for k := range f.rows {
		for _, id := range ids {
			if k.ref.ID == id && k.userID == userID {
				refs = append(refs, k.ref)
			}
		}
	}
	return refs, nil
}

type fakeChat struct {
	mu       sync.Mutex
	messages []*models.ChatMessage
	reads    map[string]*models.ChatReadState
	nextID   int64
}

func newFakeChat() *fakeChat {
	return &fakeChat{reads: map[string]*models.ChatReadState{}}
}

func (f *fakeChat) Create(_ context.Context, msg *models.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	msg.ID = f.nextID
	msg.CreatedAt = time.Now()
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeChat) Recent(_ context.Context, groupID string, limit int) ([]*models.ChatMessage, error) {
	var out []*models.ChatMessage
	for _, m := range f.messages {
		if m.GroupID == groupID {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (f *fakeChat) After(_ context.Context, groupID string, afterID int64, limit int) ([]*models.ChatMessage, error) {
	var out []*models.ChatMessage
	for _, m := range f.messages {
		if m.GroupID == groupID && m.ID > afterID && len(out) < limit {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeChat) GetReadState(_ context.Context, groupID, userID string) (*models.ChatReadState, error) {
	if s, ok := f.reads[groupID+"/"+userID]; ok {
		return s, nil
	}
	return &models.ChatReadState{GroupID: groupID, UserID: userID}, nil
}

func (f *fakeChat) CountUnread(_ context.Context, groupID, userID string, afterID int64) (int, error) {
	n := 0
	for _, m := range f.messages {
		if m.GroupID == groupID && m.UserID != userID && m.ID > afterID {
			n++
		}
	}
	return n, nil
}

func (f *fakeChat) MarkRead(_ context.Context, groupID, userID string, at time.Time) (*models.ChatReadState, error) {
	var newest int64
	for _, m := range f.messages {
		if m.GroupID == groupID && m.ID > newest {
			newest = m.ID
		}
	}
	s := &models.ChatReadState{GroupID: groupID, UserID: userID, LastReadMessageID: newest, LastReadAt: at}
	f.reads[groupID+"/"+userID] = s
	return s, nil
}

type fakeProfiles struct {
	mu       sync.Mutex
	profiles map[string]*models.Profile
	getErr   error
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{profiles: map[string]*models.Profile{}}
}

func (f *fakeProfiles) GetByUserID(_ context.Context, userID string) (*models.Profile, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.profiles[userID]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("profile %s: %w", userID, repository.ErrNotFound)
}

func (f *fakeProfiles) UpsertDisplayName(_ context.Context, userID string, email *string, name string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		p = &models.Profile{UserID: userID, Email: email}
		f.profiles[userID] = p
	}
	p.DisplayName = &name
	return p, nil
}

func (f *fakeProfiles) UpdatePushToken(_ context.Context, userID string, token *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		p = &models.Profile{UserID: userID}
		f.profiles[userID] = p
	}
	p.PushToken = token
	return nil
}

func (f *fakeProfiles) PushTokens(_ context.Context, userIDs []string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]string{}
	for _, id := range userIDs {
		if p, ok := f.profiles[id]; ok && p.PushToken != nil {
			out[id] = *p.PushToken
		}
	}
	return out, nil
}

type fakeQuizzes struct {
	quizzes   map[int]*models.Quiz
	responses []*models.QuizResponse
}

func (f *fakeQuizzes) GetByDay(_ context.Context, day int) (*models.Quiz, error) {
	if q, ok := f.quizzes[day]; ok {
		return q, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeQuizzes) CreateResponse(_ context.Context, resp *models.QuizResponse) error {
	f.responses = append(f.responses, resp)
	return nil
}

type fakeContents map[int]*models.DailyContent

func (f fakeContents) GetByDay(_ context.Context, day int) (*models.DailyContent, error) {
	if c, ok := f[day]; ok {
		return c, nil
	}
	return nil, repository.ErrNotFound
}

type fakeProgress struct {
	activity *models.ActivityTimestamps
}

func (f fakeProgress) Activity(context.Context, string) (*models.ActivityTimestamps, error) {
	return f.activity, nil
}

func ptr[T any](v T) *T { return &v }

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func jsonMarshal(v any) (string, error) {
	data, err := json.Marshal(v)
	return string(data), err
}
