package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"
)

// DayActivity is what a user did on one calendar date
type DayActivity struct {
	Date      string `json:"date"`
	QuizCount int    `json:"quiz_count"`
	FoodCount int    `json:"food_count"`
}

// Progress summarises a user's participation
type Progress struct {
	ProgramLength int           `json:"program_length"`
	QuizDays      int           `json:"quiz_days"`
	QuizTotal     int           `json:"quiz_total"`
	ShareDays     int           `json:"share_days"`
	ShareDayList  []int         `json:"share_day_numbers"`
	FoodDays      int           `json:"food_days"`
	FoodTotal     int           `json:"food_total"`
	Activities    []DayActivity `json:"activities"`
}

// ProgressService computes per-user progress stats
type ProgressService struct {
	store  ProgressStore
	length int
}

// NewProgressService creates a new progress service
func NewProgressService(store ProgressStore, length int) *ProgressService {
	return &ProgressService{store: store, length: length}
}

// Stats counts distinct active dates for quizzes and food logs and distinct
// program days for shares. Dates are bucketed in UTC.
func (s *ProgressService) Stats(ctx context.Context, userID string) (*Progress, error) {
	activity, err := s.store.Activity(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load activity: %w", err)
	}

	byDate := map[string]*DayActivity{}
	bucket := func(t time.Time) *DayActivity {
		key := t.UTC().Format(time.DateOnly)
		if byDate[key] == nil {
			byDate[key] = &DayActivity{Date: key}
		}
		return byDate[key]
	}

	quizDates := map[string]struct{}{}
	for _, t := range activity.QuizAnsweredAt {
		bucket(t).QuizCount++
		quizDates[t.UTC().Format(time.DateOnly)] = struct{}{}
	}
	foodDates := map[string]struct{}{}
	for _, t := range activity.FoodLoggedAt {
		bucket(t).FoodCount++
		foodDates[t.UTC().Format(time.DateOnly)] = struct{}{}
	}

	shareDays := lo.Uniq(activity.ShareDays)
	sort.Ints(shareDays)

	activities := lo.Map(lo.Values(byDate), func(a *DayActivity, _ int) DayActivity { return *a })
	sort.Slice(activities, func(i, j int) bool { return activities[i].Date < activities[j].Date })

	return &Progress{
		ProgramLength: s.length,
		QuizDays:      len(quizDates),
		QuizTotal:     len(activity.QuizAnsweredAt),
		ShareDays:     len(shareDays),
		ShareDayList:  shareDays,
		FoodDays:      len(foodDates),
		FoodTotal:     len(activity.FoodLoggedAt),
		Activities:    activities,
	}, nil
}
