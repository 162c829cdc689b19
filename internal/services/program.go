package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"readalong-backend/internal/repository"
)

// ResolveDay maps now to a program day in [1, length]. With a start date the
// day is the number of whole days since start plus one; without one it falls
// back to the day of the current calendar month.
func ResolveDay(now time.Time, start *time.Time, length int) int {
	if length < 1 {
		length = 1
	}

	day := now.Day()
	if start != nil {
		today := dateOnly(now)
		first := dateOnly(*start)
		day = int(today.Sub(first).Hours()/24) + 1
	}

	return min(max(day, 1), length)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayInfo is the caller's current position in the program
type DayInfo struct {
	DayNumber     int     `json:"day_number"`
	ProgramLength int     `json:"program_length"`
	GroupID       *string `json:"group_id,omitempty"`
	StartDate     *string `json:"start_date,omitempty"`
}

// ProgramService resolves program days for users
type ProgramService struct {
	groups GroupStore
	length int
	now    func() time.Time
}

// NewProgramService creates a new program service
func NewProgramService(groups GroupStore, length int) *ProgramService {
	return &ProgramService{groups: groups, length: length, now: time.Now}
}

// Length returns the number of days in the program
func (s *ProgramService) Length() int {
	return s.length
}

// ValidateDay rejects day numbers outside the program
func (s *ProgramService) ValidateDay(day int) error {
	if day < 1 || day > s.length {
		return invalid("day_number", "must be between 1 and %d", s.length)
	}
	return nil
}

// Today resolves the current day for the user's group. Users without a
// group get the calendar fallback.
func (s *ProgramService) Today(ctx context.Context, userID string) (*DayInfo, error) {
	info := &DayInfo{ProgramLength: s.length}

	group, err := s.groups.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to load group: %w", err)
	}

	var start *time.Time
	if group != nil {
		info.GroupID = &group.ID
		if group.ProgramStartDate != nil {
			start = group.ProgramStartDate
			formatted := start.Format(time.DateOnly)
			info.StartDate = &formatted
		}
	}

	info.DayNumber = ResolveDay(s.now(), start, s.length)
	return info, nil
}

// DayOrToday returns requested when set, otherwise today's day for the user
func (s *ProgramService) DayOrToday(ctx context.Context, userID string, requested *int) (int, error) {
	if requested != nil {
		if err := s.ValidateDay(*requested); err != nil {
			return 0, err
		}
		return *requested, nil
	}
	info, err := s.Today(ctx, userID)
	if err != nil {
		return 0, err
	}
	return info.DayNumber, nil
}
