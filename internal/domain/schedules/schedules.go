package schedules

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/organizador/platform/internal/apperr"
	"github.com/organizador/platform/internal/domain/activities"
)

var (
	ErrNotFound    = apperr.NotFound("schedule not found")
	ErrInvalidTime = apperr.Invalid("scheduled_time must use HH:MM")
)

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Schedule places an activity on a calendar day.
type Schedule struct {
	ID            int64      `json:"id"`
	ActivityID    int64      `json:"activity_id"`
	ActivityName  string     `json:"activity_name"`
	CategoryID    int64      `json:"category_id"`
	CategoryName  string     `json:"category_name"`
	CategoryColor string     `json:"category_color"`
	UserID        int64      `json:"-"`
	Date          civil.Date `json:"scheduled_date"`
	Time          string     `json:"scheduled_time"`
	Duration      int        `json:"duration"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Hour returns the hour of the scheduled time, or false when none is set.
func (s Schedule) Hour() (int, bool) {
	if len(s.Time) < 2 || !clockPattern.MatchString(s.Time) {
		return 0, false
	}
	return int(s.Time[0]-'0')*10 + int(s.Time[1]-'0'), true
}

// Repository persists schedules. Reads fill in activity and category
// details.
type Repository interface {
	// ListRange returns schedules dated within [from, to], ordered by date
	// and time.
	ListRange(ctx context.Context, userID int64, from, to civil.Date) ([]Schedule, error)
	ListByUser(ctx context.Context, userID int64) ([]Schedule, error)
	Get(ctx context.Context, userID, id int64) (Schedule, error)
	Create(ctx context.Context, schedule Schedule) (Schedule, error)
	// CreateMany inserts all schedules or none and reports how many were
	// written.
	CreateMany(ctx context.Context, schedules []Schedule) (int, error)
	Update(ctx context.Context, schedule Schedule) (Schedule, error)
	Delete(ctx context.Context, userID, id int64) error
}

// CreateInput describes a new schedule.
type CreateInput struct {
	ActivityID int64
	Date       civil.Date
	Time       string
	Duration   int
}

// UpdateInput carries the fields to change; nil leaves a field untouched.
type UpdateInput struct {
	Date     *civil.Date
	Time     *string
	Duration *int
}

// Week is the schedule of seven consecutive days.
type Week struct {
	Start     civil.Date `json:"week_start"`
	End       civil.Date `json:"week_end"`
	Schedules []Schedule `json:"schedules"`
}

// Service provides schedule business logic.
type Service interface {
	ListWeek(ctx context.Context, userID int64, weekStart *civil.Date) (Week, error)
	Create(ctx context.Context, userID int64, input CreateInput) (Schedule, error)
	Update(ctx context.Context, userID, id int64, input UpdateInput) (Schedule, error)
	Delete(ctx context.Context, userID, id int64) error
	Replicate(ctx context.Context, userID, id int64, input ReplicateInput) (int, error)
}

type service struct {
	repo       Repository
	activities activities.Repository
	now        func() time.Time
}

// NewService builds a schedule service. Activity ownership is checked
// against acts.
func NewService(repo Repository, acts activities.Repository, now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, activities: acts, now: now}
}

// WeekStart returns the Monday on or before d.
func WeekStart(d civil.Date) civil.Date {
	return d.AddDays(-MondayIndex(d))
}

// MondayIndex numbers weekdays from Monday=0 to Sunday=6.
func MondayIndex(d civil.Date) int {
	return (int(d.In(time.UTC).Weekday()) + 6) % 7
}

func (s *service) ListWeek(ctx context.Context, userID int64, weekStart *civil.Date) (Week, error) {
	start := WeekStart(civil.DateOf(s.now()))
	if weekStart != nil {
		start = *weekStart
	}
	end := start.AddDays(6)

	list, err := s.repo.ListRange(ctx, userID, start, end)
	if err != nil {
		return Week{}, err
	}
	if list == nil {
		list = []Schedule{}
	}
	return Week{Start: start, End: end, Schedules: list}, nil
}

func (s *service) Create(ctx context.Context, userID int64, input CreateInput) (Schedule, error) {
	if input.ActivityID <= 0 {
		return Schedule{}, apperr.Required("activity_id")
	}
	if input.Date.IsZero() {
		return Schedule{}, apperr.Required("scheduled_date")
	}
	clock, err := normalizeTime(input.Time)
	if err != nil {
		return Schedule{}, err
	}
	if input.Duration < 0 {
		return Schedule{}, apperr.Invalid("duration must not be negative")
	}

	if _, err := s.activities.Get(ctx, userID, input.ActivityID); err != nil {
		if errors.Is(err, activities.ErrNotFound) {
			return Schedule{}, apperr.Invalid("activity_id does not match any of your activities")
		}
		return Schedule{}, err
	}

	return s.repo.Create(ctx, Schedule{
		ActivityID: input.ActivityID,
		UserID:     userID,
		Date:       input.Date,
		Time:       clock,
		Duration:   input.Duration,
		CreatedAt:  s.now().UTC(),
	})
}

func (s *service) Update(ctx context.Context, userID, id int64, input UpdateInput) (Schedule, error) {
	schedule, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return Schedule{}, err
	}

	if input.Date != nil {
		if input.Date.IsZero() {
			return Schedule{}, apperr.Required("scheduled_date")
		}
		schedule.Date = *input.Date
	}
	if input.Time != nil {
		clock, err := normalizeTime(*input.Time)
		if err != nil {
			return Schedule{}, err
		}
		schedule.Time = clock
	}
	if input.Duration != nil {
		if *input.Duration < 0 {
			return Schedule{}, apperr.Invalid("duration must not be negative")
		}
		schedule.Duration = *input.Duration
	}

	return s.repo.Update(ctx, schedule)
}

func (s *service) Delete(ctx context.Context, userID, id int64) error {
	return s.repo.Delete(ctx, userID, id)
}

func normalizeTime(v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", nil
	}
	if !clockPattern.MatchString(v) {
		return "", ErrInvalidTime
	}
	return v, nil
}
