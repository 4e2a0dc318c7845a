package progress

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/organizador/platform/internal/apperr"
	"github.com/organizador/platform/internal/domain/activities"
	"github.com/organizador/platform/internal/domain/points"
	"github.com/organizador/platform/internal/domain/streaks"
)

const (
	defaultUnit     = "unidades"
	percentUnit     = "%"
	recentWindow    = 7
	completionBonus = 5
	booleanPoints   = 10
)

var ErrDuplicateEntry = apperr.Conflict("progress already recorded for this activity on this date")

// Entry is one day's progress on an activity.
type Entry struct {
	ID           int64      `json:"id"`
	ActivityID   int64      `json:"activity_id"`
	ActivityName string     `json:"activity_name"`
	UserID       int64      `json:"-"`
	Date         civil.Date `json:"date"`
	Value        float64    `json:"value"`
	Unit         string     `json:"unit"`
	Notes        string     `json:"notes"`
	Completed    bool       `json:"completed"`
	FromSchedule bool       `json:"from_schedule"`
	PointsEarned int        `json:"points_earned"`
	StreakBonus  int        `json:"streak_bonus"`
	TargetValue  *float64   `json:"target_value"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Repository persists progress entries. Reads fill in the activity name and
// target.
type Repository interface {
	// Create fails with ErrDuplicateEntry when the activity already has an
	// entry on the same date.
	Create(ctx context.Context, entry Entry) (Entry, error)
	// ListSince returns entries dated on or after since, newest first.
	ListSince(ctx context.Context, userID int64, since civil.Date) ([]Entry, error)
	// ListByUser returns every entry of a user, oldest first.
	ListByUser(ctx context.Context, userID int64) ([]Entry, error)
}

// RecordInput is a progress submission.
type RecordInput struct {
	ActivityID      int64
	Value           float64
	Unit            string
	Notes           string
	Completed       bool
	FromSchedule    bool
	Date            *civil.Date
	MeasurementType activities.MeasurementType
}

// Result summarises what a recorded entry earned.
type Result struct {
	ID              int64             `json:"id"`
	PointsEarned    int               `json:"points_earned"`
	StreakBonus     int               `json:"streak_bonus"`
	CurrentProgress float64           `json:"current_progress"`
	ActivityStatus  activities.Status `json:"activity_status"`
}

// Service records progress and scores it.
type Service interface {
	Record(ctx context.Context, userID int64, input RecordInput) (Result, error)
	Recent(ctx context.Context, userID int64, since *civil.Date) ([]Entry, error)
}

// Stores are the repositories one recorded entry writes through.
type Stores struct {
	Entries    Repository
	Activities activities.Repository
	Streaks    streaks.Repository
	Points     points.Repository
}

// Dependencies are the collaborators Record updates besides the entry.
type Dependencies struct {
	Activities activities.Repository
	Streaks    streaks.Repository
	Points     points.Repository
	Now        func() time.Time
	// Atomic runs fn with stores bound to one transaction. Nil runs fn
	// against the repositories above.
	Atomic func(ctx context.Context, fn func(Stores) error) error
}

type service struct {
	repo   Repository
	now    func() time.Time
	atomic func(ctx context.Context, fn func(Stores) error) error
}

// NewService builds a progress service.
func NewService(repo Repository, deps Dependencies) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	atomic := deps.Atomic
	if atomic == nil {
		stores := Stores{Entries: repo, Activities: deps.Activities, Streaks: deps.Streaks, Points: deps.Points}
		atomic = func(_ context.Context, fn func(Stores) error) error { return fn(stores) }
	}
	return &service{repo: repo, now: now, atomic: atomic}
}

// Score is the base points an entry earns before any streak bonus.
func Score(mt activities.MeasurementType, target *float64, value float64, completed bool) int {
	var pts int
	switch mt {
	case activities.MeasurementUnits:
		if target == nil || *target <= 0 {
			return 0
		}
		pts = int(value / *target * 100 / 10)
		if completed {
			pts += completionBonus
		}
	case activities.MeasurementPercentage:
		pts = int(value / 10)
		if completed {
			pts += completionBonus
		}
	case activities.MeasurementBoolean:
		if completed {
			pts = booleanPoints
		}
	}
	return pts
}

// Record validates and stores an entry, then credits its points, advances
// the weekly streak for scheduled work and completes the activity when the
// entry finishes it. All writes share one transaction, so a failure leaves
// nothing behind and the entry can be submitted again.
func (s *service) Record(ctx context.Context, userID int64, input RecordInput) (Result, error) {
	if input.ActivityID <= 0 {
		return Result{}, apperr.Required("activity_id")
	}

	var result Result
	err := s.atomic(ctx, func(tx Stores) error {
		var err error
		result, err = s.record(ctx, tx, userID, input)
		return err
	})
	if err != nil {
		return Result{}, err
	}
	return result, nil
}

func (s *service) record(ctx context.Context, tx Stores, userID int64, input RecordInput) (Result, error) {
	activity, err := tx.Activities.Get(ctx, userID, input.ActivityID)
	if err != nil {
		return Result{}, err
	}

	mt := input.MeasurementType
	if mt == "" {
		mt = activity.MeasurementType
	}
	if !mt.Valid() {
		return Result{}, apperr.Invalidf("unknown measurement_type %q", mt)
	}

	totals, err := tx.Activities.Totals(ctx, userID)
	if err != nil {
		return Result{}, err
	}
	loggedTotal := totals[activity.ID]

	value := input.Value
	unit := strings.TrimSpace(input.Unit)
	completed := input.Completed
	hasTarget := activity.TargetValue != nil && *activity.TargetValue > 0

	switch mt {
	case activities.MeasurementUnits:
		if unit == "" {
			unit = activity.TargetUnit
		}
		if unit == "" {
			unit = defaultUnit
		}
		if value < 0 {
			return Result{}, apperr.Invalid("value must not be negative")
		}
		if hasTarget && value > *activity.TargetValue {
			return Result{}, apperr.Invalidf("value must not exceed the target (%g)", *activity.TargetValue)
		}
	case activities.MeasurementPercentage:
		unit = percentUnit
		if value < 0 || value > 100 {
			return Result{}, apperr.Invalid("percentage must be between 0 and 100")
		}
		if value >= 100 {
			completed = true
		}
	case activities.MeasurementBoolean:
		unit = defaultUnit
		value = 1
		completed = true
	}

	if completed && mt == activities.MeasurementUnits && hasTarget {
		value = math.Max(*activity.TargetValue-loggedTotal, 0)
	}

	now := s.now()
	today := civil.DateOf(now)
	date := today
	if input.Date != nil {
		date = *input.Date
	}

	pts := Score(mt, activity.TargetValue, value, completed)

	var (
		bonus    int
		advanced streaks.WeeklyStreak
	)
	if input.FromSchedule {
		current, err := tx.Streaks.Get(ctx, userID)
		if err != nil {
			return Result{}, err
		}
		current.UserID = userID
		advanced = current.Advance(today)
		bonus = streaks.Bonus(advanced.Count)
		pts += bonus
	}

	entry, err := tx.Entries.Create(ctx, Entry{
		ActivityID:   activity.ID,
		UserID:       userID,
		Date:         date,
		Value:        value,
		Unit:         unit,
		Notes:        strings.TrimSpace(input.Notes),
		Completed:    completed,
		FromSchedule: input.FromSchedule,
		PointsEarned: pts,
		StreakBonus:  bonus,
		CreatedAt:    now.UTC(),
	})
	if err != nil {
		return Result{}, err
	}

	if input.FromSchedule {
		if err := tx.Streaks.Save(ctx, advanced); err != nil {
			return Result{}, fmt.Errorf("save streak: %w", err)
		}
	}

	activityID := activity.ID
	if _, err := points.NewService(tx.Points, s.now).Credit(ctx, userID, pts, LedgerDescription(activity.Name, bonus), &activityID); err != nil {
		return Result{}, fmt.Errorf("credit points: %w", err)
	}

	if completed {
		activity.Status = activities.StatusCompleted
		if mt == activities.MeasurementPercentage {
			full := 100.0
			activity.ManualPercentage = &full
		}
		if activity, err = tx.Activities.Update(ctx, activity); err != nil {
			return Result{}, fmt.Errorf("complete activity: %w", err)
		}
	}

	return Result{
		ID:              entry.ID,
		PointsEarned:    pts,
		StreakBonus:     bonus,
		CurrentProgress: activities.PercentComplete(activity, loggedTotal+value),
		ActivityStatus:  activity.Status,
	}, nil
}

// LedgerDescription is the ledger text for points earned on an activity.
func LedgerDescription(activityName string, streakBonus int) string {
	desc := "Progress on " + activityName
	if streakBonus > 0 {
		desc += fmt.Sprintf(" + %d pts streak", streakBonus)
	}
	return desc
}

func (s *service) Recent(ctx context.Context, userID int64, since *civil.Date) ([]Entry, error) {
	from := civil.DateOf(s.now()).AddDays(-recentWindow)
	if since != nil {
		from = *since
	}
	return s.repo.ListSince(ctx, userID, from)
}
