package schedules

import (
	"context"

	"cloud.google.com/go/civil"

	"github.com/organizador/platform/internal/apperr"
)

// MaxReplicationDays bounds how far ahead a schedule can be copied.
const MaxReplicationDays = 731

// Rule is a recurrence pattern.
type Rule string

const (
	RuleDaily   Rule = "daily"
	RuleWeekly  Rule = "weekly"
	RuleMonthly Rule = "monthly"
)

// ReplicateInput describes how to copy a schedule forward. DaysOfWeek
// numbers weekdays from Monday=0 and only applies to weekly rules.
type ReplicateInput struct {
	Rule       Rule
	Until      civil.Date
	DaysOfWeek []int
}

// Expand lists the days after original, up to and including until, that
// the rule selects. The original day itself is never included.
func Expand(original civil.Date, input ReplicateInput) ([]civil.Date, error) {
	rule := input.Rule
	if rule == "" {
		rule = RuleWeekly
	}
	switch rule {
	case RuleDaily, RuleWeekly, RuleMonthly:
	default:
		return nil, apperr.Invalidf("unknown replication type %q", rule)
	}
	if input.Until.IsZero() {
		return nil, apperr.Required("until_date")
	}
	if input.Until.Before(original) {
		return nil, apperr.Invalid("until_date must not be before the scheduled date")
	}
	if input.Until.DaysSince(original) > MaxReplicationDays {
		return nil, apperr.Invalidf("until_date must be within %d days of the scheduled date", MaxReplicationDays)
	}

	weekdays := make(map[int]bool, len(input.DaysOfWeek))
	for _, d := range input.DaysOfWeek {
		if d < 0 || d > 6 {
			return nil, apperr.Invalidf("days_of_week entries must be between 0 and 6, got %d", d)
		}
		weekdays[d] = true
	}

	var out []civil.Date
	for day := original.AddDays(1); !day.After(input.Until); day = day.AddDays(1) {
		if matches(day, original, rule, weekdays) {
			out = append(out, day)
		}
	}
	return out, nil
}

func matches(day, original civil.Date, rule Rule, weekdays map[int]bool) bool {
	switch rule {
	case RuleDaily:
		return true
	case RuleWeekly:
		if len(weekdays) > 0 {
			return weekdays[MondayIndex(day)]
		}
		return MondayIndex(day) == MondayIndex(original)
	case RuleMonthly:
		return day.Day == original.Day
	}
	return false
}

// Replicate copies a schedule onto every day Expand selects and returns the
// number of copies made.
func (s *service) Replicate(ctx context.Context, userID, id int64, input ReplicateInput) (int, error) {
	original, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return 0, err
	}

	days, err := Expand(original.Date, input)
	if err != nil {
		return 0, err
	}
	if len(days) == 0 {
		return 0, nil
	}

	now := s.now().UTC()
	copies := make([]Schedule, 0, len(days))
	for _, day := range days {
		copies = append(copies, Schedule{
			ActivityID: original.ActivityID,
			UserID:     userID,
			Date:       day,
			Time:       original.Time,
			Duration:   original.Duration,
			CreatedAt:  now,
		})
	}
	return s.repo.CreateMany(ctx, copies)
}
