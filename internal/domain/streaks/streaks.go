// Package streaks tracks runs of scheduled activity completed at most a week
// apart and the bonus points they earn.
package streaks

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// MaxBonus is the bonus paid once a streak reaches eight.
const MaxBonus = 8

// WeeklyStreak is the persisted streak state of one user.
type WeeklyStreak struct {
	UserID           int64       `json:"-"`
	Count            int         `json:"streak_count"`
	LastActivityDate *civil.Date `json:"last_activity_date"`
}

// Advance records activity on today. A gap of one to seven days extends
// the streak, a longer gap or no history restarts it at one, and a second
// activity on the same day leaves it unchanged.
func (s WeeklyStreak) Advance(today civil.Date) WeeklyStreak {
	next := s
	switch {
	case s.LastActivityDate == nil:
		next.Count = 1
	default:
		gap := today.DaysSince(*s.LastActivityDate)
		switch {
		case gap > 7 || gap < 0:
			next.Count = 1
		case gap >= 1:
			next.Count = s.Count + 1
		}
		if next.Count == 0 {
			next.Count = 1
		}
	}
	day := today
	next.LastActivityDate = &day
	return next
}

// Current is the streak as seen on today: it lapses to zero once the last
// activity is more than a day old.
func (s WeeklyStreak) Current(today civil.Date) int {
	if s.LastActivityDate == nil {
		return 0
	}
	if today.DaysSince(*s.LastActivityDate) <= 1 {
		return s.Count
	}
	return 0
}

// Bonus is the number of extra points a streak of count earns.
func Bonus(count int) int {
	switch {
	case count <= 0:
		return 0
	case count >= MaxBonus:
		return MaxBonus
	default:
		return count
	}
}

var messages = map[int]string{
	1: "A good start!",
	2: "You're doing well!",
	3: "Keep it up!",
	4: "One month! Very consistent growth!",
	5: "5 weeks! Impressive!",
	6: "6 weeks! Don't give up!",
	7: "7 weeks! You're dedicated!",
	8: "Two months! Nobody can stop you!",
}

// Message is the encouragement shown next to a streak count.
func Message(count int) string {
	if count <= 0 {
		return "No streak yet"
	}
	if msg, ok := messages[count]; ok {
		return msg
	}
	return fmt.Sprintf("%d consecutive weeks!", count)
}

// Repository persists streak state. Get returns a zero streak for users
// without one.
type Repository interface {
	Get(ctx context.Context, userID int64) (WeeklyStreak, error)
	Save(ctx context.Context, streak WeeklyStreak) error
}

// Status is the streak view returned to clients.
type Status struct {
	WeeklyStreak
	Current int    `json:"current"`
	Message string `json:"message"`
}

// Service reads streak state.
type Service interface {
	Get(ctx context.Context, userID int64) (Status, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds a streak service.
func NewService(repo Repository, now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, now: now}
}

func (s *service) Get(ctx context.Context, userID int64) (Status, error) {
	streak, err := s.repo.Get(ctx, userID)
	if err != nil {
		return Status{}, err
	}
	streak.UserID = userID
	return Status{
		WeeklyStreak: streak,
		Current:      streak.Current(civil.DateOf(s.now())),
		Message:      Message(streak.Count),
	}, nil
}
