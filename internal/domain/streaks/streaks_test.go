package streaks

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
)

func date(day int) civil.Date {
	return civil.Date{Year: 2024, Month: time.March, Day: day}
}

func TestAdvance(t *testing.T) {
	last := date(4)
	cases := []struct {
		name  string
		start WeeklyStreak
		today civil.Date
		want  int
	}{
		{"first activity", WeeklyStreak{}, date(4), 1},
		{"same day", WeeklyStreak{Count: 3, LastActivityDate: &last}, date(4), 3},
		{"next day", WeeklyStreak{Count: 3, LastActivityDate: &last}, date(5), 4},
		{"a week later", WeeklyStreak{Count: 3, LastActivityDate: &last}, date(11), 4},
		{"gap too long", WeeklyStreak{Count: 3, LastActivityDate: &last}, date(12), 1},
		{"clock moved back", WeeklyStreak{Count: 3, LastActivityDate: &last}, date(1), 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.start.Advance(tc.today)
			if got.Count != tc.want {
				t.Fatalf("expected count %d, got %d", tc.want, got.Count)
			}
			if got.LastActivityDate == nil || *got.LastActivityDate != tc.today {
				t.Fatalf("expected last activity %s, got %v", tc.today, got.LastActivityDate)
			}
		})
	}
}

func TestCurrentLapses(t *testing.T) {
	last := date(4)
	s := WeeklyStreak{Count: 5, LastActivityDate: &last}
	if got := s.Current(date(5)); got != 5 {
		t.Fatalf("expected streak to hold a day later, got %d", got)
	}
	if got := s.Current(date(6)); got != 0 {
		t.Fatalf("expected streak to lapse, got %d", got)
	}
	if got := (WeeklyStreak{}).Current(date(6)); got != 0 {
		t.Fatalf("expected zero without history, got %d", got)
	}
}

func TestBonusAndMessage(t *testing.T) {
	bonuses := map[int]int{0: 0, 1: 1, 4: 4, 5: 5, 7: 7, 8: 8, 20: 8}
	for count, want := range bonuses {
		if got := Bonus(count); got != want {
			t.Fatalf("Bonus(%d) = %d, want %d", count, got, want)
		}
	}
	if got := Message(4); got != "One month! Very consistent growth!" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := Message(12); got != "12 consecutive weeks!" {
		t.Fatalf("unexpected message %q", got)
	}
}

type stubRepo struct{ streak WeeklyStreak }

func (r *stubRepo) Get(context.Context, int64) (WeeklyStreak, error) { return r.streak, nil }
func (r *stubRepo) Save(_ context.Context, s WeeklyStreak) error {
	r.streak = s
	return nil
}

func TestServiceGet(t *testing.T) {
	last := date(4)
	repo := &stubRepo{streak: WeeklyStreak{Count: 2, LastActivityDate: &last}}
	now := func() time.Time { return time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC) }

	status, err := NewService(repo, now).Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("get streak failed: %v", err)
	}
	if status.Current != 2 || status.Message != "You're doing well!" || status.UserID != 1 {
		t.Fatalf("unexpected status %+v", status)
	}
}
