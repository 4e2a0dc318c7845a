// Package insights derives dashboard and profile statistics from a user's
// tracker data. The calculators are pure functions over a Snapshot; the
// Service loads snapshots and assembles the responses.
package insights

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
	"golang.org/x/sync/errgroup"

	"github.com/organizador/platform/internal/domain/activities"
	"github.com/organizador/platform/internal/domain/categories"
	"github.com/organizador/platform/internal/domain/progress"
	"github.com/organizador/platform/internal/domain/schedules"
	"github.com/organizador/platform/internal/domain/streaks"
)

// Snapshot is everything the calculators read for one user, as of Today.
type Snapshot struct {
	UserID     int64
	Today      civil.Date
	Categories []categories.Category
	Activities []activities.Activity
	Totals     map[int64]float64
	Progress   []progress.Entry
	Schedules  []schedules.Schedule
	Streak     streaks.WeeklyStreak
}

// Sources are the repositories a snapshot is read from.
type Sources struct {
	Categories categories.Repository
	Activities activities.Repository
	Progress   progress.Repository
	Schedules  schedules.Repository
	Streaks    streaks.Repository
}

// Load reads a user's snapshot, querying the sources concurrently.
func (src Sources) Load(ctx context.Context, userID int64, now time.Time) (Snapshot, error) {
	snap := Snapshot{UserID: userID, Today: civil.DateOf(now)}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.Categories, err = src.Categories.List(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Activities, err = src.Activities.List(gctx, userID, activities.Filter{})
		return err
	})
	g.Go(func() error {
		var err error
		snap.Totals, err = src.Activities.Totals(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Progress, err = src.Progress.ListByUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Schedules, err = src.Schedules.ListByUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Streak, err = src.Streaks.Get(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	if snap.Totals == nil {
		snap.Totals = map[int64]float64{}
	}
	return snap, nil
}

func (s Snapshot) progressSince(from civil.Date) []progress.Entry {
	var out []progress.Entry
	for _, p := range s.Progress {
		if !p.Date.Before(from) {
			out = append(out, p)
		}
	}
	return out
}

func (s Snapshot) countProgress(from, to civil.Date) int {
	n := 0
	for _, p := range s.Progress {
		if !p.Date.Before(from) && !p.Date.After(to) {
			n++
		}
	}
	return n
}

func (s Snapshot) countSchedules(from, to civil.Date) int {
	n := 0
	for _, sc := range s.Schedules {
		if !sc.Date.Before(from) && !sc.Date.After(to) {
			n++
		}
	}
	return n
}

func (s Snapshot) completedActivities() int {
	n := 0
	for _, a := range s.Activities {
		if a.Status == activities.StatusCompleted {
			n++
		}
	}
	return n
}

func (s Snapshot) categoryNames() map[int64]string {
	names := make(map[int64]string, len(s.Categories))
	for _, c := range s.Categories {
		names[c.ID] = c.Name
	}
	return names
}
