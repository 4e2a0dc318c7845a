package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/organizador/platform/internal/domain/accounts"
	"github.com/organizador/platform/internal/domain/activities"
	"github.com/organizador/platform/internal/domain/categories"
	"github.com/organizador/platform/internal/domain/insights"
	"github.com/organizador/platform/internal/domain/points"
	"github.com/organizador/platform/internal/domain/progress"
	"github.com/organizador/platform/internal/domain/rewards"
	"github.com/organizador/platform/internal/domain/schedules"
	"github.com/organizador/platform/internal/domain/streaks"
	"github.com/organizador/platform/internal/domain/users"
)

// Container wires the tracker services together over one storage backend.
type Container struct {
	Users      users.Service
	Categories categories.Service
	Activities activities.Service
	Progress   progress.Service
	Schedules  schedules.Service
	Streaks    streaks.Service
	Points     points.Service
	Rewards    rewards.Service
	Insights   insights.Service
	Accounts   accounts.Service
}

// Options configures the domain container.
type Options struct {
	UserRepo     users.Repository
	CategoryRepo categories.Repository
	ActivityRepo activities.Repository
	ProgressRepo progress.Repository
	ScheduleRepo schedules.Repository
	StreakRepo   streaks.Repository
	PointsRepo   points.Repository
	RewardRepo   rewards.Repository
	AccountRepo  accounts.Repository

	// Now is the clock every service reads; nil means time.Now.
	Now func() time.Time

	// Atomic runs fn with repositories bound to one transaction. Nil runs
	// fn against the repositories above.
	Atomic func(ctx context.Context, fn func(Options) error) error
}

// New constructs a domain container with provided repositories.
func New(opts Options) (Container, error) {
	missing := map[string]bool{
		"users":      opts.UserRepo == nil,
		"categories": opts.CategoryRepo == nil,
		"activities": opts.ActivityRepo == nil,
		"progress":   opts.ProgressRepo == nil,
		"schedules":  opts.ScheduleRepo == nil,
		"streaks":    opts.StreakRepo == nil,
		"points":     opts.PointsRepo == nil,
		"rewards":    opts.RewardRepo == nil,
		"accounts":   opts.AccountRepo == nil,
	}
	for name, absent := range missing {
		if absent {
			return Container{}, fmt.Errorf("domain: %s repository is required", name)
		}
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	atomic := opts.Atomic
	if atomic == nil {
		atomic = func(_ context.Context, fn func(Options) error) error { return fn(opts) }
	}

	pointsSvc := points.NewService(opts.PointsRepo, now)

	return Container{
		Users:      users.NewService(opts.UserRepo, now),
		Categories: categories.NewService(opts.CategoryRepo, now),
		Activities: activities.NewService(opts.ActivityRepo, opts.CategoryRepo, now),
		Progress: progress.NewService(opts.ProgressRepo, progress.Dependencies{
			Activities: opts.ActivityRepo,
			Streaks:    opts.StreakRepo,
			Points:     opts.PointsRepo,
			Now:        now,
			Atomic: func(ctx context.Context, fn func(progress.Stores) error) error {
				return atomic(ctx, func(tx Options) error {
					return fn(progress.Stores{
						Entries:    tx.ProgressRepo,
						Activities: tx.ActivityRepo,
						Streaks:    tx.StreakRepo,
						Points:     tx.PointsRepo,
					})
				})
			},
		}),
		Schedules: schedules.NewService(opts.ScheduleRepo, opts.ActivityRepo, now),
		Streaks:   streaks.NewService(opts.StreakRepo, now),
		Points:    pointsSvc,
		Rewards: rewards.NewService(opts.RewardRepo, opts.PointsRepo, now, func(ctx context.Context, fn func(rewards.Stores) error) error {
			return atomic(ctx, func(tx Options) error {
				return fn(rewards.Stores{Rewards: tx.RewardRepo, Points: tx.PointsRepo})
			})
		}),
		Insights: insights.NewService(insights.Sources{
			Categories: opts.CategoryRepo,
			Activities: opts.ActivityRepo,
			Progress:   opts.ProgressRepo,
			Schedules:  opts.ScheduleRepo,
			Streaks:    opts.StreakRepo,
		}, now),
		Accounts: accounts.NewService(opts.AccountRepo, opts.UserRepo),
	}, nil
}
