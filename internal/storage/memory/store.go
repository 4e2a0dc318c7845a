// Package memory keeps tracker and campaign data in process memory. Every
// repository shares one Store so deletes can cascade the way the SQL schema
// does.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/organizador/platform/internal/domain"
	"github.com/organizador/platform/internal/domain/activities"
	"github.com/organizador/platform/internal/domain/campaign"
	"github.com/organizador/platform/internal/domain/categories"
	"github.com/organizador/platform/internal/domain/points"
	"github.com/organizador/platform/internal/domain/progress"
	"github.com/organizador/platform/internal/domain/rewards"
	"github.com/organizador/platform/internal/domain/schedules"
	"github.com/organizador/platform/internal/domain/streaks"
	"github.com/organizador/platform/internal/domain/users"
)

// Store holds every table behind a single lock.
type Store struct {
	mu   sync.RWMutex
	seq  map[string]int64
	inTx bool

	users        map[int64]users.User
	categories   map[int64]categories.Category
	activities   map[int64]activities.Activity
	progress     map[int64]progress.Entry
	schedules    map[int64]schedules.Schedule
	rewards      map[int64]rewards.Reward
	balances     map[int64]points.Balance
	transactions []points.Transaction
	streaks      map[int64]streaks.WeeklyStreak

	members  map[int64]campaign.Member
	contacts map[int64]campaign.Contact
	events   map[int64]campaign.Event
	goals    map[int64]campaign.Goal
	messages map[int64]campaign.Message
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		seq:        make(map[string]int64),
		users:      make(map[int64]users.User),
		categories: make(map[int64]categories.Category),
		activities: make(map[int64]activities.Activity),
		progress:   make(map[int64]progress.Entry),
		schedules:  make(map[int64]schedules.Schedule),
		rewards:    make(map[int64]rewards.Reward),
		balances:   make(map[int64]points.Balance),
		streaks:    make(map[int64]streaks.WeeklyStreak),
		members:    make(map[int64]campaign.Member),
		contacts:   make(map[int64]campaign.Contact),
		events:     make(map[int64]campaign.Event),
		goals:      make(map[int64]campaign.Goal),
		messages:   make(map[int64]campaign.Message),
	}
}

// InTx runs fn against a private copy of the tables while holding the
// store's write lock, and publishes the copy only when fn succeeds. Calls on
// a store handed out by InTx run directly against it.
func (s *Store) InTx(_ context.Context, fn func(tx *Store) error) error {
	if s.inTx {
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.clone()
	tx.inTx = true
	if err := fn(tx); err != nil {
		return err
	}
	s.adopt(tx)
	return nil
}

// clone copies every table. Callers must hold s.mu.
func (s *Store) clone() *Store {
	return &Store{
		seq:          maps.Clone(s.seq),
		users:        maps.Clone(s.users),
		categories:   maps.Clone(s.categories),
		activities:   maps.Clone(s.activities),
		progress:     maps.Clone(s.progress),
		schedules:    maps.Clone(s.schedules),
		rewards:      maps.Clone(s.rewards),
		balances:     maps.Clone(s.balances),
		transactions: slices.Clone(s.transactions),
		streaks:      maps.Clone(s.streaks),
		members:      maps.Clone(s.members),
		contacts:     maps.Clone(s.contacts),
		events:       maps.Clone(s.events),
		goals:        maps.Clone(s.goals),
		messages:     maps.Clone(s.messages),
	}
}

// adopt replaces s's tables with tx's. Callers must hold s.mu.
func (s *Store) adopt(tx *Store) {
	s.seq = tx.seq
	s.users = tx.users
	s.categories = tx.categories
	s.activities = tx.activities
	s.progress = tx.progress
	s.schedules = tx.schedules
	s.rewards = tx.rewards
	s.balances = tx.balances
	s.transactions = tx.transactions
	s.streaks = tx.streaks
	s.members = tx.members
	s.contacts = tx.contacts
	s.events = tx.events
	s.goals = tx.goals
	s.messages = tx.messages
}

// Options returns domain options backed by this store.
func (s *Store) Options(now func() time.Time) domain.Options {
	return domain.Options{
		UserRepo:     &UserRepository{s},
		CategoryRepo: &CategoryRepository{s},
		ActivityRepo: &ActivityRepository{s},
		ProgressRepo: &ProgressRepository{s},
		ScheduleRepo: &ScheduleRepository{s},
		StreakRepo:   &StreakRepository{s},
		PointsRepo:   &PointsRepository{s},
		RewardRepo:   &RewardRepository{s},
		AccountRepo:  s,
		Now:          now,
		Atomic: func(ctx context.Context, fn func(domain.Options) error) error {
			return s.InTx(ctx, func(tx *Store) error {
				return fn(tx.Options(now))
			})
		},
	}
}

// Campaign returns the campaign repositories backed by this store.
func (s *Store) Campaign() campaign.Repositories {
	return campaign.Repositories{
		Members:  &MemberRepository{s},
		Contacts: &ContactRepository{s},
		Events:   &EventRepository{s},
		Goals:    &GoalRepository{s},
		Messages: &MessageRepository{s},
		Atomic: func(ctx context.Context, fn func(campaign.Repositories) error) error {
			return s.InTx(ctx, func(tx *Store) error {
				return fn(tx.Campaign())
			})
		},
	}
}
