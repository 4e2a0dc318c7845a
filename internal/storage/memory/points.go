package memory

import (
	"context"
	"sort"
	"time"

	"github.com/organizador/platform/internal/domain/points"
	"github.com/organizador/platform/internal/domain/streaks"
)

// PointsRepository implements points.Repository in-memory.
type PointsRepository struct {
	s *Store
}

func (r *PointsRepository) Balance(_ context.Context, userID int64) (points.Balance, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b, ok := r.s.balances[userID]
	if !ok {
		return points.Balance{UserID: userID}, nil
	}
	return b, nil
}

func (r *PointsRepository) Apply(_ context.Context, userID int64, delta int, entry *points.Transaction, at time.Time) (points.Balance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.balances[userID]
	if !ok {
		b = points.Balance{UserID: userID}
	}
	if b.Points+delta < 0 {
		return points.Balance{}, points.ErrInsufficientPoints
	}
	b.Points += delta
	stamp := at
	b.LastUpdated = &stamp
	r.s.balances[userID] = b

	if entry != nil {
		tx := *entry
		tx.ID = r.s.nextID("point_transactions")
		tx.UserID = userID
		if tx.ActivityID != nil {
			if _, ok := r.s.activities[*tx.ActivityID]; !ok {
				tx.ActivityID = nil
			}
		}
		r.s.transactions = append(r.s.transactions, tx)
	}
	return b, nil
}

// Transactions returns the newest ledger rows first.
func (r *PointsRepository) Transactions(_ context.Context, userID int64, limit int) ([]points.Transaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := make([]points.Transaction, 0)
	for _, tx := range r.s.transactions {
		if tx.UserID != userID {
			continue
		}
		if tx.ActivityID != nil {
			if a, ok := r.s.activities[*tx.ActivityID]; ok {
				tx.ActivityName = a.Name
			}
		}
		list = append(list, tx)
	}
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// StreakRepository implements streaks.Repository in-memory.
type StreakRepository struct {
	s *Store
}

func (r *StreakRepository) Get(_ context.Context, userID int64) (streaks.WeeklyStreak, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	st, ok := r.s.streaks[userID]
	if !ok {
		return streaks.WeeklyStreak{UserID: userID}, nil
	}
	return st, nil
}

func (r *StreakRepository) Save(_ context.Context, streak streaks.WeeklyStreak) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.streaks[streak.UserID] = streak
	return nil
}

var (
	_ points.Repository  = (*PointsRepository)(nil)
	_ streaks.Repository = (*StreakRepository)(nil)
)
