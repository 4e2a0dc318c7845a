package memory

import (
	"context"
	"sort"

	"cloud.google.com/go/civil"

	"github.com/organizador/platform/internal/domain/activities"
	"github.com/organizador/platform/internal/domain/progress"
)

// ProgressRepository implements progress.Repository in-memory.
type ProgressRepository struct {
	s *Store
}

func (r *ProgressRepository) Create(_ context.Context, entry progress.Entry) (progress.Entry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.activities[entry.ActivityID]; !ok {
		return progress.Entry{}, activities.ErrNotFound
	}
	for _, e := range r.s.progress {
		if e.ActivityID == entry.ActivityID && e.Date == entry.Date {
			return progress.Entry{}, progress.ErrDuplicateEntry
		}
	}
	entry.ID = r.s.nextID("progress")
	entry.ActivityName = ""
	entry.TargetValue = nil
	r.s.progress[entry.ID] = entry
	return r.s.enrichEntry(entry), nil
}

func (r *ProgressRepository) ListSince(_ context.Context, userID int64, since civil.Date) ([]progress.Entry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := make([]progress.Entry, 0)
	for _, e := range r.s.progress {
		if e.UserID == userID && !e.Date.Before(since) {
			list = append(list, r.s.enrichEntry(e))
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Date != list[j].Date {
			return list[i].Date.After(list[j].Date)
		}
		return list[i].ID > list[j].ID
	})
	return list, nil
}

func (r *ProgressRepository) ListByUser(_ context.Context, userID int64) ([]progress.Entry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := make([]progress.Entry, 0)
	for _, e := range r.s.progress {
		if e.UserID == userID {
			list = append(list, r.s.enrichEntry(e))
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Date != list[j].Date {
			return list[i].Date.Before(list[j].Date)
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (s *Store) enrichEntry(e progress.Entry) progress.Entry {
	if a, ok := s.activities[e.ActivityID]; ok {
		e.ActivityName = a.Name
		e.TargetValue = a.TargetValue
	}
	return e
}

var _ progress.Repository = (*ProgressRepository)(nil)
