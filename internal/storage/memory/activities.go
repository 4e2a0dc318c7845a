package memory

import (
	"context"
	"sort"

	"github.com/organizador/platform/internal/domain/activities"
)

// ActivityRepository implements activities.Repository in-memory.
type ActivityRepository struct {
	s *Store
}

// List returns activities newest first.
func (r *ActivityRepository) List(_ context.Context, userID int64, filter activities.Filter) ([]activities.Activity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := make([]activities.Activity, 0)
	for _, a := range r.s.activities {
		if a.UserID != userID {
			continue
		}
		if filter.CategoryID != 0 && a.CategoryID != filter.CategoryID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		list = append(list, r.s.enrichActivity(a))
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	return list, nil
}

func (r *ActivityRepository) Get(_ context.Context, userID, id int64) (activities.Activity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.activities[id]
	if !ok || a.UserID != userID {
		return activities.Activity{}, activities.ErrNotFound
	}
	return r.s.enrichActivity(a), nil
}

func (r *ActivityRepository) Create(_ context.Context, activity activities.Activity) (activities.Activity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if c, ok := r.s.categories[activity.CategoryID]; !ok || c.UserID != activity.UserID {
		return activities.Activity{}, activities.ErrInvalidCategory
	}
	activity.ID = r.s.nextID("activities")
	r.s.activities[activity.ID] = strip(activity)
	return r.s.enrichActivity(activity), nil
}

func (r *ActivityRepository) Update(_ context.Context, activity activities.Activity) (activities.Activity, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.activities[activity.ID]
	if !ok || existing.UserID != activity.UserID {
		return activities.Activity{}, activities.ErrNotFound
	}
	if c, ok := r.s.categories[activity.CategoryID]; !ok || c.UserID != activity.UserID {
		return activities.Activity{}, activities.ErrInvalidCategory
	}
	activity.CreatedAt = existing.CreatedAt
	r.s.activities[activity.ID] = strip(activity)
	return r.s.enrichActivity(activity), nil
}

func (r *ActivityRepository) Delete(_ context.Context, userID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.activities[id]
	if !ok || a.UserID != userID {
		return activities.ErrNotFound
	}
	r.s.deleteActivity(id)
	return nil
}

func (r *ActivityRepository) Totals(_ context.Context, userID int64) (map[int64]float64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	totals := make(map[int64]float64)
	for _, e := range r.s.progress {
		if e.UserID == userID {
			totals[e.ActivityID] += e.Value
		}
	}
	return totals, nil
}

func (r *ActivityRepository) Count(_ context.Context, userID int64) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if userID == 0 {
		return len(r.s.activities), nil
	}
	n := 0
	for _, a := range r.s.activities {
		if a.UserID == userID {
			n++
		}
	}
	return n, nil
}

// deleteActivity removes an activity with its progress and schedules,
// detaches its children and clears ledger references. Callers must hold the
// write lock.
func (s *Store) deleteActivity(id int64) {
	for pid, e := range s.progress {
		if e.ActivityID == id {
			delete(s.progress, pid)
		}
	}
	for sid, sc := range s.schedules {
		if sc.ActivityID == id {
			delete(s.schedules, sid)
		}
	}
	for cid, child := range s.activities {
		if child.ParentID != nil && *child.ParentID == id {
			child.ParentID = nil
			s.activities[cid] = child
		}
	}
	for i := range s.transactions {
		if t := s.transactions[i].ActivityID; t != nil && *t == id {
			s.transactions[i].ActivityID = nil
		}
	}
	for rid, rw := range s.rewards {
		if rw.ConditionActivityID != nil && *rw.ConditionActivityID == id {
			rw.ConditionActivityID = nil
			s.rewards[rid] = rw
		}
	}
	delete(s.activities, id)
}

func (s *Store) enrichActivity(a activities.Activity) activities.Activity {
	if c, ok := s.categories[a.CategoryID]; ok {
		a.CategoryName = c.Name
		a.CategoryColor = c.Color
	}
	a.ChildrenCount = 0
	for _, other := range s.activities {
		if other.ParentID != nil && *other.ParentID == a.ID {
			a.ChildrenCount++
		}
	}
	return a
}

// strip drops the derived fields before an activity is stored.
func strip(a activities.Activity) activities.Activity {
	a.CategoryName = ""
	a.CategoryColor = ""
	a.ChildrenCount = 0
	return a
}

var _ activities.Repository = (*ActivityRepository)(nil)
