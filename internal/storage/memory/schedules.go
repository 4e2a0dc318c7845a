package memory

import (
	"context"
	"sort"

	"cloud.google.com/go/civil"

	"github.com/organizador/platform/internal/domain/activities"
	"github.com/organizador/platform/internal/domain/schedules"
)

// ScheduleRepository implements schedules.Repository in-memory.
type ScheduleRepository struct {
	s *Store
}

func (r *ScheduleRepository) ListRange(_ context.Context, userID int64, from, to civil.Date) ([]schedules.Schedule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := r.s.schedulesWhere(func(sc schedules.Schedule) bool {
		return sc.UserID == userID && !sc.Date.Before(from) && !sc.Date.After(to)
	})
	return list, nil
}

func (r *ScheduleRepository) ListByUser(_ context.Context, userID int64) ([]schedules.Schedule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.schedulesWhere(func(sc schedules.Schedule) bool { return sc.UserID == userID }), nil
}

func (r *ScheduleRepository) Get(_ context.Context, userID, id int64) (schedules.Schedule, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sc, ok := r.s.schedules[id]
	if !ok || sc.UserID != userID {
		return schedules.Schedule{}, schedules.ErrNotFound
	}
	return r.s.enrichSchedule(sc), nil
}

func (r *ScheduleRepository) Create(_ context.Context, schedule schedules.Schedule) (schedules.Schedule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.checkScheduleActivity(schedule); err != nil {
		return schedules.Schedule{}, err
	}
	schedule.ID = r.s.nextID("schedules")
	r.s.schedules[schedule.ID] = stripSchedule(schedule)
	return r.s.enrichSchedule(schedule), nil
}

func (r *ScheduleRepository) CreateMany(_ context.Context, list []schedules.Schedule) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, sc := range list {
		if err := r.s.checkScheduleActivity(sc); err != nil {
			return 0, err
		}
	}
	for _, sc := range list {
		sc.ID = r.s.nextID("schedules")
		r.s.schedules[sc.ID] = stripSchedule(sc)
	}
	return len(list), nil
}

func (r *ScheduleRepository) Update(_ context.Context, schedule schedules.Schedule) (schedules.Schedule, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.schedules[schedule.ID]
	if !ok || existing.UserID != schedule.UserID {
		return schedules.Schedule{}, schedules.ErrNotFound
	}
	schedule.ActivityID = existing.ActivityID
	schedule.CreatedAt = existing.CreatedAt
	r.s.schedules[schedule.ID] = stripSchedule(schedule)
	return r.s.enrichSchedule(schedule), nil
}

func (r *ScheduleRepository) Delete(_ context.Context, userID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sc, ok := r.s.schedules[id]
	if !ok || sc.UserID != userID {
		return schedules.ErrNotFound
	}
	delete(r.s.schedules, id)
	return nil
}

// schedulesWhere returns matching schedules ordered by date, time and id.
func (s *Store) schedulesWhere(match func(schedules.Schedule) bool) []schedules.Schedule {
	list := make([]schedules.Schedule, 0)
	for _, sc := range s.schedules {
		if match(sc) {
			list = append(list, s.enrichSchedule(sc))
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Date != list[j].Date {
			return list[i].Date.Before(list[j].Date)
		}
		if list[i].Time != list[j].Time {
			return list[i].Time < list[j].Time
		}
		return list[i].ID < list[j].ID
	})
	return list
}

func (s *Store) checkScheduleActivity(sc schedules.Schedule) error {
	a, ok := s.activities[sc.ActivityID]
	if !ok || a.UserID != sc.UserID {
		return activities.ErrNotFound
	}
	return nil
}

func (s *Store) enrichSchedule(sc schedules.Schedule) schedules.Schedule {
	if a, ok := s.activities[sc.ActivityID]; ok {
		sc.ActivityName = a.Name
		sc.CategoryID = a.CategoryID
		if c, ok := s.categories[a.CategoryID]; ok {
			sc.CategoryName = c.Name
			sc.CategoryColor = c.Color
		}
	}
	return sc
}

func stripSchedule(sc schedules.Schedule) schedules.Schedule {
	sc.ActivityName = ""
	sc.CategoryID = 0
	sc.CategoryName = ""
	sc.CategoryColor = ""
	return sc
}

var _ schedules.Repository = (*ScheduleRepository)(nil)
