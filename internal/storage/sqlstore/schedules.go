package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cloud.google.com/go/civil"

	"github.com/organizador/platform/internal/domain/schedules"
)

// ScheduleRepository persists scheduled activities.
type ScheduleRepository struct {
	s *Store
}

const scheduleColumns = `
    SELECT s.id, s.activity_id, a.name, a.category_id, c.name, c.color, s.user_id,
           s.scheduled_date, s.scheduled_time, s.duration, s.created_at
      FROM scheduled_activities s
      JOIN activities a ON a.id = s.activity_id
      JOIN categories c ON c.id = a.category_id
`

const scheduleOrder = ` ORDER BY s.scheduled_date, s.scheduled_time, s.id`

func scanSchedule(row scanner) (schedules.Schedule, error) {
	var (
		sc   schedules.Schedule
		date nullDate
	)
	err := row.Scan(
		&sc.ID,
		&sc.ActivityID,
		&sc.ActivityName,
		&sc.CategoryID,
		&sc.CategoryName,
		&sc.CategoryColor,
		&sc.UserID,
		&date,
		&sc.Time,
		&sc.Duration,
		&sc.CreatedAt,
	)
	if err != nil {
		return schedules.Schedule{}, err
	}
	sc.Date = date.Date
	sc.CreatedAt = sc.CreatedAt.UTC()
	return sc, nil
}

func (r *ScheduleRepository) ListRange(ctx context.Context, userID int64, from, to civil.Date) ([]schedules.Schedule, error) {
	d := r.s.dialect
	return r.list(ctx, scheduleColumns+` WHERE s.user_id = ? AND s.scheduled_date >= ? AND s.scheduled_date <= ?`+scheduleOrder,
		userID, d.DateArg(from), d.DateArg(to))
}

func (r *ScheduleRepository) ListByUser(ctx context.Context, userID int64) ([]schedules.Schedule, error) {
	return r.list(ctx, scheduleColumns+` WHERE s.user_id = ?`+scheduleOrder, userID)
}

func (r *ScheduleRepository) list(ctx context.Context, query string, args ...any) ([]schedules.Schedule, error) {
	rows, err := r.s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	result := make([]schedules.Schedule, 0)
	for rows.Next() {
		sc, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		result = append(result, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

func (r *ScheduleRepository) Get(ctx context.Context, userID, id int64) (schedules.Schedule, error) {
	sc, err := scanSchedule(r.s.queryRow(ctx, scheduleColumns+` WHERE s.id = ? AND s.user_id = ?`, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return schedules.Schedule{}, schedules.ErrNotFound
		}
		return schedules.Schedule{}, fmt.Errorf("find schedule: %w", err)
	}
	return sc, nil
}

const insertSchedule = `
    INSERT INTO scheduled_activities (activity_id, user_id, scheduled_date, scheduled_time, duration, created_at)
    VALUES (?, ?, ?, ?, ?, ?)
    RETURNING id
`

func (r *ScheduleRepository) insertArgs(sc schedules.Schedule) []any {
	return []any{sc.ActivityID, sc.UserID, r.s.dialect.DateArg(sc.Date), sc.Time, sc.Duration, stamp(sc.CreatedAt)}
}

func (r *ScheduleRepository) Create(ctx context.Context, schedule schedules.Schedule) (schedules.Schedule, error) {
	var id int64
	if err := r.s.queryRow(ctx, insertSchedule, r.insertArgs(schedule)...).Scan(&id); err != nil {
		return schedules.Schedule{}, fmt.Errorf("insert schedule: %w", err)
	}
	return r.Get(ctx, schedule.UserID, id)
}

// CreateMany writes every schedule in one transaction.
func (r *ScheduleRepository) CreateMany(ctx context.Context, list []schedules.Schedule) (int, error) {
	if len(list) == 0 {
		return 0, nil
	}
	err := r.s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, r.s.dialect.Rebind(insertSchedule))
		if err != nil {
			return fmt.Errorf("prepare schedule insert: %w", err)
		}
		defer stmt.Close()

		for _, sc := range list {
			var id int64
			if err := stmt.QueryRowContext(ctx, r.insertArgs(sc)...).Scan(&id); err != nil {
				return fmt.Errorf("insert schedule: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(list), nil
}

func (r *ScheduleRepository) Update(ctx context.Context, schedule schedules.Schedule) (schedules.Schedule, error) {
	const update = `
        UPDATE scheduled_activities
           SET scheduled_date = ?,
               scheduled_time = ?,
               duration = ?
         WHERE id = ? AND user_id = ?
    `
	err := r.s.execAffected(ctx, schedules.ErrNotFound, update,
		r.s.dialect.DateArg(schedule.Date),
		schedule.Time,
		schedule.Duration,
		schedule.ID,
		schedule.UserID,
	)
	if err != nil {
		if errors.Is(err, schedules.ErrNotFound) {
			return schedules.Schedule{}, err
		}
		return schedules.Schedule{}, fmt.Errorf("update schedule: %w", err)
	}
	return r.Get(ctx, schedule.UserID, schedule.ID)
}

func (r *ScheduleRepository) Delete(ctx context.Context, userID, id int64) error {
	err := r.s.execAffected(ctx, schedules.ErrNotFound,
		`DELETE FROM scheduled_activities WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil && !errors.Is(err, schedules.ErrNotFound) {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return err
}

var _ schedules.Repository = (*ScheduleRepository)(nil)
