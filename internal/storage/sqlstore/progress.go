package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"cloud.google.com/go/civil"

	"github.com/organizador/platform/internal/domain/progress"
)

// ProgressRepository persists progress entries.
type ProgressRepository struct {
	s *Store
}

const progressColumns = `
    SELECT p.id, p.activity_id, a.name, a.target_value, p.user_id, p.date, p.value,
           p.unit, p.notes, p.completed, p.from_schedule, p.points_earned,
           p.streak_bonus, p.created_at
      FROM progress p
      JOIN activities a ON a.id = p.activity_id
`

func scanEntry(row scanner) (progress.Entry, error) {
	var (
		e      progress.Entry
		target sql.NullFloat64
		date   nullDate
	)
	err := row.Scan(
		&e.ID,
		&e.ActivityID,
		&e.ActivityName,
		&target,
		&e.UserID,
		&date,
		&e.Value,
		&e.Unit,
		&e.Notes,
		&e.Completed,
		&e.FromSchedule,
		&e.PointsEarned,
		&e.StreakBonus,
		&e.CreatedAt,
	)
	if err != nil {
		return progress.Entry{}, err
	}
	e.TargetValue = floatPtr(target)
	e.Date = date.Date
	e.CreatedAt = e.CreatedAt.UTC()
	return e, nil
}

func (r *ProgressRepository) Create(ctx context.Context, entry progress.Entry) (progress.Entry, error) {
	const insert = `
        INSERT INTO progress (activity_id, user_id, date, value, unit, notes, completed,
                              from_schedule, points_earned, streak_bonus, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        RETURNING id
    `
	var id int64
	err := r.s.queryRow(ctx, insert,
		entry.ActivityID,
		entry.UserID,
		r.s.dialect.DateArg(entry.Date),
		entry.Value,
		entry.Unit,
		entry.Notes,
		entry.Completed,
		entry.FromSchedule,
		entry.PointsEarned,
		entry.StreakBonus,
		stamp(entry.CreatedAt),
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return progress.Entry{}, progress.ErrDuplicateEntry
		}
		return progress.Entry{}, fmt.Errorf("insert progress: %w", err)
	}

	created, err := scanEntry(r.s.queryRow(ctx, progressColumns+` WHERE p.id = ?`, id))
	if err != nil {
		return progress.Entry{}, fmt.Errorf("reload progress: %w", err)
	}
	return created, nil
}

func (r *ProgressRepository) ListSince(ctx context.Context, userID int64, since civil.Date) ([]progress.Entry, error) {
	return r.list(ctx, progressColumns+` WHERE p.user_id = ? AND p.date >= ? ORDER BY p.date DESC, p.id DESC`,
		userID, r.s.dialect.DateArg(since))
}

func (r *ProgressRepository) ListByUser(ctx context.Context, userID int64) ([]progress.Entry, error) {
	return r.list(ctx, progressColumns+` WHERE p.user_id = ? ORDER BY p.date, p.id`, userID)
}

func (r *ProgressRepository) list(ctx context.Context, query string, args ...any) ([]progress.Entry, error) {
	rows, err := r.s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	defer rows.Close()

	result := make([]progress.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

var _ progress.Repository = (*ProgressRepository)(nil)
