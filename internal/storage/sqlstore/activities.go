package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/organizador/platform/internal/domain/activities"
)

// ActivityRepository persists activities.
type ActivityRepository struct {
	s *Store
}

const activityColumns = `
    SELECT a.id, a.user_id, a.category_id, c.name, c.color, a.name, a.description,
           a.measurement_type, a.target_value, a.target_unit, a.manual_percentage,
           a.status, a.start_date, a.end_date, a.deadline, a.parent_activity_id,
           a.created_at,
           (SELECT COUNT(*) FROM activities ch WHERE ch.parent_activity_id = a.id) AS children_count
      FROM activities a
      JOIN categories c ON c.id = a.category_id
`

func scanActivity(row scanner) (activities.Activity, error) {
	var (
		a                    activities.Activity
		target, manual       sql.NullFloat64
		start, end, deadline nullDate
		parent               sql.NullInt64
		measurement, status  string
	)
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.CategoryID,
		&a.CategoryName,
		&a.CategoryColor,
		&a.Name,
		&a.Description,
		&measurement,
		&target,
		&a.TargetUnit,
		&manual,
		&status,
		&start,
		&end,
		&deadline,
		&parent,
		&a.CreatedAt,
		&a.ChildrenCount,
	)
	if err != nil {
		return activities.Activity{}, err
	}
	a.MeasurementType = activities.MeasurementType(measurement)
	a.Status = activities.Status(status)
	a.TargetValue = floatPtr(target)
	a.ManualPercentage = floatPtr(manual)
	a.StartDate = start.ptr()
	a.EndDate = end.ptr()
	a.Deadline = deadline.ptr()
	a.ParentID = int64Ptr(parent)
	a.CreatedAt = a.CreatedAt.UTC()
	return a, nil
}

// List returns activities newest first.
func (r *ActivityRepository) List(ctx context.Context, userID int64, filter activities.Filter) ([]activities.Activity, error) {
	var (
		where = []string{"a.user_id = ?"}
		args  = []any{userID}
	)
	if filter.CategoryID != 0 {
		where = append(where, "a.category_id = ?")
		args = append(args, filter.CategoryID)
	}
	if filter.Status != "" {
		where = append(where, "a.status = ?")
		args = append(args, string(filter.Status))
	}

	query := activityColumns + " WHERE " + strings.Join(where, " AND ") + " ORDER BY a.created_at DESC, a.id DESC"
	rows, err := r.s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	result := make([]activities.Activity, 0)
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

func (r *ActivityRepository) Get(ctx context.Context, userID, id int64) (activities.Activity, error) {
	a, err := scanActivity(r.s.queryRow(ctx, activityColumns+` WHERE a.id = ? AND a.user_id = ?`, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return activities.Activity{}, activities.ErrNotFound
		}
		return activities.Activity{}, fmt.Errorf("find activity: %w", err)
	}
	return a, nil
}

func (r *ActivityRepository) Create(ctx context.Context, activity activities.Activity) (activities.Activity, error) {
	const insert = `
        INSERT INTO activities (user_id, category_id, name, description, measurement_type,
                                target_value, target_unit, manual_percentage, status,
                                start_date, end_date, deadline, parent_activity_id, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        RETURNING id
    `
	d := r.s.dialect
	var id int64
	err := r.s.queryRow(ctx, insert,
		activity.UserID,
		activity.CategoryID,
		activity.Name,
		activity.Description,
		string(activity.MeasurementType),
		nullFloat(activity.TargetValue),
		activity.TargetUnit,
		nullFloat(activity.ManualPercentage),
		string(activity.Status),
		d.NullDateArg(activity.StartDate),
		d.NullDateArg(activity.EndDate),
		d.NullDateArg(activity.Deadline),
		nullInt64(activity.ParentID),
		stamp(activity.CreatedAt),
	).Scan(&id)
	if err != nil {
		return activities.Activity{}, fmt.Errorf("insert activity: %w", err)
	}
	return r.Get(ctx, activity.UserID, id)
}

func (r *ActivityRepository) Update(ctx context.Context, activity activities.Activity) (activities.Activity, error) {
	const update = `
        UPDATE activities
           SET category_id = ?,
               name = ?,
               description = ?,
               measurement_type = ?,
               target_value = ?,
               target_unit = ?,
               manual_percentage = ?,
               status = ?,
               start_date = ?,
               end_date = ?,
               deadline = ?,
               parent_activity_id = ?
         WHERE id = ? AND user_id = ?
    `
	d := r.s.dialect
	err := r.s.execAffected(ctx, activities.ErrNotFound, update,
		activity.CategoryID,
		activity.Name,
		activity.Description,
		string(activity.MeasurementType),
		nullFloat(activity.TargetValue),
		activity.TargetUnit,
		nullFloat(activity.ManualPercentage),
		string(activity.Status),
		d.NullDateArg(activity.StartDate),
		d.NullDateArg(activity.EndDate),
		d.NullDateArg(activity.Deadline),
		nullInt64(activity.ParentID),
		activity.ID,
		activity.UserID,
	)
	if err != nil {
		if errors.Is(err, activities.ErrNotFound) {
			return activities.Activity{}, err
		}
		return activities.Activity{}, fmt.Errorf("update activity: %w", err)
	}
	return r.Get(ctx, activity.UserID, activity.ID)
}

// Delete removes the activity with its progress and schedules in one
// transaction.
func (r *ActivityRepository) Delete(ctx context.Context, userID, id int64) error {
	if _, err := r.Get(ctx, userID, id); err != nil {
		return err
	}
	return r.s.withTx(ctx, func(tx *sql.Tx) error {
		return r.s.txRun(ctx, tx, "delete activity", []statement{
			{`UPDATE point_transactions SET activity_id = NULL WHERE activity_id = ?`, []any{id}},
			{`UPDATE rewards SET condition_activity_id = NULL WHERE condition_activity_id = ?`, []any{id}},
			{`UPDATE activities SET parent_activity_id = NULL WHERE parent_activity_id = ?`, []any{id}},
			{`DELETE FROM progress WHERE activity_id = ?`, []any{id}},
			{`DELETE FROM scheduled_activities WHERE activity_id = ?`, []any{id}},
			{`DELETE FROM activities WHERE id = ? AND user_id = ?`, []any{id, userID}},
		})
	})
}

func (r *ActivityRepository) Totals(ctx context.Context, userID int64) (map[int64]float64, error) {
	const query = `
        SELECT activity_id, COALESCE(SUM(value), 0)
          FROM progress
         WHERE user_id = ?
         GROUP BY activity_id
    `
	rows, err := r.s.query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("sum progress: %w", err)
	}
	defer rows.Close()

	totals := make(map[int64]float64)
	for rows.Next() {
		var (
			id    int64
			total float64
		)
		if err := rows.Scan(&id, &total); err != nil {
			return nil, fmt.Errorf("scan total: %w", err)
		}
		totals[id] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return totals, nil
}

func (r *ActivityRepository) Count(ctx context.Context, userID int64) (int, error) {
	query := `SELECT COUNT(*) FROM activities`
	var args []any
	if userID != 0 {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	var n int
	if err := r.s.queryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count activities: %w", err)
	}
	return n, nil
}

var _ activities.Repository = (*ActivityRepository)(nil)
