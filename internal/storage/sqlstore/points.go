package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/organizador/platform/internal/domain/points"
	"github.com/organizador/platform/internal/domain/streaks"
)

// PointsRepository persists balances and the point ledger.
type PointsRepository struct {
	s *Store
}

func (r *PointsRepository) Balance(ctx context.Context, userID int64) (points.Balance, error) {
	b := points.Balance{UserID: userID}
	var updated time.Time
	err := r.s.queryRow(ctx, `SELECT points, last_updated FROM user_points WHERE user_id = ?`, userID).
		Scan(&b.Points, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return b, nil
		}
		return points.Balance{}, fmt.Errorf("find balance: %w", err)
	}
	updated = updated.UTC()
	b.LastUpdated = &updated
	return b, nil
}

// Apply moves the balance and writes the ledger row in one transaction. The
// guarded UPDATE refuses any change that would leave the balance negative.
func (r *PointsRepository) Apply(ctx context.Context, userID int64, delta int, entry *points.Transaction, at time.Time) (points.Balance, error) {
	at = stamp(at)
	b := points.Balance{UserID: userID}

	err := r.s.withTx(ctx, func(tx *sql.Tx) error {
		const ensure = `
            INSERT INTO user_points (user_id, points, last_updated)
            VALUES (?, 0, ?)
            ON CONFLICT (user_id) DO NOTHING
        `
		if err := r.s.txExec(ctx, tx, ensure, userID, at); err != nil {
			return fmt.Errorf("ensure balance: %w", err)
		}

		const update = `
            UPDATE user_points
               SET points = points + ?,
                   last_updated = ?
             WHERE user_id = ? AND points + ? >= 0
            RETURNING points
        `
		err := tx.QueryRowContext(ctx, r.s.dialect.Rebind(update), delta, at, userID, delta).Scan(&b.Points)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return points.ErrInsufficientPoints
			}
			return fmt.Errorf("update balance: %w", err)
		}

		if entry == nil {
			return nil
		}
		const insert = `
            INSERT INTO point_transactions (user_id, points, description, activity_id, created_at)
            VALUES (?, ?, ?, ?, ?)
        `
		if err := r.s.txExec(ctx, tx, insert, userID, entry.Points, entry.Description, nullInt64(entry.ActivityID), stamp(entry.CreatedAt)); err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return points.Balance{}, err
	}
	b.LastUpdated = &at
	return b, nil
}

// Transactions returns the newest ledger rows first.
func (r *PointsRepository) Transactions(ctx context.Context, userID int64, limit int) ([]points.Transaction, error) {
	const query = `
        SELECT t.id, t.user_id, t.points, t.description, t.activity_id,
               COALESCE(a.name, ''), t.created_at
          FROM point_transactions t
          LEFT JOIN activities a ON a.id = t.activity_id
         WHERE t.user_id = ?
         ORDER BY t.created_at DESC, t.id DESC
         LIMIT ?
    `
	rows, err := r.s.query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	result := make([]points.Transaction, 0)
	for rows.Next() {
		var (
			t        points.Transaction
			activity sql.NullInt64
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.Points, &t.Description, &activity, &t.ActivityName, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.ActivityID = int64Ptr(activity)
		t.CreatedAt = t.CreatedAt.UTC()
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

// StreakRepository persists weekly streaks.
type StreakRepository struct {
	s *Store
}

func (r *StreakRepository) Get(ctx context.Context, userID int64) (streaks.WeeklyStreak, error) {
	st := streaks.WeeklyStreak{UserID: userID}
	var last nullDate
	err := r.s.queryRow(ctx, `SELECT streak_count, last_activity_date FROM weekly_streaks WHERE user_id = ?`, userID).
		Scan(&st.Count, &last)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return st, nil
		}
		return streaks.WeeklyStreak{}, fmt.Errorf("find streak: %w", err)
	}
	st.LastActivityDate = last.ptr()
	return st, nil
}

func (r *StreakRepository) Save(ctx context.Context, streak streaks.WeeklyStreak) error {
	const upsert = `
        INSERT INTO weekly_streaks (user_id, streak_count, last_activity_date, created_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT (user_id) DO UPDATE
           SET streak_count = excluded.streak_count,
               last_activity_date = excluded.last_activity_date
    `
	_, err := r.s.exec(ctx, upsert,
		streak.UserID,
		streak.Count,
		r.s.dialect.NullDateArg(streak.LastActivityDate),
		stamp(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("save streak: %w", err)
	}
	return nil
}

var (
	_ points.Repository  = (*PointsRepository)(nil)
	_ streaks.Repository = (*StreakRepository)(nil)
)
