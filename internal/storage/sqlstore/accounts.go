package sqlstore

import (
	"context"
	"database/sql"

	"github.com/organizador/platform/internal/domain/accounts"
)

// PurgeUser deletes a user's tracker data in dependency order within one
// transaction. The user row is kept.
func (s *Store) PurgeUser(ctx context.Context, userID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.txRun(ctx, tx, "purge user", []statement{
			{`DELETE FROM point_transactions WHERE user_id = ?`, []any{userID}},
			{`DELETE FROM user_points WHERE user_id = ?`, []any{userID}},
			{`DELETE FROM weekly_streaks WHERE user_id = ?`, []any{userID}},
			{`DELETE FROM rewards WHERE user_id = ?`, []any{userID}},
			{`DELETE FROM scheduled_activities WHERE user_id = ?`, []any{userID}},
			{`DELETE FROM progress WHERE user_id = ?`, []any{userID}},
			{`UPDATE activities SET parent_activity_id = NULL WHERE user_id = ?`, []any{userID}},
			{`DELETE FROM activities WHERE user_id = ?`, []any{userID}},
			{`DELETE FROM categories WHERE user_id = ?`, []any{userID}},
		})
	})
}

var _ accounts.Repository = (*Store)(nil)
