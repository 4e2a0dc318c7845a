package sqlstore_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/organizador/platform/internal/database"
	"github.com/organizador/platform/internal/domain/campaign"
	"github.com/organizador/platform/internal/domain/categories"
	"github.com/organizador/platform/internal/domain/points"
	"github.com/organizador/platform/internal/storage/sqlstore"
)

var at = time.Date(2024, 3, 4, 9, 30, 15, 0, time.UTC)

func newMock(t *testing.T) (*sqlstore.Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		mock.ExpectClose()
		require.NoError(t, db.Close())
	})
	return sqlstore.New(db, database.Postgres), mock
}

func TestPostgresCategoryCreateMapsUniqueViolation(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery(`(?s)INSERT INTO categories.*VALUES \(\$1, \$2, \$3, \$4, \$5, \$6\).*RETURNING id`).
		WithArgs(int64(1), "Leitura", "", "#3498db", "📁", at).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := store.Options(nil).CategoryRepo.Create(context.Background(), categories.Category{
		UserID: 1, Name: "Leitura", Color: "#3498db", Icon: "📁", CreatedAt: at,
	})
	assert.ErrorIs(t, err, categories.ErrDuplicateName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresApplyRefusesNegativeBalance(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`(?s)INSERT INTO user_points.*ON CONFLICT \(user_id\) DO NOTHING`).
		WithArgs(int64(7), at).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`(?s)UPDATE user_points.*WHERE user_id = \$3 AND points \+ \$4 >= 0`).
		WithArgs(-50, at, int64(7), -50).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := store.Options(nil).PointsRepo.Apply(context.Background(), 7, -50, &points.Transaction{Points: -50}, at)
	assert.ErrorIs(t, err, points.ErrInsufficientPoints)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresApplyWritesLedger(t *testing.T) {
	store, mock := newMock(t)
	activityID := int64(3)

	mock.ExpectBegin()
	mock.ExpectExec(`(?s)INSERT INTO user_points`).
		WithArgs(int64(7), at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`(?s)UPDATE user_points.*RETURNING points`).
		WithArgs(15, at, int64(7), 15).
		WillReturnRows(sqlmock.NewRows([]string{"points"}).AddRow(15))
	mock.ExpectExec(`(?s)INSERT INTO point_transactions.*VALUES \(\$1, \$2, \$3, \$4, \$5\)`).
		WithArgs(int64(7), 15, "Progress on Ler", activityID, at).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	b, err := store.Options(nil).PointsRepo.Apply(context.Background(), 7, 15, &points.Transaction{
		Points: 15, Description: "Progress on Ler", ActivityID: &activityID, CreatedAt: at,
	}, at)
	require.NoError(t, err)
	assert.Equal(t, 15, b.Points)
	require.NotNil(t, b.LastUpdated)
	assert.True(t, b.LastUpdated.Equal(at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPurgeRollsBackOnFailure(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM point_transactions WHERE user_id = \$1`).
		WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`DELETE FROM user_points WHERE user_id = \$1`).
		WithArgs(int64(2)).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := store.PurgeUser(context.Background(), 2)
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMarkSentOnlyFlipsUnsent(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectExec(`(?s)UPDATE messages.*WHERE id = \$4 AND sent = \$5`).
		WithArgs(true, at, 12, int64(9), false).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`(?s)FROM messages.*WHERE id = \$1`).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "body", "created_at", "segment", "scheduled", "scheduled_at",
			"sent", "sent_at", "recipients", "replies",
		}).AddRow(int64(9), "Convite", "Venha", at, "all", false, nil, true, at, 12, 0))

	_, err := store.Campaign().Messages.MarkSent(context.Background(), 9, at, 12)
	assert.ErrorIs(t, err, campaign.ErrAlreadySent)
	assert.NoError(t, mock.ExpectationsWereMet())
}
