// Package sqlstore persists tracker and campaign data through database/sql.
// Queries are written once with ? placeholders and rebound for the active
// dialect, so the same repositories serve postgres and sqlite.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/organizador/platform/internal/database"
	"github.com/organizador/platform/internal/domain"
	"github.com/organizador/platform/internal/domain/campaign"
)

const pgUniqueViolation = "23505"

// conn is satisfied by both *sql.DB and *sql.Tx.
type conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store hands out repositories sharing one connection pool. A store
// returned by InTx routes every statement through its transaction.
type Store struct {
	db      *sql.DB
	q       conn
	tx      *sql.Tx
	dialect database.Dialect
}

// New wraps db for dialect.
func New(db *sql.DB, dialect database.Dialect) *Store {
	return &Store{db: db, q: db, dialect: dialect}
}

// InTx runs fn with a store bound to a single transaction, committing when
// fn succeeds. Calls made on a store that is already transactional join
// the open transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return fn(&Store{db: s.db, q: tx, tx: tx, dialect: s.dialect})
	})
}

// Options returns domain options backed by this store.
func (s *Store) Options(now func() time.Time) domain.Options {
	return domain.Options{
		UserRepo:     &UserRepository{s},
		CategoryRepo: &CategoryRepository{s},
		ActivityRepo: &ActivityRepository{s},
		ProgressRepo: &ProgressRepository{s},
		ScheduleRepo: &ScheduleRepository{s},
		StreakRepo:   &StreakRepository{s},
		PointsRepo:   &PointsRepository{s},
		RewardRepo:   &RewardRepository{s},
		AccountRepo:  s,
		Now:          now,
		Atomic: func(ctx context.Context, fn func(domain.Options) error) error {
			return s.InTx(ctx, func(tx *Store) error {
				return fn(tx.Options(now))
			})
		},
	}
}

// Campaign returns the campaign repositories backed by this store.
func (s *Store) Campaign() campaign.Repositories {
	return campaign.Repositories{
		Members:  &MemberRepository{s},
		Contacts: &ContactRepository{s},
		Events:   &EventRepository{s},
		Goals:    &GoalRepository{s},
		Messages: &MessageRepository{s},
		Atomic: func(ctx context.Context, fn func(campaign.Repositories) error) error {
			return s.InTx(ctx, func(tx *Store) error {
				return fn(tx.Campaign())
			})
		},
	}
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.q.QueryRowContext(ctx, s.dialect.Rebind(query), args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.q.QueryContext(ctx, s.dialect.Rebind(query), args...)
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.q.ExecContext(ctx, s.dialect.Rebind(query), args...)
}

// execAffected runs an update or delete and returns missing when no row
// matched.
func (s *Store) execAffected(ctx context.Context, missing error, query string, args ...any) error {
	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return missing
	}
	return nil
}

// withTx runs fn in a transaction, rolling back when it fails. A
// transactional store reuses its own transaction.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Store) txExec(ctx context.Context, tx *sql.Tx, query string, args ...any) error {
	_, err := tx.ExecContext(ctx, s.dialect.Rebind(query), args...)
	return err
}

// statement is one step of a multi-statement write.
type statement struct {
	query string
	args  []any
}

// txRun executes stmts in order inside tx.
func (s *Store) txRun(ctx context.Context, tx *sql.Tx, op string, stmts []statement) error {
	for _, st := range stmts {
		if err := s.txExec(ctx, tx, st.query, st.args...); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil
}

// isUniqueViolation recognises unique constraint failures from both drivers.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
