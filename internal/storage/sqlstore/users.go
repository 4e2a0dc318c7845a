package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/organizador/platform/internal/apperr"
	"github.com/organizador/platform/internal/domain/users"
)

// UserRepository persists users.
type UserRepository struct {
	s *Store
}

const userColumns = `SELECT id, username, email, created_at FROM users`

func (r *UserRepository) Get(ctx context.Context, id int64) (users.User, error) {
	return r.one(ctx, userColumns+` WHERE id = ?`, id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (users.User, error) {
	return r.one(ctx, userColumns+` WHERE username = ?`, username)
}

func (r *UserRepository) one(ctx context.Context, query string, arg any) (users.User, error) {
	var u users.User
	err := r.s.queryRow(ctx, query, arg).Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return users.User{}, users.ErrNotFound
		}
		return users.User{}, fmt.Errorf("find user: %w", err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, user users.User) (users.User, error) {
	const insert = `
        INSERT INTO users (username, email, created_at)
        VALUES (?, ?, ?)
        RETURNING id
    `
	user.CreatedAt = stamp(user.CreatedAt)
	if err := r.s.queryRow(ctx, insert, user.Username, user.Email, user.CreatedAt).Scan(&user.ID); err != nil {
		if isUniqueViolation(err) {
			return users.User{}, apperr.Conflict("username or email already registered")
		}
		return users.User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.s.queryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

var _ users.Repository = (*UserRepository)(nil)
