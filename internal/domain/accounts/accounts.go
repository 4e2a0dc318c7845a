package accounts

import (
	"context"
	"errors"

	"github.com/organizador/platform/internal/domain/users"
)

// Repository removes every piece of tracker data a user owns: ledger,
// balance, streak, rewards, schedules, progress, activities and categories.
// The user row itself is kept.
type Repository interface {
	PurgeUser(ctx context.Context, userID int64) error
}

// Service runs account level maintenance.
type Service interface {
	Purge(ctx context.Context, userID int64) error
}

type service struct {
	repo  Repository
	users users.Repository
}

// NewService builds an account service.
func NewService(repo Repository, userRepo users.Repository) Service {
	return &service{repo: repo, users: userRepo}
}

// Purge wipes a user's tracker data. Unknown users are reported as not
// found.
func (s *service) Purge(ctx context.Context, userID int64) error {
	if _, err := s.users.Get(ctx, userID); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return users.ErrNotFound
		}
		return err
	}
	return s.repo.PurgeUser(ctx, userID)
}
