package users

import (
	"context"
	"errors"
	"time"

	"github.com/organizador/platform/internal/apperr"
)

var ErrNotFound = apperr.NotFound("user not found")

// User is an account that owns tracker data.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Defaults are the accounts every deployment starts with.
var Defaults = []User{
	{Username: "usuario1", Email: "usuario1@exemplo.com"},
	{Username: "usuario2", Email: "usuario2@exemplo.com"},
}

// Repository defines persistence behaviour for users.
type Repository interface {
	Get(ctx context.Context, id int64) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	Create(ctx context.Context, user User) (User, error)
	Count(ctx context.Context) (int, error)
}

// Service exposes user lookups and bootstrap.
type Service interface {
	Get(ctx context.Context, id int64) (User, error)
	EnsureDefaults(ctx context.Context) ([]User, error)
	Count(ctx context.Context) (int, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService constructs a user service.
func NewService(repo Repository, now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, now: now}
}

func (s *service) Get(ctx context.Context, id int64) (User, error) {
	if id <= 0 {
		return User{}, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// EnsureDefaults creates any missing default user, matching by username.
func (s *service) EnsureDefaults(ctx context.Context) ([]User, error) {
	out := make([]User, 0, len(Defaults))
	for _, def := range Defaults {
		existing, err := s.repo.GetByUsername(ctx, def.Username)
		if err == nil {
			out = append(out, existing)
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}

		def.CreatedAt = s.now().UTC()
		created, err := s.repo.Create(ctx, def)
		if err != nil {
			return nil, err
		}
		out = append(out, created)
	}
	return out, nil
}

func (s *service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
