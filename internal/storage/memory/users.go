package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/organizador/platform/internal/apperr"
	"github.com/organizador/platform/internal/domain/users"
)

// UserRepository implements users.Repository in-memory.
type UserRepository struct {
	s *Store
}

func (r *UserRepository) Get(_ context.Context, id int64) (users.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	user, ok := r.s.users[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return user, nil
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (users.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return users.User{}, users.ErrNotFound
}

func (r *UserRepository) Create(_ context.Context, user users.User) (users.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Username == user.Username || strings.EqualFold(u.Email, user.Email) {
			return users.User{}, apperr.Conflict("username or email already registered")
		}
	}
	user.ID = r.s.nextID("users")
	r.s.users[user.ID] = user
	return user, nil
}

func (r *UserRepository) Count(context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.users), nil
}

// List returns users ordered by id.
func (r *UserRepository) List() []users.User {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	res := make([]users.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		res = append(res, u)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// Ensure interface satisfaction at compile time.
var _ users.Repository = (*UserRepository)(nil)
