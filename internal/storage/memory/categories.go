package memory

import (
	"context"
	"sort"

	"github.com/organizador/platform/internal/domain/categories"
)

// CategoryRepository implements categories.Repository in-memory.
type CategoryRepository struct {
	s *Store
}

func (r *CategoryRepository) List(_ context.Context, userID int64) ([]categories.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := make([]categories.Category, 0)
	for _, c := range r.s.categories {
		if c.UserID == userID {
			list = append(list, r.s.withActivityCount(c))
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (r *CategoryRepository) Get(_ context.Context, userID, id int64) (categories.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.categories[id]
	if !ok || c.UserID != userID {
		return categories.Category{}, categories.ErrNotFound
	}
	return r.s.withActivityCount(c), nil
}

func (r *CategoryRepository) Create(_ context.Context, category categories.Category) (categories.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.categoryNameTaken(category.UserID, category.Name, 0) {
		return categories.Category{}, categories.ErrDuplicateName
	}
	category.ID = r.s.nextID("categories")
	category.ActivityCount = 0
	r.s.categories[category.ID] = category
	return category, nil
}

func (r *CategoryRepository) Update(_ context.Context, category categories.Category) (categories.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.categories[category.ID]
	if !ok || existing.UserID != category.UserID {
		return categories.Category{}, categories.ErrNotFound
	}
	if r.s.categoryNameTaken(category.UserID, category.Name, category.ID) {
		return categories.Category{}, categories.ErrDuplicateName
	}
	category.CreatedAt = existing.CreatedAt
	r.s.categories[category.ID] = category
	return r.s.withActivityCount(category), nil
}

func (r *CategoryRepository) Delete(_ context.Context, userID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.categories[id]
	if !ok || c.UserID != userID {
		return categories.ErrNotFound
	}
	for actID, a := range r.s.activities {
		if a.CategoryID == id {
			r.s.deleteActivity(actID)
		}
	}
	delete(r.s.categories, id)
	return nil
}

func (s *Store) withActivityCount(c categories.Category) categories.Category {
	c.ActivityCount = 0
	for _, a := range s.activities {
		if a.CategoryID == c.ID {
			c.ActivityCount++
		}
	}
	return c
}

func (s *Store) categoryNameTaken(userID int64, name string, except int64) bool {
	for _, c := range s.categories {
		if c.UserID == userID && c.Name == name && c.ID != except {
			return true
		}
	}
	return false
}

var _ categories.Repository = (*CategoryRepository)(nil)
