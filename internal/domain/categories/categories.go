package categories

import (
	"context"
	"strings"
	"time"

	"github.com/organizador/platform/internal/apperr"
)

const (
	DefaultColor = "#3498db"
	DefaultIcon  = "📁"
)

var (
	ErrNotFound      = apperr.NotFound("category not found")
	ErrDuplicateName = apperr.Conflict("a category with this name already exists")
)

// Category groups a user's activities.
type Category struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"-"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Color         string    `json:"color"`
	Icon          string    `json:"icon"`
	CreatedAt     time.Time `json:"created_at"`
	ActivityCount int       `json:"activity_count"`
}

// Repository abstracts category persistence. Every lookup is scoped to the
// owning user; Create and Update return ErrDuplicateName when the user
// already has a category with the same name.
type Repository interface {
	List(ctx context.Context, userID int64) ([]Category, error)
	Get(ctx context.Context, userID, id int64) (Category, error)
	Create(ctx context.Context, category Category) (Category, error)
	Update(ctx context.Context, category Category) (Category, error)
	// Delete removes the category together with its activities and
	// everything recorded against them.
	Delete(ctx context.Context, userID, id int64) error
}

// CreateInput describes a new category.
type CreateInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
}

// UpdateInput carries the fields to change; nil leaves a field untouched.
type UpdateInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	Icon        *string `json:"icon"`
}

// Service provides category business logic.
type Service interface {
	List(ctx context.Context, userID int64) ([]Category, error)
	Get(ctx context.Context, userID, id int64) (Category, error)
	Create(ctx context.Context, userID int64, input CreateInput) (Category, error)
	Update(ctx context.Context, userID, id int64, input UpdateInput) (Category, error)
	Delete(ctx context.Context, userID, id int64) error
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds a category service.
func NewService(repo Repository, now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, now: now}
}

func (s *service) List(ctx context.Context, userID int64) ([]Category, error) {
	return s.repo.List(ctx, userID)
}

func (s *service) Get(ctx context.Context, userID, id int64) (Category, error) {
	return s.repo.Get(ctx, userID, id)
}

func (s *service) Create(ctx context.Context, userID int64, input CreateInput) (Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Category{}, apperr.Required("name")
	}

	category := Category{
		UserID:      userID,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Color:       orDefault(input.Color, DefaultColor),
		Icon:        orDefault(input.Icon, DefaultIcon),
		CreatedAt:   s.now().UTC(),
	}
	return s.repo.Create(ctx, category)
}

func (s *service) Update(ctx context.Context, userID, id int64, input UpdateInput) (Category, error) {
	category, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return Category{}, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return Category{}, apperr.Invalid("name must not be empty")
		}
		category.Name = name
	}
	if input.Description != nil {
		category.Description = strings.TrimSpace(*input.Description)
	}
	if input.Color != nil {
		category.Color = orDefault(*input.Color, DefaultColor)
	}
	if input.Icon != nil {
		category.Icon = orDefault(*input.Icon, DefaultIcon)
	}

	return s.repo.Update(ctx, category)
}

func (s *service) Delete(ctx context.Context, userID, id int64) error {
	return s.repo.Delete(ctx, userID, id)
}

func orDefault(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}
