package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/organizador/platform/internal/domain/categories"
)

// CategoryRepository persists categories.
type CategoryRepository struct {
	s *Store
}

const categoryColumns = `
    SELECT c.id, c.user_id, c.name, c.description, c.color, c.icon, c.created_at,
           (SELECT COUNT(*) FROM activities a WHERE a.category_id = c.id) AS activity_count
      FROM categories c
`

func scanCategory(row scanner) (categories.Category, error) {
	var c categories.Category
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Description, &c.Color, &c.Icon, &c.CreatedAt, &c.ActivityCount); err != nil {
		return categories.Category{}, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return c, nil
}

// List orders categories by name.
func (r *CategoryRepository) List(ctx context.Context, userID int64) ([]categories.Category, error) {
	rows, err := r.s.query(ctx, categoryColumns+` WHERE c.user_id = ? ORDER BY c.name, c.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	result := make([]categories.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

func (r *CategoryRepository) Get(ctx context.Context, userID, id int64) (categories.Category, error) {
	c, err := scanCategory(r.s.queryRow(ctx, categoryColumns+` WHERE c.id = ? AND c.user_id = ?`, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return categories.Category{}, categories.ErrNotFound
		}
		return categories.Category{}, fmt.Errorf("find category: %w", err)
	}
	return c, nil
}

func (r *CategoryRepository) Create(ctx context.Context, category categories.Category) (categories.Category, error) {
	const insert = `
        INSERT INTO categories (user_id, name, description, color, icon, created_at)
        VALUES (?, ?, ?, ?, ?, ?)
        RETURNING id
    `
	category.CreatedAt = stamp(category.CreatedAt)
	err := r.s.queryRow(ctx, insert,
		category.UserID,
		category.Name,
		category.Description,
		category.Color,
		category.Icon,
		category.CreatedAt,
	).Scan(&category.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return categories.Category{}, categories.ErrDuplicateName
		}
		return categories.Category{}, fmt.Errorf("insert category: %w", err)
	}
	category.ActivityCount = 0
	return category, nil
}

func (r *CategoryRepository) Update(ctx context.Context, category categories.Category) (categories.Category, error) {
	const update = `
        UPDATE categories
           SET name = ?,
               description = ?,
               color = ?,
               icon = ?
         WHERE id = ? AND user_id = ?
    `
	err := r.s.execAffected(ctx, categories.ErrNotFound, update,
		category.Name,
		category.Description,
		category.Color,
		category.Icon,
		category.ID,
		category.UserID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return categories.Category{}, categories.ErrDuplicateName
		}
		if errors.Is(err, categories.ErrNotFound) {
			return categories.Category{}, err
		}
		return categories.Category{}, fmt.Errorf("update category: %w", err)
	}
	return r.Get(ctx, category.UserID, category.ID)
}

// Delete removes the category, its activities and everything recorded
// against them in one transaction.
func (r *CategoryRepository) Delete(ctx context.Context, userID, id int64) error {
	if _, err := r.Get(ctx, userID, id); err != nil {
		return err
	}

	const owned = `SELECT id FROM activities WHERE category_id = ?`
	return r.s.withTx(ctx, func(tx *sql.Tx) error {
		return r.s.txRun(ctx, tx, "delete category", []statement{
			{`UPDATE point_transactions SET activity_id = NULL WHERE activity_id IN (` + owned + `)`, []any{id}},
			{`UPDATE rewards SET condition_activity_id = NULL WHERE condition_activity_id IN (` + owned + `)`, []any{id}},
			{`UPDATE activities SET parent_activity_id = NULL WHERE category_id <> ? AND parent_activity_id IN (` + owned + `)`, []any{id, id}},
			{`DELETE FROM progress WHERE activity_id IN (` + owned + `)`, []any{id}},
			{`DELETE FROM scheduled_activities WHERE activity_id IN (` + owned + `)`, []any{id}},
			{`UPDATE activities SET parent_activity_id = NULL WHERE category_id = ?`, []any{id}},
			{`DELETE FROM activities WHERE category_id = ?`, []any{id}},
			{`DELETE FROM categories WHERE id = ?`, []any{id}},
		})
	})
}

var _ categories.Repository = (*CategoryRepository)(nil)
