package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/umputun/plainly/pkg/domain"
)

// CategoryRepository handles category-related database operations
type CategoryRepository struct {
	db *sqlx.DB
}

type categorySQL struct {
	ID   int64  `db:"id"`
	Slug string `db:"slug"`
	Name string `db:"name"`
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// ListCategories returns all categories ordered by id. Empty result is not an error.
func (r *CategoryRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var rows []categorySQL
	if err := r.db.SelectContext(ctx, &rows, "SELECT id, slug, name FROM categories ORDER BY id"); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	res := make([]domain.Category, len(rows))
	for i, c := range rows {
		res[i] = domain.Category{ID: c.ID, Slug: c.Slug, Name: c.Name}
	}
	return res, nil
}
