package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/paradisefm/facilities-api/internal/models"
)

const categoryColumns = `id, name, icon, tag_prefix, sort_order, created_at, updated_at`

// CategoryRepository persists the asset category lookup table.
type CategoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository constructs a category repository.
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// List returns all categories in sort order.
func (r *CategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	query := fmt.Sprintf(`SELECT %s FROM categories ORDER BY sort_order ASC, name ASC`, categoryColumns)
	var categories []models.Category
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// GetByID fetches a category.
func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*models.Category, error) {
	query := fmt.Sprintf(`SELECT %s FROM categories WHERE id = $1`, categoryColumns)
	var category models.Category
	if err := r.db.GetContext(ctx, &category, query, id); err != nil {
		return nil, err
	}
	return &category, nil
}

// FindByName fetches a category by natural key.
func (r *CategoryRepository) FindByName(ctx context.Context, name string) (*models.Category, error) {
	query := fmt.Sprintf(`SELECT %s FROM categories WHERE name = $1 LIMIT 1`, categoryColumns)
	var category models.Category
	if err := r.db.GetContext(ctx, &category, query, name); err != nil {
		return nil, err
	}
	return &category, nil
}

// Create inserts a category.
func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	category.CreatedAt = now
	category.UpdatedAt = now
	const query = `INSERT INTO categories (id, name, icon, tag_prefix, sort_order, created_at, updated_at)
VALUES (:id, :name, :icon, :tag_prefix, :sort_order, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, category); err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// Update modifies a category.
func (r *CategoryRepository) Update(ctx context.Context, category *models.Category) error {
	category.UpdatedAt = time.Now().UTC()
	const query = `UPDATE categories SET name = :name, icon = :icon, tag_prefix = :tag_prefix, sort_order = :sort_order, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, category); err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

// Delete removes a category when no asset references it.
func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM categories WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// AssetCount returns how many assets reference the category.
func (r *CategoryRepository) AssetCount(ctx context.Context, id string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM assets WHERE category_id = $1", id); err != nil {
		return 0, fmt.Errorf("count category assets: %w", err)
	}
	return count, nil
}
