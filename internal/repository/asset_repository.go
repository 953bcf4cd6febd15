package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/paradisefm/facilities-api/internal/models"
)

const assetColumns = `id, asset_tag, name, category_id, location_id, manufacturer, model, serial_number, install_date, warranty_end_date, status, criticality, is_monument, replacement_planned, replacement_notes, photo_path, description, created_at, updated_at`

// ErrDuplicateTag is returned when the asset tag uniqueness constraint fires.
var ErrDuplicateTag = errors.New("asset tag already exists")

// AssetRepository persists the equipment catalog.
type AssetRepository struct {
	db *sqlx.DB
}

// NewAssetRepository constructs an asset repository.
func NewAssetRepository(db *sqlx.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

// List returns assets matching the filter plus a total count.
func (r *AssetRepository) List(ctx context.Context, filter models.AssetFilter) ([]models.Asset, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, string(*filter.Status))
	}
	if filter.CategoryID != "" {
		where = append(where, fmt.Sprintf("category_id = $%d", len(args)+1))
		args = append(args, filter.CategoryID)
	}
	if filter.Criticality != nil {
		where = append(where, fmt.Sprintf("criticality = $%d", len(args)+1))
		args = append(args, string(*filter.Criticality))
	}
	if filter.LocationID != "" {
		where = append(where, fmt.Sprintf("location_id = $%d", len(args)+1))
		args = append(args, filter.LocationID)
	}
	if filter.Monument != nil {
		where = append(where, fmt.Sprintf("is_monument = $%d", len(args)+1))
		args = append(args, *filter.Monument)
	}
	if filter.Search != "" {
		n := len(args) + 1
		where = append(where, fmt.Sprintf("(asset_tag ILIKE $%d OR name ILIKE $%d OR manufacturer ILIKE $%d OR model ILIKE $%d)", n, n, n, n))
		args = append(args, "%"+filter.Search+"%")
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 25
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM assets WHERE %s ORDER BY asset_tag ASC LIMIT %d OFFSET %d`, assetColumns, whereClause, size, offset)
	var assets []models.Asset
	if err := r.db.SelectContext(ctx, &assets, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list assets: %w", err)
	}
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM assets WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count assets: %w", err)
	}
	return assets, total, nil
}

// GetByID fetches an asset.
func (r *AssetRepository) GetByID(ctx context.Context, id string) (*models.Asset, error) {
	query := fmt.Sprintf(`SELECT %s FROM assets WHERE id = $1`, assetColumns)
	var asset models.Asset
	if err := r.db.GetContext(ctx, &asset, query, id); err != nil {
		return nil, err
	}
	return &asset, nil
}

// FindByName fetches an asset by natural key, used by the importer.
func (r *AssetRepository) FindByName(ctx context.Context, name string) (*models.Asset, error) {
	query := fmt.Sprintf(`SELECT %s FROM assets WHERE name = $1 LIMIT 1`, assetColumns)
	var asset models.Asset
	if err := r.db.GetContext(ctx, &asset, query, name); err != nil {
		return nil, err
	}
	return &asset, nil
}

// Create inserts an asset. A unique violation on the tag column maps to
// ErrDuplicateTag so the service can regenerate and retry.
func (r *AssetRepository) Create(ctx context.Context, asset *models.Asset) error {
	if asset.ID == "" {
		asset.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	asset.CreatedAt = now
	asset.UpdatedAt = now
	const query = `INSERT INTO assets (id, asset_tag, name, category_id, location_id, manufacturer, model, serial_number, install_date, warranty_end_date, status, criticality, is_monument, replacement_planned, replacement_notes, photo_path, description, created_at, updated_at)
VALUES (:id, :asset_tag, :name, :category_id, :location_id, :manufacturer, :model, :serial_number, :install_date, :warranty_end_date, :status, :criticality, :is_monument, :replacement_planned, :replacement_notes, :photo_path, :description, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, asset); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return ErrDuplicateTag
		}
		return fmt.Errorf("create asset: %w", err)
	}
	return nil
}

// Update modifies an asset.
func (r *AssetRepository) Update(ctx context.Context, asset *models.Asset) error {
	asset.UpdatedAt = time.Now().UTC()
	const query = `UPDATE assets SET asset_tag = :asset_tag, name = :name, category_id = :category_id, location_id = :location_id,
manufacturer = :manufacturer, model = :model, serial_number = :serial_number, install_date = :install_date, warranty_end_date = :warranty_end_date,
status = :status, criticality = :criticality, is_monument = :is_monument, replacement_planned = :replacement_planned, replacement_notes = :replacement_notes,
photo_path = :photo_path, description = :description, updated_at = :updated_at
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, asset); err != nil {
		return fmt.Errorf("update asset: %w", err)
	}
	return nil
}

// Delete removes an asset. Callers must check request references first.
func (r *AssetRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM assets WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	return nil
}

// RequestCount returns how many requests, including soft-deleted ones,
// reference the asset.
func (r *AssetRepository) RequestCount(ctx context.Context, id string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM repair_requests WHERE asset_id = $1", id); err != nil {
		return 0, fmt.Errorf("count asset requests: %w", err)
	}
	return count, nil
}

// Search powers the asset autocomplete endpoint.
func (r *AssetRepository) Search(ctx context.Context, term, locationID string, limit int) ([]models.AssetSearchResult, error) {
	if limit <= 0 || limit > 25 {
		limit = 10
	}
	where := []string{"(asset_tag ILIKE $1 OR name ILIKE $1 OR manufacturer ILIKE $1 OR model ILIKE $1)"}
	args := []interface{}{"%" + term + "%"}
	if locationID != "" {
		where = append(where, fmt.Sprintf("location_id = $%d", len(args)+1))
		args = append(args, locationID)
	}
	query := fmt.Sprintf(`SELECT id, asset_tag, name, location_id FROM assets WHERE %s ORDER BY asset_tag ASC LIMIT %d`,
		strings.Join(where, " AND "), limit)
	var results []models.AssetSearchResult
	if err := r.db.SelectContext(ctx, &results, query, args...); err != nil {
		return nil, fmt.Errorf("search assets: %w", err)
	}
	return results, nil
}
