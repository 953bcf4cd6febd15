package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/paradisefm/facilities-api/internal/models"
)

const locationColumns = `id, name, parent_id, notes, created_at, updated_at`

// LocationRepository persists the location tree.
type LocationRepository struct {
	db *sqlx.DB
}

// NewLocationRepository constructs a location repository.
func NewLocationRepository(db *sqlx.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

// List returns all locations ordered by name. The tree is small enough to
// load whole; the service layer builds paths from it.
func (r *LocationRepository) List(ctx context.Context) ([]models.Location, error) {
	query := fmt.Sprintf(`SELECT %s FROM locations ORDER BY name ASC`, locationColumns)
	var locations []models.Location
	if err := r.db.SelectContext(ctx, &locations, query); err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	return locations, nil
}

// GetByID fetches a single location.
func (r *LocationRepository) GetByID(ctx context.Context, id string) (*models.Location, error) {
	query := fmt.Sprintf(`SELECT %s FROM locations WHERE id = $1`, locationColumns)
	var location models.Location
	if err := r.db.GetContext(ctx, &location, query, id); err != nil {
		return nil, err
	}
	return &location, nil
}

// FindByName fetches a location by its natural key, used by the importer.
func (r *LocationRepository) FindByName(ctx context.Context, name string) (*models.Location, error) {
	query := fmt.Sprintf(`SELECT %s FROM locations WHERE name = $1 LIMIT 1`, locationColumns)
	var location models.Location
	if err := r.db.GetContext(ctx, &location, query, name); err != nil {
		return nil, err
	}
	return &location, nil
}

// Create inserts a location.
func (r *LocationRepository) Create(ctx context.Context, location *models.Location) error {
	if location.ID == "" {
		location.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	location.CreatedAt = now
	location.UpdatedAt = now
	const query = `INSERT INTO locations (id, name, parent_id, notes, created_at, updated_at)
VALUES (:id, :name, :parent_id, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, location); err != nil {
		return fmt.Errorf("create location: %w", err)
	}
	return nil
}

// Update modifies a location.
func (r *LocationRepository) Update(ctx context.Context, location *models.Location) error {
	location.UpdatedAt = time.Now().UTC()
	const query = `UPDATE locations SET name = :name, parent_id = :parent_id, notes = :notes, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, location); err != nil {
		return fmt.Errorf("update location: %w", err)
	}
	return nil
}

// Delete removes a location. Callers must check dependents first.
func (r *LocationRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM locations WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete location: %w", err)
	}
	return nil
}

// Dependents counts the sub-locations, assets and active requests that block
// deletion of the location.
func (r *LocationRepository) Dependents(ctx context.Context, id string) (models.LocationDependents, error) {
	const query = `SELECT
(SELECT COUNT(*) FROM locations WHERE parent_id = $1) AS children,
(SELECT COUNT(*) FROM assets WHERE location_id = $1) AS assets,
(SELECT COUNT(*) FROM repair_requests WHERE location_id = $1 AND is_deleted = FALSE) AS requests`
	var deps models.LocationDependents
	if err := r.db.GetContext(ctx, &deps, query, id); err != nil {
		return deps, fmt.Errorf("count location dependents: %w", err)
	}
	return deps, nil
}
