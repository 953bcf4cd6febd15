package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/paradisefm/facilities-api/internal/models"
)

const scheduleColumns = `id, asset_id, name, interval_days, last_performed, notes, created_at, updated_at`

// MaintenanceRepository persists recurring maintenance schedules.
type MaintenanceRepository struct {
	db *sqlx.DB
}

// NewMaintenanceRepository constructs a maintenance repository.
func NewMaintenanceRepository(db *sqlx.DB) *MaintenanceRepository {
	return &MaintenanceRepository{db: db}
}

// ListByAsset returns all schedules attached to one asset.
func (r *MaintenanceRepository) ListByAsset(ctx context.Context, assetID string) ([]models.MaintenanceSchedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM maintenance_schedules WHERE asset_id = $1 ORDER BY name ASC`, scheduleColumns)
	var schedules []models.MaintenanceSchedule
	if err := r.db.SelectContext(ctx, &schedules, query, assetID); err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return schedules, nil
}

// GetByID fetches a schedule.
func (r *MaintenanceRepository) GetByID(ctx context.Context, id string) (*models.MaintenanceSchedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM maintenance_schedules WHERE id = $1`, scheduleColumns)
	var schedule models.MaintenanceSchedule
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// Create inserts a schedule.
func (r *MaintenanceRepository) Create(ctx context.Context, schedule *models.MaintenanceSchedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now
	const query = `INSERT INTO maintenance_schedules (id, asset_id, name, interval_days, last_performed, notes, created_at, updated_at)
VALUES (:id, :asset_id, :name, :interval_days, :last_performed, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// Update modifies a schedule.
func (r *MaintenanceRepository) Update(ctx context.Context, schedule *models.MaintenanceSchedule) error {
	schedule.UpdatedAt = time.Now().UTC()
	const query = `UPDATE maintenance_schedules SET name = :name, interval_days = :interval_days, last_performed = :last_performed,
notes = :notes, updated_at = :updated_at
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	return nil
}

// Delete removes a schedule.
func (r *MaintenanceRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM maintenance_schedules WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return nil
}

// MarkPerformed records a completion date.
func (r *MaintenanceRepository) MarkPerformed(ctx context.Context, id string, performedOn time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE maintenance_schedules SET last_performed = $1, updated_at = $2 WHERE id = $3",
		performedOn, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("mark performed: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return fmt.Errorf("mark performed: no schedule %s", id)
	}
	return nil
}

// ListForPlanner returns every schedule joined with its owning asset so the
// planner can filter on asset status and label occurrences.
func (r *MaintenanceRepository) ListForPlanner(ctx context.Context) ([]models.ScheduleWithAsset, error) {
	const query = `SELECT s.id, s.asset_id, s.name, s.interval_days, s.last_performed, s.notes,
s.created_at, s.updated_at, a.asset_tag, a.name AS asset_name, a.status AS asset_status, a.location_id
FROM maintenance_schedules s
JOIN assets a ON a.id = s.asset_id
ORDER BY s.name ASC`
	var schedules []models.ScheduleWithAsset
	if err := r.db.SelectContext(ctx, &schedules, query); err != nil {
		return nil, fmt.Errorf("list planner schedules: %w", err)
	}
	return schedules, nil
}
