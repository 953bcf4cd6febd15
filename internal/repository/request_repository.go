package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/paradisefm/facilities-api/internal/models"
)

const requestColumns = `id, number, title, description, location_id, asset_id, priority, status,
requester_name, requester_email, requester_phone, preferred_contact, requester_user_id,
assigned_to_id, triaged_by_id, due_date, resolution_summary, estimated_cost, actual_cost,
vendor, quote_amount, quote_status, po_number, closed_at, is_deleted, deleted_at, deleted_by_id,
created_at, updated_at`

// RequestRepository persists repair requests and their work logs.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository constructs a request repository.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

func buildRequestWhere(filter models.RequestFilter) ([]string, []interface{}) {
	where := []string{"1=1"}
	args := []interface{}{}
	if !filter.IncludeDeleted {
		where = append(where, "is_deleted = FALSE")
	}
	if filter.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, string(*filter.Status))
	}
	if filter.Priority != nil {
		where = append(where, fmt.Sprintf("priority = $%d", len(args)+1))
		args = append(args, string(*filter.Priority))
	}
	if filter.LocationID != "" {
		where = append(where, fmt.Sprintf("location_id = $%d", len(args)+1))
		args = append(args, filter.LocationID)
	}
	switch filter.Assigned {
	case "":
	case "unassigned":
		where = append(where, "assigned_to_id IS NULL")
	default:
		where = append(where, fmt.Sprintf("assigned_to_id = $%d", len(args)+1))
		args = append(args, filter.Assigned)
	}
	if filter.Search != "" {
		n := len(args) + 1
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d OR CAST(number AS TEXT) LIKE $%d)", n, n, n))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.RequesterUserID != "" || filter.RequesterEmail != "" {
		n := len(args) + 1
		where = append(where, fmt.Sprintf("(requester_user_id = $%d OR (requester_email <> '' AND LOWER(requester_email) = LOWER($%d)))", n, n+1))
		args = append(args, filter.RequesterUserID, filter.RequesterEmail)
	}
	return where, args
}

// List returns requests matching the filter plus a total count.
func (r *RequestRepository) List(ctx context.Context, filter models.RequestFilter) ([]models.RepairRequest, int, error) {
	where, args := buildRequestWhere(filter)
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

	query := fmt.Sprintf(`SELECT %s FROM repair_requests WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		requestColumns, whereClause, size, offset)
	var requests []models.RepairRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list requests: %w", err)
	}
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM repair_requests WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count requests: %w", err)
	}
	return requests, total, nil
}

// GetByID fetches a request, excluding soft-deleted rows unless asked.
func (r *RequestRepository) GetByID(ctx context.Context, id string, includeDeleted bool) (*models.RepairRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM repair_requests WHERE id = $1`, requestColumns)
	if !includeDeleted {
		query += " AND is_deleted = FALSE"
	}
	var request models.RepairRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// FindByTitle fetches the newest non-deleted request with the exact title,
// used by the importer as natural key.
func (r *RequestRepository) FindByTitle(ctx context.Context, title string) (*models.RepairRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM repair_requests WHERE is_deleted = FALSE AND title = $1 ORDER BY created_at DESC LIMIT 1`, requestColumns)
	var request models.RepairRequest
	if err := r.db.GetContext(ctx, &request, query, title); err != nil {
		return nil, err
	}
	return &request, nil
}

// Create inserts a request together with its initial work-log entries in one
// transaction. The work-order number comes from a database sequence.
func (r *RequestRepository) Create(ctx context.Context, request *models.RepairRequest, logs []models.WorkLog) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	request.CreatedAt = now
	request.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create request: %w", err)
	}
	defer tx.Rollback()

	if err := tx.GetContext(ctx, &request.Number, "SELECT nextval('request_number_seq')"); err != nil {
		return fmt.Errorf("next request number: %w", err)
	}

	const query = `INSERT INTO repair_requests (id, number, title, description, location_id, asset_id, priority, status,
requester_name, requester_email, requester_phone, preferred_contact, requester_user_id,
assigned_to_id, triaged_by_id, due_date, resolution_summary, estimated_cost, actual_cost,
vendor, quote_amount, quote_status, po_number, closed_at, is_deleted, deleted_at, deleted_by_id, created_at, updated_at)
VALUES (:id, :number, :title, :description, :location_id, :asset_id, :priority, :status,
:requester_name, :requester_email, :requester_phone, :preferred_contact, :requester_user_id,
:assigned_to_id, :triaged_by_id, :due_date, :resolution_summary, :estimated_cost, :actual_cost,
:vendor, :quote_amount, :quote_status, :po_number, :closed_at, :is_deleted, :deleted_at, :deleted_by_id, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for i := range logs {
		logs[i].RequestID = request.ID
		if err := insertWorkLogTx(ctx, tx, &logs[i]); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create request: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of a request and appends the given
// work-log entries in the same transaction, so a change and its audit trail
// land together or not at all.
func (r *RequestRepository) Update(ctx context.Context, request *models.RepairRequest, logs []models.WorkLog) error {
	request.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update request: %w", err)
	}
	defer tx.Rollback()

	const query = `UPDATE repair_requests SET title = :title, description = :description, location_id = :location_id, asset_id = :asset_id,
priority = :priority, status = :status, requester_name = :requester_name, requester_email = :requester_email,
requester_phone = :requester_phone, preferred_contact = :preferred_contact,
assigned_to_id = :assigned_to_id, triaged_by_id = :triaged_by_id, due_date = :due_date,
resolution_summary = :resolution_summary, estimated_cost = :estimated_cost, actual_cost = :actual_cost,
vendor = :vendor, quote_amount = :quote_amount, quote_status = :quote_status, po_number = :po_number,
closed_at = :closed_at, updated_at = :updated_at
WHERE id = :id AND is_deleted = FALSE`
	if _, err := tx.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	for i := range logs {
		logs[i].RequestID = request.ID
		if err := insertWorkLogTx(ctx, tx, &logs[i]); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update request: %w", err)
	}
	return nil
}

// SoftDelete hides a request from normal listings without losing history.
func (r *RequestRepository) SoftDelete(ctx context.Context, id, deletedByID string) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		"UPDATE repair_requests SET is_deleted = TRUE, deleted_at = $1, deleted_by_id = $2, updated_at = $1 WHERE id = $3 AND is_deleted = FALSE",
		now, deletedByID, id)
	if err != nil {
		return fmt.Errorf("soft delete request: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return fmt.Errorf("soft delete request: no active request %s", id)
	}
	return nil
}

// StatusCounts aggregates the triage dashboard header in one query.
func (r *RequestRepository) StatusCounts(ctx context.Context, today time.Time) (*models.RequestStatusCounts, error) {
	const query = `SELECT
COUNT(*) FILTER (WHERE status = 'new') AS new,
COUNT(*) FILTER (WHERE status = 'triaged') AS triaged,
COUNT(*) FILTER (WHERE status = 'in_progress') AS in_progress,
COUNT(*) FILTER (WHERE status = 'waiting') AS waiting,
COUNT(*) FILTER (WHERE due_date < $1 AND status NOT IN ('completed', 'closed')) AS overdue
FROM repair_requests WHERE is_deleted = FALSE`
	var counts models.RequestStatusCounts
	if err := r.db.GetContext(ctx, &counts, query, models.Midnight(today)); err != nil {
		return nil, fmt.Errorf("request status counts: %w", err)
	}
	return &counts, nil
}

// ListDueBetween returns open requests with a due date inside the window,
// for the planner overlay.
func (r *RequestRepository) ListDueBetween(ctx context.Context, from, until time.Time) ([]models.RepairRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM repair_requests
WHERE is_deleted = FALSE AND due_date IS NOT NULL AND due_date >= $1 AND due_date <= $2
AND status NOT IN ('completed', 'closed')
ORDER BY due_date ASC`, requestColumns)
	var requests []models.RepairRequest
	if err := r.db.SelectContext(ctx, &requests, query, from, until); err != nil {
		return nil, fmt.Errorf("list due requests: %w", err)
	}
	return requests, nil
}

// ListOpenForDashboard returns open requests most-urgent-first for the
// triage dashboard.
func (r *RequestRepository) ListOpenForDashboard(ctx context.Context, limit int) ([]models.RepairRequest, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	query := fmt.Sprintf(`SELECT %s FROM repair_requests
WHERE is_deleted = FALSE AND status NOT IN ('completed', 'closed')
ORDER BY CASE priority WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 WHEN 'normal' THEN 2 ELSE 3 END,
due_date ASC NULLS LAST, created_at ASC
LIMIT %d`, requestColumns, limit)
	var requests []models.RepairRequest
	if err := r.db.SelectContext(ctx, &requests, query); err != nil {
		return nil, fmt.Errorf("list dashboard requests: %w", err)
	}
	return requests, nil
}

// ListRecentByAsset returns the newest non-deleted requests for one asset,
// for the asset detail page.
func (r *RequestRepository) ListRecentByAsset(ctx context.Context, assetID string, limit int) ([]models.RepairRequest, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	query := fmt.Sprintf(`SELECT %s FROM repair_requests
WHERE is_deleted = FALSE AND asset_id = $1
ORDER BY created_at DESC LIMIT %d`, requestColumns, limit)
	var requests []models.RepairRequest
	if err := r.db.SelectContext(ctx, &requests, query, assetID); err != nil {
		return nil, fmt.Errorf("list asset requests: %w", err)
	}
	return requests, nil
}

// CostBuckets aggregates actual spend per creation month inside the window.
// Months with no requests are absent; callers fill zero buckets.
func (r *RequestRepository) CostBuckets(ctx context.Context, from, until time.Time) ([]models.CostBucket, error) {
	const query = `SELECT
EXTRACT(YEAR FROM created_at)::int AS year,
EXTRACT(MONTH FROM created_at)::int AS month,
COALESCE(SUM(estimated_cost), 0) AS estimated,
COALESCE(SUM(actual_cost), 0) AS actual,
COUNT(*) AS count
FROM repair_requests
WHERE is_deleted = FALSE AND created_at >= $1 AND created_at < $2
GROUP BY 1, 2
ORDER BY 1, 2`
	var buckets []models.CostBucket
	if err := r.db.SelectContext(ctx, &buckets, query, from, until); err != nil {
		return nil, fmt.Errorf("cost buckets: %w", err)
	}
	return buckets, nil
}

// ListWorkLogs returns the activity trail oldest-first.
func (r *RequestRepository) ListWorkLogs(ctx context.Context, requestID string) ([]models.WorkLog, error) {
	const query = `SELECT id, request_id, author_id, entry_type, note, minutes_spent, created_at
FROM work_logs WHERE request_id = $1 ORDER BY created_at ASC`
	var logs []models.WorkLog
	if err := r.db.SelectContext(ctx, &logs, query, requestID); err != nil {
		return nil, fmt.Errorf("list work logs: %w", err)
	}
	return logs, nil
}

// AddWorkLog appends one entry outside of a request mutation, e.g. a manual
// note with time spent.
func (r *RequestRepository) AddWorkLog(ctx context.Context, log *models.WorkLog) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add work log: %w", err)
	}
	defer tx.Rollback()
	if err := insertWorkLogTx(ctx, tx, log); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit add work log: %w", err)
	}
	return nil
}

func insertWorkLogTx(ctx context.Context, tx *sqlx.Tx, log *models.WorkLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO work_logs (id, request_id, author_id, entry_type, note, minutes_spent, created_at)
VALUES (:id, :request_id, :author_id, :entry_type, :note, :minutes_spent, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("insert work log: %w", err)
	}
	return nil
}
