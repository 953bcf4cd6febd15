package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/paradisefm/facilities-api/internal/models"
)

// AttachmentRepository persists file metadata. File bytes live in the
// content store, only paths are kept here.
type AttachmentRepository struct {
	db *sqlx.DB
}

// NewAttachmentRepository constructs an attachment repository.
func NewAttachmentRepository(db *sqlx.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

// ListByRequest returns all attachments for a request, newest last.
func (r *AttachmentRepository) ListByRequest(ctx context.Context, requestID string) ([]models.Attachment, error) {
	const query = `SELECT id, request_id, stored_path, original_name, title, uploaded_by_id, uploaded_at
FROM attachments WHERE request_id = $1 ORDER BY uploaded_at ASC`
	var attachments []models.Attachment
	if err := r.db.SelectContext(ctx, &attachments, query, requestID); err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	return attachments, nil
}

// GetByID fetches one attachment.
func (r *AttachmentRepository) GetByID(ctx context.Context, id string) (*models.Attachment, error) {
	const query = `SELECT id, request_id, stored_path, original_name, title, uploaded_by_id, uploaded_at
FROM attachments WHERE id = $1`
	var attachment models.Attachment
	if err := r.db.GetContext(ctx, &attachment, query, id); err != nil {
		return nil, err
	}
	return &attachment, nil
}

// Create inserts attachment metadata after the file landed on disk.
func (r *AttachmentRepository) Create(ctx context.Context, attachment *models.Attachment) error {
	if attachment.ID == "" {
		attachment.ID = uuid.NewString()
	}
	if attachment.UploadedAt.IsZero() {
		attachment.UploadedAt = time.Now().UTC()
	}
	const query = `INSERT INTO attachments (id, request_id, stored_path, original_name, title, uploaded_by_id, uploaded_at)
VALUES (:id, :request_id, :stored_path, :original_name, :title, :uploaded_by_id, :uploaded_at)`
	if _, err := r.db.NamedExecContext(ctx, query, attachment); err != nil {
		return fmt.Errorf("create attachment: %w", err)
	}
	return nil
}

// Delete removes attachment metadata. The caller deletes the stored file.
func (r *AttachmentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM attachments WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}
	return nil
}
