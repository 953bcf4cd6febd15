package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/paradisefm/facilities-api/internal/models"
)

const invitationColumns = `id, email, token, status, role, message, invited_by_id, accepted_user_id, created_at, accepted_at`

// InvitationRepository persists onboarding invitations.
type InvitationRepository struct {
	db *sqlx.DB
}

// NewInvitationRepository constructs an invitation repository.
func NewInvitationRepository(db *sqlx.DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

// List returns all invitations, newest first.
func (r *InvitationRepository) List(ctx context.Context) ([]models.Invitation, error) {
	query := fmt.Sprintf(`SELECT %s FROM invitations ORDER BY created_at DESC`, invitationColumns)
	var invitations []models.Invitation
	if err := r.db.SelectContext(ctx, &invitations, query); err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	return invitations, nil
}

// GetByID fetches an invitation.
func (r *InvitationRepository) GetByID(ctx context.Context, id string) (*models.Invitation, error) {
	query := fmt.Sprintf(`SELECT %s FROM invitations WHERE id = $1`, invitationColumns)
	var invitation models.Invitation
	if err := r.db.GetContext(ctx, &invitation, query, id); err != nil {
		return nil, err
	}
	return &invitation, nil
}

// FindByToken fetches an invitation by its opaque token.
func (r *InvitationRepository) FindByToken(ctx context.Context, token string) (*models.Invitation, error) {
	query := fmt.Sprintf(`SELECT %s FROM invitations WHERE token = $1`, invitationColumns)
	var invitation models.Invitation
	if err := r.db.GetContext(ctx, &invitation, query, token); err != nil {
		return nil, err
	}
	return &invitation, nil
}

// HasPendingForEmail reports whether a pending invitation already exists for
// the address.
func (r *InvitationRepository) HasPendingForEmail(ctx context.Context, email string) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM invitations WHERE LOWER(email) = LOWER($1) AND status = 'pending'", email); err != nil {
		return false, fmt.Errorf("check pending invitation: %w", err)
	}
	return count > 0, nil
}

// Create inserts an invitation.
func (r *InvitationRepository) Create(ctx context.Context, invitation *models.Invitation) error {
	if invitation.ID == "" {
		invitation.ID = uuid.NewString()
	}
	if invitation.CreatedAt.IsZero() {
		invitation.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO invitations (id, email, token, status, role, message, invited_by_id, accepted_user_id, created_at, accepted_at)
VALUES (:id, :email, :token, :status, :role, :message, :invited_by_id, :accepted_user_id, :created_at, :accepted_at)`
	if _, err := r.db.NamedExecContext(ctx, query, invitation); err != nil {
		return fmt.Errorf("create invitation: %w", err)
	}
	return nil
}

// UpdateStatus moves an invitation to a terminal or expired state.
func (r *InvitationRepository) UpdateStatus(ctx context.Context, id string, status models.InvitationStatus) error {
	if _, err := r.db.ExecContext(ctx,
		"UPDATE invitations SET status = $1 WHERE id = $2", string(status), id); err != nil {
		return fmt.Errorf("update invitation status: %w", err)
	}
	return nil
}

// Accept creates the invited user and marks the invitation accepted in one
// transaction, so a pending invitation can never be redeemed twice.
func (r *InvitationRepository) Accept(ctx context.Context, invitation *models.Invitation, user *models.User) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin accept invitation: %w", err)
	}
	defer tx.Rollback()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	const insertUser = `INSERT INTO users (id, username, email, password_hash, first_name, last_name, role, active, must_change_password, created_at, updated_at)
VALUES (:id, :username, :email, :password_hash, :first_name, :last_name, :role, :active, :must_change_password, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertUser, user); err != nil {
		return fmt.Errorf("create invited user: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE invitations SET status = 'accepted', accepted_user_id = $1, accepted_at = $2 WHERE id = $3 AND status = 'pending'",
		user.ID, now, invitation.ID)
	if err != nil {
		return fmt.Errorf("accept invitation: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return fmt.Errorf("accept invitation: invitation %s is no longer pending", invitation.ID)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit accept invitation: %w", err)
	}
	invitation.Status = models.InvitationAccepted
	invitation.AcceptedUserID = &user.ID
	invitation.AcceptedAt = &now
	return nil
}
