package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paradisefm/facilities-api/internal/models"
)

func TestInvitationRepositoryHasPendingForEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewInvitationRepository(db)

	pattern := regexp.QuoteMeta(`SELECT COUNT(*) FROM invitations WHERE LOWER(email) = LOWER($1) AND status = 'pending'`)
	mock.ExpectQuery(pattern).WithArgs("nieuw@example.org").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	pending, err := repo.HasPendingForEmail(context.Background(), "nieuw@example.org")
	require.NoError(t, err)
	assert.True(t, pending)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInvitationRepositoryAcceptCreatesUserAndFlipsStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewInvitationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO users`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE invitations SET status = 'accepted', accepted_user_id = $1, accepted_at = $2 WHERE id = $3 AND status = 'pending'`)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "inv-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	invitation := &models.Invitation{ID: "inv-1", Status: models.InvitationPending}
	user := &models.User{Username: "nieuw", Email: "nieuw@example.org", Role: models.RoleUser, Active: true}
	require.NoError(t, repo.Accept(context.Background(), invitation, user))

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, models.InvitationAccepted, invitation.Status)
	require.NotNil(t, invitation.AcceptedUserID)
	assert.Equal(t, user.ID, *invitation.AcceptedUserID)
	require.NotNil(t, invitation.AcceptedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInvitationRepositoryAcceptRolledBackWhenNoLongerPending(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewInvitationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO users`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE invitations SET status = 'accepted'`).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "inv-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	invitation := &models.Invitation{ID: "inv-1", Status: models.InvitationPending}
	err := repo.Accept(context.Background(), invitation, &models.User{Username: "nieuw"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no longer pending")
	assert.Equal(t, models.InvitationPending, invitation.Status, "in-memory state untouched on failure")
	require.NoError(t, mock.ExpectationsWereMet())
}
