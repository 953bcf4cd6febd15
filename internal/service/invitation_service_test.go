package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/paradisefm/facilities-api/internal/dto"
	"github.com/paradisefm/facilities-api/internal/models"
	appErrors "github.com/paradisefm/facilities-api/pkg/errors"
)

type stubInvitationRepo struct {
	byID          map[string]*models.Invitation
	byToken       map[string]*models.Invitation
	pending       bool
	created       *models.Invitation
	statusUpdates map[string]models.InvitationStatus
	acceptedUser  *models.User
}

func newStubInvitationRepo() *stubInvitationRepo {
	return &stubInvitationRepo{
		byID:          map[string]*models.Invitation{},
		byToken:       map[string]*models.Invitation{},
		statusUpdates: map[string]models.InvitationStatus{},
	}
}

func (s *stubInvitationRepo) List(ctx context.Context) ([]models.Invitation, error) {
	var out []models.Invitation
	for _, inv := range s.byID {
		out = append(out, *inv)
	}
	return out, nil
}

func (s *stubInvitationRepo) GetByID(ctx context.Context, id string) (*models.Invitation, error) {
	inv, ok := s.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *inv
	return &copy, nil
}

func (s *stubInvitationRepo) FindByToken(ctx context.Context, token string) (*models.Invitation, error) {
	inv, ok := s.byToken[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *inv
	return &copy, nil
}

func (s *stubInvitationRepo) HasPendingForEmail(ctx context.Context, email string) (bool, error) {
	return s.pending, nil
}

func (s *stubInvitationRepo) Create(ctx context.Context, invitation *models.Invitation) error {
	invitation.ID = "inv-1"
	invitation.CreatedAt = time.Now().UTC()
	s.created = invitation
	return nil
}

func (s *stubInvitationRepo) UpdateStatus(ctx context.Context, id string, status models.InvitationStatus) error {
	s.statusUpdates[id] = status
	if inv, ok := s.byID[id]; ok {
		inv.Status = status
	}
	return nil
}

func (s *stubInvitationRepo) Accept(ctx context.Context, invitation *models.Invitation, user *models.User) error {
	user.ID = "u-new"
	s.acceptedUser = user
	s.statusUpdates[invitation.ID] = models.InvitationAccepted
	return nil
}

type stubInvitationUsers struct {
	taken bool
}

func (s *stubInvitationUsers) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return s.taken, nil
}

type stubAuthUserRepo struct {
	byUsername map[string]*models.User
}

func (s *stubAuthUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	return nil, sql.ErrNoRows
}

func (s *stubAuthUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	user, ok := s.byUsername[username]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (s *stubAuthUserRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (s *stubAuthUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return nil
}

func testAuthService() *AuthService {
	return NewAuthService(&stubAuthUserRepo{byUsername: map[string]*models.User{}}, nil, nil,
		AuthConfig{Secret: "test-secret", Expiry: time.Hour, Issuer: "facilities-test"})
}

func newTestInvitationService(repo *stubInvitationRepo, users *stubInvitationUsers, validFor time.Duration) *InvitationService {
	if users == nil {
		users = &stubInvitationUsers{}
	}
	return NewInvitationService(repo, users, testAuthService(), nil, "https://fm.example.org", validFor, nil, nil)
}

func TestCreateInvitationNormalizesEmailAndDefaultsRole(t *testing.T) {
	repo := newStubInvitationRepo()
	svc := newTestInvitationService(repo, nil, time.Hour)

	view, err := svc.Create(context.Background(), dto.CreateInvitationInput{Email: "  Nieuw@Example.ORG "}, "admin-1")
	require.NoError(t, err)

	assert.Equal(t, "nieuw@example.org", view.Email)
	assert.Equal(t, models.RoleUser, view.Role)
	assert.Equal(t, models.InvitationPending, view.Status)
	assert.NotEmpty(t, view.Token)
	require.NotNil(t, view.InvitedByID)
	assert.Equal(t, "admin-1", *view.InvitedByID)
	assert.Equal(t, repo.created.CreatedAt.Add(time.Hour), view.ExpiresAt)
}

func TestCreateInvitationBlockedByPendingOne(t *testing.T) {
	repo := newStubInvitationRepo()
	repo.pending = true
	svc := newTestInvitationService(repo, nil, time.Hour)

	_, err := svc.Create(context.Background(), dto.CreateInvitationInput{Email: "dubbel@example.org"}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestGetByTokenExpiresStaleInvitation(t *testing.T) {
	repo := newStubInvitationRepo()
	stale := &models.Invitation{
		ID: "inv-1", Token: "tok", Status: models.InvitationPending,
		CreatedAt: time.Now().UTC().Add(-2 * time.Hour),
	}
	repo.byID["inv-1"] = stale
	repo.byToken["tok"] = stale
	svc := newTestInvitationService(repo, nil, time.Hour)

	_, err := svc.GetByToken(context.Background(), "tok")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvitationExpired.Code, appErr.Code)
	assert.Equal(t, appErrors.ErrInvitationExpired.Status, appErr.Status)
	assert.Equal(t, models.InvitationExpired, repo.statusUpdates["inv-1"], "lazy expiry is persisted")
}

func TestGetByTokenStillValidInsideWindow(t *testing.T) {
	repo := newStubInvitationRepo()
	fresh := &models.Invitation{
		ID: "inv-1", Token: "tok", Status: models.InvitationPending,
		CreatedAt: time.Now().UTC().Add(-30 * time.Minute),
	}
	repo.byToken["tok"] = fresh
	svc := newTestInvitationService(repo, nil, time.Hour)

	view, err := svc.GetByToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, models.InvitationPending, view.Status)
	assert.Empty(t, repo.statusUpdates)
}

func TestCancelOnlyPendingInvitations(t *testing.T) {
	repo := newStubInvitationRepo()
	repo.byID["inv-1"] = &models.Invitation{ID: "inv-1", Status: models.InvitationAccepted, CreatedAt: time.Now().UTC()}
	repo.byID["inv-2"] = &models.Invitation{ID: "inv-2", Status: models.InvitationPending, CreatedAt: time.Now().UTC()}
	svc := newTestInvitationService(repo, nil, time.Hour)

	err := svc.Cancel(context.Background(), "inv-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Cancel(context.Background(), "inv-2"))
	assert.Equal(t, models.InvitationCancelled, repo.statusUpdates["inv-2"])
}

func TestAcceptCreatesAccountAndLogsIn(t *testing.T) {
	repo := newStubInvitationRepo()
	repo.byToken["tok"] = &models.Invitation{
		ID: "inv-1", Token: "tok", Email: "nieuw@example.org",
		Status: models.InvitationPending, Role: models.RoleStaff,
		CreatedAt: time.Now().UTC(),
	}
	svc := newTestInvitationService(repo, nil, time.Hour)

	resp, err := svc.Accept(context.Background(), "tok", dto.AcceptInvitationInput{
		Username:        "  Nieuwe.Gebruiker  ",
		FirstName:       "Nieuwe",
		LastName:        "Gebruiker",
		Password:        "wachtwoord123",
		ConfirmPassword: "wachtwoord123",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, "nieuwe.gebruiker", resp.User.Username)
	assert.Equal(t, models.RoleStaff, resp.User.Role)

	require.NotNil(t, repo.acceptedUser)
	assert.Equal(t, "nieuw@example.org", repo.acceptedUser.Email, "email comes from the invitation, not the form")
	assert.True(t, repo.acceptedUser.Active)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.acceptedUser.PasswordHash), []byte("wachtwoord123")))
}

func TestAcceptRejectsTakenUsername(t *testing.T) {
	repo := newStubInvitationRepo()
	repo.byToken["tok"] = &models.Invitation{
		ID: "inv-1", Token: "tok", Email: "nieuw@example.org",
		Status: models.InvitationPending, Role: models.RoleUser,
		CreatedAt: time.Now().UTC(),
	}
	svc := newTestInvitationService(repo, &stubInvitationUsers{taken: true}, time.Hour)

	_, err := svc.Accept(context.Background(), "tok", dto.AcceptInvitationInput{
		Username:        "bezet",
		Password:        "wachtwoord123",
		ConfirmPassword: "wachtwoord123",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUsernameTaken.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "bezet")
	assert.Nil(t, repo.acceptedUser)
}

func TestAcceptMismatchedPasswordsFailValidation(t *testing.T) {
	repo := newStubInvitationRepo()
	svc := newTestInvitationService(repo, nil, time.Hour)

	_, err := svc.Accept(context.Background(), "tok", dto.AcceptInvitationInput{
		Username:        "nieuw",
		Password:        "wachtwoord123",
		ConfirmPassword: "iets-anders",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGenerateInvitationTokenIsUnique(t *testing.T) {
	a, err := generateInvitationToken()
	require.NoError(t, err)
	b, err := generateInvitationToken()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.GreaterOrEqual(t, len(a), 43)
}
