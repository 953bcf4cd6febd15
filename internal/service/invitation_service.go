package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/paradisefm/facilities-api/internal/dto"
	"github.com/paradisefm/facilities-api/internal/models"
	appErrors "github.com/paradisefm/facilities-api/pkg/errors"
	"github.com/paradisefm/facilities-api/pkg/jobs"
	"github.com/paradisefm/facilities-api/pkg/mailer"
)

type invitationRepository interface {
	List(ctx context.Context) ([]models.Invitation, error)
	GetByID(ctx context.Context, id string) (*models.Invitation, error)
	FindByToken(ctx context.Context, token string) (*models.Invitation, error)
	HasPendingForEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, invitation *models.Invitation) error
	UpdateStatus(ctx context.Context, id string, status models.InvitationStatus) error
	Accept(ctx context.Context, invitation *models.Invitation, user *models.User) error
}

type invitationUserReader interface {
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

// InvitationService handles account onboarding via emailed tokens.
type InvitationService struct {
	repo      invitationRepository
	users     invitationUserReader
	auth      *AuthService
	queue     *jobs.Queue
	baseURL   string
	validFor  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewInvitationService constructs an InvitationService instance.
func NewInvitationService(repo invitationRepository, users invitationUserReader, auth *AuthService, queue *jobs.Queue, baseURL string, validFor time.Duration, validate *validator.Validate, logger *zap.Logger) *InvitationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if validFor <= 0 {
		validFor = 7 * 24 * time.Hour
	}
	return &InvitationService{
		repo:      repo,
		users:     users,
		auth:      auth,
		queue:     queue,
		baseURL:   baseURL,
		validFor:  validFor,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create issues an invitation and mails the accept link. A pending
// invitation for the same address blocks a second one.
func (s *InvitationService) Create(ctx context.Context, input dto.CreateInvitationInput, invitedByID string) (*dto.InvitationView, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid invitation payload")
	}
	pending, err := s.repo.HasPendingForEmail(ctx, input.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check invitations")
	}
	if pending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a pending invitation already exists for this address")
	}

	token, err := generateInvitationToken()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate token")
	}

	role := models.RoleUser
	if input.Role != "" {
		role = models.UserRole(input.Role)
	}
	invitation := &models.Invitation{
		Email:       strings.ToLower(strings.TrimSpace(input.Email)),
		Token:       token,
		Status:      models.InvitationPending,
		Role:        role,
		Message:     input.Message,
		InvitedByID: &invitedByID,
	}
	if err := s.repo.Create(ctx, invitation); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create invitation")
	}

	s.sendInviteMail(invitation)
	return &dto.InvitationView{Invitation: *invitation, ExpiresAt: invitation.ExpiresAt(s.validFor)}, nil
}

// List returns all invitations with computed expiry, lazily expiring stale
// pending ones.
func (s *InvitationService) List(ctx context.Context) ([]dto.InvitationView, error) {
	invitations, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list invitations")
	}
	now := s.now()
	views := make([]dto.InvitationView, 0, len(invitations))
	for i := range invitations {
		s.expireIfStale(ctx, &invitations[i], now)
		views = append(views, dto.InvitationView{Invitation: invitations[i], ExpiresAt: invitations[i].ExpiresAt(s.validFor)})
	}
	return views, nil
}

// GetByToken resolves an invitation for the public accept page. Expired or
// non-pending invitations return 410.
func (s *InvitationService) GetByToken(ctx context.Context, token string) (*dto.InvitationView, error) {
	invitation, err := s.loadByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return &dto.InvitationView{Invitation: *invitation, ExpiresAt: invitation.ExpiresAt(s.validFor)}, nil
}

// Cancel withdraws a pending invitation.
func (s *InvitationService) Cancel(ctx context.Context, id string) error {
	invitation, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "invitation not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load invitation")
	}
	s.expireIfStale(ctx, invitation, s.now())
	if invitation.Status != models.InvitationPending {
		return appErrors.Clone(appErrors.ErrConflict, "only pending invitations can be cancelled")
	}
	if err := s.repo.UpdateStatus(ctx, id, models.InvitationCancelled); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel invitation")
	}
	return nil
}

// Accept redeems a token into a new account and logs the user straight in.
// User creation and the invitation state change share one transaction.
func (s *InvitationService) Accept(ctx context.Context, token string, input dto.AcceptInvitationInput) (*models.LoginResponse, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid accept payload")
	}
	invitation, err := s.loadByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	username := strings.ToLower(strings.TrimSpace(input.Username))
	taken, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check username")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrUsernameTaken, fmt.Sprintf("username %s is already in use", username))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Username:     username,
		Email:        invitation.Email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Role:         invitation.Role,
		Active:       true,
	}
	if err := s.repo.Accept(ctx, invitation, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "failed to accept invitation")
	}

	accessToken, err := s.auth.GenerateToken(user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue token")
	}
	return &models.LoginResponse{
		AccessToken: accessToken,
		ExpiresIn:   int64(s.auth.config.Expiry.Seconds()),
		IssuedAt:    s.now(),
		User: models.UserInfo{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			FullName: user.DisplayName(),
			Role:     user.Role,
		},
	}, nil
}

func (s *InvitationService) loadByToken(ctx context.Context, token string) (*models.Invitation, error) {
	invitation, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "invitation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load invitation")
	}
	s.expireIfStale(ctx, invitation, s.now())
	if invitation.Status != models.InvitationPending {
		return nil, appErrors.Clone(appErrors.ErrInvitationExpired, "invitation is no longer valid")
	}
	return invitation, nil
}

// expireIfStale flips a pending invitation past its window to expired. The
// write is best-effort; the in-memory status always reflects reality.
func (s *InvitationService) expireIfStale(ctx context.Context, invitation *models.Invitation, now time.Time) {
	if invitation.Status != models.InvitationPending || invitation.IsValid(now, s.validFor) {
		return
	}
	invitation.Status = models.InvitationExpired
	if err := s.repo.UpdateStatus(ctx, invitation.ID, models.InvitationExpired); err != nil {
		s.logger.Warn("failed to persist invitation expiry", zap.String("invitation_id", invitation.ID), zap.Error(err))
	}
}

func (s *InvitationService) sendInviteMail(invitation *models.Invitation) {
	if s.queue == nil {
		return
	}
	link := fmt.Sprintf("%s/invitations/accept/%s", strings.TrimRight(s.baseURL, "/"), invitation.Token)
	body := fmt.Sprintf("Je bent uitgenodigd voor het facilitair beheer systeem.\n\n%s\n\nDeze link is geldig tot %s.",
		link, invitation.ExpiresAt(s.validFor).Format("02-01-2006 15:04"))
	if invitation.Message != "" {
		body = invitation.Message + "\n\n" + body
	}
	err := s.queue.Enqueue(jobs.Job{
		ID:   invitation.ID,
		Type: "invitation-email",
		Payload: mailer.Message{
			To:      []string{invitation.Email},
			Subject: "Uitnodiging facilitair beheer",
			Body:    body,
		},
	})
	if err != nil {
		s.logger.Warn("failed to enqueue invitation email", zap.String("invitation_id", invitation.ID), zap.Error(err))
	}
}

func generateInvitationToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
