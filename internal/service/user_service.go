package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/paradisefm/facilities-api/internal/models"
	appErrors "github.com/paradisefm/facilities-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	Search(ctx context.Context, term string, limit int) ([]models.User, error)
}

// UserService exposes account listings and the mention/assignment
// autocomplete.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs a UserService instance.
func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// List returns accounts matching the filter with pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return users, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Search powers the @mention and assignee pickers. Results are capped and
// limited to active accounts.
func (s *UserService) Search(ctx context.Context, term string, limit int) ([]models.UserInfo, error) {
	if term == "" {
		return []models.UserInfo{}, nil
	}
	users, err := s.repo.Search(ctx, term, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search users")
	}
	results := make([]models.UserInfo, 0, len(users))
	for _, u := range users {
		results = append(results, models.UserInfo{
			ID:       u.ID,
			Username: u.Username,
			Email:    u.Email,
			FullName: u.DisplayName(),
			Role:     u.Role,
		})
	}
	return results, nil
}
