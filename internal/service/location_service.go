package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/paradisefm/facilities-api/internal/dto"
	"github.com/paradisefm/facilities-api/internal/models"
	appErrors "github.com/paradisefm/facilities-api/pkg/errors"
)

type locationRepository interface {
	List(ctx context.Context) ([]models.Location, error)
	GetByID(ctx context.Context, id string) (*models.Location, error)
	Create(ctx context.Context, location *models.Location) error
	Update(ctx context.Context, location *models.Location) error
	Delete(ctx context.Context, id string) error
	Dependents(ctx context.Context, id string) (models.LocationDependents, error)
}

type locationAssetLister interface {
	List(ctx context.Context, filter models.AssetFilter) ([]models.Asset, int, error)
}

// LocationService manages the location tree.
type LocationService struct {
	repo      locationRepository
	assets    locationAssetLister
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLocationService constructs a LocationService instance.
func NewLocationService(repo locationRepository, assets locationAssetLister, validate *validator.Validate, logger *zap.Logger) *LocationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &LocationService{repo: repo, assets: assets, validator: validate, logger: logger}
}

// List returns every location with its computed full path, ordered by path.
func (s *LocationService) List(ctx context.Context) ([]dto.LocationView, error) {
	locations, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list locations")
	}
	return buildLocationViews(locations), nil
}

// Get returns one location with children and assets.
func (s *LocationService) Get(ctx context.Context, id string) (*dto.LocationDetail, error) {
	locations, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list locations")
	}
	views := buildLocationViews(locations)

	var target *dto.LocationView
	for i := range views {
		if views[i].ID == id {
			target = &views[i]
			break
		}
	}
	if target == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "location not found")
	}

	detail := &dto.LocationDetail{LocationView: *target, Children: []dto.LocationView{}}
	for _, v := range views {
		if v.ParentID != nil && *v.ParentID == id {
			detail.Children = append(detail.Children, v)
		}
	}

	assets, _, err := s.assets.List(ctx, models.AssetFilter{LocationID: id, PageSize: 100})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list location assets")
	}
	detail.Assets = assets
	return detail, nil
}

// Create adds a location under an optional parent.
func (s *LocationService) Create(ctx context.Context, input dto.LocationInput) (*models.Location, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid location payload")
	}
	if input.ParentID != nil {
		if _, err := s.repo.GetByID(ctx, *input.ParentID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrValidation, "parent location does not exist")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parent location")
		}
	}
	location := &models.Location{
		Name:     strings.TrimSpace(input.Name),
		ParentID: input.ParentID,
		Notes:    input.Notes,
	}
	if err := s.repo.Create(ctx, location); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create location")
	}
	return location, nil
}

// Update modifies a location. Moving a location under itself or one of its
// descendants is refused.
func (s *LocationService) Update(ctx context.Context, id string, input dto.LocationInput) (*models.Location, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid location payload")
	}
	location, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "location not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load location")
	}

	if input.ParentID != nil {
		locations, err := s.repo.List(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list locations")
		}
		if createsCycle(locations, id, *input.ParentID) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "location cannot be moved under itself or one of its descendants")
		}
	}

	location.Name = strings.TrimSpace(input.Name)
	location.ParentID = input.ParentID
	location.Notes = input.Notes
	if err := s.repo.Update(ctx, location); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update location")
	}
	return location, nil
}

// Delete removes a location unless children, assets or requests reference
// it. The refusal message names what blocks the delete.
func (s *LocationService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "location not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load location")
	}
	deps, err := s.repo.Dependents(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count dependents")
	}
	if deps.Blocked() {
		return appErrors.Clone(appErrors.ErrLocationInUse, dependentsMessage(deps))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete location")
	}
	return nil
}

func dependentsMessage(deps models.LocationDependents) string {
	parts := []string{}
	if deps.Children > 0 {
		parts = append(parts, fmt.Sprintf("%d child location(s)", deps.Children))
	}
	if deps.Assets > 0 {
		parts = append(parts, fmt.Sprintf("%d asset(s)", deps.Assets))
	}
	if deps.Requests > 0 {
		parts = append(parts, fmt.Sprintf("%d request(s)", deps.Requests))
	}
	return "location is still referenced by " + strings.Join(parts, ", ")
}

// buildLocationViews computes the full path of every location by walking up
// the parent chain. Paths use " > " as separator; a broken chain falls back
// to the bare name.
func buildLocationViews(locations []models.Location) []dto.LocationView {
	byID := make(map[string]models.Location, len(locations))
	for _, l := range locations {
		byID[l.ID] = l
	}
	views := make([]dto.LocationView, 0, len(locations))
	for _, l := range locations {
		views = append(views, dto.LocationView{Location: l, Path: locationPath(byID, l)})
	}
	sortLocationViews(views)
	return views
}

func locationPath(byID map[string]models.Location, l models.Location) string {
	parts := []string{l.Name}
	seen := map[string]bool{l.ID: true}
	for l.ParentID != nil {
		parent, ok := byID[*l.ParentID]
		if !ok || seen[parent.ID] {
			break
		}
		seen[parent.ID] = true
		parts = append([]string{parent.Name}, parts...)
		l = parent
	}
	return strings.Join(parts, " > ")
}

func sortLocationViews(views []dto.LocationView) {
	sort.Slice(views, func(i, j int) bool { return views[i].Path < views[j].Path })
}

// createsCycle reports whether reparenting locationID under newParentID
// would close a loop in the tree.
func createsCycle(locations []models.Location, locationID, newParentID string) bool {
	if locationID == newParentID {
		return true
	}
	byID := make(map[string]models.Location, len(locations))
	for _, l := range locations {
		byID[l.ID] = l
	}
	current, ok := byID[newParentID]
	if !ok {
		return false
	}
	seen := map[string]bool{}
	for current.ParentID != nil {
		if *current.ParentID == locationID {
			return true
		}
		if seen[*current.ParentID] {
			return false
		}
		seen[*current.ParentID] = true
		next, ok := byID[*current.ParentID]
		if !ok {
			return false
		}
		current = next
	}
	return false
}
