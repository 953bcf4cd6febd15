package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/paradisefm/facilities-api/internal/dto"
	"github.com/paradisefm/facilities-api/internal/models"
	"github.com/paradisefm/facilities-api/internal/repository"
	appErrors "github.com/paradisefm/facilities-api/pkg/errors"
)

type assetRepository interface {
	List(ctx context.Context, filter models.AssetFilter) ([]models.Asset, int, error)
	GetByID(ctx context.Context, id string) (*models.Asset, error)
	Create(ctx context.Context, asset *models.Asset) error
	Update(ctx context.Context, asset *models.Asset) error
	Delete(ctx context.Context, id string) error
	RequestCount(ctx context.Context, id string) (int, error)
	Search(ctx context.Context, term, locationID string, limit int) ([]models.AssetSearchResult, error)
}

type assetCategoryReader interface {
	GetByID(ctx context.Context, id string) (*models.Category, error)
}

type assetScheduleLister interface {
	ListByAsset(ctx context.Context, assetID string) ([]models.MaintenanceSchedule, error)
}

type assetRequestLister interface {
	ListRecentByAsset(ctx context.Context, assetID string, limit int) ([]models.RepairRequest, error)
}

type assetPhotoStore interface {
	SaveAssetPhoto(originalName string, r io.Reader) (string, error)
	Delete(storedPath string) error
}

// AssetService manages the equipment catalog.
type AssetService struct {
	repo       assetRepository
	categories assetCategoryReader
	schedules  assetScheduleLister
	requests   assetRequestLister
	store      assetPhotoStore
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewAssetService constructs an AssetService instance.
func NewAssetService(repo assetRepository, categories assetCategoryReader, schedules assetScheduleLister, requests assetRequestLister, store assetPhotoStore, validate *validator.Validate, logger *zap.Logger) *AssetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AssetService{repo: repo, categories: categories, schedules: schedules, requests: requests, store: store, validator: validate, logger: logger}
}

// List returns assets matching the filter with pagination metadata.
func (s *AssetService) List(ctx context.Context, filter models.AssetFilter) ([]models.Asset, *models.Pagination, error) {
	assets, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assets")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 25
	}
	return assets, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns an asset with its schedules (due info included) and recent
// requests.
func (s *AssetService) Get(ctx context.Context, id string) (*dto.AssetDetail, error) {
	asset, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "asset not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load asset")
	}

	schedules, err := s.schedules.ListByAsset(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	today := time.Now().UTC()
	views := make([]dto.ScheduleView, 0, len(schedules))
	for _, schedule := range schedules {
		views = append(views, dto.ScheduleView{
			MaintenanceSchedule: schedule,
			NextDue:             schedule.NextDue(today),
			DaysUntil:           schedule.DaysUntil(today),
			Due:                 schedule.IsDue(today),
		})
	}

	recent, err := s.requests.ListRecentByAsset(ctx, id, 10)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list asset requests")
	}

	return &dto.AssetDetail{Asset: *asset, Schedules: views, RecentRequests: recent}, nil
}

// Create adds an asset. When no tag is supplied one is generated from the
// category prefix plus a random suffix; a collision with an existing tag is
// retried once with a fresh suffix.
func (s *AssetService) Create(ctx context.Context, input dto.AssetInput) (*models.Asset, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid asset payload")
	}

	asset := assetFromInput(input)

	if asset.Tag == "" {
		prefix, err := s.tagPrefix(ctx, input.CategoryID)
		if err != nil {
			return nil, err
		}
		asset.Tag = generateTag(prefix)
		if err := s.repo.Create(ctx, asset); err != nil {
			if !errors.Is(err, repository.ErrDuplicateTag) {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create asset")
			}
			asset.Tag = generateTag(prefix)
			if err := s.repo.Create(ctx, asset); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create asset after tag retry")
			}
		}
		return asset, nil
	}

	if err := s.repo.Create(ctx, asset); err != nil {
		if errors.Is(err, repository.ErrDuplicateTag) {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("asset tag %s is already in use", asset.Tag))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create asset")
	}
	return asset, nil
}

// Update modifies an asset. The tag is never regenerated on update.
func (s *AssetService) Update(ctx context.Context, id string, input dto.AssetInput) (*models.Asset, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid asset payload")
	}
	asset, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "asset not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load asset")
	}

	updated := assetFromInput(input)
	updated.ID = asset.ID
	updated.PhotoPath = asset.PhotoPath
	updated.CreatedAt = asset.CreatedAt
	if updated.Tag == "" {
		updated.Tag = asset.Tag
	}
	if err := s.repo.Update(ctx, updated); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update asset")
	}
	return updated, nil
}

// Delete removes an asset unless repair requests reference it.
func (s *AssetService) Delete(ctx context.Context, id string) error {
	asset, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "asset not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load asset")
	}
	count, err := s.repo.RequestCount(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count asset requests")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrAssetInUse, fmt.Sprintf("asset is still referenced by %d request(s)", count))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete asset")
	}
	if asset.PhotoPath != nil && *asset.PhotoPath != "" {
		if err := s.store.Delete(*asset.PhotoPath); err != nil {
			s.logger.Warn("failed to remove asset photo", zap.String("asset_id", id), zap.Error(err))
		}
	}
	return nil
}

// SetPhoto stores an uploaded photo and records its path on the asset. A
// previous photo is removed from disk.
func (s *AssetService) SetPhoto(ctx context.Context, id, originalName string, r io.Reader) (*models.Asset, error) {
	asset, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "asset not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load asset")
	}
	storedPath, err := s.store.SaveAssetPhoto(originalName, r)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store asset photo")
	}
	old := asset.PhotoPath
	asset.PhotoPath = &storedPath
	if err := s.repo.Update(ctx, asset); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save asset photo path")
	}
	if old != nil && *old != "" {
		if err := s.store.Delete(*old); err != nil {
			s.logger.Warn("failed to remove previous asset photo", zap.String("asset_id", id), zap.Error(err))
		}
	}
	return asset, nil
}

// Search powers the asset autocomplete endpoint.
func (s *AssetService) Search(ctx context.Context, term, locationID string, limit int) ([]models.AssetSearchResult, error) {
	if term == "" {
		return []models.AssetSearchResult{}, nil
	}
	results, err := s.repo.Search(ctx, term, locationID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search assets")
	}
	return results, nil
}

func (s *AssetService) tagPrefix(ctx context.Context, categoryID string) (string, error) {
	if categoryID == "" {
		return models.DefaultTagPrefix, nil
	}
	category, err := s.categories.GetByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrValidation, "category does not exist")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}
	return category.Prefix(), nil
}

func assetFromInput(input dto.AssetInput) *models.Asset {
	status := models.AssetOperational
	if input.Status != "" {
		status = models.AssetStatus(input.Status)
	}
	criticality := models.CriticalityMedium
	if input.Criticality != "" {
		criticality = models.AssetCriticality(input.Criticality)
	}
	return &models.Asset{
		Tag:                strings.ToUpper(strings.TrimSpace(input.Tag)),
		Name:               strings.TrimSpace(input.Name),
		CategoryID:         input.CategoryID,
		LocationID:         input.LocationID,
		Manufacturer:       input.Manufacturer,
		Model:              input.Model,
		SerialNumber:       input.SerialNumber,
		InstallDate:        input.InstallDate,
		WarrantyEndDate:    input.WarrantyEndDate,
		Status:             status,
		Criticality:        criticality,
		IsMonument:         input.IsMonument,
		ReplacementPlanned: input.ReplacementPlanned,
		ReplacementNotes:   input.ReplacementNotes,
		Description:        input.Description,
	}
}

// generateTag builds "<PREFIX>-<6 hex chars>" with a random suffix.
func generateTag(prefix string) string {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing is effectively fatal elsewhere; fall back
		// to a timestamp-derived suffix rather than panicking here.
		nanos := time.Now().UnixNano()
		buf = []byte{byte(nanos), byte(nanos >> 8), byte(nanos >> 16)}
	}
	return fmt.Sprintf("%s-%s", prefix, strings.ToUpper(hex.EncodeToString(buf)))
}
