package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/paradisefm/facilities-api/internal/dto"
	"github.com/paradisefm/facilities-api/internal/models"
	appErrors "github.com/paradisefm/facilities-api/pkg/errors"
)

type maintenanceRepository interface {
	ListByAsset(ctx context.Context, assetID string) ([]models.MaintenanceSchedule, error)
	GetByID(ctx context.Context, id string) (*models.MaintenanceSchedule, error)
	Create(ctx context.Context, schedule *models.MaintenanceSchedule) error
	Update(ctx context.Context, schedule *models.MaintenanceSchedule) error
	Delete(ctx context.Context, id string) error
	MarkPerformed(ctx context.Context, id string, performedOn time.Time) error
}

type maintenanceAssetReader interface {
	GetByID(ctx context.Context, id string) (*models.Asset, error)
}

// MaintenanceService manages recurring maintenance schedules.
type MaintenanceService struct {
	repo      maintenanceRepository
	assets    maintenanceAssetReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMaintenanceService constructs a MaintenanceService instance.
func NewMaintenanceService(repo maintenanceRepository, assets maintenanceAssetReader, validate *validator.Validate, logger *zap.Logger) *MaintenanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &MaintenanceService{repo: repo, assets: assets, validator: validate, logger: logger}
}

// ListByAsset returns an asset's schedules with derived due info.
func (s *MaintenanceService) ListByAsset(ctx context.Context, assetID string) ([]dto.ScheduleView, error) {
	if _, err := s.assets.GetByID(ctx, assetID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "asset not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load asset")
	}
	schedules, err := s.repo.ListByAsset(ctx, assetID)
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
	return views, nil
}

// Create adds a schedule to an asset.
func (s *MaintenanceService) Create(ctx context.Context, assetID string, input dto.ScheduleInput) (*models.MaintenanceSchedule, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	if _, err := s.assets.GetByID(ctx, assetID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "asset not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load asset")
	}
	schedule := &models.MaintenanceSchedule{
		AssetID:       assetID,
		Name:          strings.TrimSpace(input.Name),
		IntervalDays:  input.IntervalDays,
		LastPerformed: input.LastPerformed,
		Notes:         input.Notes,
	}
	if err := s.repo.Create(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}
	return schedule, nil
}

// Update modifies a schedule.
func (s *MaintenanceService) Update(ctx context.Context, id string, input dto.ScheduleInput) (*models.MaintenanceSchedule, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	schedule, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	schedule.Name = strings.TrimSpace(input.Name)
	schedule.IntervalDays = input.IntervalDays
	schedule.LastPerformed = input.LastPerformed
	schedule.Notes = input.Notes
	if err := s.repo.Update(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule")
	}
	return schedule, nil
}

// Delete removes a schedule.
func (s *MaintenanceService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}
	return nil
}

// Perform stamps a completion. The date defaults to today and may not lie in
// the future.
func (s *MaintenanceService) Perform(ctx context.Context, id string, input dto.PerformInput) (*models.MaintenanceSchedule, error) {
	schedule, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	today := models.Midnight(time.Now().UTC())
	performedOn := today
	if input.PerformedOn != nil {
		performedOn = models.Midnight(*input.PerformedOn)
	}
	if performedOn.After(today) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "performed date may not be in the future")
	}
	if err := s.repo.MarkPerformed(ctx, id, performedOn); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record completion")
	}
	schedule.LastPerformed = &performedOn
	return schedule, nil
}
