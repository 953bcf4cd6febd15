package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/paradisefm/facilities-api/internal/dto"
	"github.com/paradisefm/facilities-api/internal/models"
	appErrors "github.com/paradisefm/facilities-api/pkg/errors"
	"github.com/paradisefm/facilities-api/pkg/export"
)

type costBucketReader interface {
	CostBuckets(ctx context.Context, from, until time.Time) ([]models.CostBucket, error)
}

type costCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// CostService rolls request spend up into the yearly overview and its
// CSV/PDF exports.
type CostService struct {
	repo     costBucketReader
	cache    costCache
	cacheTTL time.Duration
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewCostService constructs a CostService instance.
func NewCostService(repo costBucketReader, cache costCache, cacheTTL time.Duration, logger *zap.Logger) *CostService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CostService{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
	}
}

// Overview returns twelve monthly buckets for the year. Months without
// requests appear with zeros; requests are bucketed by creation date.
func (s *CostService) Overview(ctx context.Context, year int) (*dto.CostOverview, error) {
	if year < 2000 || year > 2100 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "year out of range")
	}

	cacheKey := fmt.Sprintf("facilities:costs:%d", year)
	if s.cache != nil {
		var cached dto.CostOverview
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("cost cache read failed", zap.Error(err))
		}
	}

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	until := from.AddDate(1, 0, 0)
	buckets, err := s.repo.CostBuckets(ctx, from, until)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate costs")
	}

	overview := &dto.CostOverview{Year: year, Months: make([]dto.CostMonth, 12)}
	for i := range overview.Months {
		overview.Months[i] = dto.CostMonth{Month: i + 1}
	}
	for _, bucket := range buckets {
		if bucket.Month < 1 || bucket.Month > 12 {
			continue
		}
		month := &overview.Months[bucket.Month-1]
		month.Estimated = bucket.Estimated
		month.Actual = bucket.Actual
		month.Count = bucket.Count
		month.Difference = bucket.Actual - bucket.Estimated
		overview.TotalEstimated += bucket.Estimated
		overview.TotalActual += bucket.Actual
		overview.TotalCount += bucket.Count
	}
	overview.TotalDifference = overview.TotalActual - overview.TotalEstimated

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, overview, s.cacheTTL); err != nil {
			s.logger.Warn("cost cache write failed", zap.Error(err))
		}
	}
	return overview, nil
}

// ExportCSV renders the overview as CSV bytes.
func (s *CostService) ExportCSV(ctx context.Context, year int) ([]byte, string, error) {
	overview, err := s.Overview(ctx, year)
	if err != nil {
		return nil, "", err
	}
	data, err := s.csv.Render(costDataset(overview))
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return data, fmt.Sprintf("kostenoverzicht-%d.csv", year), nil
}

// ExportPDF renders the overview as PDF bytes.
func (s *CostService) ExportPDF(ctx context.Context, year int) ([]byte, string, error) {
	overview, err := s.Overview(ctx, year)
	if err != nil {
		return nil, "", err
	}
	data, err := s.pdf.Render(costDataset(overview), fmt.Sprintf("Kostenoverzicht %d", year))
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return data, fmt.Sprintf("kostenoverzicht-%d.pdf", year), nil
}

var monthNames = []string{
	"januari", "februari", "maart", "april", "mei", "juni",
	"juli", "augustus", "september", "oktober", "november", "december",
}

func costDataset(overview *dto.CostOverview) export.Dataset {
	headers := []string{"Maand", "Aantal", "Geschat", "Werkelijk", "Verschil"}
	rows := make([]map[string]string, 0, 13)
	for _, month := range overview.Months {
		rows = append(rows, map[string]string{
			"Maand":     monthNames[month.Month-1],
			"Aantal":    fmt.Sprintf("%d", month.Count),
			"Geschat":   fmt.Sprintf("%.2f", month.Estimated),
			"Werkelijk": fmt.Sprintf("%.2f", month.Actual),
			"Verschil":  fmt.Sprintf("%.2f", month.Difference),
		})
	}
	rows = append(rows, map[string]string{
		"Maand":     "Totaal",
		"Aantal":    fmt.Sprintf("%d", overview.TotalCount),
		"Geschat":   fmt.Sprintf("%.2f", overview.TotalEstimated),
		"Werkelijk": fmt.Sprintf("%.2f", overview.TotalActual),
		"Verschil":  fmt.Sprintf("%.2f", overview.TotalDifference),
	})
	return export.Dataset{Headers: headers, Rows: rows}
}
