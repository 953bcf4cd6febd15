package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paradisefm/facilities-api/internal/dto"
	"github.com/paradisefm/facilities-api/internal/models"
	appErrors "github.com/paradisefm/facilities-api/pkg/errors"
)

type stubCostReader struct {
	buckets []models.CostBucket
	calls   int
	from    time.Time
	until   time.Time
}

func (s *stubCostReader) CostBuckets(ctx context.Context, from, until time.Time) ([]models.CostBucket, error) {
	s.calls++
	s.from = from
	s.until = until
	return s.buckets, nil
}

type stubCostCache struct {
	stored map[string]*dto.CostOverview
	sets   int
}

func (s *stubCostCache) Get(ctx context.Context, key string, dest interface{}) error {
	overview, ok := s.stored[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*dest.(*dto.CostOverview) = *overview
	return nil
}

func (s *stubCostCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	s.sets++
	return nil
}

func TestCostOverviewZeroFillsTwelveMonths(t *testing.T) {
	repo := &stubCostReader{}
	svc := NewCostService(repo, nil, 0, nil)

	overview, err := svc.Overview(context.Background(), 2025)
	require.NoError(t, err)

	require.Len(t, overview.Months, 12)
	for i, month := range overview.Months {
		assert.Equal(t, i+1, month.Month)
		assert.Zero(t, month.Count)
		assert.Zero(t, month.Actual)
	}
	assert.Equal(t, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), repo.from)
	assert.Equal(t, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), repo.until)
}

func TestCostOverviewAggregatesBuckets(t *testing.T) {
	repo := &stubCostReader{buckets: []models.CostBucket{
		{Month: 3, Estimated: 100, Actual: 150, Count: 2},
		{Month: 11, Estimated: 50, Actual: 40, Count: 1},
		{Month: 13, Estimated: 999, Actual: 999, Count: 9},
	}}
	svc := NewCostService(repo, nil, 0, nil)

	overview, err := svc.Overview(context.Background(), 2025)
	require.NoError(t, err)

	maart := overview.Months[2]
	assert.Equal(t, 2, maart.Count)
	assert.InDelta(t, 50.0, maart.Difference, 0.001)

	november := overview.Months[10]
	assert.InDelta(t, -10.0, november.Difference, 0.001)

	// The out-of-range bucket is dropped from the totals.
	assert.InDelta(t, 150.0, overview.TotalEstimated, 0.001)
	assert.InDelta(t, 190.0, overview.TotalActual, 0.001)
	assert.Equal(t, 3, overview.TotalCount)
	assert.InDelta(t, 40.0, overview.TotalDifference, 0.001)
}

func TestCostOverviewYearGuard(t *testing.T) {
	svc := NewCostService(&stubCostReader{}, nil, 0, nil)

	for _, year := range []int{1999, 2101, 0} {
		_, err := svc.Overview(context.Background(), year)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestCostOverviewServedFromCache(t *testing.T) {
	repo := &stubCostReader{}
	cache := &stubCostCache{stored: map[string]*dto.CostOverview{
		"facilities:costs:2025": {Year: 2025, TotalCount: 7},
	}}
	svc := NewCostService(repo, cache, 10*time.Minute, nil)

	overview, err := svc.Overview(context.Background(), 2025)
	require.NoError(t, err)
	assert.Equal(t, 7, overview.TotalCount)
	assert.Zero(t, repo.calls, "cache hit skips the database")

	// A miss goes to the database and writes the cache.
	_, err = svc.Overview(context.Background(), 2024)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)
	assert.Equal(t, 1, cache.sets)
}

func TestExportCSVRendersMonthsAndTotal(t *testing.T) {
	repo := &stubCostReader{buckets: []models.CostBucket{
		{Month: 1, Estimated: 10, Actual: 12.5, Count: 1},
	}}
	svc := NewCostService(repo, nil, 0, nil)

	data, filename, err := svc.ExportCSV(context.Background(), 2025)
	require.NoError(t, err)
	assert.Equal(t, "kostenoverzicht-2025.csv", filename)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 14, "header, twelve months, total row")
	assert.Equal(t, "Maand,Aantal,Geschat,Werkelijk,Verschil", strings.TrimSpace(lines[0]))
	assert.Equal(t, "januari,1,10.00,12.50,2.50", strings.TrimSpace(lines[1]))
	assert.True(t, strings.HasPrefix(strings.TrimSpace(lines[13]), "Totaal,"))
}

func TestExportPDFProducesDocument(t *testing.T) {
	svc := NewCostService(&stubCostReader{}, nil, 0, nil)

	data, filename, err := svc.ExportPDF(context.Background(), 2025)
	require.NoError(t, err)
	assert.Equal(t, "kostenoverzicht-2025.pdf", filename)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}
