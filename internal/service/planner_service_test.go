package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/paradisefm/facilities-api/internal/dto"
	"github.com/paradisefm/facilities-api/internal/models"
)

type stubScheduleLister struct {
	schedules []models.ScheduleWithAsset
	err       error
}

func (s *stubScheduleLister) ListForPlanner(ctx context.Context) ([]models.ScheduleWithAsset, error) {
	return s.schedules, s.err
}

type stubRequestLister struct {
	requests []models.RepairRequest
	err      error
}

func (s *stubRequestLister) ListDueBetween(ctx context.Context, from, until time.Time) ([]models.RepairRequest, error) {
	return s.requests, s.err
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestProjectOccurrencesNeverPerformedStartsToday(t *testing.T) {
	schedule := models.MaintenanceSchedule{IntervalDays: 7}
	today := date(2026, time.March, 2)

	out := ProjectOccurrences(schedule, today, today.AddDate(0, 0, 20), today, 10)

	require.Len(t, out, 3)
	assert.Equal(t, today, out[0])
	assert.Equal(t, today.AddDate(0, 0, 7), out[1])
	assert.Equal(t, today.AddDate(0, 0, 14), out[2])
}

func TestProjectOccurrencesSkipsForwardWholeIntervals(t *testing.T) {
	last := date(2025, time.January, 1)
	schedule := models.MaintenanceSchedule{IntervalDays: 30, LastPerformed: &last}
	today := date(2025, time.January, 15)
	from := date(2026, time.January, 1)
	until := date(2026, time.March, 31)

	out := ProjectOccurrences(schedule, from, until, today, 10)

	require.NotEmpty(t, out)
	// First occurrence lands inside the window, aligned to the 30-day grid
	// anchored at the original due date.
	first := out[0]
	assert.False(t, first.Before(from))
	base := schedule.NextDue(today)
	assert.Zero(t, int(first.Sub(base).Hours()/24)%30)
	for i := 1; i < len(out); i++ {
		assert.Equal(t, out[i-1].AddDate(0, 0, 30), out[i])
	}
}

func TestProjectOccurrencesCapped(t *testing.T) {
	schedule := models.MaintenanceSchedule{IntervalDays: 1}
	today := date(2026, time.June, 1)

	out := ProjectOccurrences(schedule, today, today.AddDate(1, 0, 0), today, 10)

	assert.Len(t, out, 10)
}

func TestProjectOccurrencesEmptyCases(t *testing.T) {
	schedule := models.MaintenanceSchedule{IntervalDays: 0}
	today := date(2026, time.June, 1)
	assert.Nil(t, ProjectOccurrences(schedule, today, today.AddDate(0, 0, 30), today, 10))

	schedule.IntervalDays = 7
	assert.Nil(t, ProjectOccurrences(schedule, today, today.AddDate(0, 0, -1), today, 10))
	assert.Nil(t, ProjectOccurrences(schedule, today, today.AddDate(0, 0, 30), today, 0))
}

func TestPlannerMonthGridIsMondayFirstAndRectangular(t *testing.T) {
	svc := NewPlannerService(&stubScheduleLister{}, &stubRequestLister{}, 10, zap.NewNop())
	svc.now = func() time.Time { return date(2026, time.September, 1) }

	// September 2026 starts on a Tuesday.
	res, err := svc.Month(context.Background(), 2026, 9)
	require.NoError(t, err)

	require.NotEmpty(t, res.Weeks)
	for _, week := range res.Weeks {
		require.Len(t, week, 7)
		assert.Equal(t, time.Monday, week[0].Date.Weekday())
	}
	// Grid opens on Monday August 31 which is outside the month.
	first := res.Weeks[0][0]
	assert.Equal(t, date(2026, time.August, 31), first.Date)
	assert.False(t, first.InMonth)
	assert.True(t, res.Weeks[0][1].InMonth)
	assert.True(t, res.Weeks[0][1].Today)
}

func TestPlannerWeekUsesISOWeek(t *testing.T) {
	svc := NewPlannerService(&stubScheduleLister{}, &stubRequestLister{}, 10, zap.NewNop())
	svc.now = func() time.Time { return date(2026, time.January, 7) }

	res, err := svc.Week(context.Background(), 2026, 2)
	require.NoError(t, err)
	require.Len(t, res.Days, 7)

	year, week := res.Days[0].Date.ISOWeek()
	assert.Equal(t, 2026, year)
	assert.Equal(t, 2, week)
	assert.Equal(t, time.Monday, res.Days[0].Date.Weekday())
}

func TestPlannerSkipsNonPlannableAssets(t *testing.T) {
	today := date(2026, time.May, 4)
	schedules := []models.ScheduleWithAsset{
		{
			MaintenanceSchedule: models.MaintenanceSchedule{ID: "s1", Name: "Filter wisselen", IntervalDays: 7},
			AssetStatus:         models.AssetOperational,
		},
		{
			MaintenanceSchedule: models.MaintenanceSchedule{ID: "s2", Name: "Keuren", IntervalDays: 7},
			AssetStatus:         models.AssetDisposed,
		},
	}
	svc := NewPlannerService(&stubScheduleLister{schedules: schedules}, &stubRequestLister{}, 10, zap.NewNop())
	svc.now = func() time.Time { return today }

	res, err := svc.Day(context.Background(), today)
	require.NoError(t, err)
	require.Len(t, res.Days, 1)
	require.Len(t, res.Days[0].Entries, 1)
	assert.Equal(t, "s1", res.Days[0].Entries[0].ScheduleID)
}

func TestPlannerOrdersRequestsBeforeMaintenance(t *testing.T) {
	today := date(2026, time.May, 4)
	due := today
	requests := []models.RepairRequest{
		{ID: "r1", Number: 12, Title: "Lekkage", DueDate: &due, Priority: models.PriorityHigh, Status: models.StatusTriaged},
	}
	schedules := []models.ScheduleWithAsset{
		{
			MaintenanceSchedule: models.MaintenanceSchedule{ID: "s1", Name: "Aflezen meterstand", IntervalDays: 30},
			AssetStatus:         models.AssetOperational,
		},
	}
	svc := NewPlannerService(&stubScheduleLister{schedules: schedules}, &stubRequestLister{requests: requests}, 10, zap.NewNop())
	svc.now = func() time.Time { return today }

	res, err := svc.Day(context.Background(), today)
	require.NoError(t, err)
	entries := res.Days[0].Entries
	require.Len(t, entries, 2)
	assert.Equal(t, dto.PlannerEntryRequest, entries[0].Kind)
	assert.Equal(t, dto.PlannerEntryMaintenance, entries[1].Kind)
}
