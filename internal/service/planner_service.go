package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/paradisefm/facilities-api/internal/dto"
	"github.com/paradisefm/facilities-api/internal/models"
	appErrors "github.com/paradisefm/facilities-api/pkg/errors"
)

type plannerScheduleLister interface {
	ListForPlanner(ctx context.Context) ([]models.ScheduleWithAsset, error)
}

type plannerRequestLister interface {
	ListDueBetween(ctx context.Context, from, until time.Time) ([]models.RepairRequest, error)
}

// PlannerService composes due-dated requests and projected maintenance
// occurrences into calendar payloads.
type PlannerService struct {
	schedules     plannerScheduleLister
	requests      plannerRequestLister
	occurrenceCap int
	logger        *zap.Logger
	now           func() time.Time
}

// NewPlannerService constructs a PlannerService instance.
func NewPlannerService(schedules plannerScheduleLister, requests plannerRequestLister, occurrenceCap int, logger *zap.Logger) *PlannerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if occurrenceCap <= 0 {
		occurrenceCap = 10
	}
	return &PlannerService{
		schedules:     schedules,
		requests:      requests,
		occurrenceCap: occurrenceCap,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Month returns a Monday-first week grid for the given month. Cells outside
// the month carry InMonth=false so the grid is always rectangular.
func (s *PlannerService) Month(ctx context.Context, year, month int) (*dto.PlannerResponse, error) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	gridStart := startOfWeek(first)
	gridEnd := startOfWeek(last).AddDate(0, 0, 6)

	entries, err := s.collect(ctx, gridStart, gridEnd)
	if err != nil {
		return nil, err
	}

	byDay := groupByDay(entries)
	today := models.Midnight(s.now())
	var weeks [][]dto.PlannerDay
	for cursor := gridStart; !cursor.After(gridEnd); cursor = cursor.AddDate(0, 0, 7) {
		week := make([]dto.PlannerDay, 0, 7)
		for i := 0; i < 7; i++ {
			day := cursor.AddDate(0, 0, i)
			week = append(week, dto.PlannerDay{
				Date:    day,
				InMonth: day.Month() == first.Month(),
				Today:   day.Equal(today),
				Entries: byDay[day],
			})
		}
		weeks = append(weeks, week)
	}

	return &dto.PlannerResponse{View: "month", Year: year, Month: month, Weeks: weeks}, nil
}

// Week returns seven Monday-first day cells for the ISO week.
func (s *PlannerService) Week(ctx context.Context, year, week int) (*dto.PlannerResponse, error) {
	start := isoWeekStart(year, week)
	end := start.AddDate(0, 0, 6)

	entries, err := s.collect(ctx, start, end)
	if err != nil {
		return nil, err
	}

	byDay := groupByDay(entries)
	today := models.Midnight(s.now())
	days := make([]dto.PlannerDay, 0, 7)
	for i := 0; i < 7; i++ {
		day := start.AddDate(0, 0, i)
		days = append(days, dto.PlannerDay{
			Date:    day,
			InMonth: true,
			Today:   day.Equal(today),
			Entries: byDay[day],
		})
	}

	return &dto.PlannerResponse{View: "week", Year: year, Week: week, Days: days}, nil
}

// Day returns a single day cell.
func (s *PlannerService) Day(ctx context.Context, date time.Time) (*dto.PlannerResponse, error) {
	day := models.Midnight(date)
	entries, err := s.collect(ctx, day, day)
	if err != nil {
		return nil, err
	}
	today := models.Midnight(s.now())
	return &dto.PlannerResponse{
		View: "day",
		Year: day.Year(),
		Days: []dto.PlannerDay{{Date: day, InMonth: true, Today: day.Equal(today), Entries: entries}},
	}, nil
}

// List returns the unbounded-future agenda: every open due-dated request
// from today on plus up to the per-schedule cap of projected occurrences,
// ordered by date.
func (s *PlannerService) List(ctx context.Context) (*dto.PlannerResponse, error) {
	today := models.Midnight(s.now())
	// Far horizon; the per-schedule cap is the effective bound for
	// maintenance, requests rarely carry due dates years out.
	horizon := today.AddDate(5, 0, 0)
	entries, err := s.collect(ctx, today, horizon)
	if err != nil {
		return nil, err
	}
	return &dto.PlannerResponse{View: "list", Year: today.Year(), Entries: entries}, nil
}

// collect merges request and maintenance entries for the window, sorted by
// date then title.
func (s *PlannerService) collect(ctx context.Context, from, until time.Time) ([]dto.PlannerEntry, error) {
	from = models.Midnight(from)
	until = models.Midnight(until)
	today := models.Midnight(s.now())

	requests, err := s.requests.ListDueBetween(ctx, from, until.Add(24*time.Hour-time.Nanosecond))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list due requests")
	}
	entries := make([]dto.PlannerEntry, 0, len(requests))
	for _, req := range requests {
		entries = append(entries, dto.PlannerEntry{
			Kind:      dto.PlannerEntryRequest,
			Date:      models.Midnight(*req.DueDate),
			Title:     req.Title,
			RequestID: req.ID,
			Number:    req.Number,
			Priority:  string(req.Priority),
			Status:    string(req.Status),
			Overdue:   req.IsOverdue(today),
		})
	}

	schedules, err := s.schedules.ListForPlanner(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	for _, schedule := range schedules {
		if !schedule.AssetStatus.Plannable() {
			continue
		}
		for _, date := range ProjectOccurrences(schedule.MaintenanceSchedule, from, until, today, s.occurrenceCap) {
			entries = append(entries, dto.PlannerEntry{
				Kind:       dto.PlannerEntryMaintenance,
				Date:       date,
				Title:      schedule.Name,
				ScheduleID: schedule.ID,
				AssetID:    schedule.AssetID,
				AssetTag:   schedule.AssetTag,
				AssetName:  schedule.AssetName,
			})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}
		if entries[i].Kind != entries[j].Kind {
			return entries[i].Kind == dto.PlannerEntryRequest
		}
		return entries[i].Title < entries[j].Title
	})
	return entries, nil
}

// ProjectOccurrences enumerates the days a schedule falls due inside
// [from, until]. The first candidate is the schedule's next due date as of
// today; candidates before the window are skipped forward whole intervals at
// once. At most limit occurrences are returned and a day appears once per
// schedule.
func ProjectOccurrences(schedule models.MaintenanceSchedule, from, until, today time.Time, limit int) []time.Time {
	if schedule.IntervalDays <= 0 || limit <= 0 || until.Before(from) {
		return nil
	}
	interval := schedule.IntervalDays
	due := schedule.NextDue(today)

	if due.Before(from) {
		gapDays := int(from.Sub(due).Hours() / 24)
		due = due.AddDate(0, 0, (gapDays/interval)*interval)
		if due.Before(from) {
			due = due.AddDate(0, 0, interval)
		}
	}

	var out []time.Time
	seen := map[time.Time]bool{}
	for !due.After(until) && len(out) < limit {
		if !seen[due] {
			seen[due] = true
			out = append(out, due)
		}
		due = due.AddDate(0, 0, interval)
	}
	return out
}

func groupByDay(entries []dto.PlannerEntry) map[time.Time][]dto.PlannerEntry {
	byDay := make(map[time.Time][]dto.PlannerEntry)
	for _, e := range entries {
		byDay[e.Date] = append(byDay[e.Date], e)
	}
	return byDay
}

// startOfWeek returns the Monday of the week containing t.
func startOfWeek(t time.Time) time.Time {
	t = models.Midnight(t)
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}

// isoWeekStart returns the Monday of the given ISO week.
func isoWeekStart(year, week int) time.Time {
	// Jan 4 is always inside ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	week1 := startOfWeek(jan4)
	return week1.AddDate(0, 0, (week-1)*7)
}
