package services

import (
	"fmt"
	"math"
	"time"

	"github.com/kareemschultz/masjidconnect-gy-sub000/internal/dates"
	"github.com/kareemschultz/masjidconnect-gy-sub000/internal/points"
	"github.com/kareemschultz/masjidconnect-gy-sub000/internal/recordstore"
	"github.com/kareemschultz/masjidconnect-gy-sub000/internal/stats"
	"github.com/kareemschultz/masjidconnect-gy-sub000/internal/streak"
	"github.com/kareemschultz/masjidconnect-gy-sub000/internal/types/calendar"
	"github.com/kareemschultz/masjidconnect-gy-sub000/internal/types/record"
)

// TrackerService is the read/write surface the presentation layer
// consumes. Reads are pure derivations over the store's current
// snapshot; writes mutate today's record and let the store's mutation
// hook drive sync. Nothing here ever surfaces an error to the UI:
// missing or malformed data degrades to empty records and zero scores.
type TrackerService struct {
	store    *recordstore.Store
	resolver *dates.Resolver
	engine   *points.Engine
}

func NewTrackerService(store *recordstore.Store, resolver *dates.Resolver, cfg points.Config) *TrackerService {
	return &TrackerService{
		store:    store,
		resolver: resolver,
		engine:   points.NewEngine(cfg),
	}
}

// GetDay returns the record for an arbitrary date.
func (s *TrackerService) GetDay(date string) (*record.DailyRecord, error) {
	if !dates.Valid(date) {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", date)
	}
	return s.store.Get(date), nil
}

// GetToday returns today's record.
func (s *TrackerService) GetToday() *record.DailyRecord {
	return s.store.Get(s.resolver.Today())
}

// SetTodayFlag toggles one checklist flag on today's record.
func (s *TrackerService) SetTodayFlag(key string, value bool) *record.DailyRecord {
	return s.store.SetFlag(s.resolver.Today(), key, value)
}

// MergeTodayDetail shallow-merges a category detail payload into
// today's record on behalf of another subsystem.
func (s *TrackerService) MergeTodayDetail(category string, partial map[string]any) *record.DailyRecord {
	return s.store.MergeDetail(s.resolver.Today(), category, partial)
}

// GetTodayProgress reports how far through the five acts today is.
func (s *TrackerService) GetTodayProgress() *stats.TodayProgress {
	completed := s.GetToday().CountTrue()
	total := len(record.ChecklistKeys)
	return &stats.TodayProgress{
		Completed:  completed,
		Total:      total,
		Percentage: int(math.Round(100 * float64(completed) / float64(total))),
	}
}

// GetCurrentStreak returns consecutive kept days ending yesterday.
func (s *TrackerService) GetCurrentStreak() *stats.StreakInfo {
	return &stats.StreakInfo{
		CurrentStreak: streak.Current(s.store, s.resolver),
		MinForStreak:  streak.MinForStreak,
	}
}

// GetTodayPoints scores today's record against the streak already
// earned by yesterday.
func (s *TrackerService) GetTodayPoints() points.Breakdown {
	return s.engine.CalculateDayPoints(s.GetToday(), streak.Current(s.store, s.resolver))
}

// GetLifetimePoints aggregates every recorded day into a total, level
// and progress readout.
func (s *TrackerService) GetLifetimePoints() points.Lifetime {
	return s.engine.CalculateTotalPoints(s.store.AllDates())
}

// GetHistory returns the full sorted snapshot for calendars and
// heatmaps.
func (s *TrackerService) GetHistory() []record.DatedRecord {
	return s.store.AllDates()
}

// CurrentYearMonth returns the year and month today falls in on the
// tracker's civil calendar, for callers that need a default month.
func (s *TrackerService) CurrentYearMonth() (int, int) {
	t, _ := time.Parse(dates.Layout, s.resolver.Today())
	return t.Year(), int(t.Month())
}

// GetCalendar builds the month grid the calendar view renders.
func (s *TrackerService) GetCalendar(year int, month int) (*calendar.CalendarResponse, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("invalid month %d", month)
	}

	startDate := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	endDate := startDate.AddDate(0, 1, -1)
	today := s.resolver.Today()

	var days []*calendar.CalendarDay
	for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
		dateStr := d.Format(dates.Layout)
		rec := s.store.Get(dateStr)
		days = append(days, &calendar.CalendarDay{
			Date:      dateStr,
			Completed: rec.CountTrue(),
			Kept:      streak.Kept(rec),
			Perfect:   rec.Perfect(),
			IsToday:   dateStr == today,
		})
	}

	return &calendar.CalendarResponse{
		Year:  year,
		Month: month,
		Days:  days,
	}, nil
}
