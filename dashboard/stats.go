package dashboard

import (
	"fmt"
	"time"

	"github.com/dnldd/transitperf/shared"
	"github.com/google/uuid"
)

// series holds the chunking inputs for the selected category.
type series struct {
	category shared.DataCategory
	period   time.Duration
	anchor   time.Time
	entries  int
	sticks   func() []shared.CandlestickPoint
	averages func() []shared.AveragePoint
	// benchmarks is nil for categories without benchmark values.
	benchmarks func() []shared.AveragePoint
}

// selectedSeries snapshots the selected category's data for aggregation.
func (s *Store) selectedSeries(now time.Time) (*series, error) {
	anchor, err := shared.ChunkAnchor(now)
	if err != nil {
		return nil, err
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	period, err := shared.PeriodDuration(s.period)
	if err != nil {
		return nil, err
	}

	set := &series{category: s.selectedCategory, period: period, anchor: anchor}

	switch s.selectedCategory {
	case shared.HeadwayCategory:
		data := append([]shared.Headway(nil), s.headways...)
		x := func(h shared.Headway) time.Time { return h.CurrentDepDt }
		set.entries = len(data)
		set.sticks = func() []shared.CandlestickPoint {
			return shared.CalculateCandlesticks(data, x, func(h shared.Headway) float64 { return h.HeadwayTimeSec }, period, anchor)
		}
		set.averages = func() []shared.AveragePoint {
			return shared.CalculateAverages(data, x, func(h shared.Headway) float64 { return h.HeadwayTimeSec }, period, anchor)
		}
		set.benchmarks = func() []shared.AveragePoint {
			return shared.CalculateAverages(data, x, func(h shared.Headway) float64 { return h.BenchmarkHeadwayTimeSec }, period, anchor)
		}

	case shared.DwellCategory:
		data := append([]shared.Dwell(nil), s.dwells...)
		x := func(d shared.Dwell) time.Time { return d.ArrDt }
		y := func(d shared.Dwell) float64 { return d.DwellTimeSec }
		set.entries = len(data)
		set.sticks = func() []shared.CandlestickPoint {
			return shared.CalculateCandlesticks(data, x, y, period, anchor)
		}
		set.averages = func() []shared.AveragePoint {
			return shared.CalculateAverages(data, x, y, period, anchor)
		}

	case shared.TravelTimeCategory:
		data := append([]shared.TravelTime(nil), s.travelTimes...)
		x := func(tt shared.TravelTime) time.Time { return tt.DepDt }
		set.entries = len(data)
		set.sticks = func() []shared.CandlestickPoint {
			return shared.CalculateCandlesticks(data, x, func(tt shared.TravelTime) float64 { return tt.TravelTimeSec }, period, anchor)
		}
		set.averages = func() []shared.AveragePoint {
			return shared.CalculateAverages(data, x, func(tt shared.TravelTime) float64 { return tt.TravelTimeSec }, period, anchor)
		}
		set.benchmarks = func() []shared.AveragePoint {
			return shared.CalculateAverages(data, x, func(tt shared.TravelTime) float64 { return tt.BenchmarkTravelTimeSec }, period, anchor)
		}

	default:
		return nil, fmt.Errorf("invalid data category: %d", s.selectedCategory)
	}

	return set, nil
}

// Candlesticks computes candlestick points for the selected category's data.
func (s *Store) Candlesticks(now time.Time) ([]shared.CandlestickPoint, error) {
	set, err := s.selectedSeries(now)
	if err != nil {
		return nil, fmt.Errorf("selecting series: %w", err)
	}

	return set.sticks(), nil
}

// Averages computes average points for the selected category's data.
func (s *Store) Averages(now time.Time) ([]shared.AveragePoint, error) {
	set, err := s.selectedSeries(now)
	if err != nil {
		return nil, fmt.Errorf("selecting series: %w", err)
	}

	return set.averages(), nil
}

// Benchmarks computes averaged benchmark points for the selected category's data. Dwells
// have no benchmark and return an empty set.
func (s *Store) Benchmarks(now time.Time) ([]shared.AveragePoint, error) {
	set, err := s.selectedSeries(now)
	if err != nil {
		return nil, fmt.Errorf("selecting series: %w", err)
	}

	if set.benchmarks == nil {
		return []shared.AveragePoint{}, nil
	}

	return set.benchmarks(), nil
}

// Report assembles the statistics for the current selection.
func (s *Store) Report(now time.Time) (*shared.Report, error) {
	selected := s.SelectedStop()
	if selected == nil {
		return nil, ErrNoStationSelected
	}

	set, err := s.selectedSeries(now)
	if err != nil {
		return nil, fmt.Errorf("selecting series: %w", err)
	}

	report := &shared.Report{
		ID:           uuid.New().String(),
		Category:     set.category,
		RouteID:      selected.RouteID,
		StopName:     selected.Stop.Name,
		PeriodHours:  int(set.period / time.Hour),
		Entries:      set.entries,
		Candlesticks: set.sticks(),
		Averages:     set.averages(),
		Benchmarks:   []shared.AveragePoint{},
		CreatedOn:    now,
	}

	if set.benchmarks != nil {
		report.Benchmarks = set.benchmarks()
	}

	if report.Category == shared.TravelTimeCategory {
		destination := s.SelectedDestination()
		if destination != nil {
			report.DestinationName = destination.Stop.Name
		}
	}

	return report, nil
}
