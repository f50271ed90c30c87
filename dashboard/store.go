package dashboard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/dnldd/transitperf/shared"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

const (
	// DefaultPeriod is the default chunking period in hours.
	DefaultPeriod = 16
)

var (
	// ErrAlreadyLoading is returned when a selection is attempted while data loads.
	ErrAlreadyLoading = errors.New("already loading another station's data")
	// ErrAlreadySelected is returned when the selected station is selected again.
	ErrAlreadySelected = errors.New("already at selected station")
	// ErrNoStationSelected is returned when a destination is picked without a station.
	ErrNoStationSelected = errors.New("no station selected")
	// ErrNotOnRoute is returned when a destination is not on the selected station's route.
	ErrNotOnRoute = errors.New("station not on same route")
)

const (
	loadingToast     = "We're already loading a station's data. Hold on before picking another."
	selectedToast    = "You're already at that station."
	notOnRouteToast  = "That station isn't on the same route as your selected station."
	sameStationToast = "You can't choose the station you've already selected."
)

// StoreConfig represents the dashboard data store configuration.
type StoreConfig struct {
	// Fetcher caches and fetches performance data.
	Fetcher shared.DataFetcher
	// Period is the initial chunking period in hours, defaults to DefaultPeriod.
	Period int
	// Window optionally bounds fetched data.
	Window shared.Window
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sane inputs.
func (cfg *StoreConfig) Validate() error {
	var errs error

	if cfg.Fetcher == nil {
		errs = errors.Join(errs, fmt.Errorf("data fetcher cannot be nil"))
	}
	if cfg.Period < 0 {
		errs = errors.Join(errs, fmt.Errorf("period cannot be negative"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// Store holds the station selection and the performance data fetched for it.
type Store struct {
	cfg *StoreConfig

	selectedStop        *shared.RouteStop
	selectedDestination *shared.RouteStop
	selectedCategory    shared.DataCategory

	period      int
	headways    []shared.Headway
	dwells      []shared.Dwell
	travelTimes []shared.TravelTime

	loading        atomic.Bool
	loadingMessage shared.LoadingMessage

	hasError     bool
	errorMessage string

	toastMessage string

	mtx sync.RWMutex
}

// NewStore initializes a new dashboard data store.
func NewStore(cfg *StoreConfig) (*Store, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating store config: %w", err)
	}

	period := cfg.Period
	if period == 0 {
		period = DefaultPeriod
	}

	return &Store{
		cfg:              cfg,
		selectedCategory: shared.HeadwayCategory,
		period:           period,
		headways:         []shared.Headway{},
		dwells:           []shared.Dwell{},
		travelTimes:      []shared.TravelTime{},
		loadingMessage:   shared.None,
	}, nil
}

// sameStation checks whether the provided selection matches the route stop.
func sameStation(selected *shared.RouteStop, stop *shared.Stop, routeID shared.RouteID) bool {
	return selected != nil && selected.Stop != nil && selected.Stop.Name == stop.Name &&
		selected.RouteID == routeID
}

// SelectStop selects the provided station on the provided route, clearing any fetched data.
func (s *Store) SelectStop(stop *shared.Stop, routeID shared.RouteID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.loading.Load() {
		s.toastMessage = loadingToast
		return ErrAlreadyLoading
	}

	if sameStation(s.selectedStop, stop, routeID) {
		s.toastMessage = selectedToast
		return ErrAlreadySelected
	}

	s.selectedStop = &shared.RouteStop{Stop: stop, RouteID: routeID}
	s.headways = s.headways[:0]
	s.dwells = s.dwells[:0]
	s.travelTimes = s.travelTimes[:0]

	s.cfg.Logger.Info().Msgf("selected %s on %s", stop.Name, routeID)

	return nil
}

// SelectDestination selects the destination for travel times. The destination is tracked
// on the selected station's route.
func (s *Store) SelectDestination(stop *shared.Stop, routeID shared.RouteID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.loading.Load() {
		s.toastMessage = loadingToast
		return ErrAlreadyLoading
	}

	if s.selectedStop == nil {
		return ErrNoStationSelected
	}

	if s.selectedStop.RouteID != routeID && !stop.HasRoute(s.selectedStop.RouteID) {
		s.toastMessage = notOnRouteToast
		return ErrNotOnRoute
	}

	if sameStation(s.selectedStop, stop, routeID) {
		s.toastMessage = sameStationToast
		return ErrAlreadySelected
	}

	s.selectedDestination = &shared.RouteStop{Stop: stop, RouteID: s.selectedStop.RouteID}
	s.travelTimes = s.travelTimes[:0]

	s.cfg.Logger.Info().Msgf("selected destination %s on %s", stop.Name, s.selectedStop.RouteID)

	return nil
}

// Reset clears the selections and all fetched data.
func (s *Store) Reset() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.loading.Load() {
		s.toastMessage = loadingToast
		return ErrAlreadyLoading
	}

	s.selectedStop = nil
	s.selectedDestination = nil
	s.headways = s.headways[:0]
	s.dwells = s.dwells[:0]
	s.travelTimes = s.travelTimes[:0]
	s.hasError = false
	s.errorMessage = ""
	s.toastMessage = ""

	return nil
}

// setLoadingMessage updates the loading progress message.
func (s *Store) setLoadingMessage(msg shared.LoadingMessage) {
	s.mtx.Lock()
	s.loadingMessage = msg
	s.mtx.Unlock()
}

// FetchData fetches data for the selected category, skipping categories already fetched
// for the current selection.
func (s *Store) FetchData(ctx context.Context) error {
	s.mtx.Lock()
	if s.selectedStop == nil {
		s.mtx.Unlock()
		return nil
	}

	if !s.loading.CompareAndSwap(false, true) {
		s.toastMessage = loadingToast
		s.mtx.Unlock()
		return ErrAlreadyLoading
	}

	selected := *s.selectedStop
	var destination *shared.RouteStop
	if s.selectedDestination != nil {
		dest := *s.selectedDestination
		destination = &dest
	}
	category := s.selectedCategory
	s.loadingMessage = shared.None
	s.hasError = false
	s.errorMessage = ""
	s.mtx.Unlock()

	defer func() {
		s.mtx.Lock()
		s.loadingMessage = shared.None
		s.mtx.Unlock()
		s.loading.Store(false)
	}()

	err := s.fetchCategory(ctx, category, &selected, destination)
	if err != nil {
		s.mtx.Lock()
		s.hasError = true
		s.errorMessage = err.Error()
		s.mtx.Unlock()

		s.cfg.Logger.Error().Msgf("fetching %s data for %s: %v", category, selected.Stop.Name, err)
		return fmt.Errorf("fetching data: %w", err)
	}

	return nil
}

// fetchCategory caches and fetches the provided category's data for the selection.
func (s *Store) fetchCategory(ctx context.Context, category shared.DataCategory, selected *shared.RouteStop, destination *shared.RouteStop) error {
	stopIDs := selected.StopIDs()

	switch category {
	case shared.HeadwayCategory:
		s.mtx.RLock()
		cached := len(s.headways) > 0
		s.mtx.RUnlock()
		if cached {
			return nil
		}

		s.setLoadingMessage(shared.Caching)
		err := s.cfg.Fetcher.CacheHeadways(ctx, stopIDs, selected.RouteID)
		if err != nil {
			return err
		}

		s.setLoadingMessage(shared.Fetching)
		headways, err := s.cfg.Fetcher.FetchHeadways(ctx, stopIDs, selected.RouteID, s.cfg.Window)
		if err != nil {
			return err
		}

		s.mtx.Lock()
		s.headways = append(s.headways, headways...)
		slices.SortStableFunc(s.headways, func(a, b shared.Headway) int {
			return a.CurrentDepDt.Compare(b.CurrentDepDt)
		})
		s.mtx.Unlock()

		s.cfg.Logger.Info().Msgf("fetched %d headways for %s", len(headways), selected.Stop.Name)

	case shared.DwellCategory:
		s.mtx.RLock()
		cached := len(s.dwells) > 0
		s.mtx.RUnlock()
		if cached {
			return nil
		}

		s.setLoadingMessage(shared.Caching)
		err := s.cfg.Fetcher.CacheDwells(ctx, stopIDs, selected.RouteID)
		if err != nil {
			return err
		}

		s.setLoadingMessage(shared.Fetching)
		dwells, err := s.cfg.Fetcher.FetchDwells(ctx, stopIDs, selected.RouteID, s.cfg.Window)
		if err != nil {
			return err
		}

		s.mtx.Lock()
		s.dwells = append(s.dwells, dwells...)
		slices.SortStableFunc(s.dwells, func(a, b shared.Dwell) int {
			return a.ArrDt.Compare(b.ArrDt)
		})
		s.mtx.Unlock()

		s.cfg.Logger.Info().Msgf("fetched %d dwells for %s", len(dwells), selected.Stop.Name)

	case shared.TravelTimeCategory:
		s.mtx.RLock()
		cached := len(s.travelTimes) > 0
		s.mtx.RUnlock()
		if destination == nil || cached {
			return nil
		}

		toStopIDs := destination.StopIDs()

		s.setLoadingMessage(shared.Caching)
		err := s.cfg.Fetcher.CacheTravelTimes(ctx, stopIDs, toStopIDs, selected.RouteID)
		if err != nil {
			return err
		}

		s.setLoadingMessage(shared.Fetching)
		travelTimes, err := s.cfg.Fetcher.FetchTravelTimes(ctx, stopIDs, toStopIDs, selected.RouteID, s.cfg.Window)
		if err != nil {
			return err
		}

		s.mtx.Lock()
		s.travelTimes = append(s.travelTimes, travelTimes...)
		slices.SortStableFunc(s.travelTimes, func(a, b shared.TravelTime) int {
			return a.DepDt.Compare(b.DepDt)
		})
		s.mtx.Unlock()

		s.cfg.Logger.Info().Msgf("fetched %d travel times from %s to %s", len(travelTimes),
			selected.Stop.Name, destination.Stop.Name)

	default:
		return fmt.Errorf("invalid data category: %d", category)
	}

	return nil
}

// SetCategory sets the selected data category.
func (s *Store) SetCategory(category shared.DataCategory) error {
	switch category {
	case shared.HeadwayCategory, shared.DwellCategory, shared.TravelTimeCategory:
	default:
		return fmt.Errorf("invalid data category: %d", category)
	}

	s.mtx.Lock()
	s.selectedCategory = category
	s.mtx.Unlock()

	return nil
}

// SetPeriod sets the chunking period in hours.
func (s *Store) SetPeriod(hours int) error {
	if hours <= 0 {
		return shared.ErrInvalidPeriod
	}

	s.mtx.Lock()
	s.period = hours
	s.mtx.Unlock()

	return nil
}

// Category returns the selected data category.
func (s *Store) Category() shared.DataCategory {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return s.selectedCategory
}

// Period returns the chunking period in hours.
func (s *Store) Period() int {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return s.period
}

// SelectedStop returns the selected station.
func (s *Store) SelectedStop() *shared.RouteStop {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if s.selectedStop == nil {
		return nil
	}
	selected := *s.selectedStop
	return &selected
}

// SelectedDestination returns the selected destination.
func (s *Store) SelectedDestination() *shared.RouteStop {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if s.selectedDestination == nil {
		return nil
	}
	destination := *s.selectedDestination
	return &destination
}

// Headways returns the fetched headways.
func (s *Store) Headways() []shared.Headway {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return slices.Clone(s.headways)
}

// Dwells returns the fetched dwells.
func (s *Store) Dwells() []shared.Dwell {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return slices.Clone(s.dwells)
}

// TravelTimes returns the fetched travel times.
func (s *Store) TravelTimes() []shared.TravelTime {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return slices.Clone(s.travelTimes)
}

// Loading returns whether data is being fetched.
func (s *Store) Loading() bool {
	return s.loading.Load()
}

// LoadingMessage returns the current loading progress message.
func (s *Store) LoadingMessage() shared.LoadingMessage {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return s.loadingMessage
}

// HasError returns whether the last fetch failed.
func (s *Store) HasError() bool {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return s.hasError
}

// ErrorMessage returns the last fetch error.
func (s *Store) ErrorMessage() string {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return s.errorMessage
}

// ToastMessage returns the last user facing notice.
func (s *Store) ToastMessage() string {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return s.toastMessage
}

// ClearToast clears the user facing notice.
func (s *Store) ClearToast() {
	s.mtx.Lock()
	s.toastMessage = ""
	s.mtx.Unlock()
}
