package mapdata

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/dnldd/transitperf/shared"
	"github.com/rs/zerolog"
	"github.com/twpayne/go-polyline"
)

// ManagerConfig represents the map data manager configuration.
type ManagerConfig struct {
	// Fetcher fetches route shapes and stops.
	Fetcher shared.MapFetcher
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sane inputs.
func (cfg *ManagerConfig) Validate() error {
	var errs error

	if cfg.Fetcher == nil {
		errs = errors.Join(errs, fmt.Errorf("map fetcher cannot be nil"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// Manager manages the routes and stops displayed on the map.
type Manager struct {
	cfg           *ManagerConfig
	routes        map[shared.RouteID]*shared.Route
	stops         map[string]*shared.Stop
	selectionMode shared.SelectionMode
	errorMessage  string
	mtx           sync.RWMutex
}

// NewManager initializes a new map data manager with an empty route for every tracked route.
func NewManager(cfg *ManagerConfig) (*Manager, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating map data manager config: %w", err)
	}

	routes := make(map[shared.RouteID]*shared.Route)
	for _, id := range shared.RouteIDs() {
		routes[id] = shared.NewRoute(id)
	}

	return &Manager{
		cfg:           cfg,
		routes:        routes,
		stops:         make(map[string]*shared.Stop),
		selectionMode: shared.Normal,
	}, nil
}

// decodePolyline decodes the provided encoded polyline into lat/lng pairs.
func decodePolyline(encoded string) ([][2]float64, error) {
	coords, rest, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("%d trailing bytes", len(rest))
	}

	latLngs := make([][2]float64, 0, len(coords))
	for idx := range coords {
		latLngs = append(latLngs, [2]float64{coords[idx][0], coords[idx][1]})
	}

	return latLngs, nil
}

// FetchMapData fetches route shapes and stops and merges them into the managed routes.
func (m *Manager) FetchMapData(ctx context.Context) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.errorMessage = ""

	err := m.fetchMapData(ctx)
	if err != nil {
		m.errorMessage = err.Error()
		return fmt.Errorf("fetching map data: %w", err)
	}

	return nil
}

// fetchMapData populates routes and stops. The caller must hold the lock.
func (m *Manager) fetchMapData(ctx context.Context) error {
	shapes, err := m.cfg.Fetcher.FetchShapes(ctx)
	if err != nil {
		return err
	}

	for idx := range shapes {
		routeID, err := shared.ParseRouteID(shapes[idx].RouteID)
		if err != nil {
			return fmt.Errorf("shape %s: %w", shapes[idx].ID, err)
		}

		route, ok := m.routes[routeID]
		if !ok {
			continue
		}

		latLngs, err := decodePolyline(shapes[idx].Polyline)
		if err != nil {
			return fmt.Errorf("decoding shape %s polyline: %w", shapes[idx].ID, err)
		}

		route.LatLngs = append(route.LatLngs, latLngs)
	}

	stops, err := m.cfg.Fetcher.FetchStops(ctx)
	if err != nil {
		return err
	}

	for idx := range stops {
		raw := stops[idx]
		routeID, err := shared.ParseRouteID(raw.RouteID)
		if err != nil {
			return fmt.Errorf("stop %s: %w", raw.ID, err)
		}

		route, ok := m.routes[routeID]
		if !ok {
			continue
		}

		stop, ok := m.stops[raw.Name]
		if ok {
			stop.Merge(raw.ID, routeID)
			continue
		}

		stop = shared.NewStop(raw.ID, routeID, raw.Name, raw.Latitude, raw.Longitude)
		route.Stops = append(route.Stops, stop)
		m.stops[raw.Name] = stop
	}

	m.cfg.Logger.Info().Msgf("loaded %d shapes and %d stops across %d stations",
		len(shapes), len(stops), len(m.stops))

	return nil
}

// Route returns the route with the provided id.
func (m *Manager) Route(id shared.RouteID) (*shared.Route, bool) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	route, ok := m.routes[id]
	return route, ok
}

// Routes returns all managed routes in display order.
func (m *Manager) Routes() []*shared.Route {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	ids := shared.RouteIDs()
	routes := make([]*shared.Route, 0, len(ids))
	for _, id := range ids {
		routes = append(routes, m.routes[id])
	}

	return routes
}

// Stop returns the station with the provided name.
func (m *Manager) Stop(name string) (*shared.Stop, bool) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	stop, ok := m.stops[name]
	return stop, ok
}

// FindStop returns the station on the provided route matching the name, ignoring case.
func (m *Manager) FindStop(name string, routeID shared.RouteID) (*shared.Stop, error) {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	stop, ok := m.stops[name]
	if !ok {
		for k, v := range m.stops {
			if strings.EqualFold(k, name) {
				stop = v
				ok = true
				break
			}
		}
	}

	if !ok {
		return nil, fmt.Errorf("no station found with name %q", name)
	}
	if !stop.HasRoute(routeID) {
		return nil, fmt.Errorf("station %q is not on route %s", stop.Name, routeID)
	}

	return stop, nil
}

// Stops returns all stations sorted by name.
func (m *Manager) Stops() []*shared.Stop {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	stops := make([]*shared.Stop, 0, len(m.stops))
	for _, stop := range m.stops {
		stops = append(stops, stop)
	}

	slices.SortFunc(stops, func(a, b *shared.Stop) int {
		return strings.Compare(a.Name, b.Name)
	})

	return stops
}

// SetRouteVisible toggles the visibility of the provided route.
func (m *Manager) SetRouteVisible(id shared.RouteID, visible bool) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	route, ok := m.routes[id]
	if !ok {
		return fmt.Errorf("no route found with id %s", id)
	}

	route.Visible = visible
	return nil
}

// SetSelectionMode sets how map selections are interpreted.
func (m *Manager) SetSelectionMode(mode shared.SelectionMode) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.selectionMode = mode
}

// SelectionMode returns the current selection mode.
func (m *Manager) SelectionMode() shared.SelectionMode {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	return m.selectionMode
}

// ErrorMessage returns the last map data fetch error.
func (m *Manager) ErrorMessage() string {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	return m.errorMessage
}
