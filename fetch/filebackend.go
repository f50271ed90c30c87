package fetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/dnldd/transitperf/shared"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// FileBackendConfig represents the recorded backend data source configuration.
type FileBackendConfig struct {
	// FilePath is the filepath to the recorded backend data.
	FilePath string
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sane inputs.
func (cfg *FileBackendConfig) Validate() error {
	var errs error

	if cfg.FilePath == "" {
		errs = errors.Join(errs, fmt.Errorf("data filepath cannot be an empty string"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// FileBackend replays recorded backend responses. The recorded file is a json object holding
// `shapes`, `stops`, `headways`, `dwells` and `travel_times` arrays in the backend's wire format.
type FileBackend struct {
	cfg         *FileBackendConfig
	shapes      []shared.RawShape
	stops       []shared.RawStop
	headways    []shared.Headway
	dwells      []shared.Dwell
	travelTimes []shared.TravelTime
}

// Ensure the file backend implements the MapFetcher and DataFetcher interfaces.
var _ shared.MapFetcher = (*FileBackend)(nil)
var _ shared.DataFetcher = (*FileBackend)(nil)

// loadRecordedData loads the recorded backend data from the provided file path.
func loadRecordedData(filepath string) (gjson.Result, error) {
	readb, err := os.ReadFile(filepath)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("reading recorded data from file with path '%s': %w", filepath, err)
	}

	if !gjson.ValidBytes(readb) {
		return gjson.Result{}, fmt.Errorf("invalid json in file with path '%s'", filepath)
	}

	return gjson.ParseBytes(readb), nil
}

// NewFileBackend initializes a new recorded backend data source.
func NewFileBackend(cfg *FileBackendConfig) (*FileBackend, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating file backend config: %w", err)
	}

	data, err := loadRecordedData(cfg.FilePath)
	if err != nil {
		return nil, fmt.Errorf("loading recorded data: %w", err)
	}

	_, loc, err := shared.NewYorkTime()
	if err != nil {
		return nil, err
	}

	backend := &FileBackend{
		cfg:    cfg,
		shapes: shared.ParseShapes(data.Get("shapes").Array()),
		stops:  shared.ParseStops(data.Get("stops").Array()),
	}

	backend.headways, err = shared.ParseHeadways(data.Get("headways").Array(), loc)
	if err != nil {
		return nil, fmt.Errorf("parsing headways: %w", err)
	}
	backend.dwells, err = shared.ParseDwells(data.Get("dwells").Array(), loc)
	if err != nil {
		return nil, fmt.Errorf("parsing dwells: %w", err)
	}
	backend.travelTimes, err = shared.ParseTravelTimes(data.Get("travel_times").Array(), loc)
	if err != nil {
		return nil, fmt.Errorf("parsing travel times: %w", err)
	}

	cfg.Logger.Info().Msgf("loaded %d shapes, %d stops, %d headways, %d dwells and %d travel times",
		len(backend.shapes), len(backend.stops), len(backend.headways), len(backend.dwells),
		len(backend.travelTimes))

	return backend, nil
}

// inWindow checks whether the provided time falls within the window. Zero bounds are open.
func inWindow(t time.Time, window shared.Window) bool {
	if !window.Start.IsZero() && t.Before(window.Start) {
		return false
	}
	if !window.End.IsZero() && t.After(window.End) {
		return false
	}

	return true
}

// onRoute checks whether a recorded route id matches the requested route.
func onRoute(recorded string, routeID shared.RouteID) bool {
	return recorded == "" || recorded == routeID.String()
}

// FetchShapes returns the recorded route shapes.
func (f *FileBackend) FetchShapes(ctx context.Context) ([]shared.RawShape, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return slices.Clone(f.shapes), nil
}

// FetchStops returns the recorded stop platforms.
func (f *FileBackend) FetchStops(ctx context.Context) ([]shared.RawStop, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return slices.Clone(f.stops), nil
}

// CacheHeadways is a no-op, recorded data is always cached.
func (f *FileBackend) CacheHeadways(ctx context.Context, stopIDs []string, routeID shared.RouteID) error {
	return ctx.Err()
}

// FetchHeadways returns the recorded headways for the provided stops.
func (f *FileBackend) FetchHeadways(ctx context.Context, stopIDs []string, routeID shared.RouteID, window shared.Window) ([]shared.Headway, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	headways := make([]shared.Headway, 0)
	for _, headway := range f.headways {
		if slices.Contains(stopIDs, headway.StopID) && onRoute(headway.RouteID, routeID) &&
			inWindow(headway.CurrentDepDt, window) {
			headways = append(headways, headway)
		}
	}

	return headways, nil
}

// CacheDwells is a no-op, recorded data is always cached.
func (f *FileBackend) CacheDwells(ctx context.Context, stopIDs []string, routeID shared.RouteID) error {
	return ctx.Err()
}

// FetchDwells returns the recorded dwells for the provided stops.
func (f *FileBackend) FetchDwells(ctx context.Context, stopIDs []string, routeID shared.RouteID, window shared.Window) ([]shared.Dwell, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dwells := make([]shared.Dwell, 0)
	for _, dwell := range f.dwells {
		if slices.Contains(stopIDs, dwell.StopID) && onRoute(dwell.RouteID, routeID) &&
			inWindow(dwell.ArrDt, window) {
			dwells = append(dwells, dwell)
		}
	}

	return dwells, nil
}

// CacheTravelTimes is a no-op, recorded data is always cached.
func (f *FileBackend) CacheTravelTimes(ctx context.Context, fromStopIDs []string, toStopIDs []string, routeID shared.RouteID) error {
	return ctx.Err()
}

// FetchTravelTimes returns the recorded travel times between the provided stops.
func (f *FileBackend) FetchTravelTimes(ctx context.Context, fromStopIDs []string, toStopIDs []string, routeID shared.RouteID, window shared.Window) ([]shared.TravelTime, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	travelTimes := make([]shared.TravelTime, 0)
	for _, travelTime := range f.travelTimes {
		if slices.Contains(fromStopIDs, travelTime.FromStopID) && slices.Contains(toStopIDs, travelTime.ToStopID) &&
			onRoute(travelTime.RouteID, routeID) && inWindow(travelTime.DepDt, window) {
			travelTimes = append(travelTimes, travelTime)
		}
	}

	return travelTimes, nil
}
