package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/dnldd/transitperf/dashboard"
	"github.com/dnldd/transitperf/database"
	"github.com/dnldd/transitperf/fetch"
	"github.com/dnldd/transitperf/mapdata"
	"github.com/dnldd/transitperf/render"
	"github.com/dnldd/transitperf/shared"
	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

const (
	// refreshTime is the daily refresh time in new york. The backend caches data through
	// the previous day.
	refreshTime = "00:10"
)

// DashboardConfig represents the configuration struct for the dashboard service.
type DashboardConfig struct {
	// BackendURL is the dashboard backend base url.
	BackendURL string
	// DataFilepath is the filepath to recorded backend data, used in place of the backend.
	DataFilepath string
	// Route is the selected route id.
	Route string
	// Stop is the selected station name.
	Stop string
	// Destination is the travel time destination station name.
	Destination string
	// Category is the selected data category.
	Category string
	// Period is the chunking period in hours.
	Period int
	// Watch keeps the service running, refreshing the statistics daily.
	Watch bool
	// ArchiveEndpoint is the report archive endpoint, archiving is disabled when empty.
	ArchiveEndpoint string
	// ArchiveUser is the report archive user.
	ArchiveUser string
	// ArchivePass is the report archive user pass.
	ArchivePass string
	// History lists the archived reports for the selected station instead of refreshing.
	History bool
	// Output is where statistics are rendered.
	Output io.Writer
}

// Validate asserts the config sane inputs.
func (cfg *DashboardConfig) Validate() error {
	var errs error

	if cfg.BackendURL == "" && cfg.DataFilepath == "" {
		errs = errors.Join(errs, fmt.Errorf("either a backend url or a data filepath is required"))
	}
	if cfg.Route == "" {
		errs = errors.Join(errs, fmt.Errorf("route cannot be an empty string"))
	} else {
		_, err := shared.ParseRouteID(cfg.Route)
		if err != nil {
			errs = errors.Join(errs, err)
		}
	}
	if cfg.Stop == "" {
		errs = errors.Join(errs, fmt.Errorf("stop cannot be an empty string"))
	}

	category, err := shared.ParseDataCategory(cfg.Category)
	if err != nil {
		errs = errors.Join(errs, err)
	}
	if err == nil && category == shared.TravelTimeCategory && cfg.Destination == "" {
		errs = errors.Join(errs, fmt.Errorf("travel times require a destination"))
	}
	if cfg.Period < 0 {
		errs = errors.Join(errs, fmt.Errorf("period cannot be negative"))
	}
	if cfg.History && cfg.ArchiveEndpoint == "" {
		errs = errors.Join(errs, fmt.Errorf("history requires an archive endpoint"))
	}
	if cfg.Output == nil {
		errs = errors.Join(errs, fmt.Errorf("output writer cannot be nil"))
	}

	return errs
}

// Dashboard represents the transit performance dashboard service.
type Dashboard struct {
	cfg       *DashboardConfig
	routeID   shared.RouteID
	category  shared.DataCategory
	mapMgr    *mapdata.Manager
	store     *dashboard.Store
	archive   shared.ReportStorer
	history   shared.ReportFetcher
	logger    *zerolog.Logger
	mapLoaded bool
	mtx       sync.Mutex
}

// NewDashboard initializes a new dashboard service.
func NewDashboard(ctx context.Context, cfg *DashboardConfig) (*Dashboard, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating dashboard config: %w", err)
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	logger := log.With().Str("service", "transitperf").Logger()

	routeID, _ := shared.ParseRouteID(cfg.Route)
	category, _ := shared.ParseDataCategory(cfg.Category)

	var mapFetcher shared.MapFetcher
	var dataFetcher shared.DataFetcher

	switch {
	case cfg.DataFilepath != "":
		fileLogger := logger.With().Str("component", "filebackend").Logger()
		backend, err := fetch.NewFileBackend(&fetch.FileBackendConfig{
			FilePath: cfg.DataFilepath,
			Logger:   &fileLogger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating file backend: %w", err)
		}

		mapFetcher = backend
		dataFetcher = backend

	default:
		backendLogger := logger.With().Str("component", "backend").Logger()
		backend, err := fetch.NewBackendClient(&fetch.BackendConfig{
			BaseURL: cfg.BackendURL,
			Timeout: fetch.DefaultTimeout,
			Logger:  &backendLogger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating backend client: %w", err)
		}

		mapFetcher = backend
		dataFetcher = backend
	}

	mapLogger := logger.With().Str("component", "mapdata").Logger()
	mapMgr, err := mapdata.NewManager(&mapdata.ManagerConfig{
		Fetcher: mapFetcher,
		Logger:  &mapLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating map data manager: %w", err)
	}

	storeLogger := logger.With().Str("component", "dashboard").Logger()
	store, err := dashboard.NewStore(&dashboard.StoreConfig{
		Fetcher: dataFetcher,
		Period:  cfg.Period,
		Logger:  &storeLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating dashboard store: %w", err)
	}

	svc := &Dashboard{
		cfg:      cfg,
		routeID:  routeID,
		category: category,
		mapMgr:   mapMgr,
		store:    store,
		logger:   &logger,
	}

	if cfg.ArchiveEndpoint != "" {
		dbLogger := logger.With().Str("component", "database").Logger()
		db, err := database.NewDatabase(ctx, &database.DatabaseConfig{
			Endpoint: cfg.ArchiveEndpoint,
			User:     cfg.ArchiveUser,
			Pass:     cfg.ArchivePass,
			Logger:   &dbLogger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating report archive: %w", err)
		}

		svc.archive = db
		svc.history = db
	}

	return svc, nil
}

// loadMapData fetches map data once.
func (d *Dashboard) loadMapData(ctx context.Context) error {
	if d.mapLoaded {
		return nil
	}

	err := d.mapMgr.FetchMapData(ctx)
	if err != nil {
		return err
	}

	d.mapLoaded = true
	return nil
}

// selectStations selects the configured station and destination, clearing previously
// fetched data.
func (d *Dashboard) selectStations() error {
	stop, err := d.mapMgr.FindStop(d.cfg.Stop, d.routeID)
	if err != nil {
		route, ok := d.mapMgr.Route(d.routeID)
		if ok {
			fmt.Fprintf(d.cfg.Output, "%s stations:\n", d.routeID)
			render.Stops(d.cfg.Output, route.Stops)
		}

		return fmt.Errorf("finding station: %w", err)
	}

	err = d.store.Reset()
	if err != nil {
		return err
	}

	err = d.store.SelectStop(stop, d.routeID)
	if err != nil {
		return fmt.Errorf("selecting station: %w", err)
	}

	if d.cfg.Destination != "" {
		destination, err := d.mapMgr.FindStop(d.cfg.Destination, d.routeID)
		if err != nil {
			return fmt.Errorf("finding destination: %w", err)
		}

		err = d.store.SelectDestination(destination, d.routeID)
		if err != nil {
			return fmt.Errorf("selecting destination: %w", err)
		}
	}

	err = d.store.SetCategory(d.category)
	if err != nil {
		return err
	}

	if d.cfg.Period > 0 {
		err = d.store.SetPeriod(d.cfg.Period)
		if err != nil {
			return err
		}
	}

	return nil
}

// refresh fetches, renders and archives the statistics for the configured selection.
func (d *Dashboard) refresh(ctx context.Context) (*shared.Report, error) {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	err := d.loadMapData(ctx)
	if err != nil {
		return nil, err
	}

	err = d.selectStations()
	if err != nil {
		return nil, err
	}

	err = d.store.FetchData(ctx)
	if err != nil {
		return nil, err
	}

	now, _, err := shared.NewYorkTime()
	if err != nil {
		return nil, err
	}

	report, err := d.store.Report(now)
	if err != nil {
		return nil, fmt.Errorf("generating report: %w", err)
	}

	err = render.Candlesticks(d.cfg.Output, report)
	if err != nil {
		return nil, fmt.Errorf("rendering candlesticks: %w", err)
	}

	fmt.Fprintln(d.cfg.Output)

	err = render.Averages(d.cfg.Output, report)
	if err != nil {
		return nil, fmt.Errorf("rendering averages: %w", err)
	}

	if d.archive != nil {
		err = d.archive.PersistReport(ctx, report)
		if err != nil {
			return nil, fmt.Errorf("archiving report: %w", err)
		}
	}

	d.logger.Info().Msgf("refreshed %s from %d entries", report.Title(), report.Entries)

	return report, nil
}

// listHistory prints the archived reports for the configured station.
func (d *Dashboard) listHistory(ctx context.Context) error {
	if d.history == nil {
		return fmt.Errorf("no report archive configured")
	}

	d.mtx.Lock()
	defer d.mtx.Unlock()

	err := d.loadMapData(ctx)
	if err != nil {
		return err
	}

	stop, err := d.mapMgr.FindStop(d.cfg.Stop, d.routeID)
	if err != nil {
		return fmt.Errorf("finding station: %w", err)
	}

	reports, err := d.history.FetchReports(ctx, d.routeID, stop.Name)
	if err != nil {
		return fmt.Errorf("fetching archived reports: %w", err)
	}

	fmt.Fprintf(d.cfg.Output, "%s archived reports:\n", stop.Name)
	err = render.Reports(d.cfg.Output, reports)
	if err != nil {
		return fmt.Errorf("rendering archived reports: %w", err)
	}

	d.logger.Info().Msgf("listed %d archived reports for %s", len(reports), stop.Name)

	return nil
}

// scheduledRefresh returns the daily refresh job.
func (d *Dashboard) scheduledRefresh(ctx context.Context, logger *zerolog.Logger) func() {
	return func() {
		_, err := d.refresh(ctx)
		if err != nil {
			logger.Error().Msgf("refreshing statistics: %v", err)
		}
	}
}

// Run handles the lifecycle processes of the dashboard service.
func (d *Dashboard) Run(ctx context.Context) error {
	if d.cfg.History {
		return d.listHistory(ctx)
	}

	_, err := d.refresh(ctx)
	if !d.cfg.Watch {
		return err
	}

	if err != nil {
		d.logger.Error().Msgf("refreshing statistics: %v", err)
	}

	_, loc, err := shared.NewYorkTime()
	if err != nil {
		return err
	}

	schedulerLogger := d.logger.With().Str("component", "scheduler").Logger()
	scheduler := gocron.NewScheduler(loc)
	_, err = scheduler.Every(1).Day().At(refreshTime).Do(d.scheduledRefresh(ctx, &schedulerLogger))
	if err != nil {
		return fmt.Errorf("scheduling refresh: %w", err)
	}

	scheduler.StartAsync()
	schedulerLogger.Info().Msgf("watching %s, refreshing daily at %s", d.cfg.Stop, refreshTime)

	<-ctx.Done()
	scheduler.Stop()

	return nil
}
