package shared

import (
	"context"
	"time"
)

// Window bounds a data query. Zero times leave the corresponding side unbounded.
type Window struct {
	Start time.Time
	End   time.Time
}

// MapFetcher defines the requirements for fetching map data.
type MapFetcher interface {
	// FetchShapes fetches the shapes of all tracked routes.
	FetchShapes(ctx context.Context) ([]RawShape, error)
	// FetchStops fetches the stop platforms of all tracked routes.
	FetchStops(ctx context.Context) ([]RawStop, error)
}

// DataFetcher defines the requirements for caching and fetching performance data.
type DataFetcher interface {
	// CacheHeadways requests the backend cache headways for the provided stops.
	CacheHeadways(ctx context.Context, stopIDs []string, routeID RouteID) error
	// FetchHeadways fetches cached headways for the provided stops.
	FetchHeadways(ctx context.Context, stopIDs []string, routeID RouteID, window Window) ([]Headway, error)
	// CacheDwells requests the backend cache dwells for the provided stops.
	CacheDwells(ctx context.Context, stopIDs []string, routeID RouteID) error
	// FetchDwells fetches cached dwells for the provided stops.
	FetchDwells(ctx context.Context, stopIDs []string, routeID RouteID, window Window) ([]Dwell, error)
	// CacheTravelTimes requests the backend cache travel times between the provided stops.
	CacheTravelTimes(ctx context.Context, fromStopIDs []string, toStopIDs []string, routeID RouteID) error
	// FetchTravelTimes fetches cached travel times between the provided stops.
	FetchTravelTimes(ctx context.Context, fromStopIDs []string, toStopIDs []string, routeID RouteID, window Window) ([]TravelTime, error)
}

// ReportStorer defines the requirements for archiving reports.
type ReportStorer interface {
	// PersistReport stores the provided report.
	PersistReport(ctx context.Context, report *Report) error
}

// ReportFetcher defines the requirements for listing archived reports.
type ReportFetcher interface {
	// FetchReports lists the archived reports for the provided station, newest first.
	FetchReports(ctx context.Context, routeID RouteID, stopName string) ([]*Report, error)
}
