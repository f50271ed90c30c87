package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/dnldd/transitperf/shared"
	rqlitehttp "github.com/rqlite/rqlite-go-http"
	"github.com/rs/zerolog"
)

const (
	// SQL statements.
	createReportTableSQL = "CREATE TABLE IF NOT EXISTS report (id TEXT PRIMARY KEY, category INTEGER, routeid TEXT, stopname TEXT, destinationname TEXT, periodhours INTEGER, entries INTEGER, createdon INTEGER)"
	createPointTableSQL  = "CREATE TABLE IF NOT EXISTS point (reportid TEXT, kind INTEGER, x INTEGER, open REAL, high REAL, low REAL, close REAL, value REAL)"
	persistReportSQL     = "INSERT INTO report(id, category, routeid, stopname, destinationname, periodhours, entries, createdon) VALUES(?,?,?,?,?,?,?,?)"
	persistPointSQL      = "INSERT INTO point(reportid, kind, x, open, high, low, close, value) VALUES(?,?,?,?,?,?,?,?)"
	findReportsSQL       = "SELECT id, category, routeid, stopname, destinationname, periodhours, entries, createdon FROM report WHERE routeid = ? AND stopname = ? ORDER BY createdon DESC"
)

// PointKind identifies the series an archived point belongs to.
type PointKind int

const (
	CandlestickKind PointKind = iota
	AverageKind
	BenchmarkKind
)

// DatabaseConfig is the configuration for the database.
type DatabaseConfig struct {
	// Endpoint represents the database connection endpoint.
	Endpoint string
	// User is the database user.
	User string
	// Pass is the database user pass.
	Pass string
	// Logger is the database logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sane inputs.
func (cfg *DatabaseConfig) Validate() error {
	var errs error

	if cfg.Endpoint == "" {
		errs = errors.Join(errs, fmt.Errorf("database endpoint cannot be empty"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// Database represents the report archive connection.
type Database struct {
	cfg    *DatabaseConfig
	client *rqlitehttp.Client
}

// Ensure the database implements the ReportStorer interface.
var _ shared.ReportStorer = (*Database)(nil)

// Ensure the database implements the ReportFetcher interface.
var _ shared.ReportFetcher = (*Database)(nil)

// NewDatabase initializes a new database connection.
func NewDatabase(ctx context.Context, cfg *DatabaseConfig) (*Database, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating database config: %w", err)
	}

	httpc := &http.Client{Timeout: time.Second * 5}
	client, err := rqlitehttp.NewClient(cfg.Endpoint, httpc)
	if err != nil {
		return nil, fmt.Errorf("creating database client: %w", err)
	}

	if cfg.User != "" {
		client.SetBasicAuth(cfg.User, cfg.Pass)
	}

	db := &Database{
		cfg:    cfg,
		client: client,
	}

	err = db.bootstrap(ctx)
	if err != nil {
		return nil, fmt.Errorf("bootstrapping database: %w", err)
	}

	return db, nil
}

// bootstrap initializes the database.
func (db *Database) bootstrap(ctx context.Context) error {
	resp, err := db.client.Execute(ctx, rqlitehttp.SQLStatements{
		{SQL: createReportTableSQL},
		{SQL: createPointTableSQL},
	}, &rqlitehttp.ExecuteOptions{
		Transaction: true,
		Timings:     true,
	})
	if err != nil {
		return err
	}

	has, idx, errStr := resp.HasError()
	if has {
		return fmt.Errorf("creating tables: %d -> %s", idx, errStr)
	}

	return nil
}

// reportStatements generates the statements archiving the provided report and its points.
func reportStatements(report *shared.Report) rqlitehttp.SQLStatements {
	stmts := make(rqlitehttp.SQLStatements, 0, 1+len(report.Candlesticks)+len(report.Averages)+len(report.Benchmarks))
	stmts = append(stmts, rqlitehttp.SQLStatements{{
		SQL: persistReportSQL,
		PositionalParams: []any{report.ID, int(report.Category), report.RouteID.String(), report.StopName,
			report.DestinationName, report.PeriodHours, report.Entries, report.CreatedOn.Unix()},
	}}...)

	for _, stick := range report.Candlesticks {
		stmts = append(stmts, rqlitehttp.SQLStatements{{
			SQL: persistPointSQL,
			PositionalParams: []any{report.ID, int(CandlestickKind), stick.X, stick.Open(), stick.High(),
				stick.Low(), stick.Close(), stick.Close()},
		}}...)
	}

	averagePoints := func(kind PointKind, points []shared.AveragePoint) {
		for _, point := range points {
			stmts = append(stmts, rqlitehttp.SQLStatements{{
				SQL:              persistPointSQL,
				PositionalParams: []any{report.ID, int(kind), point.X, point.Y, point.Y, point.Y, point.Y, point.Y},
			}}...)
		}
	}

	averagePoints(AverageKind, report.Averages)
	averagePoints(BenchmarkKind, report.Benchmarks)

	return stmts
}

// PersistReport stores the provided report and its points to the database.
func (db *Database) PersistReport(ctx context.Context, report *shared.Report) error {
	if report.ID == "" {
		db.cfg.Logger.Error().Msgf("unexpected report without an id: %s", spew.Sdump(report))
		return fmt.Errorf("report id cannot be empty")
	}

	resp, err := db.client.Execute(ctx, reportStatements(report),
		&rqlitehttp.ExecuteOptions{Transaction: true, Timings: true})
	if err != nil {
		return fmt.Errorf("persisting report %s: %w", report.ID, err)
	}

	has, idx, errStr := resp.HasError()
	if has {
		return fmt.Errorf("persisting report %s: %d -> %s", report.ID, idx, errStr)
	}

	db.cfg.Logger.Info().Msgf("archived report %s (%s)", report.ID, report.Title())

	return nil
}

// FetchReports lists the archived report headers for the provided station, newest first.
// Points are not loaded.
func (db *Database) FetchReports(ctx context.Context, routeID shared.RouteID, stopName string) ([]*shared.Report, error) {
	resp, err := db.client.QuerySingle(ctx, findReportsSQL, routeID.String(), stopName)
	if err != nil {
		return nil, fmt.Errorf("querying reports: %w", err)
	}

	has, idx, errStr := resp.HasError()
	if has {
		return nil, fmt.Errorf("querying reports: %d -> %s", idx, errStr)
	}

	reports := make([]*shared.Report, 0)
	for _, result := range resp.GetQueryResults() {
		for _, values := range result.Values {
			report, err := parseReportRow(result.Columns, values)
			if err != nil {
				db.cfg.Logger.Error().Msgf("unexpected report row: %s", spew.Sdump(values))
				return nil, err
			}

			reports = append(reports, report)
		}
	}

	return reports, nil
}

// parseReportRow maps a queried report row to a report header.
func parseReportRow(columns []string, values []any) (*shared.Report, error) {
	if len(columns) != len(values) {
		return nil, fmt.Errorf("expected %d report values, got %d", len(columns), len(values))
	}

	report := &shared.Report{
		Candlesticks: []shared.CandlestickPoint{},
		Averages:     []shared.AveragePoint{},
		Benchmarks:   []shared.AveragePoint{},
	}

	for i, column := range columns {
		var err error

		switch column {
		case "id":
			report.ID, err = toString(values[i])
		case "category":
			var category int64
			category, err = toInt(values[i])
			report.Category = shared.DataCategory(category)
		case "routeid":
			var str string
			str, err = toString(values[i])
			if err == nil {
				report.RouteID, err = shared.ParseRouteID(str)
			}
		case "stopname":
			report.StopName, err = toString(values[i])
		case "destinationname":
			report.DestinationName, err = toString(values[i])
		case "periodhours":
			var hours int64
			hours, err = toInt(values[i])
			report.PeriodHours = int(hours)
		case "entries":
			var entries int64
			entries, err = toInt(values[i])
			report.Entries = int(entries)
		case "createdon":
			var unix int64
			unix, err = toInt(values[i])
			report.CreatedOn = time.Unix(unix, 0)
		}

		if err != nil {
			return nil, fmt.Errorf("parsing report %s: %w", column, err)
		}
	}

	return report, nil
}

// toString converts a queried value to a string.
func toString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("unexpected string value type %T", value)
	}
}

// toInt converts a queried value to an integer.
func toInt(value any) (int64, error) {
	switch v := value.(type) {
	case float64:
		return int64(v), nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case json.Number:
		return v.Int64()
	default:
		return 0, fmt.Errorf("unexpected integer value type %T", value)
	}
}
