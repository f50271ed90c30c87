package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/dnldd/transitperf/shared"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const (
	// DefaultTimeout is the default request timeout. Cache requests can take a while when the
	// backend has to fill its cache from the performance api.
	DefaultTimeout = time.Second * 60
)

// BackendConfig represents the configuration for the backend client.
type BackendConfig struct {
	// BaseURL is the dashboard backend url.
	BaseURL string
	// Timeout is the request timeout.
	Timeout time.Duration
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config sane inputs.
func (cfg *BackendConfig) Validate() error {
	var errs error

	if cfg.BaseURL == "" {
		errs = errors.Join(errs, fmt.Errorf("backend url cannot be an empty string"))
	} else if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		errs = errors.Join(errs, fmt.Errorf("invalid backend url: %w", err))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("logger cannot be nil"))
	}

	return errs
}

// BackendClient represents the dashboard backend api client.
type BackendClient struct {
	cfg   *BackendConfig
	httpc http.Client
	loc   *time.Location
}

// Ensure the BackendClient implements the MapFetcher and DataFetcher interfaces.
var _ shared.MapFetcher = (*BackendClient)(nil)
var _ shared.DataFetcher = (*BackendClient)(nil)

// NewBackendClient instantiates a new backend client.
func NewBackendClient(cfg *BackendConfig) (*BackendClient, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating backend config: %w", err)
	}

	loc, err := time.LoadLocation(shared.NewYorkLocation)
	if err != nil {
		return nil, fmt.Errorf("loading new york location: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &BackendClient{
		cfg:   cfg,
		httpc: http.Client{Timeout: timeout},
		loc:   loc,
	}, nil
}

// formURL creates full urls including parameters for the api.
func (c *BackendClient) formURL(path string, params url.Values) string {
	var buf bytes.Buffer
	buf.WriteString(strings.TrimSuffix(c.cfg.BaseURL, "/"))
	buf.WriteString(path)
	if len(params) > 0 {
		buf.WriteString("?")
		buf.WriteString(params.Encode())
	}

	return buf.String()
}

// stopParams creates the query parameters for a stop scoped request.
func stopParams(stopIDs []string, routeID shared.RouteID) url.Values {
	params := url.Values{}
	params.Add("stop_ids", strings.Join(stopIDs, ","))
	params.Add("route_id", routeID.String())
	return params
}

// travelTimeParams creates the query parameters for an origin-destination request.
func travelTimeParams(fromStopIDs []string, toStopIDs []string, routeID shared.RouteID) url.Values {
	params := url.Values{}
	params.Add("from_stop_ids", strings.Join(fromStopIDs, ","))
	params.Add("to_stop_ids", strings.Join(toStopIDs, ","))
	params.Add("route_id", routeID.String())
	return params
}

// addWindow adds the bounds of the provided window to the query parameters.
func addWindow(params url.Values, window shared.Window) {
	if !window.Start.IsZero() {
		params.Add("start_datetime", strconv.FormatInt(window.Start.Unix(), 10))
	}
	if !window.End.IsZero() {
		params.Add("end_datetime", strconv.FormatInt(window.End.Unix(), 10))
	}
}

// get performs a get request against the backend and returns the response's data field.
func (c *BackendClient) get(ctx context.Context, path string, params url.Values) (gjson.Result, error) {
	formedURL := c.formURL(path, params)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, formedURL, nil)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("creating request for %s: %w", path, err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("requesting %s: %w", path, err)
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("reading response body: %w", err)
	}

	data := gjson.GetBytes(body, "data")

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg := data.String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return gjson.Result{}, fmt.Errorf("requesting %s: status %d: %s", path, resp.StatusCode, msg)
	}

	if !gjson.ValidBytes(body) {
		c.cfg.Logger.Debug().Msgf("invalid %s response: %s", path, spew.Sdump(string(body)))
		return gjson.Result{}, fmt.Errorf("requesting %s: invalid json response", path)
	}

	if gjson.GetBytes(body, "type").String() == "error" {
		return gjson.Result{}, fmt.Errorf("requesting %s: %s", path, data.String())
	}

	return data, nil
}

// getArray performs a get request against the backend expecting an array of entities.
func (c *BackendClient) getArray(ctx context.Context, path string, params url.Values) ([]gjson.Result, error) {
	data, err := c.get(ctx, path, params)
	if err != nil {
		return nil, err
	}

	switch {
	case data.IsArray():
		return data.Array(), nil
	case !data.Exists(), data.Type == gjson.Null:
		return []gjson.Result{}, nil
	default:
		c.cfg.Logger.Debug().Msgf("unexpected %s payload: %s", path, spew.Sdump(data.Raw))
		return nil, fmt.Errorf("requesting %s: expected an array of entities", path)
	}
}

// FetchShapes fetches the shapes of all tracked routes.
func (c *BackendClient) FetchShapes(ctx context.Context) ([]shared.RawShape, error) {
	data, err := c.getArray(ctx, "/shape", nil)
	if err != nil {
		return nil, fmt.Errorf("fetching shapes: %w", err)
	}

	return shared.ParseShapes(data), nil
}

// FetchStops fetches the stop platforms of all tracked routes.
func (c *BackendClient) FetchStops(ctx context.Context) ([]shared.RawStop, error) {
	data, err := c.getArray(ctx, "/stop", nil)
	if err != nil {
		return nil, fmt.Errorf("fetching stops: %w", err)
	}

	return shared.ParseStops(data), nil
}

// CacheHeadways requests the backend cache headways for the provided stops.
func (c *BackendClient) CacheHeadways(ctx context.Context, stopIDs []string, routeID shared.RouteID) error {
	_, err := c.get(ctx, "/cache/headway", stopParams(stopIDs, routeID))
	if err != nil {
		return fmt.Errorf("caching headways: %w", err)
	}

	return nil
}

// FetchHeadways fetches cached headways for the provided stops.
func (c *BackendClient) FetchHeadways(ctx context.Context, stopIDs []string, routeID shared.RouteID, window shared.Window) ([]shared.Headway, error) {
	params := stopParams(stopIDs, routeID)
	addWindow(params, window)

	data, err := c.getArray(ctx, "/headway", params)
	if err != nil {
		return nil, fmt.Errorf("fetching headways: %w", err)
	}

	headways, err := shared.ParseHeadways(data, c.loc)
	if err != nil {
		return nil, fmt.Errorf("parsing headways: %w", err)
	}

	return headways, nil
}

// CacheDwells requests the backend cache dwells for the provided stops.
func (c *BackendClient) CacheDwells(ctx context.Context, stopIDs []string, routeID shared.RouteID) error {
	_, err := c.get(ctx, "/cache/dwell", stopParams(stopIDs, routeID))
	if err != nil {
		return fmt.Errorf("caching dwells: %w", err)
	}

	return nil
}

// FetchDwells fetches cached dwells for the provided stops.
func (c *BackendClient) FetchDwells(ctx context.Context, stopIDs []string, routeID shared.RouteID, window shared.Window) ([]shared.Dwell, error) {
	params := stopParams(stopIDs, routeID)
	addWindow(params, window)

	data, err := c.getArray(ctx, "/dwell", params)
	if err != nil {
		return nil, fmt.Errorf("fetching dwells: %w", err)
	}

	dwells, err := shared.ParseDwells(data, c.loc)
	if err != nil {
		return nil, fmt.Errorf("parsing dwells: %w", err)
	}

	return dwells, nil
}

// CacheTravelTimes requests the backend cache travel times between the provided stops.
func (c *BackendClient) CacheTravelTimes(ctx context.Context, fromStopIDs []string, toStopIDs []string, routeID shared.RouteID) error {
	_, err := c.get(ctx, "/cache/travel_time", travelTimeParams(fromStopIDs, toStopIDs, routeID))
	if err != nil {
		return fmt.Errorf("caching travel times: %w", err)
	}

	return nil
}

// FetchTravelTimes fetches cached travel times between the provided stops.
func (c *BackendClient) FetchTravelTimes(ctx context.Context, fromStopIDs []string, toStopIDs []string, routeID shared.RouteID, window shared.Window) ([]shared.TravelTime, error) {
	params := travelTimeParams(fromStopIDs, toStopIDs, routeID)
	addWindow(params, window)

	data, err := c.getArray(ctx, "/travel_time", params)
	if err != nil {
		return nil, fmt.Errorf("fetching travel times: %w", err)
	}

	travelTimes, err := shared.ParseTravelTimes(data, c.loc)
	if err != nil {
		return nil, fmt.Errorf("parsing travel times: %w", err)
	}

	return travelTimes, nil
}
