package shared

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Headway represents the time between the previous and current trains' departures at a stop.
type Headway struct {
	StopID                  string
	RouteID                 string
	PrevRouteID             string
	Direction               bool
	CurrentDepDt            time.Time
	PreviousDepDt           time.Time
	HeadwayTimeSec          float64
	BenchmarkHeadwayTimeSec float64
}

// Dwell represents the time a train was stationary at a stop.
type Dwell struct {
	StopID       string
	RouteID      string
	Direction    bool
	ArrDt        time.Time
	DepDt        time.Time
	DwellTimeSec float64
}

// TravelTime represents the travel time of a train from an origin to a destination.
type TravelTime struct {
	FromStopID             string
	ToStopID               string
	RouteID                string
	Direction              bool
	DepDt                  time.Time
	ArrDt                  time.Time
	TravelTimeSec          float64
	BenchmarkTravelTimeSec float64
}

// parseDirection parses a backend direction value.
func parseDirection(value gjson.Result) bool {
	switch strings.ToLower(value.String()) {
	case "true", "1":
		return true
	default:
		return false
	}
}

// parseNumber parses a backend numeric value, which is usually transported as a string.
func parseNumber(value gjson.Result, field string) (float64, error) {
	switch value.Type {
	case gjson.Number:
		return value.Float(), nil
	case gjson.String:
		str := strings.TrimSpace(value.String())
		if str == "" {
			return 0, nil
		}
		num, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return 0, fmt.Errorf("parsing %s: %w", field, err)
		}
		return num, nil
	case gjson.Null:
		return 0, nil
	default:
		return 0, fmt.Errorf("parsing %s: unexpected value %s", field, value.Raw)
	}
}

// ParseDatetime parses a backend datetime. RFC3339 values keep their offset, zone-less values
// are interpreted in new york and integers are treated as unix seconds. Datetimes outside
// [MinDatetimeYear, MaxDatetimeYear] are rejected.
func ParseDatetime(str string, loc *time.Location) (time.Time, error) {
	dt, err := parseDatetime(str, loc)
	if err != nil {
		return time.Time{}, err
	}

	year := dt.UTC().Year()
	if year < MinDatetimeYear || year > MaxDatetimeYear {
		return time.Time{}, fmt.Errorf("datetime %q outside the supported range", str)
	}

	return dt, nil
}

// parseDatetime parses a backend datetime in any of the supported formats.
func parseDatetime(str string, loc *time.Location) (time.Time, error) {
	str = strings.TrimSpace(str)
	if str == "" {
		return time.Time{}, fmt.Errorf("empty datetime")
	}

	if secs, err := strconv.ParseInt(str, 10, 64); err == nil {
		return time.Unix(secs, 0).In(loc), nil
	}

	dt, err := time.Parse(time.RFC3339Nano, str)
	if err == nil {
		return dt, nil
	}

	for _, layout := range []string{DateLayout, "2006-01-02T15:04:05"} {
		dt, err := time.ParseInLocation(layout, str, loc)
		if err == nil {
			return dt, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized datetime format: %q", str)
}

// parseDatetimeField parses the datetime held by the provided field.
func parseDatetimeField(value gjson.Result, field string, loc *time.Location) (time.Time, error) {
	dt, err := ParseDatetime(value.String(), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %s: %w", field, err)
	}

	return dt, nil
}

// ParseHeadways parses headways from the provided json data.
func ParseHeadways(data []gjson.Result, loc *time.Location) ([]Headway, error) {
	headways := make([]Headway, 0, len(data))

	for idx := range data {
		var headway Headway
		var err error

		headway.StopID = data[idx].Get("stop_id").String()
		headway.RouteID = data[idx].Get("route_id").String()
		headway.PrevRouteID = data[idx].Get("prev_route_id").String()
		headway.Direction = parseDirection(data[idx].Get("direction"))

		headway.CurrentDepDt, err = parseDatetimeField(data[idx].Get("current_dep_dt"), "current_dep_dt", loc)
		if err != nil {
			return nil, fmt.Errorf("parsing headway %d: %w", idx, err)
		}
		headway.PreviousDepDt, err = parseDatetimeField(data[idx].Get("previous_dep_dt"), "previous_dep_dt", loc)
		if err != nil {
			return nil, fmt.Errorf("parsing headway %d: %w", idx, err)
		}
		headway.HeadwayTimeSec, err = parseNumber(data[idx].Get("headway_time_sec"), "headway_time_sec")
		if err != nil {
			return nil, fmt.Errorf("parsing headway %d: %w", idx, err)
		}
		headway.BenchmarkHeadwayTimeSec, err = parseNumber(data[idx].Get("benchmark_headway_time_sec"),
			"benchmark_headway_time_sec")
		if err != nil {
			return nil, fmt.Errorf("parsing headway %d: %w", idx, err)
		}

		headways = append(headways, headway)
	}

	return headways, nil
}

// ParseDwells parses dwells from the provided json data.
func ParseDwells(data []gjson.Result, loc *time.Location) ([]Dwell, error) {
	dwells := make([]Dwell, 0, len(data))

	for idx := range data {
		var dwell Dwell
		var err error

		dwell.StopID = data[idx].Get("stop_id").String()
		dwell.RouteID = data[idx].Get("route_id").String()
		dwell.Direction = parseDirection(data[idx].Get("direction"))

		dwell.ArrDt, err = parseDatetimeField(data[idx].Get("arr_dt"), "arr_dt", loc)
		if err != nil {
			return nil, fmt.Errorf("parsing dwell %d: %w", idx, err)
		}
		dwell.DepDt, err = parseDatetimeField(data[idx].Get("dep_dt"), "dep_dt", loc)
		if err != nil {
			return nil, fmt.Errorf("parsing dwell %d: %w", idx, err)
		}
		dwell.DwellTimeSec, err = parseNumber(data[idx].Get("dwell_time_sec"), "dwell_time_sec")
		if err != nil {
			return nil, fmt.Errorf("parsing dwell %d: %w", idx, err)
		}

		dwells = append(dwells, dwell)
	}

	return dwells, nil
}

// ParseTravelTimes parses travel times from the provided json data.
func ParseTravelTimes(data []gjson.Result, loc *time.Location) ([]TravelTime, error) {
	travelTimes := make([]TravelTime, 0, len(data))

	for idx := range data {
		var travelTime TravelTime
		var err error

		travelTime.FromStopID = data[idx].Get("from_stop_id").String()
		travelTime.ToStopID = data[idx].Get("to_stop_id").String()
		travelTime.RouteID = data[idx].Get("route_id").String()
		travelTime.Direction = parseDirection(data[idx].Get("direction"))

		travelTime.DepDt, err = parseDatetimeField(data[idx].Get("dep_dt"), "dep_dt", loc)
		if err != nil {
			return nil, fmt.Errorf("parsing travel time %d: %w", idx, err)
		}
		travelTime.ArrDt, err = parseDatetimeField(data[idx].Get("arr_dt"), "arr_dt", loc)
		if err != nil {
			return nil, fmt.Errorf("parsing travel time %d: %w", idx, err)
		}
		travelTime.TravelTimeSec, err = parseNumber(data[idx].Get("travel_time_sec"), "travel_time_sec")
		if err != nil {
			return nil, fmt.Errorf("parsing travel time %d: %w", idx, err)
		}
		travelTime.BenchmarkTravelTimeSec, err = parseNumber(data[idx].Get("benchmark_travel_time_sec"),
			"benchmark_travel_time_sec")
		if err != nil {
			return nil, fmt.Errorf("parsing travel time %d: %w", idx, err)
		}

		travelTimes = append(travelTimes, travelTime)
	}

	return travelTimes, nil
}

// ParseShapes parses route shapes from the provided json data.
func ParseShapes(data []gjson.Result) []RawShape {
	shapes := make([]RawShape, 0, len(data))
	for idx := range data {
		shapes = append(shapes, RawShape{
			ID:       data[idx].Get("id").String(),
			RouteID:  data[idx].Get("route_id").String(),
			Polyline: data[idx].Get("polyline").String(),
		})
	}

	return shapes
}

// ParseStops parses stop platforms from the provided json data.
func ParseStops(data []gjson.Result) []RawStop {
	stops := make([]RawStop, 0, len(data))
	for idx := range data {
		stops = append(stops, RawStop{
			ID:        data[idx].Get("id").String(),
			RouteID:   data[idx].Get("route_id").String(),
			Name:      data[idx].Get("name").String(),
			Latitude:  data[idx].Get("latitude").Float(),
			Longitude: data[idx].Get("longitude").Float(),
		})
	}

	return stops
}
