package shared

import (
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/tidwall/gjson"
)

func TestParseDatetime(t *testing.T) {
	loc, err := time.LoadLocation(NewYorkLocation)
	assert.NoError(t, err)

	tests := []struct {
		name    string
		value   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "rfc3339",
			value: "2025-02-04T15:05:00Z",
			want:  time.Date(2025, 2, 4, 15, 5, 0, 0, time.UTC),
		},
		{
			name:  "rfc3339 with offset",
			value: "2025-02-04T15:05:00-05:00",
			want:  time.Date(2025, 2, 4, 15, 5, 0, 0, loc),
		},
		{
			name:  "zone-less datetime",
			value: "2025-02-04 15:05:00",
			want:  time.Date(2025, 2, 4, 15, 5, 0, 0, loc),
		},
		{
			name:  "zone-less iso datetime",
			value: "2025-02-04T15:05:00",
			want:  time.Date(2025, 2, 4, 15, 5, 0, 0, loc),
		},
		{
			name:  "unix seconds",
			value: "1738699500",
			want:  time.Unix(1738699500, 0),
		},
		{
			name:    "empty",
			value:   "",
			wantErr: true,
		},
		{
			name:    "garbage",
			value:   "yesterday",
			wantErr: true,
		},
		{
			name:  "unix epoch",
			value: "0",
			want:  time.Unix(0, 0),
		},
		{
			name:    "zero rfc3339",
			value:   "0001-01-01T00:00:00Z",
			wantErr: true,
		},
		{
			name:    "zone-less datetime before the epoch",
			value:   "1901-12-13 20:45:52",
			wantErr: true,
		},
		{
			name:    "far future unix seconds",
			value:   "253402300799",
			wantErr: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			dt, err := ParseDatetime(test.value, loc)
			if test.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.True(t, dt.Equal(test.want))
		})
	}
}

func TestParseHeadways(t *testing.T) {
	loc, err := time.LoadLocation(NewYorkLocation)
	assert.NoError(t, err)

	data := `[{"stop_id":"70061","route_id":"Red","prev_route_id":"Red","direction":"true",
		"current_dep_dt":"2025-02-04 15:05:00","previous_dep_dt":"2025-02-04 14:58:00",
		"headway_time_sec":"420","benchmark_headway_time_sec":"360.5"},
		{"stop_id":"70062","route_id":"Red","prev_route_id":"Red","direction":"false",
		"current_dep_dt":"2025-02-04 15:15:00","previous_dep_dt":"2025-02-04 15:05:00",
		"headway_time_sec":600,"benchmark_headway_time_sec":null}]`

	// Ensure headways can be parsed.
	headways, err := ParseHeadways(gjson.Parse(data).Array(), loc)
	assert.NoError(t, err)
	assert.Equal(t, len(headways), 2)
	assert.Equal(t, headways[0].StopID, "70061")
	assert.Equal(t, headways[0].RouteID, "Red")
	assert.Equal(t, headways[0].PrevRouteID, "Red")
	assert.True(t, headways[0].Direction)
	assert.True(t, headways[0].CurrentDepDt.Equal(time.Date(2025, 2, 4, 15, 5, 0, 0, loc)))
	assert.True(t, headways[0].PreviousDepDt.Equal(time.Date(2025, 2, 4, 14, 58, 0, 0, loc)))
	assert.Equal(t, headways[0].HeadwayTimeSec, float64(420))
	assert.Equal(t, headways[0].BenchmarkHeadwayTimeSec, 360.5)
	assert.False(t, headways[1].Direction)
	assert.Equal(t, headways[1].HeadwayTimeSec, float64(600))
	assert.Equal(t, headways[1].BenchmarkHeadwayTimeSec, float64(0))

	// Ensure malformed values error.
	malformed := `[{"stop_id":"70061","current_dep_dt":"nope","previous_dep_dt":"2025-02-04 14:58:00"}]`
	_, err = ParseHeadways(gjson.Parse(malformed).Array(), loc)
	assert.Error(t, err)

	malformed = `[{"stop_id":"70061","current_dep_dt":"2025-02-04 15:05:00",
		"previous_dep_dt":"2025-02-04 14:58:00","headway_time_sec":"abc"}]`
	_, err = ParseHeadways(gjson.Parse(malformed).Array(), loc)
	assert.Error(t, err)
}

func TestParseDwells(t *testing.T) {
	loc, err := time.LoadLocation(NewYorkLocation)
	assert.NoError(t, err)

	data := `[{"stop_id":"70061","route_id":"Red","direction":"1","arr_dt":"2025-02-04 15:05:00",
		"dep_dt":"2025-02-04 15:06:10","dwell_time_sec":"70"}]`

	dwells, err := ParseDwells(gjson.Parse(data).Array(), loc)
	assert.NoError(t, err)
	assert.Equal(t, len(dwells), 1)
	assert.Equal(t, dwells[0].StopID, "70061")
	assert.True(t, dwells[0].Direction)
	assert.True(t, dwells[0].ArrDt.Equal(time.Date(2025, 2, 4, 15, 5, 0, 0, loc)))
	assert.True(t, dwells[0].DepDt.Equal(time.Date(2025, 2, 4, 15, 6, 10, 0, loc)))
	assert.Equal(t, dwells[0].DwellTimeSec, float64(70))

	// Ensure a missing datetime errors.
	_, err = ParseDwells(gjson.Parse(`[{"stop_id":"70061","dep_dt":"2025-02-04 15:06:10"}]`).Array(), loc)
	assert.Error(t, err)
}

func TestParseTravelTimes(t *testing.T) {
	loc, err := time.LoadLocation(NewYorkLocation)
	assert.NoError(t, err)

	data := `[{"from_stop_id":"70061","to_stop_id":"70105","route_id":"Red","direction":"false",
		"dep_dt":"2025-02-04 15:05:00","arr_dt":"2025-02-04 15:40:00","travel_time_sec":"2100",
		"benchmark_travel_time_sec":"1980"}]`

	travelTimes, err := ParseTravelTimes(gjson.Parse(data).Array(), loc)
	assert.NoError(t, err)
	assert.Equal(t, len(travelTimes), 1)
	assert.Equal(t, travelTimes[0].FromStopID, "70061")
	assert.Equal(t, travelTimes[0].ToStopID, "70105")
	assert.Equal(t, travelTimes[0].RouteID, "Red")
	assert.False(t, travelTimes[0].Direction)
	assert.True(t, travelTimes[0].DepDt.Equal(time.Date(2025, 2, 4, 15, 5, 0, 0, loc)))
	assert.True(t, travelTimes[0].ArrDt.Equal(time.Date(2025, 2, 4, 15, 40, 0, 0, loc)))
	assert.Equal(t, travelTimes[0].TravelTimeSec, float64(2100))
	assert.Equal(t, travelTimes[0].BenchmarkTravelTimeSec, float64(1980))
}

func TestParseMapData(t *testing.T) {
	shapes := ParseShapes(gjson.Parse(`[{"id":"931_0009","route_id":"Red","polyline":"_p~iF~ps|U"}]`).Array())
	assert.Equal(t, len(shapes), 1)
	assert.Equal(t, shapes[0].ID, "931_0009")
	assert.Equal(t, shapes[0].RouteID, "Red")
	assert.Equal(t, shapes[0].Polyline, "_p~iF~ps|U")

	stops := ParseStops(gjson.Parse(`[{"id":"70061","route_id":"Red","name":"Alewife",
		"latitude":42.395428,"longitude":-71.142483}]`).Array())
	assert.Equal(t, len(stops), 1)
	assert.Equal(t, stops[0].ID, "70061")
	assert.Equal(t, stops[0].Name, "Alewife")
	assert.Equal(t, stops[0].Latitude, 42.395428)
	assert.Equal(t, stops[0].Longitude, -71.142483)
}
