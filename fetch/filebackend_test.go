package fetch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dnldd/transitperf/shared"
	"github.com/peterldowns/testy/assert"
	"github.com/rs/zerolog/log"
)

func TestFileBackendConfigValidate(t *testing.T) {
	cfg := FileBackendConfig{}
	assert.Error(t, cfg.Validate())

	cfg = FileBackendConfig{FilePath: "../testdata/backend.json", Logger: &log.Logger}
	assert.NoError(t, cfg.Validate())
}

func TestFileBackend(t *testing.T) {
	// Ensure missing files error.
	_, err := NewFileBackend(&FileBackendConfig{FilePath: "../testdata/missing.json", Logger: &log.Logger})
	assert.Error(t, err)

	// Ensure invalid json errors.
	invalid := filepath.Join(t.TempDir(), "invalid.json")
	err = os.WriteFile(invalid, []byte(`{"shapes": [`), 0o600)
	assert.NoError(t, err)
	_, err = NewFileBackend(&FileBackendConfig{FilePath: invalid, Logger: &log.Logger})
	assert.Error(t, err)

	// Ensure malformed records error.
	malformed := filepath.Join(t.TempDir(), "malformed.json")
	err = os.WriteFile(malformed, []byte(`{"headways": [{"stop_id": "70061", "current_dep_dt": "yesterday"}]}`), 0o600)
	assert.NoError(t, err)
	_, err = NewFileBackend(&FileBackendConfig{FilePath: malformed, Logger: &log.Logger})
	assert.Error(t, err)

	backend, err := NewFileBackend(&FileBackendConfig{FilePath: "../testdata/backend.json", Logger: &log.Logger})
	assert.NoError(t, err)

	ctx := context.Background()

	shapes, err := backend.FetchShapes(ctx)
	assert.NoError(t, err)
	assert.Equal(t, len(shapes), 2)
	assert.Equal(t, shapes[0].RouteID, "Red")

	stops, err := backend.FetchStops(ctx)
	assert.NoError(t, err)
	assert.Equal(t, len(stops), 5)
	assert.Equal(t, stops[2].Name, "Davis")

	// Ensure headways are filtered by stop and route.
	assert.NoError(t, backend.CacheHeadways(ctx, []string{"70061"}, shared.Red))
	headways, err := backend.FetchHeadways(ctx, []string{"70061"}, shared.Red, shared.Window{})
	assert.NoError(t, err)
	assert.Equal(t, len(headways), 3)
	assert.Equal(t, headways[0].HeadwayTimeSec, float64(600))
	assert.False(t, headways[0].Direction)

	headways, err = backend.FetchHeadways(ctx, []string{"70038"}, shared.Red, shared.Window{})
	assert.NoError(t, err)
	assert.Equal(t, len(headways), 0)

	// Ensure headways are filtered by window.
	_, loc, err := shared.NewYorkTime()
	assert.NoError(t, err)
	window := shared.Window{
		Start: time.Date(2025, 2, 5, 0, 0, 0, 0, loc),
	}
	headways, err = backend.FetchHeadways(ctx, []string{"70061"}, shared.Red, window)
	assert.NoError(t, err)
	assert.Equal(t, len(headways), 1)
	assert.Equal(t, headways[0].HeadwayTimeSec, float64(300))

	window = shared.Window{
		End: time.Date(2025, 2, 4, 8, 10, 0, 0, loc),
	}
	headways, err = backend.FetchHeadways(ctx, []string{"70061"}, shared.Red, window)
	assert.NoError(t, err)
	assert.Equal(t, len(headways), 1)
	assert.Equal(t, headways[0].HeadwayTimeSec, float64(420))

	assert.NoError(t, backend.CacheDwells(ctx, []string{"70063", "70064"}, shared.Red))
	dwells, err := backend.FetchDwells(ctx, []string{"70063", "70064"}, shared.Red, shared.Window{})
	assert.NoError(t, err)
	assert.Equal(t, len(dwells), 2)
	assert.True(t, dwells[0].Direction)

	assert.NoError(t, backend.CacheTravelTimes(ctx, []string{"70061"}, []string{"70063", "70064"}, shared.Red))
	travelTimes, err := backend.FetchTravelTimes(ctx, []string{"70061"}, []string{"70063", "70064"}, shared.Red, shared.Window{})
	assert.NoError(t, err)
	assert.Equal(t, len(travelTimes), 1)
	assert.Equal(t, travelTimes[0].BenchmarkTravelTimeSec, float64(180))

	// Ensure cancelled contexts error.
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = backend.FetchShapes(cancelled)
	assert.Error(t, err)
	assert.Error(t, backend.CacheHeadways(cancelled, []string{"70061"}, shared.Red))
}
