package shared

import (
	"math"
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/peterldowns/testy/assert"
)

type sample struct {
	at    time.Time
	value float64
}

func sampleTime(s sample) time.Time { return s.at }
func sampleValue(s sample) float64 { return s.value }
func newSample(at time.Time, v float64) sample { return sample{at: at, value: v} }

func TestChunkAnchor(t *testing.T) {
	loc, err := time.LoadLocation(NewYorkLocation)
	assert.NoError(t, err)

	now := time.Date(2025, 3, 15, 22, 30, 0, 0, loc)
	anchor, err := ChunkAnchor(now)
	assert.NoError(t, err)

	// Ensure the anchor is new york midnight, 30 days prior.
	assert.Equal(t, anchor.Year(), 2025)
	assert.Equal(t, anchor.Month(), time.February)
	assert.Equal(t, anchor.Day(), 13)
	assert.Equal(t, anchor.Hour(), 0)
	assert.Equal(t, anchor.Minute(), 0)
	assert.Equal(t, anchor.Location().String(), NewYorkLocation)

	// Ensure utc inputs are converted to new york before truncation.
	utcNow := time.Date(2025, 3, 16, 2, 0, 0, 0, time.UTC)
	anchor, err = ChunkAnchor(utcNow)
	assert.NoError(t, err)
	assert.Equal(t, anchor.Day(), 13)
}

func TestPeriodDuration(t *testing.T) {
	period, err := PeriodDuration(16)
	assert.NoError(t, err)
	assert.Equal(t, period, 16*time.Hour)

	_, err = PeriodDuration(0)
	assert.Error(t, err)

	_, err = PeriodDuration(-4)
	assert.Error(t, err)
}

func TestCalculateChunks(t *testing.T) {
	anchor := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	period := time.Hour * 4

	tests := []struct {
		name  string
		data  []sample
		sizes []int
	}{
		{
			name:  "empty input",
			data:  []sample{},
			sizes: []int{},
		},
		{
			name:  "single entry",
			data:  []sample{newSample(anchor.Add(time.Minute), 1)},
			sizes: []int{1},
		},
		{
			name: "entries in one window",
			data: []sample{
				newSample(anchor, 1),
				newSample(anchor.Add(time.Hour), 2),
				newSample(anchor.Add(time.Hour*3+time.Minute*59), 3),
			},
			sizes: []int{3},
		},
		{
			name: "window end is exclusive",
			data: []sample{
				newSample(anchor.Add(time.Hour), 1),
				newSample(anchor.Add(period), 2),
			},
			sizes: []int{1, 1},
		},
		{
			name: "empty windows are skipped",
			data: []sample{
				newSample(anchor.Add(time.Hour), 1),
				newSample(anchor.Add(time.Hour*2), 2),
				newSample(anchor.Add(time.Hour*13), 3),
				newSample(anchor.Add(time.Hour*14), 4),
				newSample(anchor.Add(time.Hour*30), 5),
			},
			sizes: []int{2, 2, 1},
		},
		{
			name: "entries before the anchor",
			data: []sample{
				newSample(anchor.Add(-time.Hour*5), 1),
				newSample(anchor.Add(-time.Hour*4), 2),
				newSample(anchor.Add(-time.Hour), 3),
				newSample(anchor.Add(time.Hour), 4),
			},
			sizes: []int{1, 2, 1},
		},
		{
			name: "entries centuries before the anchor",
			data: []sample{
				newSample(time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC), 1),
				newSample(time.Date(1, 1, 1, 1, 0, 0, 0, time.UTC), 2),
				newSample(time.Date(1, 1, 1, 4, 0, 0, 0, time.UTC), 3),
				newSample(anchor.Add(time.Hour), 4),
			},
			sizes: []int{2, 1, 1},
		},
		{
			name: "entries centuries after the anchor",
			data: []sample{
				newSample(anchor.Add(time.Hour), 1),
				newSample(time.Date(2900, 1, 1, 2, 0, 0, 0, time.UTC), 2),
				newSample(time.Date(2900, 1, 1, 3, 0, 0, 0, time.UTC), 3),
				newSample(time.Date(2900, 1, 1, 4, 0, 0, 0, time.UTC), 4),
			},
			sizes: []int{1, 2, 1},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			chunks := CalculateChunks(test.data, sampleTime, period, anchor)
			sizes := make([]int, 0, len(chunks))
			total := 0
			for idx := range chunks {
				sizes = append(sizes, len(chunks[idx]))
				total += len(chunks[idx])
			}

			if !cmp.Equal(sizes, test.sizes) {
				t.Errorf("%s: mismatching chunk sizes, got %v", test.name, cmp.Diff(sizes, test.sizes))
			}

			// Ensure every entry is assigned to a chunk.
			assert.Equal(t, total, len(test.data))

			// Ensure chunks preserve input order.
			var prev time.Time
			for idx := range chunks {
				for jdx := range chunks[idx] {
					at := chunks[idx][jdx].at
					assert.False(t, at.Before(prev))
					prev = at
				}
			}
		})
	}

	// Ensure a non-positive period yields no chunks.
	chunks := CalculateChunks([]sample{newSample(anchor, 1)}, sampleTime, 0, anchor)
	assert.Equal(t, len(chunks), 0)
}

// windowIndex returns the index of the period window containing dt relative to the anchor.
func windowIndex(dt time.Time, anchor time.Time, period time.Duration) int64 {
	span := dt.Sub(anchor)
	idx := int64(span / period)
	if span%period < 0 {
		idx--
	}
	return idx
}

func TestCalculateChunksRandomSeries(t *testing.T) {
	anchor := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 500; run++ {
		period := time.Duration(1+rng.Intn(48)) * time.Hour
		data := make([]sample, rng.Intn(64))
		for idx := range data {
			offset := time.Duration(rng.Int63n(int64(time.Hour*24*60))) - time.Hour*24*20
			data[idx] = newSample(anchor.Add(offset), float64(idx))
		}
		sort.Slice(data, func(i, j int) bool { return data[i].at.Before(data[j].at) })

		chunks := CalculateChunks(data, sampleTime, period, anchor)

		// Ensure every entry is chunked once and each chunk stays within one window.
		total := 0
		prevWindow := int64(math.MinInt64)
		for _, chunk := range chunks {
			assert.NotEqual(t, len(chunk), 0)
			total += len(chunk)

			window := windowIndex(chunk[0].at, anchor, period)
			assert.True(t, window > prevWindow)
			for _, entry := range chunk {
				assert.Equal(t, windowIndex(entry.at, anchor, period), window)
			}
			prevWindow = window
		}
		assert.Equal(t, total, len(data))
	}
}

func TestCalculateCandlesticks(t *testing.T) {
	anchor := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	period := time.Hour * 16

	// Ensure empty input returns an empty set.
	candles := CalculateCandlesticks([]sample{}, sampleTime, sampleValue, period, anchor)
	assert.NotNil(t, candles)
	assert.Equal(t, len(candles), 0)

	// Ensure a single entry chunk has identical open, high, low and close.
	single := []sample{newSample(anchor.Add(time.Hour), 312.456)}
	candles = CalculateCandlesticks(single, sampleTime, sampleValue, period, anchor)
	assert.Equal(t, len(candles), 1)
	assert.Equal(t, candles[0].Y, [4]float64{312.46, 312.46, 312.46, 312.46})
	assert.Equal(t, candles[0].X, anchor.Add(time.Hour).Unix())

	// Ensure open, high, low and close are computed per chunk.
	data := []sample{
		newSample(anchor.Add(time.Hour), 300),
		newSample(anchor.Add(time.Hour*2), 0),
		newSample(anchor.Add(time.Hour*3), 540.556),
		newSample(anchor.Add(time.Hour*4), 420),
		newSample(anchor.Add(time.Hour*17), 60),
		newSample(anchor.Add(time.Hour*18), 90),
	}
	candles = CalculateCandlesticks(data, sampleTime, sampleValue, period, anchor)
	expected := []CandlestickPoint{
		{X: anchor.Add(time.Hour).Unix(), Y: [4]float64{300, 540.56, 0, 420}},
		{X: anchor.Add(time.Hour * 17).Unix(), Y: [4]float64{60, 90, 60, 90}},
	}
	if !cmp.Equal(candles, expected) {
		t.Errorf("mismatching candlesticks, got %v", cmp.Diff(candles, expected))
	}

	assert.Equal(t, candles[0].Open(), float64(300))
	assert.Equal(t, candles[0].High(), 540.56)
	assert.Equal(t, candles[0].Low(), float64(0))
	assert.Equal(t, candles[0].Close(), float64(420))

	// Ensure candlestick timestamps are non-decreasing.
	for idx := 1; idx < len(candles); idx++ {
		assert.True(t, candles[idx].X >= candles[idx-1].X)
	}
}

func TestCalculateAverages(t *testing.T) {
	anchor := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	period := time.Hour * 8

	// Ensure empty input returns an empty set.
	averages := CalculateAverages([]sample{}, sampleTime, sampleValue, period, anchor)
	assert.NotNil(t, averages)
	assert.Equal(t, len(averages), 0)

	data := []sample{
		newSample(anchor.Add(time.Minute), 100),
		newSample(anchor.Add(time.Minute*2), 200),
		newSample(anchor.Add(time.Minute*3), 250),
		newSample(anchor.Add(time.Hour*9), 10),
		newSample(anchor.Add(time.Hour*10), 11),
		newSample(anchor.Add(time.Hour*11), 11),
	}
	averages = CalculateAverages(data, sampleTime, sampleValue, period, anchor)
	assert.Equal(t, len(averages), 2)
	assert.Equal(t, averages[0].X, anchor.Add(time.Minute).Unix())
	assert.Equal(t, averages[0].Y, 183.33)
	assert.Equal(t, averages[1].X, anchor.Add(time.Hour*9).Unix())
	assert.Equal(t, averages[1].Y, 10.67)

	// Ensure averages match a naive recomputation of each chunk.
	chunks := CalculateChunks(data, sampleTime, period, anchor)
	assert.Equal(t, len(chunks), len(averages))
	for idx := range chunks {
		var sum float64
		for jdx := range chunks[idx] {
			sum += chunks[idx][jdx].value
		}
		naive := sum / float64(len(chunks[idx]))
		assert.True(t, math.Abs(naive-averages[idx].Y) <= 0.005)
	}
}
