package shared

import (
	"errors"
	"math"
	"time"
)

// ErrInvalidPeriod is returned when a chunking period is not positive.
var ErrInvalidPeriod = errors.New("chunk period must be positive")

// CandlestickPoint represents the open, high, low and close values of a chunk.
type CandlestickPoint struct {
	// X is the unix timestamp of the first entry of the chunk.
	X int64
	// Y holds the open, high, low and close values in that order.
	Y [4]float64
}

// Open returns the chunk's opening value.
func (p *CandlestickPoint) Open() float64 { return p.Y[0] }

// High returns the chunk's highest value.
func (p *CandlestickPoint) High() float64 { return p.Y[1] }

// Low returns the chunk's lowest value.
func (p *CandlestickPoint) Low() float64 { return p.Y[2] }

// Close returns the chunk's closing value.
func (p *CandlestickPoint) Close() float64 { return p.Y[3] }

// AveragePoint represents the mean value of a chunk.
type AveragePoint struct {
	// X is the unix timestamp of the first entry of the chunk.
	X int64
	Y float64
}

// PeriodDuration converts a period in hours to a duration.
func PeriodDuration(hours int) (time.Duration, error) {
	if hours <= 0 {
		return 0, ErrInvalidPeriod
	}

	return time.Duration(hours) * time.Hour, nil
}

// round2 rounds the provided value to two decimal places.
func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

// maxSteps returns the largest number of periods a duration can hold.
func maxSteps(period time.Duration) time.Duration {
	return time.Duration(math.MaxInt64) / period
}

// alignBefore moves start back by whole periods until it is not after dt.
func alignBefore(start time.Time, dt time.Time, period time.Duration) time.Time {
	for start.After(dt) {
		// Sub saturates for spans beyond the duration range, steps are clamped accordingly.
		span := start.Sub(dt)
		steps := span / period
		if span%period != 0 {
			steps++
		}
		steps = min(steps, maxSteps(period))
		start = start.Add(-steps * period)
	}

	return start
}

// alignAfter moves start forward by whole periods until dt falls within [start, start+period).
func alignAfter(start time.Time, dt time.Time, period time.Duration) time.Time {
	for !dt.Before(start.Add(period)) {
		steps := min(dt.Sub(start)/period, maxSteps(period))
		start = start.Add(steps * period)
	}

	return start
}

// CalculateChunks partitions the provided time ordered data into consecutive windows of
// the provided period starting at the anchor. Windows are [start, start+period) and only
// non-empty windows are returned. Entries preceding the anchor move it back by whole periods.
// The data is expected to be sorted ascending by extracted time.
func CalculateChunks[T any](data []T, x func(T) time.Time, period time.Duration, anchor time.Time) [][]T {
	chunks := [][]T{}
	if len(data) == 0 || period <= 0 {
		return chunks
	}

	start := alignBefore(anchor, x(data[0]), period)
	end := start.Add(period)

	var current []T
	for idx := range data {
		dt := x(data[idx])
		if !dt.Before(end) {
			if len(current) > 0 {
				chunks = append(chunks, current)
				current = nil
			}

			// Skip ahead to the window containing the entry.
			start = alignAfter(start, dt, period)
			end = start.Add(period)
		}

		current = append(current, data[idx])
	}

	if len(current) > 0 {
		chunks = append(chunks, current)
	}

	return chunks
}

// CalculateCandlesticks computes a candlestick point for every chunk of the provided data.
func CalculateCandlesticks[T any](data []T, x func(T) time.Time, y func(T) float64, period time.Duration, anchor time.Time) []CandlestickPoint {
	chunks := CalculateChunks(data, x, period, anchor)
	candlesticks := make([]CandlestickPoint, 0, len(chunks))

	for _, chunk := range chunks {
		open := y(chunk[0])
		last := y(chunk[len(chunk)-1])
		high := open
		low := open

		for idx := range chunk {
			value := y(chunk[idx])
			high = math.Max(high, value)
			low = math.Min(low, value)
		}

		candlesticks = append(candlesticks, CandlestickPoint{
			X: x(chunk[0]).Unix(),
			Y: [4]float64{round2(open), round2(high), round2(low), round2(last)},
		})
	}

	return candlesticks
}

// CalculateAverages computes the mean value for every chunk of the provided data.
func CalculateAverages[T any](data []T, x func(T) time.Time, y func(T) float64, period time.Duration, anchor time.Time) []AveragePoint {
	chunks := CalculateChunks(data, x, period, anchor)
	averages := make([]AveragePoint, 0, len(chunks))

	for _, chunk := range chunks {
		var sum float64
		for idx := range chunk {
			sum += y(chunk[idx])
		}

		averages = append(averages, AveragePoint{
			X: x(chunk[0]).Unix(),
			Y: round2(sum / float64(len(chunk))),
		})
	}

	return averages
}
