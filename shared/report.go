package shared

import (
	"time"
)

// Report represents the computed statistics for a station selection.
type Report struct {
	ID              string
	Category        DataCategory
	RouteID         RouteID
	StopName        string
	DestinationName string
	PeriodHours     int
	// Entries is the number of records the statistics were computed from.
	Entries      int
	Candlesticks []CandlestickPoint
	Averages     []AveragePoint
	// Benchmarks holds the averaged benchmark values, empty for categories without one.
	Benchmarks []AveragePoint
	CreatedOn  time.Time
}

// Title returns a human readable description of the report.
func (r *Report) Title() string {
	switch {
	case r.DestinationName != "":
		return r.Category.String() + " " + r.StopName + " -> " + r.DestinationName + " (" + r.RouteID.String() + ")"
	default:
		return r.Category.String() + " " + r.StopName + " (" + r.RouteID.String() + ")"
	}
}
