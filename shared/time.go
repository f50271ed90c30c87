package shared

import (
	"fmt"
	"time"
)

const (
	// NewYorkLocation is the civil timezone all performance data is reported in.
	NewYorkLocation = "America/New_York"
	// MaxDays is the number of days of history the backend keeps.
	MaxDays = 30
	// DateLayout is the format layout for zone-less backend datetimes.
	DateLayout = "2006-01-02 15:04:05"
	// DisplayLayout is the format layout for presenting datetimes.
	DisplayLayout = "Mon Jan 02 15:04"
	// MinDatetimeYear and MaxDatetimeYear bound the accepted backend datetimes in UTC.
	MinDatetimeYear = 1970
	MaxDatetimeYear = 2200
)

// NewYorkTime returns the current time in new york (EST/EDT adjusted automatically).
func NewYorkTime() (time.Time, *time.Location, error) {
	loc, err := time.LoadLocation(NewYorkLocation)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("loading new york timezone: %w", err)
	}

	now := time.Now().In(loc)
	return now, loc, nil
}

// ChunkAnchor returns the start boundary for chunking, midnight in new york MaxDays days
// before the provided time.
func ChunkAnchor(now time.Time) (time.Time, error) {
	loc, err := time.LoadLocation(NewYorkLocation)
	if err != nil {
		return time.Time{}, fmt.Errorf("loading new york timezone: %w", err)
	}

	local := now.In(loc)
	year, month, day := local.Date()
	return time.Date(year, month, day-MaxDays, 0, 0, 0, 0, loc), nil
}
