package shared

import (
	"fmt"
	"strings"
)

// DataCategory represents the kind of performance data being viewed.
type DataCategory int

const (
	HeadwayCategory DataCategory = iota
	DwellCategory
	TravelTimeCategory
)

// String stringifies the provided data category.
func (c DataCategory) String() string {
	switch c {
	case HeadwayCategory:
		return "Headway"
	case DwellCategory:
		return "Dwell"
	case TravelTimeCategory:
		return "Travel Time"
	default:
		return "unknown"
	}
}

// ParseDataCategory converts the provided string to a data category. Matching is case
// insensitive and accepts "traveltime" and "travel_time" for travel times.
func ParseDataCategory(str string) (DataCategory, error) {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "headway":
		return HeadwayCategory, nil
	case "dwell":
		return DwellCategory, nil
	case "travel time", "traveltime", "travel_time":
		return TravelTimeCategory, nil
	default:
		return 0, fmt.Errorf("invalid data category: %q", str)
	}
}

// SelectionMode represents how map selections are interpreted.
type SelectionMode int

const (
	Normal SelectionMode = iota
	Destination
)

// String stringifies the provided selection mode.
func (m SelectionMode) String() string {
	switch m {
	case Normal:
		return "Normal"
	case Destination:
		return "Destination"
	default:
		return "unknown"
	}
}

// LoadingMessage represents the progress message shown while data loads.
type LoadingMessage string

const (
	None     LoadingMessage = ""
	Caching  LoadingMessage = "Caching data if we need to, this may take up to a couple seconds..."
	Fetching LoadingMessage = "Fetching data..."
)
