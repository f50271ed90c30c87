package shared

import (
	"fmt"
)

// RouteID represents a rapid transit route.
type RouteID string

const (
	Red      RouteID = "Red"
	Mattapan RouteID = "Mattapan"
	Orange   RouteID = "Orange"
	GreenB   RouteID = "Green-B"
	GreenC   RouteID = "Green-C"
	GreenD   RouteID = "Green-D"
	GreenE   RouteID = "Green-E"
	Blue     RouteID = "Blue"
)

// RouteIDs returns all tracked routes in display order.
func RouteIDs() []RouteID {
	return []RouteID{Red, Mattapan, Orange, GreenB, GreenC, GreenD, GreenE, Blue}
}

// ParseRouteID converts the provided string to a route id.
func ParseRouteID(str string) (RouteID, error) {
	switch RouteID(str) {
	case Red, Mattapan, Orange, GreenB, GreenC, GreenD, GreenE, Blue:
		return RouteID(str), nil
	default:
		return "", fmt.Errorf("invalid route id: %q", str)
	}
}

// String stringifies the provided route id.
func (r RouteID) String() string {
	return string(r)
}

// Color returns the hex color associated with the route.
func (r RouteID) Color() string {
	switch r {
	case Red, Mattapan:
		return "#d20f39"
	case Orange:
		return "#fe640b"
	case GreenB, GreenC, GreenD, GreenE:
		return "#40a02b"
	case Blue:
		return "#1e66f5"
	default:
		return ""
	}
}
