package shared

// Stop represents a station. Platforms sharing a name are tracked as a single stop with
// multiple ids.
type Stop struct {
	IDs       []string
	RouteIDs  map[RouteID]struct{}
	Name      string
	Latitude  float64
	Longitude float64
}

// NewStop initializes a new stop served by the provided route.
func NewStop(id string, routeID RouteID, name string, latitude float64, longitude float64) *Stop {
	return &Stop{
		IDs:       []string{id},
		RouteIDs:  map[RouteID]struct{}{routeID: {}},
		Name:      name,
		Latitude:  latitude,
		Longitude: longitude,
	}
}

// HasRoute checks whether the stop is served by the provided route.
func (s *Stop) HasRoute(routeID RouteID) bool {
	_, ok := s.RouteIDs[routeID]
	return ok
}

// Merge adds the provided platform id and serving route to the stop.
func (s *Stop) Merge(id string, routeID RouteID) {
	s.IDs = append(s.IDs, id)
	if s.RouteIDs == nil {
		s.RouteIDs = make(map[RouteID]struct{})
	}
	s.RouteIDs[routeID] = struct{}{}
}

// Route represents a route along with its stops and decoded shapes.
type Route struct {
	ID      RouteID
	Visible bool
	Stops   []*Stop
	// LatLngs holds one decoded polyline per route shape.
	LatLngs [][][2]float64
}

// NewRoute initializes a new visible route with no stops or shapes.
func NewRoute(id RouteID) *Route {
	return &Route{
		ID:      id,
		Visible: true,
		Stops:   []*Stop{},
		LatLngs: [][][2]float64{},
	}
}

// RouteStop represents a stop selected on a specific route.
type RouteStop struct {
	Stop    *Stop
	RouteID RouteID
}

// StopIDs returns the platform ids of the selected stop.
func (rs *RouteStop) StopIDs() []string {
	if rs == nil || rs.Stop == nil {
		return nil
	}

	ids := make([]string, len(rs.Stop.IDs))
	copy(ids, rs.Stop.IDs)
	return ids
}

// RawShape represents a route shape as returned by the backend.
type RawShape struct {
	ID       string
	RouteID  string
	Polyline string
}

// RawStop represents a stop platform as returned by the backend.
type RawStop struct {
	ID        string
	RouteID   string
	Name      string
	Latitude  float64
	Longitude float64
}
