package route

import (
	"fmt"
	"sync"

	"github.com/thebowwman/navplot/internals/domain"
	"github.com/thebowwman/navplot/internals/geomath"
)

// Route owns an ordered list of waypoints and the navigation data derived
// from it. Waypoints are identified by position; removing one shifts every
// later waypoint down by one. The derived result is recomputed before any
// mutator returns, so readers always see a consistent pair.
type Route struct {
	mu        sync.RWMutex
	waypoints []domain.Coordinate
	speed     float64
	result    *domain.NavigationResult
	version   uint64
}

// Snapshot is a point-in-time copy of a Route. Version increases with
// every successful mutation.
type Snapshot struct {
	Version    uint64                   `json:"version"`
	Waypoints  []domain.Coordinate      `json:"waypoints"`
	SpeedKnots float64                  `json:"speed_knots"`
	State      domain.RouteState        `json:"state"`
	Result     *domain.NavigationResult `json:"result,omitempty"`
}

func New(speedKnots float64) *Route {
	return &Route{speed: speedKnots}
}

func (r *Route) AddWaypoint(c domain.Coordinate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.waypoints = append(r.waypoints, c)
	r.changed()
}

func (r *Route) RemoveWaypoint(index int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.waypoints) {
		return fmt.Errorf("remove waypoint %d of %d: %w", index, len(r.waypoints), domain.ErrIndexOutOfRange)
	}
	r.waypoints = append(r.waypoints[:index], r.waypoints[index+1:]...)
	r.changed()
	return nil
}

func (r *Route) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.waypoints = nil
	r.changed()
}

// SetSpeed accepts any value; a non-positive speed leaves distances in place
// but drops the time estimate.
func (r *Route) SetSpeed(knots float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.speed = knots
	r.changed()
}

// SetFromGeolocation replaces the whole route with the single fix c.
func (r *Route) SetFromGeolocation(c domain.Coordinate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.waypoints = []domain.Coordinate{c}
	r.changed()
}

// SubmitManualPair appends a then b. Nothing is appended unless both are
// finite.
func (r *Route) SubmitManualPair(a, b domain.Coordinate) error {
	for _, c := range []domain.Coordinate{a, b} {
		if !c.IsFinite() {
			return fmt.Errorf("manual pair (%v, %v): %w", c.Lat, c.Lng, domain.ErrInvalidCoordinate)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.waypoints = append(r.waypoints, a, b)
	r.changed()
	return nil
}

// Recompute rebuilds the derived result from the current waypoints and
// speed. Every mutator already does this.
func (r *Route) Recompute() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recompute()
}

// changed must be called with r.mu held, after a successful mutation.
func (r *Route) changed() {
	r.version++
	r.recompute()
}

// recompute must be called with r.mu held.
func (r *Route) recompute() {
	n := len(r.waypoints)
	if n < 2 {
		r.result = nil
		return
	}

	res := &domain.NavigationResult{Segments: make([]domain.Segment, 0, n-1)}
	for i := 1; i < n; i++ {
		seg := geomath.DistanceAndBearing(r.waypoints[i-1], r.waypoints[i])
		res.Segments = append(res.Segments, seg)
		res.TotalDistanceNM += seg.NM
	}

	// Heading is only reported for a single-leg route.
	// TODO: decide whether longer routes should report the final leg's bearing.
	if n == 2 {
		h := res.Segments[0].BearingDeg
		res.HeadingDeg = &h
	}

	if eta, err := geomath.EstimatedTime(res.TotalDistanceNM, r.speed); err == nil {
		res.EstimatedTime = &eta
	}

	r.result = res
}

func (r *Route) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.waypoints)
}

func (r *Route) Speed() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.speed
}

func (r *Route) State() domain.RouteState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return stateFor(len(r.waypoints))
}

func stateFor(n int) domain.RouteState {
	switch n {
	case 0:
		return domain.StateEmpty
	case 1:
		return domain.StateSingle
	default:
		return domain.StateMulti
	}
}

func (r *Route) Waypoints() []domain.Coordinate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Coordinate(nil), r.waypoints...)
}

// Result returns nil while the route has fewer than two waypoints.
func (r *Route) Result() *domain.NavigationResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.result.Clone()
}

func (r *Route) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Snapshot{
		Version:    r.version,
		Waypoints:  append([]domain.Coordinate{}, r.waypoints...),
		SpeedKnots: r.speed,
		State:      stateFor(len(r.waypoints)),
		Result:     r.result.Clone(),
	}
}
