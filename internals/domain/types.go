package domain

import (
	"errors"
	"math"
)

var (
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	ErrIndexOutOfRange   = errors.New("waypoint index out of range")
	ErrDivisionUndefined = errors.New("speed must be positive")
)

// Coordinate is a point on the Earth in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// IsFinite reports whether both components are real numbers.
func (c Coordinate) IsFinite() bool {
	return !math.IsNaN(c.Lat) && !math.IsNaN(c.Lng) && !math.IsInf(c.Lat, 0) && !math.IsInf(c.Lng, 0)
}

func (c Coordinate) IsValid() bool {

	return c.IsFinite() && c.Lat <= 90 && c.Lat >= -90 && c.Lng <= 180 && c.Lng >= -180

}

// Segment is the leg between two consecutive waypoints.
type Segment struct {
	KM         float64 `json:"km"`
	NM         float64 `json:"nm"`
	BearingDeg float64 `json:"bearing_deg"`
}

type ETA struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

// NavigationResult is only produced for routes with two or more waypoints.
// Heading and EstimatedTime are nil when undefined.
type NavigationResult struct {
	TotalDistanceNM float64   `json:"total_distance_nm"`
	Segments        []Segment `json:"segments"`
	HeadingDeg      *float64  `json:"heading_deg,omitempty"`
	EstimatedTime   *ETA      `json:"estimated_time,omitempty"`
}

// Clone returns a deep copy so callers never share the owner's slices.
func (r *NavigationResult) Clone() *NavigationResult {
	if r == nil {
		return nil
	}
	c := &NavigationResult{
		TotalDistanceNM: r.TotalDistanceNM,
		Segments:        append([]Segment(nil), r.Segments...),
	}
	if r.HeadingDeg != nil {
		h := *r.HeadingDeg
		c.HeadingDeg = &h
	}
	if r.EstimatedTime != nil {
		t := *r.EstimatedTime
		c.EstimatedTime = &t
	}
	return c
}

type RouteState string

const (
	StateEmpty  RouteState = "empty"
	StateSingle RouteState = "single"
	StateMulti  RouteState = "multi"
)

const DefaultSpeedKnots = 5.0
