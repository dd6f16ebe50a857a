package geomath

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/thebowwman/navplot/internals/domain"
)

const (
	EarthRadiusKM = 6371
	// KMToNM is kept as the fixed multiplier rather than 1/1.852 so results
	// stay bit-compatible with existing route readouts.
	KMToNM = 0.539956803
)

func radians(d float64) float64 { return d / 180 * math.Pi }
func degrees(r float64) float64 { return r * 180 / math.Pi }

// DistanceAndBearing returns the great-circle leg from a to b using the
// spherical law of cosines, along with the initial bearing in [0, 360).
// Inputs are not range-checked; out-of-range coordinates give a defined but
// meaningless result.
func DistanceAndBearing(a, b domain.Coordinate) domain.Segment {
	if a == b {
		return domain.Segment{}
	}

	latA, latB := radians(a.Lat), radians(b.Lat)
	dLng := radians(b.Lng - a.Lng)

	// acos is only defined on [-1,1]; near-identical points can land just
	// outside it.
	x := math.Sin(latA)*math.Sin(latB) + math.Cos(latA)*math.Cos(latB)*math.Cos(dLng)
	x = math.Max(-1, math.Min(1, x))
	km := EarthRadiusKM * math.Acos(x)

	y := math.Sin(dLng) * math.Cos(latB)
	z := math.Cos(latA)*math.Sin(latB) - math.Sin(latA)*math.Cos(latB)*math.Cos(dLng)
	var bearing float64
	if y != 0 || z != 0 {
		bearing = NormalizeBearing(degrees(math.Atan2(y, z)))
	}

	return domain.Segment{KM: km, NM: km * KMToNM, BearingDeg: bearing}
}

// EstimatedTime returns how long covering distanceNM takes at speedKnots.
// Minutes are rounded; a rounded value of 60 carries into the hours.
func EstimatedTime(distanceNM, speedKnots float64) (domain.ETA, error) {
	if !(speedKnots > 0) || math.IsInf(speedKnots, 0) {
		return domain.ETA{}, fmt.Errorf("estimated time at %v knots: %w", speedKnots, domain.ErrDivisionUndefined)
	}

	t := distanceNM / speedKnots
	hours := math.Floor(t)
	minutes := math.Round((t - hours) * 60)
	if minutes >= 60 {
		hours++
		minutes = 0
	}
	return domain.ETA{Hours: int(hours), Minutes: int(minutes)}, nil
}

// NormalizeBearing maps any angle in degrees into [0, 360).
func NormalizeBearing(b float64) float64 {
	b = math.Mod(b, 360)
	if b < 0 {
		b += 360
	}
	if b >= 360 {
		b = 0
	}
	return b
}

// Round2 rounds to two decimal digits, the precision of every readout.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// RoundBearing is Round2 for bearings, keeping 359.996 from reading as 360.
func RoundBearing(b float64) float64 {
	r := Round2(b)
	if r >= 360 {
		r -= 360
	}
	return r
}

// Compass converts a bearing into the closest of the eight compass
// directions.
func Compass(bearing float64) string {
	h := NormalizeBearing(bearing + 22.5) // now [0,45) is north, etc...
	idx := int(h / 45)
	return [...]string{"North", "Northeast", "East", "Southeast",
		"South", "Southwest", "West", "Northwest"}[idx]
}

// ParseCoordinate parses latitude and longitude as typed into a form.
func ParseCoordinate(lat, lng string) (domain.Coordinate, error) {
	parse := func(name, s string) (float64, error) {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%s %q: %w", name, s, domain.ErrInvalidCoordinate)
		}
		return v, nil
	}

	la, err := parse("latitude", lat)
	if err != nil {
		return domain.Coordinate{}, err
	}
	lo, err := parse("longitude", lng)
	if err != nil {
		return domain.Coordinate{}, err
	}
	return domain.Coordinate{Lat: la, Lng: lo}, nil
}
