package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/thebowwman/navplot/internals/domain"
	"github.com/thebowwman/navplot/internals/geomath"
	"github.com/thebowwman/navplot/internals/route"
)

// Event types accepted from the map front end.
const (
	evMapClick           = "map_click"
	evGeolocationRequest = "geolocation_request"
	evGeolocationFix     = "geolocation_fix"
	evManualSubmit       = "manual_submit"
	evRemoveWaypoint     = "remove_waypoint"
	evClear              = "clear"
	evSetSpeed           = "set_speed"
)

var (
	errBadCoords    = errors.New("bad coords")
	errMissingField = errors.New("missing field")
	errUnknownEvent = errors.New("unknown event")
	errReadOnly     = errors.New("viewers cannot edit the route")
)

// inputEvent is one user action. Manual coordinates arrive as the raw
// strings typed into the form.
type inputEvent struct {
	Type       string   `json:"type"`
	Lat        *float64 `json:"lat,omitempty"`
	Lng        *float64 `json:"lng,omitempty"`
	LatA       string   `json:"lat_a,omitempty"`
	LngA       string   `json:"lng_a,omitempty"`
	LatB       string   `json:"lat_b,omitempty"`
	LngB       string   `json:"lng_b,omitempty"`
	Index      *int     `json:"index,omitempty"`
	SpeedKnots *float64 `json:"speed_knots,omitempty"`
}

func (ev inputEvent) coordinate() (domain.Coordinate, error) {
	if ev.Lat == nil || ev.Lng == nil {
		return domain.Coordinate{}, fmt.Errorf("lat and lng: %w", errMissingField)
	}
	c := domain.Coordinate{Lat: *ev.Lat, Lng: *ev.Lng}
	if !c.IsValid() {
		return domain.Coordinate{}, fmt.Errorf("(%v, %v): %w", c.Lat, c.Lng, errBadCoords)
	}
	return c, nil
}

// applyEvent performs ev against rt. On error the route is left as it was.
func applyEvent(rt *route.Route, ev inputEvent) error {
	switch ev.Type {
	case evMapClick:
		c, err := ev.coordinate()
		if err != nil {
			return err
		}
		rt.AddWaypoint(c)

	case evGeolocationFix:
		c, err := ev.coordinate()
		if err != nil {
			return err
		}
		rt.SetFromGeolocation(c)

	case evManualSubmit:
		a, err := geomath.ParseCoordinate(ev.LatA, ev.LngA)
		if err != nil {
			return fmt.Errorf("first point: %w", err)
		}
		b, err := geomath.ParseCoordinate(ev.LatB, ev.LngB)
		if err != nil {
			return fmt.Errorf("second point: %w", err)
		}
		return rt.SubmitManualPair(a, b)

	case evRemoveWaypoint:
		if ev.Index == nil {
			return fmt.Errorf("index: %w", errMissingField)
		}
		return rt.RemoveWaypoint(*ev.Index)

	case evClear:
		rt.Clear()

	case evSetSpeed:
		if ev.SpeedKnots == nil {
			return fmt.Errorf("speed_knots: %w", errMissingField)
		}
		rt.SetSpeed(*ev.SpeedKnots)

	default:
		return fmt.Errorf("%q: %w", ev.Type, errUnknownEvent)
	}

	return nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidCoordinate):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrIndexOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, errReadOnly):
		return http.StatusForbidden
	case errors.Is(err, errBadCoords), errors.Is(err, errMissingField), errors.Is(err, errUnknownEvent):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
