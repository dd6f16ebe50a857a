package api

import (
	"github.com/thebowwman/navplot/internals/domain"
	"github.com/thebowwman/navplot/internals/geomath"
	"github.com/thebowwman/navplot/internals/route"
)

// MarkerIcons is how the map layer draws waypoints. It is fixed at start-up.
type MarkerIcons struct {
	Origin   string
	Waypoint string
}

type markerView struct {
	Index  int     `json:"index"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Icon   string  `json:"icon"`
	Origin bool    `json:"origin"`
}

// renderView feeds the map: one marker per waypoint and, once there is a
// leg to draw, the polyline through them.
type renderView struct {
	Markers  []markerView        `json:"markers"`
	Polyline []domain.Coordinate `json:"polyline,omitempty"`
}

type segmentView struct {
	From       int     `json:"from"`
	To         int     `json:"to"`
	KM         float64 `json:"km"`
	NM         float64 `json:"nm"`
	BearingDeg float64 `json:"bearing_deg"`
}

// displayView feeds the info panel. Values are rounded to two decimals and
// anything undefined is left out rather than zeroed.
type displayView struct {
	TotalNM        float64       `json:"total_nm"`
	Segments       []segmentView `json:"segments"`
	HeadingDeg     *float64      `json:"heading_deg,omitempty"`
	HeadingCompass string        `json:"heading_compass,omitempty"`
	ETA            *domain.ETA   `json:"eta,omitempty"`
}

type sessionView struct {
	SessionID  string            `json:"session_id"`
	Version    uint64            `json:"version"`
	State      domain.RouteState `json:"state"`
	SpeedKnots float64           `json:"speed_knots"`
	Render     renderView        `json:"render"`
	Display    *displayView      `json:"display,omitempty"`
}

func newSessionView(id string, snap route.Snapshot, icons MarkerIcons) sessionView {
	v := sessionView{
		SessionID:  id,
		Version:    snap.Version,
		State:      snap.State,
		SpeedKnots: snap.SpeedKnots,
		Render:     renderView{Markers: make([]markerView, 0, len(snap.Waypoints))},
	}

	for i, wp := range snap.Waypoints {
		m := markerView{Index: i, Lat: wp.Lat, Lng: wp.Lng, Icon: icons.Waypoint}
		if i == 0 {
			m.Icon, m.Origin = icons.Origin, true
		}
		v.Render.Markers = append(v.Render.Markers, m)
	}
	if len(snap.Waypoints) >= 2 {
		v.Render.Polyline = snap.Waypoints
	}

	if res := snap.Result; res != nil {
		d := &displayView{
			TotalNM:  geomath.Round2(res.TotalDistanceNM),
			Segments: make([]segmentView, 0, len(res.Segments)),
			ETA:      res.EstimatedTime,
		}
		for i, seg := range res.Segments {
			d.Segments = append(d.Segments, segmentView{
				From:       i,
				To:         i + 1,
				KM:         geomath.Round2(seg.KM),
				NM:         geomath.Round2(seg.NM),
				BearingDeg: geomath.RoundBearing(seg.BearingDeg),
			})
		}
		if res.HeadingDeg != nil {
			h := geomath.RoundBearing(*res.HeadingDeg)
			d.HeadingDeg = &h
			d.HeadingCompass = geomath.Compass(*res.HeadingDeg)
		}
		v.Display = d
	}

	return v
}
