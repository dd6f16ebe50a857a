package route

import (
	"errors"
	"math"
	"reflect"
	"sync"
	"testing"

	"github.com/thebowwman/navplot/internals/domain"
	"github.com/thebowwman/navplot/internals/geomath"
)

var (
	ptA = domain.Coordinate{Lat: 57, Lng: 11}
	ptB = domain.Coordinate{Lat: 58, Lng: 12}
	ptC = domain.Coordinate{Lat: 58, Lng: 13}
)

func TestRoute_EmptyAndSingleHaveNoResult(t *testing.T) {
	r := New(domain.DefaultSpeedKnots)
	if r.State() != domain.StateEmpty {
		t.Errorf("Expected empty state, got %s", r.State())
	}
	if r.Result() != nil {
		t.Error("Expected no result for an empty route")
	}

	r.AddWaypoint(ptA)
	if r.State() != domain.StateSingle {
		t.Errorf("Expected single state, got %s", r.State())
	}
	if r.Result() != nil {
		t.Error("Expected no result for a single waypoint")
	}
}

func TestRoute_TwoWaypoints(t *testing.T) {
	r := New(10)
	r.AddWaypoint(ptA)
	r.AddWaypoint(ptB)

	res := r.Result()
	if res == nil {
		t.Fatal("Expected a result for two waypoints")
	}
	if got := geomath.Round2(res.TotalDistanceNM); got != 68.16 {
		t.Errorf("Expected 68.16 nm, got %.2f", got)
	}
	if len(res.Segments) != 1 || geomath.Round2(res.Segments[0].KM) != 126.23 {
		t.Errorf("unexpected segments %+v", res.Segments)
	}
	if res.HeadingDeg == nil || geomath.Round2(*res.HeadingDeg) != 27.83 {
		t.Errorf("Expected heading 27.83, got %v", res.HeadingDeg)
	}
	if res.EstimatedTime == nil || *res.EstimatedTime != (domain.ETA{Hours: 6, Minutes: 49}) {
		t.Errorf("Expected 6h49m, got %+v", res.EstimatedTime)
	}
	if r.State() != domain.StateMulti {
		t.Errorf("Expected multi state, got %s", r.State())
	}
}

func TestRoute_ThreeWaypointsSumsLegsWithoutHeading(t *testing.T) {
	r := New(5)
	r.AddWaypoint(ptA)
	r.AddWaypoint(ptB)
	r.AddWaypoint(ptC)

	res := r.Result()
	if res == nil {
		t.Fatal("Expected a result")
	}
	want := geomath.DistanceAndBearing(ptA, ptB).NM + geomath.DistanceAndBearing(ptB, ptC).NM
	if res.TotalDistanceNM != want {
		t.Errorf("Expected total %v, got %v", want, res.TotalDistanceNM)
	}
	if len(res.Segments) != 2 {
		t.Errorf("Expected 2 segments, got %d", len(res.Segments))
	}
	if res.HeadingDeg != nil {
		t.Errorf("Expected no heading beyond two waypoints, got %v", *res.HeadingDeg)
	}
	if res.EstimatedTime == nil {
		t.Error("Expected an estimated time")
	}
}

func TestRoute_TotalIsSumOfLegs(t *testing.T) {
	pts := []domain.Coordinate{
		{Lat: 10, Lng: 10}, {Lat: 10.5, Lng: 11}, {Lat: 11, Lng: 10.2}, {Lat: 11, Lng: 10.2},
		{Lat: -5, Lng: 30}, {Lat: 0, Lng: -179}, {Lat: 0, Lng: 179},
	}
	r := New(5)
	for n, p := range pts {
		r.AddWaypoint(p)
		if n == 0 {
			continue
		}
		var want float64
		for i := 1; i <= n; i++ {
			want += geomath.DistanceAndBearing(pts[i-1], pts[i]).NM
		}
		if got := r.Result().TotalDistanceNM; math.Abs(got-want) > 1e-9 {
			t.Errorf("%d waypoints: expected %v, got %v", n+1, want, got)
		}
	}
}

func TestRoute_ZeroSpeedDropsOnlyTime(t *testing.T) {
	r := New(5)
	r.AddWaypoint(ptA)
	r.AddWaypoint(ptB)

	for _, s := range []float64{0, -3} {
		r.SetSpeed(s)
		res := r.Result()
		if res == nil {
			t.Fatalf("speed %v: expected a result", s)
		}
		if res.EstimatedTime != nil {
			t.Errorf("speed %v: expected no estimated time, got %+v", s, res.EstimatedTime)
		}
		if res.HeadingDeg == nil || res.TotalDistanceNM == 0 {
			t.Errorf("speed %v: expected distance and heading to stay populated", s)
		}
	}

	r.SetSpeed(10)
	if r.Result().EstimatedTime == nil {
		t.Error("Expected estimated time once speed is positive again")
	}
	if r.Speed() != 10 {
		t.Errorf("Expected speed 10, got %v", r.Speed())
	}
}

func TestRoute_RemoveWaypoint(t *testing.T) {
	r := New(5)
	r.AddWaypoint(ptA)
	r.AddWaypoint(ptB)
	r.AddWaypoint(ptC)

	if err := r.RemoveWaypoint(1); err != nil {
		t.Fatalf("RemoveWaypoint() failed: %v", err)
	}
	if got := r.Waypoints(); !reflect.DeepEqual(got, []domain.Coordinate{ptA, ptC}) {
		t.Errorf("Expected later waypoints to shift down, got %+v", got)
	}
	if r.Result().HeadingDeg == nil {
		t.Error("Expected heading once back to two waypoints")
	}

	if err := r.RemoveWaypoint(0); err != nil {
		t.Fatalf("RemoveWaypoint() failed: %v", err)
	}
	if r.State() != domain.StateSingle || r.Result() != nil {
		t.Errorf("Expected single state with no result, got %s", r.State())
	}
	if err := r.RemoveWaypoint(0); err != nil {
		t.Fatalf("RemoveWaypoint() failed: %v", err)
	}
	if r.State() != domain.StateEmpty {
		t.Errorf("Expected empty state, got %s", r.State())
	}
}

func TestRoute_RemoveWaypointOutOfRange(t *testing.T) {
	r := New(5)
	r.AddWaypoint(ptA)
	r.AddWaypoint(ptB)
	before := r.Snapshot()

	for _, idx := range []int{2, 5, -1} {
		err := r.RemoveWaypoint(idx)
		if !errors.Is(err, domain.ErrIndexOutOfRange) {
			t.Errorf("index %d: expected ErrIndexOutOfRange, got %v", idx, err)
		}
	}
	if !reflect.DeepEqual(before, r.Snapshot()) {
		t.Error("Expected route to be unchanged after failed removals")
	}
}

func TestRoute_Clear(t *testing.T) {
	r := New(5)
	r.AddWaypoint(ptA)
	r.AddWaypoint(ptB)
	r.Clear()

	if r.Len() != 0 || r.Result() != nil || r.State() != domain.StateEmpty {
		t.Errorf("Expected empty route with no result, got %+v", r.Snapshot())
	}
}

func TestRoute_SetFromGeolocationReplaces(t *testing.T) {
	r := New(5)
	r.AddWaypoint(ptA)
	r.AddWaypoint(ptB)
	r.AddWaypoint(ptC)

	fix := domain.Coordinate{Lat: 57.7, Lng: 11.97}
	r.SetFromGeolocation(fix)

	if got := r.Waypoints(); !reflect.DeepEqual(got, []domain.Coordinate{fix}) {
		t.Errorf("Expected route replaced by the fix, got %+v", got)
	}
	if r.Result() != nil {
		t.Error("Expected no result after a geolocation reset")
	}
}

func TestRoute_SubmitManualPairAppends(t *testing.T) {
	r := New(5)
	r.AddWaypoint(ptA)

	if err := r.SubmitManualPair(ptB, ptC); err != nil {
		t.Fatalf("SubmitManualPair() failed: %v", err)
	}
	if got := r.Waypoints(); !reflect.DeepEqual(got, []domain.Coordinate{ptA, ptB, ptC}) {
		t.Errorf("Expected pair appended, got %+v", got)
	}
}

func TestRoute_SubmitManualPairIsAtomic(t *testing.T) {
	tests := []struct {
		name string
		a, b domain.Coordinate
	}{
		{name: "NaN latitude first", a: domain.Coordinate{Lat: math.NaN(), Lng: 11}, b: ptB},
		{name: "NaN longitude second", a: ptA, b: domain.Coordinate{Lat: 58, Lng: math.NaN()}},
		{name: "infinite latitude", a: ptA, b: domain.Coordinate{Lat: math.Inf(-1), Lng: 12}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(5)
			r.AddWaypoint(ptC)
			err := r.SubmitManualPair(tt.a, tt.b)
			if !errors.Is(err, domain.ErrInvalidCoordinate) {
				t.Errorf("Expected ErrInvalidCoordinate, got %v", err)
			}
			if r.Len() != 1 {
				t.Errorf("Expected no waypoints added, got %d", r.Len())
			}
		})
	}
}

func TestRoute_RecomputeIsIdempotent(t *testing.T) {
	r := New(7)
	r.AddWaypoint(ptA)
	r.AddWaypoint(ptB)
	first := r.Result()
	r.Recompute()
	r.Recompute()
	if !reflect.DeepEqual(first, r.Result()) {
		t.Error("Expected identical results from repeated recomputation")
	}
}

func TestRoute_SnapshotsAreCopies(t *testing.T) {
	r := New(5)
	r.AddWaypoint(ptA)
	r.AddWaypoint(ptB)

	snap := r.Snapshot()
	snap.Waypoints[0] = ptC
	snap.Result.Segments[0].KM = -1
	*snap.Result.HeadingDeg = 999

	res := r.Result()
	if r.Waypoints()[0] != ptA || res.Segments[0].KM < 0 || *res.HeadingDeg == 999 {
		t.Error("Expected snapshot mutation not to leak into the route")
	}
}

func TestRoute_ConcurrentMutations(t *testing.T) {
	r := New(5)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			r.AddWaypoint(domain.Coordinate{Lat: float64(i % 80), Lng: float64(i)})
		}(i)
		go func() {
			defer wg.Done()
			_ = r.Snapshot()
		}()
	}
	wg.Wait()

	snap := r.Snapshot()
	if len(snap.Waypoints) != 50 {
		t.Fatalf("Expected 50 waypoints, got %d", len(snap.Waypoints))
	}
	if len(snap.Result.Segments) != 49 {
		t.Errorf("Expected 49 segments, got %d", len(snap.Result.Segments))
	}
}

func TestRoute_VersionCountsSuccessfulMutations(t *testing.T) {
	r := New(5)
	if v := r.Snapshot().Version; v != 0 {
		t.Fatalf("Expected version 0, got %d", v)
	}

	r.AddWaypoint(ptA)
	r.AddWaypoint(ptB)
	r.SetSpeed(8)
	if v := r.Snapshot().Version; v != 3 {
		t.Errorf("Expected version 3, got %d", v)
	}

	_ = r.RemoveWaypoint(7)
	_ = r.SubmitManualPair(domain.Coordinate{Lat: math.NaN()}, ptC)
	r.Recompute()
	if v := r.Snapshot().Version; v != 3 {
		t.Errorf("Expected failed mutations and recompute to keep version 3, got %d", v)
	}

	r.Clear()
	if v := r.Snapshot().Version; v != 4 {
		t.Errorf("Expected version 4, got %d", v)
	}
}
