package geo

import (
	"math"
	"testing"

	"github.com/golang/geo/s2"
)

func almostEqual(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestHaversineIdentity(t *testing.T) {
	points := [][2]float64{
		{0, 0},
		{90, 0},
		{-90, 0},
		{51.5, -0.12},
		{-33.87, 151.21},
	}
	for _, p := range points {
		if d := Haversine(p[0], p[1], p[0], p[1], Kilometers); d != 0 {
			t.Errorf("Haversine(%v, %v) to itself = %v, want 0", p[0], p[1], d)
		}
	}
}

func TestHaversineSymmetry(t *testing.T) {
	pairs := [][4]float64{
		{0, 0, 0, 90},
		{46.6, 2.5, 36.5, 138.0},
		{-25.7, 134.5, 61.4, -98.3},
		{18.2, -66.4, -41.8, 172.8},
	}
	for _, p := range pairs {
		ab := Haversine(p[0], p[1], p[2], p[3], Kilometers)
		ba := Haversine(p[2], p[3], p[0], p[1], Kilometers)
		if !almostEqual(ab, ba, 1e-9) {
			t.Errorf("Haversine not symmetric: %v vs %v for %v", ab, ba, p)
		}
		if ab < 0 || ab > MaxDistanceKm+1e-6 {
			t.Errorf("Haversine out of range [0, MaxDistanceKm]: %v", ab)
		}
	}
}

func TestMaxDistance(t *testing.T) {
	if !almostEqual(MaxDistanceKm, 20015.09, 0.1) {
		t.Errorf("MaxDistanceKm = %v, want ≈ 20015.09", MaxDistanceKm)
	}
	// A quarter of the globe along the equator.
	if d := Haversine(0, 0, 0, 90, Kilometers); !almostEqual(d, MaxDistanceKm/2, 0.01) {
		t.Errorf("quarter-circumference distance = %v, want %v", d, MaxDistanceKm/2)
	}
}

func TestHaversineMiles(t *testing.T) {
	km := Haversine(0, 0, 180, 0, Kilometers)
	mi := Haversine(0, 0, 180, 0, Miles)
	// Same arc, radii 6371 km vs 3956 mi.
	if !almostEqual(km/mi, 6371.0/3956.0, 1e-9) {
		t.Errorf("km/mi ratio = %v, want %v", km/mi, 6371.0/3956.0)
	}
}

// Haversine should agree with an independent spherical-geometry library to
// well under a kilometer at continental scales.
func TestHaversineAgainstS2(t *testing.T) {
	pairs := [][4]float64{
		{0, 0, 0, 90},
		{51.5, -0.12, 40.71, -74.0},
		{-33.87, 151.21, 35.68, 139.69},
		{61.4, -98.3, -29.0, 25.1},
	}
	for _, p := range pairs {
		got := Haversine(p[0], p[1], p[2], p[3], Kilometers)
		a := s2.LatLngFromDegrees(p[0], p[1])
		b := s2.LatLngFromDegrees(p[2], p[3])
		want := a.Distance(b).Radians() * earthRadiusKm
		if !almostEqual(got, want, 0.5) {
			t.Errorf("Haversine(%v) = %v km, s2 says %v km", p, got, want)
		}
	}
}

func TestPlanarBearingQuadrants(t *testing.T) {
	cases := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
	}{
		{"due north", 0, 0, 10, 0, 0},
		{"due east", 0, 0, 0, 10, 90},
		{"due south", 10, 0, 0, 0, 180},
		{"due west", 0, 10, 0, 0, -90},
		{"northeast diagonal", 0, 0, 10, 10, 45},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := PlanarBearing(tc.lat1, tc.lon1, tc.lat2, tc.lon2)
			if !almostEqual(got, tc.want, 1e-9) {
				t.Errorf("PlanarBearing = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPlanarBearingRange(t *testing.T) {
	for lat := -80.0; lat <= 80; lat += 40 {
		for lon := -160.0; lon <= 160; lon += 40 {
			b := PlanarBearing(0, 0, lat, lon)
			if b <= -180 || b > 180 {
				t.Errorf("PlanarBearing(0,0,%v,%v) = %v, outside (-180, 180]", lat, lon, b)
			}
		}
	}
}

// The planar bearing is a deliberate simplification: make sure nobody has
// quietly replaced it with the spherical initial-bearing formula, which gives
// a different answer away from the equator.
func TestPlanarBearingIsPlanar(t *testing.T) {
	// From (60,0) to (60,90): spherical initial bearing ≈ 40.9°; the planar
	// formula must say exactly 90 (no latitude delta).
	if got := PlanarBearing(60, 0, 60, 90); !almostEqual(got, 90, 1e-9) {
		t.Errorf("PlanarBearing(60,0,60,90) = %v, want 90", got)
	}
}
