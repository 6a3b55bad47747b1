// internal/geo/geo.go
//
// Great-circle geodesy over WGS84 lat/lon points (decimal degrees).
// Responsibilities:
//   - Haversine great-circle distance in kilometers or miles.
//   - PlanarBearing: the game's simplified 2D heading between two points.
//   - MaxDistanceKm: antipodal distance, the proximity normalizer.
//
// Notes:
//   - All functions are pure and total over ℝ; out-of-range coordinates are
//     the caller's problem but never panic.
//   - PlanarBearing is intentionally NOT the spherical initial bearing. It
//     treats degree deltas as Cartesian offsets, a flat-earther bearing.
//     Game balance depends on these exact numbers, so do not swap in the
//     movable-type great-circle formula.

package geo

import "math"

// Unit selects the Earth radius used by Haversine.
type Unit string

const (
	Kilometers Unit = "km"
	Miles      Unit = "mi"
)

const (
	earthRadiusKm = 6371 // mean Earth radius, kilometers
	earthRadiusMi = 3956 // mean Earth radius, miles
)

// MaxDistanceKm is the distance between two antipodal points, ≈ 20015.09 km.
// Proximity percentages are normalized against it.
var MaxDistanceKm = Haversine(0, 0, 180, 0, Kilometers)

// Haversine returns the great-circle distance between two points given in
// decimal degrees. Symmetric in its point arguments; zero for identical
// points.
func Haversine(lat1, lon1, lat2, lon2 float64, unit Unit) float64 {
	rlat1 := radians(lat1)
	rlat2 := radians(lat2)
	dlat := radians(lat2 - lat1)
	dlon := radians(lon2 - lon1)

	sinLat := math.Sin(dlat / 2)
	sinLon := math.Sin(dlon / 2)
	a := sinLat*sinLat + math.Cos(rlat1)*math.Cos(rlat2)*sinLon*sinLon
	c := 2 * math.Asin(math.Sqrt(a))

	r := float64(earthRadiusKm)
	if unit == Miles {
		r = earthRadiusMi
	}
	return c * r
}

// PlanarBearing returns atan2(Δlon, Δlat) in degrees, range (-180, 180].
// 0 points toward increasing latitude (north on a plate carrée map),
// 90 toward increasing longitude (east).
func PlanarBearing(lat1, lon1, lat2, lon2 float64) float64 {
	return degrees(math.Atan2(lon2-lon1, lat2-lat1))
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
