// Package geo provides store-agnostic geometry used for boundary containment:
// great-circle distance for radius boundaries and ray-casting point-in-polygon
// for polygon boundaries. Keeping both here means containment never depends on
// database-specific spatial operators and stays unit-testable without a store.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by the haversine formula
const EarthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance in kilometers between two
// points given in decimal degrees.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// WithinRadiusKm reports whether the point lies within radiusKm of the center
func WithinRadiusKm(lat, lng, centerLat, centerLng, radiusKm float64) bool {
	return HaversineKm(lat, lng, centerLat, centerLng) <= radiusKm
}

// PointInPolygon reports whether the point lies inside the polygon ring using
// the ray-casting algorithm. Vertices are [lng, lat] pairs (GeoJSON order).
// The ring may be open or explicitly closed; both are handled.
func PointInPolygon(lat, lng float64, ring [][2]float64) bool {
	n := len(ring)
	if n < 3 {
		return false
	}

	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]

		if (yi > lat) != (yj > lat) &&
			lng < (xj-xi)*(lat-yi)/(yj-yi)+xi {
			inside = !inside
		}
		j = i
	}
	return inside
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}
