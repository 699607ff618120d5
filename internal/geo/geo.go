// Package geo holds the pure great-circle math used by geofence detection
// and playback statistics.
package geo

import "math"

// EarthRadiusM is the spherical Earth radius used for haversine distances.
const EarthRadiusM = 6371000.0

// Haversine returns the great-circle distance in meters between two
// coordinates on a spherical Earth.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusM * c
}

// WithinRadius reports whether (lat, lon) lies within radiusM meters of the
// center point, and returns the computed distance either way.
func WithinRadius(lat, lon, centerLat, centerLon, radiusM float64) (bool, float64) {
	d := Haversine(lat, lon, centerLat, centerLon)
	return d <= radiusM, d
}

// toRadians converts an angle from degrees to radians.
func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
