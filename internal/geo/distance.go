// Package geo holds the great-circle distance used by every store ranking path.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius.
const EarthRadiusKm = 6371.0

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

// DistanceKm returns the haversine distance between two points given in decimal degrees.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	a := sinLat*sinLat + math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*sinLng*sinLng
	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// ValidCoordinate reports whether lat/lng are finite and inside their degree ranges.
func ValidCoordinate(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
