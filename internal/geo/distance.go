// Package geo provides great-circle distance calculations.
package geo

import (
	"math"

	"github.com/planora/provider-discovery/internal/model"
)

// EarthRadiusKm is the mean Earth radius used by HaversineKm.
const EarthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance in kilometers between two
// points given in degrees.
func HaversineKm(a, b model.Coordinates) float64 {
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dLat := lat2 - lat1
	dLon := toRadians(b.Longitude - a.Longitude)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon

	// Floating point can push h marginally above 1 for antipodal points.
	h = math.Min(h, 1)

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// DistanceKm returns the distance between two optional points, or nil when
// either is unknown.
func DistanceKm(a, b *model.Coordinates) *float64 {
	if a == nil || b == nil {
		return nil
	}
	d := HaversineKm(*a, *b)
	return &d
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
