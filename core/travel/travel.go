// Package travel estimates road time between two stops without network calls.
package travel

import (
	"math"
	"time"

	"github.com/kilianp07/haulplan/core/model"
)

const (
	// CircuityFactor converts great-circle miles to road miles.
	CircuityFactor = 1.3
	// AverageSpeedMPH is the planning speed of a loaded truck.
	AverageSpeedMPH = 35.0
	// Minimum is the floor applied to every estimate.
	Minimum = 10 * time.Minute

	earthRadiusMiles = 3959.0
)

// DistanceMiles returns the haversine distance in miles between two points.
func DistanceMiles(a, b model.LatLon) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusMiles * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Estimate returns the driving time between a and b rounded up to the
// minute. Unknown coordinates yield the minimum.
func Estimate(a, b model.LatLon) time.Duration {
	if a.IsZero() || b.IsZero() {
		return Minimum
	}
	minutes := math.Ceil(DistanceMiles(a, b) * CircuityFactor / AverageSpeedMPH * 60)
	d := time.Duration(minutes) * time.Minute
	if d < Minimum {
		return Minimum
	}
	return d
}
