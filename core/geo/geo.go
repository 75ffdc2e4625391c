// Package geo provides the distance and travel-time primitives used to rank
// contractors, plus the geocoding collaborator boundary.
package geo

import (
	"context"
	"math"
	"time"

	"github.com/fieldserve/dispatch/core/model"
)

const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between two points using the
// haversine formula.
func DistanceKm(a, b model.Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// Geocoder resolves a street address into coordinates. It is invoked once at
// job/contractor creation; a failure propagates as a validation error because
// recommendation cannot run without a location.
type Geocoder interface {
	GeocodeAddress(ctx context.Context, address string) (model.Point, error)
}

// TravelTimeEstimator estimates door-to-door travel time between two points.
type TravelTimeEstimator interface {
	EstimateTravelTime(from, to model.Point) time.Duration
}

// SpeedEstimator derives travel time from straight-line distance and an
// average speed. It is the default estimator when no routing collaborator is
// configured.
type SpeedEstimator struct {
	AvgSpeedKmh float64
}

// DefaultAvgSpeedKmh is a conservative urban driving speed.
const DefaultAvgSpeedKmh = 40.0

// EstimateTravelTime implements TravelTimeEstimator.
func (e SpeedEstimator) EstimateTravelTime(from, to model.Point) time.Duration {
	speed := e.AvgSpeedKmh
	if speed <= 0 {
		speed = DefaultAvgSpeedKmh
	}
	hours := DistanceKm(from, to) / speed
	return time.Duration(hours * float64(time.Hour))
}
