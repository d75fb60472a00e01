// Package geo wraps the spherical-earth distance used by proximity queries and
// by the sampling agent's displacement filter. Distances are in meters.
package geo

import (
	geolib "github.com/kellydunn/golang-geo"

	"github.com/fieldforce/location-tracker/internal/core/domain"
)

// EarthRadiusMeters is the mean radius golang-geo's great-circle formula uses.
const EarthRadiusMeters = 6371000.0

// DistanceMeters returns the great-circle distance between a and b.
func DistanceMeters(a, b domain.Point) float64 {
	return geolib.NewPoint(a.Lat, a.Lon).GreatCircleDistance(geolib.NewPoint(b.Lat, b.Lon)) * 1000
}

// RadiusRadians converts a surface distance into the central angle used by
// spherical geometry queries ($centerSphere).
func RadiusRadians(meters float64) float64 {
	return meters / EarthRadiusMeters
}
