package geospatial

import (
	"math"

	"github.com/samirrijal/medifly/internal/core/domain"
)

// EarthRadiusKm is the mean Earth radius used by DistanceKm.
const EarthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance in kilometres between a and b.
func DistanceKm(a, b domain.GeoPoint) float64 {
	return DistanceWithRadius(a, b, EarthRadiusKm)
}

// DistanceWithRadius is DistanceKm on a sphere of the given radius (km).
func DistanceWithRadius(a, b domain.GeoPoint, radiusKm float64) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * radiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// BoundingBox returns a box that contains every point within radiusKm of
// center. ok is false when the circle crosses the antimeridian and no single
// box can hold it. A circle that reaches a pole spans every longitude.
func BoundingBox(center domain.GeoPoint, radiusKm float64) (box domain.Bounds, ok bool) {
	d := radiusKm / EarthRadiusKm

	// pad 1% so the box never clips points the exact check would keep
	latDelta := toDeg(d) * 1.01
	box = domain.Bounds{
		MinLat: center.Lat - latDelta,
		MinLon: -180,
		MaxLat: center.Lat + latDelta,
		MaxLon: 180,
	}
	if box.MinLat <= -90 || box.MaxLat >= 90 {
		box.MinLat = math.Max(-90, box.MinLat)
		box.MaxLat = math.Min(90, box.MaxLat)
		return box, true
	}

	// widest longitude offset of a spherical cap
	s := math.Sin(d) / math.Cos(toRad(center.Lat))
	if s >= 1 {
		return box, true
	}
	lonDelta := toDeg(math.Asin(s)) * 1.01
	box.MinLon = center.Lon - lonDelta
	box.MaxLon = center.Lon + lonDelta
	if box.MinLon < -180 || box.MaxLon > 180 {
		return domain.Bounds{}, false
	}
	return box, true
}

// Valid reports whether p has finite coordinates within WGS 84 ranges.
func Valid(p domain.GeoPoint) bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Interpolate moves from a toward b by fraction t of the planar offset.
func Interpolate(a, b domain.GeoPoint, t float64) domain.GeoPoint {
	return domain.GeoPoint{
		Lat: a.Lat + (b.Lat-a.Lat)*t,
		Lon: a.Lon + (b.Lon-a.Lon)*t,
	}
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
