package geo

import (
	"math"

	"order-board-service/internal/domain"
)

// EarthRadiusKm is the IUGG mean Earth radius.
const EarthRadiusKm = 6371.0088

// Haversine returns the great-circle distance in kilometres between a and b.
// ok is false when either point is out of bounds or the result is not a
// finite number.
func Haversine(a, b domain.Coordinates) (km float64, ok bool) {
	if !a.Valid() || !b.Valid() {
		return 0, false
	}

	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	// Rounding can push h slightly past 1 for antipodal points.
	h = math.Min(1, math.Max(0, h))

	km = 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
	if math.IsNaN(km) || math.IsInf(km, 0) {
		return 0, false
	}
	return km, true
}
