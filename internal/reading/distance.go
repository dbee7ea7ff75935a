package reading

import (
	"math"

	"github.com/UnknownOlympus/tracksheet/internal/models"
)

// EarthRadiusKm is the equatorial Earth radius used for surface distances.
const EarthRadiusKm = 6378.137

const metersPerKm = 1000

// Distance returns the great-circle surface distance in meters between two readings
// using the haversine formula.
func Distance(from, to models.Reading) float64 {
	lat1 := toRadians(from.Latitude)
	lat2 := toRadians(to.Latitude)
	dLat := lat2 - lat1
	dLon := toRadians(to.Longitude) - toRadians(from.Longitude)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c * metersPerKm
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
