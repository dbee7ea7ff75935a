package geocoding

import (
	"github.com/UnknownOlympus/tracksheet/internal/models"
	"googlemaps.github.io/maps"
)

// Polyline encodes the kept readings of a track with the Google encoded polyline algorithm.
func Polyline(track models.Track) string {
	path := make([]maps.LatLng, 0, len(track.Readings))
	for _, rdg := range track.Readings {
		path = append(path, maps.LatLng{Lat: rdg.Latitude, Lng: rdg.Longitude})
	}
	return maps.Encode(path)
}
