package models

import "time"

// Reading is a single position parsed from a track log line, in degrees.
type Reading struct {
	Latitude  float64
	Longitude float64
}

// Coordinates returns the reading as a geographical point.
func (r Reading) Coordinates() Coordinates {
	return Coordinates{Latitude: r.Latitude, Longitude: r.Longitude}
}

// TimestampedReading is a kept reading with its interpolated timestamp.
type TimestampedReading struct {
	Reading
	Timestamp time.Time
}

// Journey holds everything parsed from one track log file.
type Journey struct {
	Name     string        // Name is the log file base name without extension.
	Readings []Reading     // Readings in file order.
	Duration time.Duration // Duration is the total journey time from the TIME line.
}

// Track is a processed journey ready to be written to a sink.
type Track struct {
	Name           string
	Start          time.Time
	Duration       time.Duration
	SourceReadings int                  // SourceReadings is the number of readings before deduplication.
	Readings       []TimestampedReading // Readings that survived deduplication, ordered by timestamp.
}

// Discarded returns how many source readings were dropped as too close to the previous kept one.
func (t Track) Discarded() int {
	return t.SourceReadings - len(t.Readings)
}
