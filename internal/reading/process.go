// Package reading turns the raw readings of a journey into timestamped rows.
package reading

import (
	"errors"
	"fmt"
	"time"

	"github.com/UnknownOlympus/tracksheet/internal/models"
)

// Errors returned by Process.
var (
	ErrEmptyJourney     = errors.New("journey has no readings")
	ErrNegativeDuration = errors.New("journey duration is negative")
)

// Process drops every reading closer than minDistanceMeters to the previously kept
// reading and stamps the survivors with an evenly interpolated clock.
//
// The clock starts at start and advances by duration/len(readings) once per source
// reading after the first, whether or not that reading is kept. The first reading is
// always kept and stamped with start itself.
func Process(
	readings []models.Reading,
	duration time.Duration,
	start time.Time,
	minDistanceMeters float64,
) ([]models.TimestampedReading, error) {
	if len(readings) == 0 {
		return nil, ErrEmptyJourney
	}
	if duration < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNegativeDuration, duration)
	}

	interval := duration.Seconds() / float64(len(readings))

	lastKept := readings[0]
	output := []models.TimestampedReading{{Reading: lastKept, Timestamp: start}}

	elapsed := 0.0
	for _, rdg := range readings[1:] {
		elapsed += interval

		if Distance(lastKept, rdg) < minDistanceMeters {
			continue
		}

		lastKept = rdg
		output = append(output, models.TimestampedReading{
			Reading:   rdg,
			Timestamp: start.Add(secondsToDuration(elapsed)),
		})
	}

	return output, nil
}

// Track runs Process over a parsed journey and wraps the result for the sinks.
func Track(journey models.Journey, start time.Time, minDistanceMeters float64) (models.Track, error) {
	rows, err := Process(journey.Readings, journey.Duration, start, minDistanceMeters)
	if err != nil {
		return models.Track{}, fmt.Errorf("failed to process journey %q: %w", journey.Name, err)
	}

	return models.Track{
		Name:           journey.Name,
		Start:          start,
		Duration:       journey.Duration,
		SourceReadings: len(journey.Readings),
		Readings:       rows,
	}, nil
}

func secondsToDuration(secs float64) time.Duration {
	return time.Duration(secs * float64(time.Second))
}
