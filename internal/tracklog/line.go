// Package tracklog reads journeys out of *.rdat track log files.
//
// A track log is line oriented. A line containing "TIME:" carries the total journey
// time as a quoted "HH:MM" value, and a line containing "trkpt", "lat" and "lon"
// carries one position with latitude and longitude as its first two quoted values:
//
//	TIME: "01:30"
//	<trkpt lat="-29.8587" lon="31.0218"></trkpt>
//
// Every other line is ignored.
package tracklog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/tracksheet/internal/models"
)

// Markers used to classify lines.
const (
	durationMarker = "TIME:"
	trackPoint     = "trkpt"
	latMarker      = "lat"
	lonMarker      = "lon"
)

// Errors returned while reading a track log.
var (
	ErrInvalidReading        = errors.New("invalid reading")
	ErrInvalidDurationFormat = errors.New("invalid duration format, expected HH:MM")
)

// Kind tells what a classified line carries.
type Kind int

const (
	// KindOther is a line with nothing of interest.
	KindOther Kind = iota
	// KindDuration is a TIME line with a raw "HH:MM" value.
	KindDuration
	// KindPosition is a track point line with a parsed reading.
	KindPosition
)

func (k Kind) String() string {
	switch k {
	case KindDuration:
		return "duration"
	case KindPosition:
		return "position"
	default:
		return "other"
	}
}

// Line is a classified track log line. Only the field matching Kind is set.
type Line struct {
	Kind     Kind
	Duration string         // Duration is the raw quoted value of a duration line.
	Reading  models.Reading // Reading is the position of a track point line.
}

// Classify inspects a single line. A duration line wins over a position line when a
// line somehow carries both markers.
func Classify(text string) (Line, error) {
	if strings.Contains(text, durationMarker) {
		values := quoted(text, 1)
		if len(values) == 0 {
			return Line{}, fmt.Errorf("%w: no quoted value in %q", ErrInvalidDurationFormat, text)
		}
		return Line{Kind: KindDuration, Duration: values[0]}, nil
	}

	if strings.Contains(text, trackPoint) && strings.Contains(text, latMarker) && strings.Contains(text, lonMarker) {
		values := quoted(text, 2)
		if len(values) < 2 {
			return Line{}, fmt.Errorf("%w: expected latitude and longitude in %q", ErrInvalidReading, text)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(values[0]), 64)
		if err != nil {
			return Line{}, fmt.Errorf("%w: latitude %q: %w", ErrInvalidReading, values[0], err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(values[1]), 64)
		if err != nil {
			return Line{}, fmt.Errorf("%w: longitude %q: %w", ErrInvalidReading, values[1], err)
		}
		return Line{Kind: KindPosition, Reading: models.Reading{Latitude: lat, Longitude: lon}}, nil
	}

	return Line{Kind: KindOther}, nil
}

// quoted returns up to limit substrings enclosed in double quotes, left to right.
func quoted(text string, limit int) []string {
	var values []string
	rest := text
	for len(values) < limit {
		_, after, found := strings.Cut(rest, `"`)
		if !found {
			break
		}
		value, tail, closed := strings.Cut(after, `"`)
		if !closed {
			break
		}
		values = append(values, value)
		rest = tail
	}
	return values
}

// ParseDuration converts an "HH:MM" journey time into a duration. Hours run 0-23 and
// minutes 0-59, each written with one or two digits.
func ParseDuration(value string) (time.Duration, error) {
	const (
		maxHours   = 23
		maxMinutes = 59
	)

	hh, mm, found := strings.Cut(value, ":")
	if !found {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDurationFormat, value)
	}

	hours, err := parseClockField(hh, maxHours)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: hours: %w", ErrInvalidDurationFormat, value, err)
	}
	minutes, err := parseClockField(mm, maxMinutes)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: minutes: %w", ErrInvalidDurationFormat, value, err)
	}

	return time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute, nil
}

func parseClockField(field string, maxValue int) (int, error) {
	const maxDigits = 2
	if field == "" || len(field) > maxDigits {
		return 0, fmt.Errorf("want 1 or 2 digits, got %q", field)
	}
	for _, r := range field {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("not a number: %q", field)
		}
	}
	value, err := strconv.Atoi(field)
	if err != nil {
		return 0, err
	}
	if value > maxValue {
		return 0, fmt.Errorf("%d is out of range 0-%d", value, maxValue)
	}
	return value, nil
}
