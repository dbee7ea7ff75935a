package tracklog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/UnknownOlympus/tracksheet/internal/models"
)

const (
	initialLineBuffer = 64 * 1024
	maxLineLength     = 16 * 1024 * 1024
)

// Parse reads one journey from r. The last duration line wins. A journey without a
// duration line, or with any malformed line, is rejected as a whole.
func Parse(name string, r io.Reader) (models.Journey, error) {
	journey := models.Journey{Name: name}
	var (
		rawDuration  string
		haveDuration bool
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, initialLineBuffer), maxLineLength)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line, err := Classify(scanner.Text())
		if err != nil {
			return models.Journey{}, fmt.Errorf("%s line %d: %w", name, lineNo, err)
		}

		switch line.Kind {
		case KindDuration:
			rawDuration, haveDuration = line.Duration, true
		case KindPosition:
			journey.Readings = append(journey.Readings, line.Reading)
		case KindOther:
		}
	}
	if err := scanner.Err(); err != nil {
		return models.Journey{}, fmt.Errorf("failed to read %s: %w", name, err)
	}

	if !haveDuration {
		return models.Journey{}, fmt.Errorf("%s: %w: no %s line", name, ErrInvalidDurationFormat, durationMarker)
	}
	duration, err := ParseDuration(rawDuration)
	if err != nil {
		return models.Journey{}, fmt.Errorf("%s: %w", name, err)
	}
	journey.Duration = duration

	return journey, nil
}

// ParseFile opens path and parses it as a journey named after the file.
func ParseFile(path string) (models.Journey, error) {
	file, err := os.Open(path)
	if err != nil {
		return models.Journey{}, fmt.Errorf("failed to open track log: %w", err)
	}
	defer file.Close()

	return Parse(JourneyName(path), file)
}

// JourneyName derives the journey name from a log path: "./raw/dbnCpt.rdat" is "dbnCpt".
func JourneyName(path string) string {
	base := filepath.Base(path)
	name, _, _ := strings.Cut(base, ".")
	return name
}

// Scan lists the regular files in dir whose name ends with ext, sorted by name.
func Scan(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list track logs in %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !strings.HasSuffix(entry.Name(), ext) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)

	return paths, nil
}
