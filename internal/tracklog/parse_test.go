package tracklog_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Flaque/filet"
	"github.com/UnknownOlympus/tracksheet/internal/models"
	"github.com/UnknownOlympus/tracksheet/internal/tracklog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dbnCpt = `<gpx>
TIME: "01:30"
<trk><trkseg>
<trkpt lat="-29.8587" lon="31.0218"></trkpt>
<trkpt lat="-29.9000" lon="30.9500"></trkpt>
<trkpt lat="-33.9249" lon="18.4241"></trkpt>
</trkseg></trk>
</gpx>
`

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("readings and duration", func(t *testing.T) {
		t.Parallel()
		journey, err := tracklog.Parse("dbnCpt", strings.NewReader(dbnCpt))

		require.NoError(t, err)
		assert.Equal(t, "dbnCpt", journey.Name)
		assert.Equal(t, 90*time.Minute, journey.Duration)
		assert.Equal(t, []models.Reading{
			{Latitude: -29.8587, Longitude: 31.0218},
			{Latitude: -29.9, Longitude: 30.95},
			{Latitude: -33.9249, Longitude: 18.4241},
		}, journey.Readings)
	})

	t.Run("last duration line wins", func(t *testing.T) {
		t.Parallel()
		journey, err := tracklog.Parse("x", strings.NewReader("TIME: \"01:00\"\nTIME: \"02:15\"\n"))

		require.NoError(t, err)
		assert.Equal(t, 2*time.Hour+15*time.Minute, journey.Duration)
		assert.Empty(t, journey.Readings)
	})

	t.Run("missing duration", func(t *testing.T) {
		t.Parallel()
		journey, err := tracklog.Parse("x", strings.NewReader(`<trkpt lat="1" lon="2">`))

		require.ErrorIs(t, err, tracklog.ErrInvalidDurationFormat)
		assert.Empty(t, journey.Readings)
	})

	t.Run("malformed duration", func(t *testing.T) {
		t.Parallel()
		_, err := tracklog.Parse("x", strings.NewReader(`TIME: "1h30"`))

		require.ErrorIs(t, err, tracklog.ErrInvalidDurationFormat)
	})

	t.Run("malformed reading aborts the journey", func(t *testing.T) {
		t.Parallel()
		input := "TIME: \"00:10\"\n<trkpt lat=\"1\" lon=\"2\">\n<trkpt lat=\"x\" lon=\"2\">\n"
		journey, err := tracklog.Parse("broken", strings.NewReader(input))

		require.ErrorIs(t, err, tracklog.ErrInvalidReading)
		require.ErrorContains(t, err, "broken line 3")
		assert.Empty(t, journey.Readings)
	})
}

func TestJourneyName(t *testing.T) {
	assert.Equal(t, "dbnCpt", tracklog.JourneyName("./raw/dbnCpt.rdat"))
	assert.Equal(t, "homeToWork", tracklog.JourneyName("homeToWork.rdat"))
	assert.Equal(t, "a", tracklog.JourneyName("/tmp/a.b.rdat"))
}

func TestScanAndParseFile(t *testing.T) {
	defer filet.CleanUp(t)

	dir := filet.TmpDir(t, "")
	filet.File(t, filepath.Join(dir, "dbnRbay.rdat"), dbnCpt)
	filet.File(t, filepath.Join(dir, "dbnCpt.rdat"), dbnCpt)
	filet.File(t, filepath.Join(dir, "notes.txt"), "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.rdat"), 0o755))

	paths, err := tracklog.Scan(dir, ".rdat")

	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "dbnCpt.rdat"),
		filepath.Join(dir, "dbnRbay.rdat"),
	}, paths)

	journey, err := tracklog.ParseFile(paths[1])

	require.NoError(t, err)
	assert.Equal(t, "dbnRbay", journey.Name)
	assert.Len(t, journey.Readings, 3)
}

func TestScan_MissingDir(t *testing.T) {
	_, err := tracklog.Scan(filepath.Join(t.TempDir(), "nope"), ".rdat")

	require.Error(t, err)
	require.ErrorContains(t, err, "failed to list track logs")
}

func TestParseFile_Missing(t *testing.T) {
	_, err := tracklog.ParseFile(filepath.Join(t.TempDir(), "missing.rdat"))

	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestParse_LongLine(t *testing.T) {
	t.Parallel()
	padding := strings.Repeat(" ", 70_000)
	log := "TIME: \"00:10\"\n<trkpt lat=\"1.5\" lon=\"2.5\">" + padding + "</trkpt>\n<trkpt lat=\"3\" lon=\"4\"></trkpt>\n"

	journey, err := tracklog.Parse("x", strings.NewReader(log))

	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, journey.Duration)
	assert.Equal(t, []models.Reading{{Latitude: 1.5, Longitude: 2.5}, {Latitude: 3, Longitude: 4}}, journey.Readings)
}

func TestParse_EmptyDuration(t *testing.T) {
	t.Parallel()

	t.Run("empty value is reported as such", func(t *testing.T) {
		t.Parallel()
		_, err := tracklog.Parse("x", strings.NewReader("TIME: \"\"\n"))

		require.ErrorIs(t, err, tracklog.ErrInvalidDurationFormat)
		assert.NotContains(t, err.Error(), "no TIME: line")
		assert.Contains(t, err.Error(), `""`)
	})

	t.Run("later empty value does not fall back to an earlier one", func(t *testing.T) {
		t.Parallel()
		_, err := tracklog.Parse("x", strings.NewReader("TIME: \"01:00\"\nTIME: \"\"\n"))

		require.ErrorIs(t, err, tracklog.ErrInvalidDurationFormat)
	})
}
