package workbook_test

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/UnknownOlympus/tracksheet/internal/models"
	"github.com/UnknownOlympus/tracksheet/internal/sigbug"
	"github.com/UnknownOlympus/tracksheet/internal/table"
	"github.com/UnknownOlympus/tracksheet/internal/workbook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTrack(name string) models.Track {
	start := time.Unix(1552393800, 0).UTC()
	return models.Track{
		Name:           name,
		Start:          start,
		SourceReadings: 3,
		Readings: []models.TimestampedReading{
			{Reading: models.Reading{Latitude: -29.8587, Longitude: 31.0218}, Timestamp: start},
			{Reading: models.Reading{Latitude: -33.9249, Longitude: 18.4241}, Timestamp: start.Add(80 * time.Second)},
		},
	}
}

func TestWorkbook_SaveAndReadBack(t *testing.T) {
	ctx := t.Context()
	path := filepath.Join(t.TempDir(), "data.xlsx")

	book := workbook.New(true)
	defer book.Close()

	require.NoError(t, book.Write(ctx, sampleTrack("dbnCpt")))
	require.NoError(t, book.Write(ctx, sampleTrack("homeToWork")))
	require.NoError(t, book.Write(ctx, sampleTrack("dbncpt")))
	require.NoError(t, book.Save(path))

	assert.Equal(t, []string{"dbnCpt", "homeToWork", "dbncpt (2)"}, book.Sheets())

	reader, err := workbook.Open(path)
	require.NoError(t, err)
	defer reader.Close()

	assert.Equal(t, []string{"dbnCpt", "homeToWork", "dbncpt (2)"}, reader.SheetNames())

	rows, err := reader.SheetAsSliceMap("homeToWork")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, map[string]string{
		"Lat":         "-29.8587",
		"Lon":         "31.0218",
		"stamp":       "1552393800",
		"messageData": sigbug.Encode(-29.8587, 31.0218),
	}, rows[0])
	assert.Equal(t, "1552393880", rows[1]["stamp"])
}

func TestWorkbook_WriteTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.xlsx")
	book := workbook.New(false)
	defer book.Close()

	summary := table.New("journeys", "name", "kept", "polyline")
	require.NoError(t, summary.AppendRow("dbnCpt", 2, "abc"))
	require.ErrorIs(t, summary.AppendRow("dbnJhb", 5), table.ErrColumnMismatch)
	require.NoError(t, book.WriteTable(summary))
	require.NoError(t, book.Save(path))

	reader, err := workbook.Open(path)
	require.NoError(t, err)
	defer reader.Close()

	rows, err := reader.SheetAsSliceMap("journeys")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, map[string]string{"name": "dbnCpt", "kept": "2", "polyline": "abc"}, rows[0])

	_, err = reader.SheetAsSliceMap("missing")
	require.ErrorIs(t, err, workbook.ErrSheetNotFound)
}

func TestWorkbook_SaveEmpty(t *testing.T) {
	book := workbook.New(false)
	defer book.Close()

	err := book.Save(filepath.Join(t.TempDir(), "empty.xlsx"))

	require.ErrorIs(t, err, workbook.ErrEmptyWorkbook)
}

func TestOpen_Missing(t *testing.T) {
	_, err := workbook.Open(filepath.Join(t.TempDir(), "missing.xlsx"))

	require.Error(t, err)
	require.ErrorContains(t, err, "failed to open workbook")
}

func TestSheetName(t *testing.T) {
	tests := map[string]string{
		"dbnCpt":                                 "dbnCpt",
		"a/b:c?d*e[f]g\\h":                       "a_b_c_d_e_f_g_h",
		"'quoted'":                               "quoted",
		"":                                       "journey",
		strings.Repeat("x", 40):                  strings.Repeat("x", 31),
		"cape-town-to-kimberley-to-johannesburg": "cape-town-to-kimberley-to-johan",
	}
	for input, want := range tests {
		assert.Equal(t, want, workbook.SheetName(input), input)
	}
}
