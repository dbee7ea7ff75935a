// Package table is a plain tabular model: named columns and appended rows.
package table

import (
	"errors"
	"fmt"

	"github.com/UnknownOlympus/tracksheet/internal/models"
	"github.com/UnknownOlympus/tracksheet/internal/sigbug"
)

// Column headers of a journey table.
const (
	ColumnLat         = "Lat"
	ColumnLon         = "Lon"
	ColumnStamp       = "stamp"
	ColumnMessageData = "messageData"
)

// ErrColumnMismatch is returned when a row does not have one value per column.
var ErrColumnMismatch = errors.New("row does not match table columns")

// Table is an ordered list of named columns and the rows appended to it.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// New creates an empty table.
func New(name string, columns ...string) *Table {
	return &Table{Name: name, Columns: columns}
}

// AppendRow adds a row. It must carry exactly one value per column.
func (t *Table) AppendRow(values ...any) error {
	if len(values) != len(t.Columns) {
		return fmt.Errorf("%w: table %q has %d columns, got %d values",
			ErrColumnMismatch, t.Name, len(t.Columns), len(values))
	}
	t.Rows = append(t.Rows, values)
	return nil
}

// Header returns the column names as a row of values.
func (t *Table) Header() []any {
	header := make([]any, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col
	}
	return header
}

// FromTrack lays a processed journey out as Lat, Lon and unix stamp columns, plus the
// hex sigbug payload when withMessageData is set.
func FromTrack(track models.Track, withMessageData bool) *Table {
	columns := []string{ColumnLat, ColumnLon, ColumnStamp}
	if withMessageData {
		columns = append(columns, ColumnMessageData)
	}

	tbl := New(track.Name, columns...)
	tbl.Rows = make([][]any, 0, len(track.Readings))
	for _, rdg := range track.Readings {
		row := []any{rdg.Latitude, rdg.Longitude, rdg.Timestamp.Unix()}
		if withMessageData {
			row = append(row, sigbug.Encode(rdg.Latitude, rdg.Longitude))
		}
		tbl.Rows = append(tbl.Rows, row)
	}

	return tbl
}
