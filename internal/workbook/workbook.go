// Package workbook writes journey tables to an xlsx workbook, one sheet per table.
package workbook

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/UnknownOlympus/tracksheet/internal/models"
	"github.com/UnknownOlympus/tracksheet/internal/table"
	"github.com/xuri/excelize/v2"
)

const (
	defaultSheet   = "Sheet1"
	maxSheetName   = 31
	invalidInSheet = `:\/?*[]`
)

// ErrEmptyWorkbook is returned when saving a workbook no table was written to.
var ErrEmptyWorkbook = errors.New("workbook has no sheets")

// Workbook accumulates tables in memory until Save is called.
type Workbook struct {
	mu          sync.Mutex
	file        *excelize.File
	sheets      []string
	messageData bool
}

// New creates an empty workbook. With messageData set, journey sheets carry an extra
// column holding the hex sigbug payload of each reading.
func New(messageData bool) *Workbook {
	return &Workbook{file: excelize.NewFile(), messageData: messageData}
}

// Write adds a sheet for the track.
func (w *Workbook) Write(_ context.Context, track models.Track) error {
	return w.WriteTable(table.FromTrack(track, w.messageData))
}

// WriteTable adds a sheet named after the table with the header in the first row.
// Sheets keep the order tables were written in.
func (w *Workbook) WriteTable(tbl *table.Table) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	name := w.uniqueName(SheetName(tbl.Name))
	if len(w.sheets) == 0 {
		if err := w.file.SetSheetName(defaultSheet, name); err != nil {
			return fmt.Errorf("failed to rename first sheet to %q: %w", name, err)
		}
	} else if _, err := w.file.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %q: %w", name, err)
	}
	w.sheets = append(w.sheets, name)

	header := tbl.Header()
	if err := w.setRow(name, 1, header); err != nil {
		return err
	}
	for idx, row := range tbl.Rows {
		if err := w.setRow(name, idx+2, row); err != nil {
			return err
		}
	}

	return nil
}

func (w *Workbook) setRow(sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to address row %d: %w", row, err)
	}
	if err = w.file.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d of sheet %q: %w", row, sheet, err)
	}
	return nil
}

// Sheets returns the sheet names written so far.
func (w *Workbook) Sheets() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	return append([]string(nil), w.sheets...)
}

// Save writes the workbook to path with the first sheet active.
func (w *Workbook) Save(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.sheets) == 0 {
		return ErrEmptyWorkbook
	}

	w.file.SetActiveSheet(0)
	if err := w.file.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook to %s: %w", path, err)
	}
	return nil
}

// Close releases the workbook.
func (w *Workbook) Close() error {
	return w.file.Close()
}

// uniqueName appends " (n)" until the name does not clash with an existing sheet.
// Excel compares sheet names case-insensitively.
func (w *Workbook) uniqueName(name string) string {
	taken := func(candidate string) bool {
		for _, s := range w.sheets {
			if strings.EqualFold(s, candidate) {
				return true
			}
		}
		return false
	}

	if !taken(name) {
		return name
	}
	for n := 2; ; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		candidate := truncate(name, maxSheetName-len(suffix)) + suffix
		if !taken(candidate) {
			return candidate
		}
	}
}

// SheetName makes name acceptable to Excel: at most 31 characters, none of
// : \ / ? * [ ], and no leading or trailing apostrophe.
func SheetName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(invalidInSheet, r) {
			return '_'
		}
		return r
	}, name)
	cleaned = strings.Trim(cleaned, "'")
	if cleaned == "" {
		cleaned = "journey"
	}
	return truncate(cleaned, maxSheetName)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
