package workbook

import (
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ErrSheetNotFound is returned when reading a sheet the workbook does not have.
var ErrSheetNotFound = errors.New("sheet does not exist")

// Reader reads sheets of an existing workbook as header keyed rows.
type Reader struct {
	file *excelize.File
}

// Open opens the workbook at path.
func Open(path string) (*Reader, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	return &Reader{file: file}, nil
}

// SheetNames lists the sheets in workbook order.
func (r *Reader) SheetNames() []string {
	return r.file.GetSheetList()
}

// SheetAsSliceMap returns every row below the header row of sheet as a map from
// header to cell value. Missing trailing cells read as empty strings.
func (r *Reader) SheetAsSliceMap(sheet string) ([]map[string]string, error) {
	if idx, _ := r.file.GetSheetIndex(sheet); idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}

	rows, err := r.file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return []map[string]string{}, nil
	}

	header := rows[0]
	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make(map[string]string, len(header))
		for col, name := range header {
			if col < len(row) {
				record[name] = row[col]
			} else {
				record[name] = ""
			}
		}
		records = append(records, record)
	}

	return records, nil
}

// Close releases the workbook.
func (r *Reader) Close() error {
	return r.file.Close()
}
