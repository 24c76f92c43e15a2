package pipeline

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// DecodeXLSX parses the first sheet of an XLSX workbook into a Table, with
// the same header rules as DecodeCSV.
func DecodeXLSX(r io.Reader) (Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Table{}, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return Table{}, fmt.Errorf("%w: workbook has no sheets", ErrMissingColumn)
	}

	records, err := f.GetRows(sheet)
	if err != nil {
		return Table{}, fmt.Errorf("read xlsx sheet %q: %w", sheet, err)
	}
	return tableFromRecords(records)
}
