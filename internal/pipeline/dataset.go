package pipeline

import (
	"github.com/tidewatch/marine-enrich/internal/domain"
)

// Table is a decoded input file: the rows to enrich plus the passthrough
// column names in their original order.
type Table struct {
	Rows         []domain.InputRow
	ExtraColumns []string
}

// Dataset is the enrichment result for one batch. Row order always matches
// the input order and len(Rows) always equals the input row count.
type Dataset struct {
	ID           string
	Rows         []domain.EnrichedRow
	ExtraColumns []string
}

// FailedCount returns the number of rows carrying a row-level error.
func (d *Dataset) FailedCount() int {
	n := 0
	for _, r := range d.Rows {
		if r.Failed() {
			n++
		}
	}
	return n
}

// WarningCount returns the total endpoint warnings across all rows.
func (d *Dataset) WarningCount() int {
	n := 0
	for _, r := range d.Rows {
		n += len(r.Warnings)
	}
	return n
}
