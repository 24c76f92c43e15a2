package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tidewatch/marine-enrich/internal/domain"
)

// ErrMissingColumn is the only fatal, batch-aborting input error: the file
// lacks one of the required timestamp/lat/lon columns entirely.
var ErrMissingColumn = errors.New("missing required column")

// weatherColumns is the output column set, in order. Names are part of the
// download contract consumed by the map UI and downstream spreadsheets.
var weatherColumns = []string{
	"windSpeed_kt",
	"windDir_deg_from",
	"sigWaveHeight_m",
	"sigWaveDir_deg_from",
	"windWaveHeight_m",
	"windWaveDir_deg_from",
	"swellHeight_m",
	"swellDir_deg_from",
	"currentSpeed_kt",
	"currentDir_deg_to",
}

// DecodeCSV parses an uploaded CSV into a Table. Required headers are matched
// case-insensitively; every other column passes through untouched, in order.
func DecodeCSV(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("read csv: %w", err)
	}
	return tableFromRecords(records)
}

// tableFromRecords builds a Table from header + data records. Shared by the
// CSV and XLSX decoders.
func tableFromRecords(records [][]string) (Table, error) {
	if len(records) == 0 {
		return Table{}, fmt.Errorf("%w: empty file", ErrMissingColumn)
	}

	header := records[0]
	tsIdx, latIdx, lonIdx := -1, -1, -1
	var extraNames []string
	var extraIdx []int

	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "timestamp":
			tsIdx = i
		case "lat":
			latIdx = i
		case "lon":
			lonIdx = i
		default:
			extraNames = append(extraNames, name)
			extraIdx = append(extraIdx, i)
		}
	}

	switch {
	case tsIdx == -1:
		return Table{}, fmt.Errorf("%w: timestamp", ErrMissingColumn)
	case latIdx == -1:
		return Table{}, fmt.Errorf("%w: lat", ErrMissingColumn)
	case lonIdx == -1:
		return Table{}, fmt.Errorf("%w: lon", ErrMissingColumn)
	}

	rows := make([]domain.InputRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := domain.InputRow{
			Timestamp: cell(rec, tsIdx),
			Lat:       cell(rec, latIdx),
			Lon:       cell(rec, lonIdx),
		}
		if len(extraIdx) > 0 {
			row.Extra = make(map[string]string, len(extraIdx))
			for j, idx := range extraIdx {
				row.Extra[extraNames[j]] = cell(rec, idx)
			}
		}
		rows = append(rows, row)
	}

	return Table{Rows: rows, ExtraColumns: extraNames}, nil
}

// cell tolerates short records: XLSX readers drop trailing empty cells.
func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

// EncodeCSV writes the enriched dataset as CSV: the three input columns, the
// matched API hour, the weather columns, the row error, then all passthrough
// columns in their original order. Floats use the shortest representation
// that round-trips float64.
func EncodeCSV(w io.Writer, ds *Dataset) error {
	cw := csv.NewWriter(w)

	header := append([]string{"timestamp", "lat", "lon", "isoTime"}, weatherColumns...)
	header = append(header, "enrich_error")
	header = append(header, ds.ExtraColumns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, row := range ds.Rows {
		rec := []string{row.Input.Timestamp, row.Input.Lat, row.Input.Lon, row.Observation.MatchedTime}
		for _, v := range observationValues(row.Observation) {
			rec = append(rec, formatFloat(v))
		}
		rec = append(rec, row.Err)
		for _, name := range ds.ExtraColumns {
			rec = append(rec, row.Input.Extra[name])
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// observationValues returns the observation fields in weatherColumns order.
func observationValues(o domain.Observation) []*float64 {
	return []*float64{
		o.WindSpeedKt,
		o.WindDirDegFrom,
		o.SigWaveHeightM,
		o.SigWaveDirDegFrom,
		o.WindWaveHeightM,
		o.WindWaveDirDegFrom,
		o.SwellHeightM,
		o.SwellDirDegFrom,
		o.CurrentSpeedKt,
		o.CurrentDirDegTo,
	}
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}
