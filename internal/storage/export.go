package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
)

// WriteCSV streams a trajectory as a named-column CSV.
func WriteCSV(w io.Writer, columns []string, rows [][]float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	rec := make([]string, len(columns))
	for _, row := range rows {
		for j, v := range row {
			rec[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportData is the JSON export schema: run metadata plus the full
// trajectory, columns named.
type ExportData struct {
	Metadata RunMetadata `json:"metadata"`
	Columns  []string    `json:"columns"`
	Rows     [][]float64 `json:"rows"`
}

// WriteJSON streams a run as indented JSON.
func WriteJSON(w io.Writer, meta RunMetadata, columns []string, rows [][]float64) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{Metadata: meta, Columns: columns, Rows: rows})
}
