package zonal

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
)

// Row is one geometry's extraction outcome. Values holds one summary
// per grid layer with NaN marking missing; Err is non-nil only for a
// malformed geometry (wrapping ErrInvalidGeometry).
type Row struct {
	ID     string
	Values []float64
	Err    error
}

// Missing reports whether the layer's summary is missing.
func (r *Row) Missing(layer int) bool { return math.IsNaN(r.Values[layer]) }

// missingRow builds a row with every layer missing.
func missingRow(id string, layers int) Row {
	vals := make([]float64, layers)
	for i := range vals {
		vals[i] = math.NaN()
	}
	return Row{ID: id, Values: vals}
}

// Result is an ordered extraction outcome: one row per input geometry,
// in input order.
type Result struct {
	// Aggregator is the name of the reduction that produced the values.
	Aggregator string

	// Layers is the number of per-row summary values.
	Layers int

	Rows []Row
}

// WriteCSV writes the result as a table: a geometry identifier column,
// one column per layer (empty cell for missing), and an error column.
func (res *Result) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := make([]string, 0, res.Layers+2)
	header = append(header, "id")
	for l := 0; l < res.Layers; l++ {
		header = append(header, fmt.Sprintf("%s_%d", res.Aggregator, l+1))
	}
	header = append(header, "error")
	if err := cw.Write(header); err != nil {
		return err
	}
	rec := make([]string, len(header))
	for i := range res.Rows {
		row := &res.Rows[i]
		rec[0] = row.ID
		for l, v := range row.Values {
			if math.IsNaN(v) {
				rec[l+1] = ""
			} else {
				rec[l+1] = strconv.FormatFloat(v, 'g', -1, 64)
			}
		}
		if row.Err != nil {
			rec[len(rec)-1] = row.Err.Error()
		} else {
			rec[len(rec)-1] = ""
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// jsonRow is the wire form of a Row; missing values encode as null.
type jsonRow struct {
	ID     string     `json:"id"`
	Values []*float64 `json:"values"`
	Error  string     `json:"error,omitempty"`
}

// WriteJSON writes the result as a JSON document with one object per
// row; missing values encode as null.
func (res *Result) WriteJSON(w io.Writer) error {
	out := struct {
		Aggregator string    `json:"aggregator"`
		Layers     int       `json:"layers"`
		Rows       []jsonRow `json:"rows"`
	}{
		Aggregator: res.Aggregator,
		Layers:     res.Layers,
		Rows:       make([]jsonRow, len(res.Rows)),
	}
	for i := range res.Rows {
		row := &res.Rows[i]
		jr := jsonRow{ID: row.ID, Values: make([]*float64, len(row.Values))}
		for l := range row.Values {
			if !math.IsNaN(row.Values[l]) {
				v := row.Values[l]
				jr.Values[l] = &v
			}
		}
		if row.Err != nil {
			jr.Error = row.Err.Error()
		}
		out.Rows[i] = jr
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
