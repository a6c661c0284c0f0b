// Package resultdb persists extraction runs to a SQLite database so
// repeated extractions over the same inputs can be compared later.
package resultdb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/gridward/zonal/internal/zonal"
)

// Run records one extraction: where the inputs came from, which
// reduction was applied, and when it ran. RowCount is derived.
type Run struct {
	RunID       string `json:"run_id"`
	RasterPath  string `json:"raster_path"`
	VectorPath  string `json:"vector_path"`
	Aggregator  string `json:"aggregator"`
	Layers      int    `json:"layers"`
	Notes       string `json:"notes,omitempty"`
	CreatedAtNs int64  `json:"created_at_ns"`
	RowCount    int    `json:"row_count"`
}

// Store provides persistence for extraction runs and their rows.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path and applies
// any pending schema migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open result db: %w", err)
	}
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// SaveRun stores a run and its result rows in one transaction. If
// run.RunID is empty, a new UUID is generated. Missing values are
// stored as JSON nulls so they survive a round trip intact.
func (s *Store) SaveRun(run *Run, res *zonal.Result) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAtNs == 0 {
		run.CreatedAtNs = time.Now().UnixNano()
	}
	run.Aggregator = res.Aggregator
	run.Layers = res.Layers
	run.RowCount = len(res.Rows)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (run_id, raster_path, vector_path, aggregator, layers, notes, created_at_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.RunID, run.RasterPath, run.VectorPath, run.Aggregator, run.Layers, run.Notes, run.CreatedAtNs)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO run_rows (run_id, seq, geom_id, values_json, error)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare row insert: %w", err)
	}
	defer stmt.Close()

	for i := range res.Rows {
		row := &res.Rows[i]
		vals, err := encodeValues(row.Values)
		if err != nil {
			return fmt.Errorf("encode row %s: %w", row.ID, err)
		}
		var rowErr sql.NullString
		if row.Err != nil {
			rowErr = sql.NullString{String: row.Err.Error(), Valid: true}
		}
		if _, err := stmt.Exec(run.RunID, i, row.ID, vals, rowErr); err != nil {
			return fmt.Errorf("insert row %s: %w", row.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save run: %w", err)
	}
	return nil
}

// GetRun retrieves a run's metadata by ID.
func (s *Store) GetRun(runID string) (*Run, error) {
	var run Run
	err := s.db.QueryRow(`
		SELECT r.run_id, r.raster_path, r.vector_path, r.aggregator, r.layers, r.notes, r.created_at_ns,
		       (SELECT COUNT(*) FROM run_rows WHERE run_id = r.run_id)
		FROM runs r
		WHERE r.run_id = ?
	`, runID).Scan(
		&run.RunID, &run.RasterPath, &run.VectorPath, &run.Aggregator,
		&run.Layers, &run.Notes, &run.CreatedAtNs, &run.RowCount,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return &run, nil
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns() ([]Run, error) {
	rows, err := s.db.Query(`
		SELECT r.run_id, r.raster_path, r.vector_path, r.aggregator, r.layers, r.notes, r.created_at_ns,
		       (SELECT COUNT(*) FROM run_rows WHERE run_id = r.run_id)
		FROM runs r
		ORDER BY r.created_at_ns DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(
			&run.RunID, &run.RasterPath, &run.VectorPath, &run.Aggregator,
			&run.Layers, &run.Notes, &run.CreatedAtNs, &run.RowCount,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Rows reconstructs a run's result in the original extraction order.
// Row errors come back as opaque strings wrapped in a plain error.
func (s *Store) Rows(runID string) (*zonal.Result, error) {
	run, err := s.GetRun(runID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT geom_id, values_json, error
		FROM run_rows
		WHERE run_id = ?
		ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run rows: %w", err)
	}
	defer rows.Close()

	res := &zonal.Result{Aggregator: run.Aggregator, Layers: run.Layers}
	for rows.Next() {
		var (
			id     string
			vals   string
			rowErr sql.NullString
		)
		if err := rows.Scan(&id, &vals, &rowErr); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		values, err := decodeValues(vals)
		if err != nil {
			return nil, fmt.Errorf("decode row %s: %w", id, err)
		}
		row := zonal.Row{ID: id, Values: values}
		if rowErr.Valid {
			row.Err = fmt.Errorf("%s", rowErr.String)
		}
		res.Rows = append(res.Rows, row)
	}
	return res, rows.Err()
}

// DeleteRun removes a run and its rows.
func (s *Store) DeleteRun(runID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin delete run: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM run_rows WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("delete run rows: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM runs WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return tx.Commit()
}

// encodeValues marshals per-layer values as a JSON array with null
// standing in for missing, since JSON has no NaN.
func encodeValues(values []float64) (string, error) {
	out := make([]*float64, len(values))
	for i, v := range values {
		if !math.IsNaN(v) {
			c := v
			out[i] = &c
		}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeValues(s string) ([]float64, error) {
	var in []*float64
	if err := json.Unmarshal([]byte(s), &in); err != nil {
		return nil, err
	}
	out := make([]float64, len(in))
	for i, p := range in {
		if p == nil {
			out[i] = math.NaN()
		} else {
			out[i] = *p
		}
	}
	return out, nil
}
