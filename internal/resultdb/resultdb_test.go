package resultdb

import (
	"fmt"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gridward/zonal/internal/zonal"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testResult() *zonal.Result {
	return &zonal.Result{
		Aggregator: "mean",
		Layers:     2,
		Rows: []zonal.Row{
			{ID: "a", Values: []float64{1.5, 2.5}},
			{ID: "b", Values: []float64{math.NaN(), 4}},
			{ID: "c", Values: []float64{math.NaN(), math.NaN()},
				Err: fmt.Errorf("%w: self-intersecting ring", zonal.ErrInvalidGeometry)},
		},
	}
}

func TestSaveAndReloadRun(t *testing.T) {
	s := openTestStore(t)

	run := &Run{RasterPath: "dem.asc", VectorPath: "parcels.shp", Notes: "baseline"}
	require.NoError(t, s.SaveRun(run, testResult()))
	require.NotEmpty(t, run.RunID)
	require.NotZero(t, run.CreatedAtNs)
	require.Equal(t, 3, run.RowCount)

	got, err := s.GetRun(run.RunID)
	require.NoError(t, err)
	require.Equal(t, "mean", got.Aggregator)
	require.Equal(t, 2, got.Layers)
	require.Equal(t, "dem.asc", got.RasterPath)
	require.Equal(t, 3, got.RowCount)

	res, err := s.Rows(run.RunID)
	require.NoError(t, err)
	require.Len(t, res.Rows, 3)
	require.Equal(t, "a", res.Rows[0].ID)
	require.Equal(t, []float64{1.5, 2.5}, res.Rows[0].Values)

	// Missing values survive the round trip as NaN.
	require.True(t, res.Rows[1].Missing(0))
	require.Equal(t, 4.0, res.Rows[1].Values[1])

	// Row errors come back as opaque strings.
	require.Error(t, res.Rows[2].Err)
	require.Contains(t, res.Rows[2].Err.Error(), "self-intersecting")
}

func TestListRunsNewestFirst(t *testing.T) {
	s := openTestStore(t)

	first := &Run{RasterPath: "a.asc", VectorPath: "a.shp", CreatedAtNs: 100}
	second := &Run{RasterPath: "b.asc", VectorPath: "b.shp", CreatedAtNs: 200}
	require.NoError(t, s.SaveRun(first, testResult()))
	require.NoError(t, s.SaveRun(second, testResult()))

	runs, err := s.ListRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, second.RunID, runs[0].RunID)
	require.Equal(t, first.RunID, runs[1].RunID)
}

func TestGetRunNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetRun("no-such-run")
	require.Error(t, err)
}

func TestDeleteRun(t *testing.T) {
	s := openTestStore(t)

	run := &Run{RasterPath: "a.asc", VectorPath: "a.shp"}
	require.NoError(t, s.SaveRun(run, testResult()))
	require.NoError(t, s.DeleteRun(run.RunID))

	_, err := s.GetRun(run.RunID)
	require.Error(t, err)

	runs, err := s.ListRuns()
	require.NoError(t, err)
	require.Empty(t, runs)
}

func TestReopenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "results.db")

	s, err := Open(path)
	require.NoError(t, err)
	run := &Run{RasterPath: "a.asc", VectorPath: "a.shp"}
	require.NoError(t, s.SaveRun(run, testResult()))
	require.NoError(t, s.Close())

	// Migrations are a no-op the second time and data persists.
	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.GetRun(run.RunID)
	require.NoError(t, err)
	require.Equal(t, run.RunID, got.RunID)
}
