// Package testutil provides shared test fixtures and assertion helpers
// for the raster and extraction packages.
package testutil

import (
	"math"
	"strconv"
	"testing"

	"github.com/ctessum/geom"

	"github.com/gridward/zonal/internal/raster"
	"github.com/gridward/zonal/internal/vector"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertInDelta checks that got is within delta of want.
func AssertInDelta(t *testing.T, got, want, delta float64) {
	t.Helper()
	if math.IsNaN(got) || math.Abs(got-want) > delta {
		t.Errorf("got %g, want %g (±%g)", got, want, delta)
	}
}

// AssertMissing checks that v is the missing marker (NaN).
func AssertMissing(t *testing.T, v float64) {
	t.Helper()
	if !math.IsNaN(v) {
		t.Errorf("got %g, want missing", v)
	}
}

// Grid4x4 builds the canonical single-layer test grid: 4x4 cells,
// resolution (1,1), origin at (0,4), values 1..16 row-major from the
// top-left corner, no-data sentinel -9999.
func Grid4x4(t *testing.T) *raster.Grid {
	t.Helper()
	vals := make([]float64, 16)
	for i := range vals {
		vals[i] = float64(i + 1)
	}
	g, err := raster.NewGrid(raster.GridSpec{
		Rows: 4, Cols: 4, Layers: 1,
		Dx: 1, Dy: 1,
		MinX: 0, MinY: 0,
		NoData: -9999,
	}, [][]float64{vals})
	if err != nil {
		t.Fatalf("building test grid: %v", err)
	}
	return g
}

// Rect builds a rectangular polygon from corner coordinates.
func Rect(minX, minY, maxX, maxY float64) geom.Polygon {
	return geom.Polygon{{
		{X: minX, Y: minY},
		{X: maxX, Y: minY},
		{X: maxX, Y: maxY},
		{X: minX, Y: maxY},
	}}
}

// Points wraps coordinates into a point feature collection with
// positional IDs.
func Points(coords ...[2]float64) *vector.FeatureCollection {
	fc := &vector.FeatureCollection{}
	for i, c := range coords {
		fc.Features = append(fc.Features, &vector.Feature{
			ID:   strconv.Itoa(i),
			Geom: geom.Point{X: c[0], Y: c[1]},
		})
	}
	return fc
}

// Polygons wraps geometries into a polygon feature collection with
// positional IDs.
func Polygons(polys ...geom.Polygonal) *vector.FeatureCollection {
	fc := &vector.FeatureCollection{}
	for i, p := range polys {
		fc.Features = append(fc.Features, &vector.Feature{ID: strconv.Itoa(i), Geom: p})
	}
	return fc
}

