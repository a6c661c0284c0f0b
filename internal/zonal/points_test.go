package zonal_test

import (
	"errors"
	"testing"

	"github.com/gridward/zonal/internal/raster"
	"github.com/gridward/zonal/internal/testutil"
	"github.com/gridward/zonal/internal/zonal"
)

func TestExtractPointsNearest(t *testing.T) {
	g := testutil.Grid4x4(t)
	pts := testutil.Points(
		[2]float64{0.5, 3.5}, // top-left cell
		[2]float64{3.5, 0.5}, // bottom-right cell
		[2]float64{9, 9},     // outside the grid
	)
	res, err := zonal.ExtractPoints(g, pts, nil, zonal.Policy{})
	testutil.AssertNoError(t, err)
	if len(res.Rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(res.Rows))
	}
	if v := res.Rows[0].Values[0]; v != 1 {
		t.Errorf("point (0.5, 3.5) = %g, want 1", v)
	}
	if v := res.Rows[1].Values[0]; v != 16 {
		t.Errorf("point (3.5, 0.5) = %g, want 16", v)
	}
	testutil.AssertMissing(t, res.Rows[2].Values[0])
}

func TestExtractPointsOrderPreserved(t *testing.T) {
	g := testutil.Grid4x4(t)
	pts := testutil.Points(
		[2]float64{3.5, 0.5},
		[2]float64{0.5, 3.5},
		[2]float64{1.5, 3.5},
	)
	res, err := zonal.ExtractPoints(g, pts, nil, zonal.Policy{})
	testutil.AssertNoError(t, err)
	want := []float64{16, 1, 2}
	for i, w := range want {
		if res.Rows[i].ID != pts.Features[i].ID {
			t.Errorf("row %d has ID %q, want %q", i, res.Rows[i].ID, pts.Features[i].ID)
		}
		if res.Rows[i].Values[0] != w {
			t.Errorf("row %d = %g, want %g", i, res.Rows[i].Values[0], w)
		}
	}
}

func TestExtractPointsBilinear(t *testing.T) {
	g := testutil.Grid4x4(t)
	pol := zonal.Policy{PointInterpolation: zonal.InterpBilinear}

	// At a cell center bilinear equals the cell value.
	res, err := zonal.ExtractPoints(g, testutil.Points([2]float64{1.5, 2.5}), nil, pol)
	testutil.AssertNoError(t, err)
	testutil.AssertInDelta(t, res.Rows[0].Values[0], 6, 1e-12)

	// Halfway between the centers of cells 6 and 7 the blend is 6.5.
	res, err = zonal.ExtractPoints(g, testutil.Points([2]float64{2, 2.5}), nil, pol)
	testutil.AssertNoError(t, err)
	testutil.AssertInDelta(t, res.Rows[0].Values[0], 6.5, 1e-12)

	// Center of the 2x2 block {6,7,10,11} blends to their mean.
	res, err = zonal.ExtractPoints(g, testutil.Points([2]float64{2, 2}), nil, pol)
	testutil.AssertNoError(t, err)
	testutil.AssertInDelta(t, res.Rows[0].Values[0], 8.5, 1e-12)
}

func TestExtractPointsBilinearEdgeFallback(t *testing.T) {
	g := testutil.Grid4x4(t)
	pol := zonal.Policy{PointInterpolation: zonal.InterpBilinear}

	// In the outer half-cell margin the 4-neighbour stencil does not
	// exist; the enclosing cell's value is used instead.
	res, err := zonal.ExtractPoints(g, testutil.Points([2]float64{0.1, 3.9}), nil, pol)
	testutil.AssertNoError(t, err)
	if v := res.Rows[0].Values[0]; v != 1 {
		t.Errorf("edge point = %g, want nearest fallback 1", v)
	}
}

func TestExtractPointsBilinearNoData(t *testing.T) {
	vals := []float64{
		1, 2, -9999, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	}
	g, err := raster.NewGrid(raster.GridSpec{
		Rows: 4, Cols: 4, Layers: 1, Dx: 1, Dy: 1, NoData: -9999,
	}, [][]float64{vals})
	testutil.AssertNoError(t, err)

	// The stencil around (1.8, 3.2) touches the no-data cell; the
	// non-strict policy falls back to the enclosing cell.
	pol := zonal.Policy{PointInterpolation: zonal.InterpBilinear}
	res, err := zonal.ExtractPoints(g, testutil.Points([2]float64{1.8, 3.2}), nil, pol)
	testutil.AssertNoError(t, err)
	if v := res.Rows[0].Values[0]; v != 2 {
		t.Errorf("no-data stencil = %g, want enclosing cell 2", v)
	}

	pol.Strict = true
	res, err = zonal.ExtractPoints(g, testutil.Points([2]float64{1.8, 3.2}), nil, pol)
	testutil.AssertNoError(t, err)
	testutil.AssertMissing(t, res.Rows[0].Values[0])
}

func TestExtractPointsBuffer(t *testing.T) {
	g := testutil.Grid4x4(t)

	// Radius 1 around (1.5, 2.5) reaches the centers of cells 2, 5, 6,
	// 7 and 10 (the von Neumann neighbourhood of cell 6).
	pol := zonal.Policy{PointBufferRadius: 1}
	res, err := zonal.ExtractPoints(g, testutil.Points([2]float64{1.5, 2.5}), zonal.Mean, pol)
	testutil.AssertNoError(t, err)
	testutil.AssertInDelta(t, res.Rows[0].Values[0], (2.0+5+6+7+10)/5, 1e-12)

	// A buffer reaching no cell centers is missing.
	pol = zonal.Policy{PointBufferRadius: 0.2}
	res, err = zonal.ExtractPoints(g, testutil.Points([2]float64{1.0, 2.0}), zonal.Mean, pol)
	testutil.AssertNoError(t, err)
	testutil.AssertMissing(t, res.Rows[0].Values[0])
}

func TestExtractPointsCRSMismatch(t *testing.T) {
	vals := make([]float64, 16)
	g, err := raster.NewGrid(raster.GridSpec{
		Rows: 4, Cols: 4, Layers: 1, Dx: 1, Dy: 1, CRS: "EPSG:32633",
	}, [][]float64{vals})
	testutil.AssertNoError(t, err)

	pts := testutil.Points([2]float64{0.5, 0.5})
	pts.CRS = "EPSG:4326"
	_, err = zonal.ExtractPoints(g, pts, nil, zonal.Policy{})
	if !errors.Is(err, zonal.ErrGeometryMismatch) {
		t.Fatalf("err = %v, want ErrGeometryMismatch", err)
	}
}

func TestExtractPointsRejectsPolygons(t *testing.T) {
	g := testutil.Grid4x4(t)
	fc := testutil.Polygons(testutil.Rect(0, 0, 1, 1))
	if _, err := zonal.ExtractPoints(g, fc, nil, zonal.Policy{}); !errors.Is(err, zonal.ErrGeometryMismatch) {
		t.Fatal("polygon input not rejected as a geometry mismatch")
	}
}

func TestPolicyValidate(t *testing.T) {
	bad := zonal.Policy{PointBufferRadius: -1}
	if err := bad.Validate(); err == nil {
		t.Error("negative radius accepted")
	}
	bad = zonal.Policy{PointInterpolation: "cubic"}
	if err := bad.Validate(); err == nil {
		t.Error("unknown interpolation accepted")
	}
	bad = zonal.Policy{PointBufferRadius: 1, PointInterpolation: zonal.InterpBilinear}
	if err := bad.Validate(); err == nil {
		t.Error("buffer+bilinear combination accepted")
	}
	good := zonal.Policy{PointBufferRadius: 1, PointInterpolation: zonal.InterpNearest}
	if err := good.Validate(); err != nil {
		t.Errorf("valid policy rejected: %v", err)
	}
}
