package zonal

import (
	"math"

	"github.com/ctessum/geom"

	"github.com/gridward/zonal/internal/raster"
	"github.com/gridward/zonal/internal/vector"
)

// ExtractPoints reads grid values at each point of the collection.
//
// Default behaviour reads the enclosing cell per layer; a point outside
// the grid extent yields a missing row. With bilinear interpolation the
// four nearest cell centers are blended; with a buffer radius every
// cell whose center lies within the radius contributes and the set is
// reduced with agg. agg is only consulted for buffered points and may
// be nil otherwise.
//
// The output has one row per input feature, in input order.
func ExtractPoints(g *raster.Grid, fc *vector.FeatureCollection, agg Aggregator, pol Policy) (*Result, error) {
	if err := checkBatch(g, fc, pol, false); err != nil {
		return nil, err
	}
	res := &Result{Layers: g.Layers()}
	if agg != nil {
		res.Aggregator = agg.Name()
	} else {
		res.Aggregator = "value"
	}
	res.Rows = make([]Row, 0, len(fc.Features))
	for _, f := range fc.Features {
		res.Rows = append(res.Rows, extractPoint(g, f, agg, pol))
	}
	return res, nil
}

func extractPoint(g *raster.Grid, f *vector.Feature, agg Aggregator, pol Policy) Row {
	// MultiPoint contributes all member cells like a buffered read.
	pts := pointsOf(f.Geom)
	if len(pts) == 0 {
		return missingRow(f.ID, g.Layers())
	}

	if pol.PointBufferRadius > 0 || len(pts) > 1 {
		cells := bufferCells(g, pts, pol.PointBufferRadius)
		if len(cells) == 0 {
			return missingRow(f.ID, g.Layers())
		}
		weights := make([]float64, len(cells))
		for i := range weights {
			weights[i] = 1
		}
		a := agg
		if a == nil {
			a = Mean
		}
		return Row{ID: f.ID, Values: reduceCells(g, cells, weights, a, pol, false)}
	}

	p := pts[0]
	row, col, ok := g.CellAt(p.X, p.Y)
	if !ok {
		return missingRow(f.ID, g.Layers())
	}

	vals := make([]float64, g.Layers())
	for l := range vals {
		if pol.PointInterpolation == InterpBilinear {
			vals[l] = bilinear(g, l, p.X, p.Y, row, col, pol)
		} else {
			vals[l] = cellValue(g, l, row, col)
		}
	}
	return Row{ID: f.ID, Values: vals}
}

func pointsOf(gm geom.Geom) []geom.Point {
	switch t := gm.(type) {
	case geom.Point:
		return []geom.Point{t}
	case geom.MultiPoint:
		return []geom.Point(t)
	}
	return nil
}

// cellValue reads one cell, mapping the no-data sentinel to NaN.
func cellValue(g *raster.Grid, layer, row, col int) float64 {
	v := g.Value(layer, row, col)
	if g.IsNoData(v) {
		return math.NaN()
	}
	return v
}

// bilinear blends the four cell centers surrounding (x, y) with a
// bilinear kernel on the normalized fractional offsets. When any of the
// four neighbours is off-grid — the point lies in the outer half-cell
// margin — or holds no-data, the enclosing cell's value is used
// instead (missing if that cell is itself no-data). Under a strict
// policy a no-data neighbour makes the value missing outright.
func bilinear(g *raster.Grid, layer int, x, y float64, row, col int, pol Policy) float64 {
	b := g.Bounds()
	dx, dy := g.Resolution()
	gx := (x-b.Min.X)/dx - 0.5
	gy := (b.Max.Y-y)/dy - 0.5
	col0 := int(math.Floor(gx))
	row0 := int(math.Floor(gy))
	tx := gx - float64(col0)
	ty := gy - float64(row0)

	if col0 < 0 || col0+1 >= g.Cols() || row0 < 0 || row0+1 >= g.Rows() {
		return cellValue(g, layer, row, col)
	}

	v00 := g.Value(layer, row0, col0)
	v01 := g.Value(layer, row0, col0+1)
	v10 := g.Value(layer, row0+1, col0)
	v11 := g.Value(layer, row0+1, col0+1)
	if g.IsNoData(v00) || g.IsNoData(v01) || g.IsNoData(v10) || g.IsNoData(v11) {
		if pol.Strict {
			return math.NaN()
		}
		return cellValue(g, layer, row, col)
	}
	return v00*(1-tx)*(1-ty) + v01*tx*(1-ty) + v10*(1-tx)*ty + v11*tx*ty
}

// bufferCells collects the linear indices of every cell whose center
// lies within radius of any of the points. A zero radius selects each
// point's enclosing cell.
func bufferCells(g *raster.Grid, pts []geom.Point, radius float64) []int {
	seen := make(map[int]struct{})
	var cells []int
	add := func(idx int) {
		if _, dup := seen[idx]; !dup {
			seen[idx] = struct{}{}
			cells = append(cells, idx)
		}
	}
	for _, p := range pts {
		if radius == 0 {
			if row, col, ok := g.CellAt(p.X, p.Y); ok {
				add(g.Index(row, col))
			}
			continue
		}
		window := &geom.Bounds{
			Min: geom.Point{X: p.X - radius, Y: p.Y - radius},
			Max: geom.Point{X: p.X + radius, Y: p.Y + radius},
		}
		forEachCandidate(g, window, func(row, col int) {
			cx, cy := g.CellCenter(row, col)
			if math.Hypot(cx-p.X, cy-p.Y) <= radius {
				add(g.Index(row, col))
			}
		})
	}
	return cells
}

// forEachCandidate visits every cell whose rectangle overlaps the
// window, clamped to the grid. It is the coarse prune that bounds
// overlay cost to a geometry's footprint rather than the whole grid.
func forEachCandidate(g *raster.Grid, window *geom.Bounds, visit func(row, col int)) {
	b := g.Bounds()
	if window.Min.X >= b.Max.X || window.Max.X <= b.Min.X ||
		window.Min.Y >= b.Max.Y || window.Max.Y <= b.Min.Y {
		return
	}
	dx, dy := g.Resolution()
	colMin := clampInt(int(math.Floor((window.Min.X-b.Min.X)/dx)), 0, g.Cols()-1)
	colMax := clampInt(int(math.Ceil((window.Max.X-b.Min.X)/dx))-1, 0, g.Cols()-1)
	rowMin := clampInt(int(math.Floor((b.Max.Y-window.Max.Y)/dy)), 0, g.Rows()-1)
	rowMax := clampInt(int(math.Ceil((b.Max.Y-window.Min.Y)/dy))-1, 0, g.Rows()-1)
	for row := rowMin; row <= rowMax; row++ {
		for col := colMin; col <= colMax; col++ {
			visit(row, col)
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
