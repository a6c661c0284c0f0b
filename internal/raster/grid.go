// Package raster provides an immutable in-memory raster grid model with
// spatial referencing: dimensions, cell resolution, extent, an optional
// coordinate reference identifier, and dense multi-layer cell values.
//
// Cells are indexed row-major from the top-left corner. A linear cell
// index and a (row, col) pair are always interconvertible given the
// column count, and coordinate-to-cell lookup uses half-open [min, max)
// cell intervals on both axes so every in-bounds coordinate maps to
// exactly one cell.
package raster

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
)

// extentTolerance is the relative floating tolerance used when checking
// that an explicit extent agrees with dims × resolution.
const extentTolerance = 1e-9

// GridSpec describes the geometry of a Grid to be constructed.
type GridSpec struct {
	Rows   int // number of rows (> 0)
	Cols   int // number of columns (> 0)
	Layers int // number of value layers (>= 1)

	// Cell resolution in CRS units. Both must be > 0.
	Dx, Dy float64

	// Lower-left corner of the extent in CRS units.
	MinX, MinY float64

	// Optional upper-right corner. When either is non-zero the pair is
	// checked against MinX+Cols*Dx, MinY+Rows*Dy within a floating
	// tolerance; a disagreement is a construction error.
	MaxX, MaxY float64

	// CRS identifies the coordinate reference system. Empty means unknown.
	CRS string

	// NoData is the sentinel marking a cell with no valid measurement.
	// NaN cells are always treated as no-data in addition to this
	// sentinel. A zero NoData with NoDataSet false means no sentinel is
	// configured; set NoDataSet to declare 0 itself as the sentinel.
	NoData    float64
	NoDataSet bool
}

// Validate checks the spec for internal consistency.
func (s *GridSpec) Validate() error {
	if s.Rows <= 0 || s.Cols <= 0 {
		return fmt.Errorf("raster: grid dimensions must be positive, got %dx%d", s.Rows, s.Cols)
	}
	if s.Layers < 1 {
		return fmt.Errorf("raster: layer count must be >= 1, got %d", s.Layers)
	}
	if s.Dx <= 0 || s.Dy <= 0 {
		return fmt.Errorf("raster: cell resolution must be positive, got (%g, %g)", s.Dx, s.Dy)
	}
	if s.MaxX != 0 || s.MaxY != 0 {
		wantX := s.MinX + float64(s.Cols)*s.Dx
		wantY := s.MinY + float64(s.Rows)*s.Dy
		if !closeTo(s.MaxX, wantX) || !closeTo(s.MaxY, wantY) {
			return fmt.Errorf("raster: extent (%g, %g) disagrees with dims×resolution (%g, %g)",
				s.MaxX, s.MaxY, wantX, wantY)
		}
	}
	return nil
}

func closeTo(a, b float64) bool {
	scale := math.Max(math.Abs(a), math.Abs(b))
	if scale == 0 {
		return true
	}
	return math.Abs(a-b) <= extentTolerance*scale
}

// Grid is an immutable raster: geometry plus dense per-layer cell values.
// All transforms (Crop, Mosaic) return new Grids; a Grid is never mutated
// after construction and is therefore safe to share across goroutines.
type Grid struct {
	rows, cols, layers int
	dx, dy             float64
	minX, minY         float64
	maxX, maxY         float64
	crs                string
	noData             float64

	// vals holds one slice per layer, each rows*cols long, row-major
	// from the top-left corner.
	vals [][]float64
}

// NewGrid constructs a Grid from a spec and per-layer row-major values.
// values must hold spec.Layers slices of spec.Rows*spec.Cols cells each,
// ordered from the top-left corner. The slices are copied; the caller
// may reuse them afterwards.
func NewGrid(spec GridSpec, values [][]float64) (*Grid, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if len(values) != spec.Layers {
		return nil, fmt.Errorf("raster: got %d value layers, spec says %d", len(values), spec.Layers)
	}
	n := spec.Rows * spec.Cols
	vals := make([][]float64, spec.Layers)
	for l, layer := range values {
		if len(layer) != n {
			return nil, fmt.Errorf("raster: layer %d has %d cells, want %d", l, len(layer), n)
		}
		vals[l] = append([]float64(nil), layer...)
	}
	noData := spec.NoData
	if noData == 0 && !spec.NoDataSet {
		// No sentinel configured; NaN cells are still treated as no-data.
		noData = math.NaN()
	}
	return &Grid{
		rows: spec.Rows, cols: spec.Cols, layers: spec.Layers,
		dx: spec.Dx, dy: spec.Dy,
		minX: spec.MinX, minY: spec.MinY,
		maxX: spec.MinX + float64(spec.Cols)*spec.Dx,
		maxY: spec.MinY + float64(spec.Rows)*spec.Dy,
		crs:  spec.CRS, noData: noData,
		vals: vals,
	}, nil
}

// Rows returns the number of rows.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of columns.
func (g *Grid) Cols() int { return g.cols }

// Layers returns the number of value layers.
func (g *Grid) Layers() int { return g.layers }

// Resolution returns the cell width and height in CRS units.
func (g *Grid) Resolution() (dx, dy float64) { return g.dx, g.dy }

// CRS returns the coordinate reference identifier, empty if unknown.
func (g *Grid) CRS() string { return g.crs }

// NoData returns the no-data sentinel value.
func (g *Grid) NoData() float64 { return g.noData }

// Bounds returns the grid extent as a geometry bounding box.
func (g *Grid) Bounds() *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: g.minX, Y: g.minY},
		Max: geom.Point{X: g.maxX, Y: g.maxY},
	}
}

// NumCells returns the per-layer cell count.
func (g *Grid) NumCells() int { return g.rows * g.cols }

// Index converts a (row, col) pair to a linear cell index.
func (g *Grid) Index(row, col int) int { return row*g.cols + col }

// RowCol converts a linear cell index back to its (row, col) pair.
func (g *Grid) RowCol(index int) (row, col int) { return index / g.cols, index % g.cols }

// CellAt returns the cell enclosing the coordinate (x, y), or ok=false
// when the coordinate lies outside the extent. Each cell covers the
// half-open intervals [cellMinX, cellMaxX) and [cellMinY, cellMaxY), so a
// coordinate exactly on a shared boundary belongs to the cell whose
// minimum edge it touches, consistently on both axes.
func (g *Grid) CellAt(x, y float64) (row, col int, ok bool) {
	if x < g.minX || x >= g.maxX || y < g.minY || y >= g.maxY {
		return 0, 0, false
	}
	col = int(math.Floor((x - g.minX) / g.dx))
	rowFromBottom := int(math.Floor((y - g.minY) / g.dy))
	// Guard against floating error at the far edges.
	if col >= g.cols {
		col = g.cols - 1
	}
	if rowFromBottom >= g.rows {
		rowFromBottom = g.rows - 1
	}
	return g.rows - 1 - rowFromBottom, col, true
}

// CellCenter returns the center coordinate of cell (row, col).
// It is the exact inverse of CellAt for any in-bounds cell.
func (g *Grid) CellCenter(row, col int) (x, y float64) {
	x = g.minX + (float64(col)+0.5)*g.dx
	y = g.maxY - (float64(row)+0.5)*g.dy
	return x, y
}

// CellBounds returns the rectangle covered by cell (row, col).
func (g *Grid) CellBounds(row, col int) *geom.Bounds {
	minX := g.minX + float64(col)*g.dx
	maxY := g.maxY - float64(row)*g.dy
	return &geom.Bounds{
		Min: geom.Point{X: minX, Y: maxY - g.dy},
		Max: geom.Point{X: minX + g.dx, Y: maxY},
	}
}

// Value returns the cell value for a layer. It panics if the layer, row
// or column is out of range, matching slice indexing behaviour.
func (g *Grid) Value(layer, row, col int) float64 {
	return g.vals[layer][row*g.cols+col]
}

// IsNoData reports whether v is the no-data sentinel. NaN is always
// no-data regardless of the configured sentinel.
func (g *Grid) IsNoData(v float64) bool {
	return math.IsNaN(v) || v == g.noData
}

// Layer returns a read-only single-layer view of the grid implementing
// the gonum plotter GridXYZ interface (Dims, Z, X, Y). Row index 0 in
// the view is the bottom raster row, matching plot axis orientation.
func (g *Grid) Layer(layer int) LayerView {
	if layer < 0 || layer >= g.layers {
		panic(fmt.Sprintf("raster: layer %d out of range [0, %d)", layer, g.layers))
	}
	return LayerView{g: g, layer: layer}
}

// LayerView adapts one Grid layer to gonum's plotter.GridXYZ.
type LayerView struct {
	g     *Grid
	layer int
}

// Dims returns the column and row counts.
func (v LayerView) Dims() (c, r int) { return v.g.cols, v.g.rows }

// Z returns the value at column c of the r-th row from the bottom.
// No-data cells come back as NaN so plotters leave them blank.
func (v LayerView) Z(c, r int) float64 {
	z := v.g.Value(v.layer, v.g.rows-1-r, c)
	if v.g.IsNoData(z) {
		return math.NaN()
	}
	return z
}

// X returns the center x coordinate of column c.
func (v LayerView) X(c int) float64 {
	return v.g.minX + (float64(c)+0.5)*v.g.dx
}

// Y returns the center y coordinate of the r-th row from the bottom.
func (v LayerView) Y(r int) float64 {
	return v.g.minY + (float64(r)+0.5)*v.g.dy
}
