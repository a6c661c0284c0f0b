package raster

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
)

// alignTolerance is the fraction of a cell a mosaic input may be offset
// from the shared cell lattice before the inputs are considered misaligned.
const alignTolerance = 1e-6

// Crop returns a new Grid covering every cell whose rectangle overlaps
// the window (boundary-touching cells are excluded). Cell values are
// copied; the source grid is unchanged. An empty intersection is an
// error.
func (g *Grid) Crop(window *geom.Bounds) (*Grid, error) {
	rowMin, rowMax, colMin, colMax, ok := g.cropRange(window)
	if !ok {
		return nil, fmt.Errorf("raster: crop window (%g,%g)-(%g,%g) does not overlap grid extent",
			window.Min.X, window.Min.Y, window.Max.X, window.Max.Y)
	}
	rows := rowMax - rowMin + 1
	cols := colMax - colMin + 1
	vals := make([][]float64, g.layers)
	for l := range vals {
		layer := make([]float64, rows*cols)
		for r := 0; r < rows; r++ {
			src := (rowMin+r)*g.cols + colMin
			copy(layer[r*cols:(r+1)*cols], g.vals[l][src:src+cols])
		}
		vals[l] = layer
	}
	return &Grid{
		rows: rows, cols: cols, layers: g.layers,
		dx: g.dx, dy: g.dy,
		minX: g.minX + float64(colMin)*g.dx,
		minY: g.maxY - float64(rowMax+1)*g.dy,
		maxX: g.minX + float64(colMax+1)*g.dx,
		maxY: g.maxY - float64(rowMin)*g.dy,
		crs:  g.crs, noData: g.noData,
		vals: vals,
	}, nil
}

// CropView is the cheap variant of Crop: when the clipped cell range
// spans the grid's full width the returned Grid shares the source's
// backing storage instead of copying it. Both grids stay immutable, so
// sharing is safe; callers opt in to it explicitly because the view
// keeps the whole source array reachable. Partial-width crops fall back
// to copying.
func (g *Grid) CropView(window *geom.Bounds) (*Grid, error) {
	rowMin, rowMax, colMin, colMax, ok := g.cropRange(window)
	if !ok || colMin != 0 || colMax != g.cols-1 {
		return g.Crop(window)
	}
	rows := rowMax - rowMin + 1
	vals := make([][]float64, g.layers)
	for l := range vals {
		vals[l] = g.vals[l][rowMin*g.cols : (rowMax+1)*g.cols]
	}
	return &Grid{
		rows: rows, cols: g.cols, layers: g.layers,
		dx: g.dx, dy: g.dy,
		minX: g.minX,
		minY: g.maxY - float64(rowMax+1)*g.dy,
		maxX: g.maxX,
		maxY: g.maxY - float64(rowMin)*g.dy,
		crs:  g.crs, noData: g.noData,
		vals: vals,
	}, nil
}

// cropRange converts a clip window to an inclusive cell range, clamped
// to the grid. ok is false when the window misses the extent entirely.
func (g *Grid) cropRange(window *geom.Bounds) (rowMin, rowMax, colMin, colMax int, ok bool) {
	if window.Min.X >= g.maxX || window.Max.X <= g.minX ||
		window.Min.Y >= g.maxY || window.Max.Y <= g.minY {
		return 0, 0, 0, 0, false
	}
	colMin = clampInt(int(math.Floor((window.Min.X-g.minX)/g.dx)), 0, g.cols-1)
	colMax = clampInt(int(math.Ceil((window.Max.X-g.minX)/g.dx))-1, 0, g.cols-1)
	rowMin = clampInt(int(math.Floor((g.maxY-window.Max.Y)/g.dy)), 0, g.rows-1)
	rowMax = clampInt(int(math.Ceil((g.maxY-window.Min.Y)/g.dy))-1, 0, g.rows-1)
	return rowMin, rowMax, colMin, colMax, true
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

// Mosaic merges two grids sharing CRS, resolution, layer count and cell
// alignment into one grid over the union extent. Cells covered by
// neither input hold the no-data sentinel of a; where both inputs cover
// a cell, b wins. The inputs are unchanged.
func Mosaic(a, b *Grid) (*Grid, error) {
	if a.crs != b.crs {
		return nil, fmt.Errorf("raster: mosaic CRS mismatch: %q vs %q", a.crs, b.crs)
	}
	if a.layers != b.layers {
		return nil, fmt.Errorf("raster: mosaic layer count mismatch: %d vs %d", a.layers, b.layers)
	}
	if !closeTo(a.dx, b.dx) || !closeTo(a.dy, b.dy) {
		return nil, fmt.Errorf("raster: mosaic resolution mismatch: (%g,%g) vs (%g,%g)", a.dx, a.dy, b.dx, b.dy)
	}
	if !aligned(a.minX, b.minX, a.dx) || !aligned(a.minY, b.minY, a.dy) {
		return nil, fmt.Errorf("raster: mosaic inputs are not on the same cell lattice")
	}

	minX := math.Min(a.minX, b.minX)
	minY := math.Min(a.minY, b.minY)
	maxX := math.Max(a.maxX, b.maxX)
	maxY := math.Max(a.maxY, b.maxY)
	cols := int(math.Round((maxX - minX) / a.dx))
	rows := int(math.Round((maxY - minY) / a.dy))

	noData := a.noData
	vals := make([][]float64, a.layers)
	for l := range vals {
		layer := make([]float64, rows*cols)
		for i := range layer {
			layer[i] = noData
		}
		vals[l] = layer
	}
	out := &Grid{
		rows: rows, cols: cols, layers: a.layers,
		dx: a.dx, dy: a.dy,
		minX: minX, minY: minY, maxX: maxX, maxY: maxY,
		crs: a.crs, noData: noData,
		vals: vals,
	}
	out.paste(a)
	out.paste(b) // second input wins on overlap
	return out, nil
}

// paste copies src's cells into g at the matching lattice position.
// Only valid during construction; Grid is immutable once returned.
func (g *Grid) paste(src *Grid) {
	colOff := int(math.Round((src.minX - g.minX) / g.dx))
	rowOff := int(math.Round((g.maxY - src.maxY) / g.dy))
	for l := 0; l < g.layers; l++ {
		for r := 0; r < src.rows; r++ {
			dst := (rowOff+r)*g.cols + colOff
			copy(g.vals[l][dst:dst+src.cols], src.vals[l][r*src.cols:(r+1)*src.cols])
		}
	}
}

func aligned(a, b, res float64) bool {
	_, frac := math.Modf(math.Abs(a-b) / res)
	return frac < alignTolerance || frac > 1-alignTolerance
}
