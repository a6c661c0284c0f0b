// Package render turns grids and extraction results into images and
// HTML reports for eyeballing inputs and outputs.
package render

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/gridward/zonal/internal/raster"
)

// SaveHeatmap writes a heatmap image of one grid layer to path. The
// output format follows the file extension (.png, .svg, .pdf). No-data
// cells are left blank.
func SaveHeatmap(g *raster.Grid, layer int, title, path string) error {
	if layer < 0 || layer >= g.Layers() {
		return fmt.Errorf("render: layer %d out of range [0, %d)", layer, g.Layers())
	}

	hm := plotter.NewHeatMap(g.Layer(layer), palette.Heat(12, 1))

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Y"
	p.Add(hm)

	w, h := plotSize(g)
	if err := p.Save(w, h, path); err != nil {
		return fmt.Errorf("save heatmap: %w", err)
	}
	return nil
}

// plotSize picks a canvas size that preserves the grid's aspect ratio,
// clamped so degenerate extents still produce a readable image.
func plotSize(g *raster.Grid) (w, h vg.Length) {
	b := g.Bounds()
	spanX := b.Max.X - b.Min.X
	spanY := b.Max.Y - b.Min.Y

	w = 8 * vg.Inch
	aspect := 1.0
	if spanX > 0 && spanY > 0 {
		aspect = spanY / spanX
	}
	if aspect < 0.25 {
		aspect = 0.25
	}
	if aspect > 4 {
		aspect = 4
	}
	h = vg.Length(aspect) * w
	return w, h
}
