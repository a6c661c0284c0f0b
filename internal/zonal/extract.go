// Package zonal computes zonal statistics: per-geometry summaries of
// the raster cells a point or polygon overlays. The extractor is a
// pure, stateless computation over immutable inputs: it performs no
// I/O and never mutates the grid, so a single grid may be shared by any
// number of concurrent extractions without locking.
package zonal

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"

	"github.com/gridward/zonal/internal/raster"
	"github.com/gridward/zonal/internal/vector"
)

// checkBatch enforces the batch-fatal preconditions: a validated
// policy, a compatible CRS, and geometries of the expected dimension.
// It runs before any row is processed.
func checkBatch(g *raster.Grid, fc *vector.FeatureCollection, pol Policy, wantPolygons bool) error {
	if err := pol.Validate(); err != nil {
		return err
	}
	if !vector.SameCRS(fc.CRS, g.CRS()) {
		return fmt.Errorf("%w: collection CRS %q, grid CRS %q", ErrGeometryMismatch, fc.CRS, g.CRS())
	}
	for i, f := range fc.Features {
		switch f.Geom.(type) {
		case geom.Point, geom.MultiPoint:
			if wantPolygons {
				return fmt.Errorf("%w: feature %d is a point, polygon extraction requires polygonal geometries", ErrGeometryMismatch, i)
			}
		case geom.Polygonal:
			if !wantPolygons {
				return fmt.Errorf("%w: feature %d is polygonal, point extraction requires point geometries", ErrGeometryMismatch, i)
			}
		default:
			return fmt.Errorf("%w: feature %d has unsupported geometry type %T", ErrGeometryMismatch, i, f.Geom)
		}
	}
	return nil
}

// reduceCells computes the per-layer summaries for one geometry's
// contributing cells. cells holds linear cell indices, weights the
// matching overlay weights. No-data cells are dropped before reduction
// unless the policy is strict, in which case any no-data contributor
// makes the layer missing. When normalize is set the surviving weights
// are rescaled to sum to 1 per layer.
func reduceCells(g *raster.Grid, cells []int, weights []float64, agg Aggregator, pol Policy, normalize bool) []float64 {
	out := make([]float64, g.Layers())
	pairs := make([]ValueWeight, 0, len(cells))
	for l := 0; l < g.Layers(); l++ {
		pairs = pairs[:0]
		missing := false
		for i, idx := range cells {
			row, col := g.RowCol(idx)
			v := g.Value(l, row, col)
			if g.IsNoData(v) {
				if pol.Strict {
					missing = true
					break
				}
				continue
			}
			pairs = append(pairs, ValueWeight{Value: v, Weight: weights[i]})
		}
		if missing {
			out[l] = math.NaN()
			continue
		}
		if normalize && len(pairs) > 0 {
			var sum float64
			for _, p := range pairs {
				sum += p.Weight
			}
			if sum > 0 {
				for i := range pairs {
					pairs[i].Weight /= sum
				}
			}
		}
		v, ok := agg.Reduce(pairs)
		if !ok {
			v = math.NaN()
		}
		out[l] = v
	}
	return out
}
