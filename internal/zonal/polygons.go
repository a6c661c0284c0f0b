package zonal

import (
	"fmt"

	"github.com/ctessum/geom"

	"github.com/gridward/zonal/internal/raster"
	"github.com/gridward/zonal/internal/vector"
)

// ExtractPolygons computes zonal statistics: for each polygon, the
// contributing cells and their weights are resolved by overlay and
// reduced per layer with agg.
//
// By default a cell contributes (weight 1) iff its center lies inside
// the polygon, boundary included. With Policy.AreaWeighted the weight
// is the fraction of the cell's area covered by the polygon. A polygon
// whose overlay yields no cells produces a missing row, unless
// Policy.SmallPolygonFallback substitutes the cell containing the
// polygon's centroid. A malformed polygon fails only its own row; the
// rest of the batch is still processed.
//
// The output has one row per input feature, in input order.
func ExtractPolygons(g *raster.Grid, fc *vector.FeatureCollection, agg Aggregator, pol Policy) (*Result, error) {
	if err := checkBatch(g, fc, pol, true); err != nil {
		return nil, err
	}
	if agg == nil {
		agg = Mean
	}
	res := &Result{Aggregator: agg.Name(), Layers: g.Layers()}
	res.Rows = make([]Row, 0, len(fc.Features))
	for _, f := range fc.Features {
		res.Rows = append(res.Rows, extractPolygon(g, f, agg, pol))
	}
	return res, nil
}

func extractPolygon(g *raster.Grid, f *vector.Feature, agg Aggregator, pol Policy) Row {
	poly := f.Geom.(geom.Polygonal)
	if err := validatePolygonal(poly); err != nil {
		row := missingRow(f.ID, g.Layers())
		row.Err = err
		return row
	}

	// Coarse prune: only cells under the polygon's bounding box are
	// candidates. A bounding box disjoint from the grid extent means
	// the whole geometry is out of bounds, which is a missing row, not
	// an error.
	cells, weights := overlayCells(g, poly, pol)

	if len(cells) == 0 && pol.SmallPolygonFallback {
		c := poly.Centroid()
		if row, col, ok := g.CellAt(c.X, c.Y); ok {
			cells = append(cells, g.Index(row, col))
			weights = append(weights, 1)
		}
	}
	if len(cells) == 0 {
		return missingRow(f.ID, g.Layers())
	}
	return Row{ID: f.ID, Values: reduceCells(g, cells, weights, agg, pol, pol.NormalizeWeights)}
}

// overlayCells resolves the contributing cells and weights for one
// polygon under the given policy.
func overlayCells(g *raster.Grid, poly geom.Polygonal, pol Policy) (cells []int, weights []float64) {
	dx, dy := g.Resolution()
	cellArea := dx * dy
	forEachCandidate(g, poly.Bounds(), func(row, col int) {
		if pol.AreaWeighted {
			var cell geom.Polygonal = g.CellBounds(row, col)
			isect := cell.Intersection(poly)
			if isect == nil {
				return
			}
			w := isect.Area() / cellArea
			if w <= 0 {
				return
			}
			cells = append(cells, g.Index(row, col))
			weights = append(weights, w)
			return
		}
		cx, cy := g.CellCenter(row, col)
		// Boundary counts as inside: a center exactly on the polygon
		// edge contributes.
		if (geom.Point{X: cx, Y: cy}).Within(poly) != geom.Outside {
			cells = append(cells, g.Index(row, col))
			weights = append(weights, 1)
		}
	})
	return cells, weights
}

// validatePolygonal rejects malformed shapes: too few vertices,
// zero area, or a self-intersecting ring.
func validatePolygonal(p geom.Polygonal) error {
	polys, ok := p.(geom.Polygon)
	var set geom.MultiPolygon
	if ok {
		set = geom.MultiPolygon{polys}
	} else if mp, isMulti := p.(geom.MultiPolygon); isMulti {
		set = mp
	} else {
		// Rectangles (*geom.Bounds) and other polygonal forms have no
		// rings to malform; only an empty one is invalid.
		if p.Area() == 0 {
			return fmt.Errorf("%w: zero-area shape", ErrInvalidGeometry)
		}
		return nil
	}

	for _, poly := range set {
		for ri, ring := range poly {
			if countDistinct(ring) < 3 {
				return fmt.Errorf("%w: ring %d has fewer than 3 distinct vertices", ErrInvalidGeometry, ri)
			}
			if selfIntersects(ring) {
				return fmt.Errorf("%w: ring %d is self-intersecting", ErrInvalidGeometry, ri)
			}
		}
	}
	if p.Area() == 0 {
		return fmt.Errorf("%w: zero-area polygon", ErrInvalidGeometry)
	}
	return nil
}

func countDistinct(ring []geom.Point) int {
	seen := make(map[geom.Point]struct{}, len(ring))
	for _, p := range ring {
		seen[p] = struct{}{}
	}
	return len(seen)
}

// selfIntersects reports whether any two non-adjacent edges of the
// closed ring properly cross. Quadratic, which is fine for the ring
// sizes zonal inputs carry.
func selfIntersects(ring []geom.Point) bool {
	n := len(ring)
	if n < 4 {
		return false
	}
	edge := func(i int) (geom.Point, geom.Point) {
		return ring[i], ring[(i+1)%n]
	}
	for i := 0; i < n; i++ {
		a1, a2 := edge(i)
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue // adjacent around the closure
			}
			b1, b2 := edge(j)
			if segmentsCross(a1, a2, b1, b2) {
				return true
			}
		}
	}
	return false
}

// segmentsCross reports a proper crossing of two segments (shared
// endpoints do not count).
func segmentsCross(p1, p2, q1, q2 geom.Point) bool {
	d1 := orient(q1, q2, p1)
	d2 := orient(q1, q2, p2)
	d3 := orient(p1, p2, q1)
	d4 := orient(p1, p2, q2)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

func orient(a, b, c geom.Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}
