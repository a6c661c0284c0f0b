package zonal

import "fmt"

// Interpolation selects how point extraction reads cell values.
type Interpolation string

const (
	// InterpNearest reads the value of the cell enclosing the point.
	InterpNearest Interpolation = "nearest"
	// InterpBilinear blends the four nearest cell centers with a
	// bilinear kernel. Near the grid edge, where one or more of the
	// four neighbours does not exist, the enclosing cell's value is
	// used instead.
	InterpBilinear Interpolation = "bilinear"
)

// Policy configures how geometries are overlaid on the grid.
// The zero value is the default policy: centroid-only cell selection
// for polygons, nearest-cell reads for points, no-data cells excluded
// from aggregation.
type Policy struct {
	// AreaWeighted weights each contributing cell by the fraction of
	// its area covered by the polygon, instead of the default
	// centroid-only rule (a cell contributes with weight 1 iff its
	// center falls inside the polygon, boundary included).
	AreaWeighted bool

	// SmallPolygonFallback substitutes the single cell containing the
	// polygon's centroid when overlay yields zero contributing cells.
	SmallPolygonFallback bool

	// NormalizeWeights rescales a polygon's surviving weights to sum
	// to 1 before aggregation. The rescale runs per layer, after
	// no-data cells are dropped.
	NormalizeWeights bool

	// PointBufferRadius, when > 0, selects every cell whose center
	// lies within this Euclidean distance of a point instead of just
	// the enclosing cell; the set is reduced with the aggregator.
	PointBufferRadius float64

	// PointInterpolation selects nearest or bilinear point reads.
	// Empty means nearest. Ignored when PointBufferRadius is set.
	PointInterpolation Interpolation

	// Strict propagates missing instead of excluding no-data cells:
	// any no-data cell among a geometry's contributors makes the
	// summary missing for that layer.
	Strict bool
}

// Validate rejects contradictory or malformed settings.
func (p *Policy) Validate() error {
	if p.PointBufferRadius < 0 {
		return fmt.Errorf("zonal: point buffer radius must be non-negative, got %g", p.PointBufferRadius)
	}
	switch p.PointInterpolation {
	case "", InterpNearest, InterpBilinear:
	default:
		return fmt.Errorf("zonal: unknown point interpolation %q", p.PointInterpolation)
	}
	if p.PointBufferRadius > 0 && p.PointInterpolation == InterpBilinear {
		return fmt.Errorf("zonal: point buffer and bilinear interpolation cannot be combined")
	}
	return nil
}
