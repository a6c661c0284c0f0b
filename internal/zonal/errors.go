package zonal

import "errors"

// Batch-fatal and per-row error kinds. A CRS or geometry-type
// incompatibility between the grid and the collection aborts the whole
// call before any row is processed; a malformed individual shape is
// recorded on its own result row and the batch continues. Geometries
// outside the grid extent and overlays with zero contributing cells are
// not errors — they yield missing-value rows.
var (
	// ErrGeometryMismatch marks a batch-fatal incompatibility between
	// the grid and the geometry collection.
	ErrGeometryMismatch = errors.New("zonal: geometry collection incompatible with grid")

	// ErrInvalidGeometry marks a malformed individual shape
	// (self-intersecting or zero-area). It appears wrapped in the
	// affected row's Err field.
	ErrInvalidGeometry = errors.New("zonal: invalid geometry")
)
