// Package vector provides ordered geometry collections with coordinate
// reference metadata, readers for common vector formats, and a spatial
// index used to partition collections for chunked extraction.
//
// The geometry model is github.com/ctessum/geom; this package never
// reprojects — collections carry their CRS and callers are responsible
// for supplying geometries in the grid's reference.
package vector

import (
	"fmt"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/ctessum/geom/proj"
)

// Feature is one vector shape with an identifier and attributes.
type Feature struct {
	// ID identifies the feature in results; readers default it to the
	// zero-based input row number.
	ID string

	Geom geom.Geom

	// Fields holds attribute values keyed by column name. May be nil.
	Fields map[string]string
}

// Bounds returns the feature's bounding box, satisfying rtree.Spatial.
func (f *Feature) Bounds() *geom.Bounds { return f.Geom.Bounds() }

// Len, Points, Similar, and Transform delegate to the underlying
// geometry so that *Feature satisfies geom.Geom and can be stored in
// an rtree directly.
func (f *Feature) Len() int { return f.Geom.Len() }

func (f *Feature) Points() func() geom.Point { return f.Geom.Points() }

func (f *Feature) Similar(g geom.Geom, tolerance float64) bool {
	return f.Geom.Similar(g, tolerance)
}

func (f *Feature) Transform(t proj.Transformer) (geom.Geom, error) {
	return f.Geom.Transform(t)
}

// FeatureCollection is an ordered set of features sharing one CRS.
// Order is load order; nothing in this package reorders it.
type FeatureCollection struct {
	// CRS identifies the coordinate reference system. Empty means
	// unknown and matches any grid reference.
	CRS string

	Features []*Feature
}

// Bounds returns the union bounding box of all features, or nil for an
// empty collection.
func (fc *FeatureCollection) Bounds() *geom.Bounds {
	var b *geom.Bounds
	for _, f := range fc.Features {
		fb := f.Geom.Bounds()
		if b == nil {
			b = &geom.Bounds{Min: fb.Min, Max: fb.Max}
			continue
		}
		if fb.Min.X < b.Min.X {
			b.Min.X = fb.Min.X
		}
		if fb.Min.Y < b.Min.Y {
			b.Min.Y = fb.Min.Y
		}
		if fb.Max.X > b.Max.X {
			b.Max.X = fb.Max.X
		}
		if fb.Max.Y > b.Max.Y {
			b.Max.Y = fb.Max.Y
		}
	}
	return b
}

// Index builds an rtree over the features for spatial queries. The
// returned tree holds *Feature values.
func (fc *FeatureCollection) Index() *rtree.Rtree {
	tree := rtree.NewTree(25, 50)
	for _, f := range fc.Features {
		tree.Insert(f)
	}
	return tree
}

// Slice returns a collection sharing fc's CRS over features [i, j).
func (fc *FeatureCollection) Slice(i, j int) *FeatureCollection {
	return &FeatureCollection{CRS: fc.CRS, Features: fc.Features[i:j]}
}

// NormalizeCRS canonicalises a CRS identifier for comparison: leading
// and trailing space is trimmed, runs of internal space collapse, and
// the result is upper-cased for EPSG-style codes or lower-cased for
// proj4 strings.
func NormalizeCRS(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if strings.HasPrefix(s, "+") {
		return strings.ToLower(s)
	}
	return strings.ToUpper(s)
}

// SameCRS reports whether two CRS identifiers are compatible. An empty
// identifier on either side means unknown and is treated as compatible;
// a mismatch can only be established between two known references.
func SameCRS(a, b string) bool {
	if a == "" || b == "" {
		return true
	}
	return NormalizeCRS(a) == NormalizeCRS(b)
}

// ValidateCRS checks that a proj4-style identifier parses. EPSG codes
// and other non-proj4 identifiers are accepted as opaque strings.
func ValidateCRS(s string) error {
	if !strings.HasPrefix(strings.TrimSpace(s), "+") {
		return nil
	}
	if _, err := proj.Parse(s); err != nil {
		return fmt.Errorf("vector: invalid proj4 CRS %q: %w", s, err)
	}
	return nil
}
