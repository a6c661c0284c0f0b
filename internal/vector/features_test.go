package vector

import (
	"strings"
	"testing"

	"github.com/ctessum/geom"
)

func TestSameCRS(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"EPSG:4326", "epsg:4326", true},
		{"EPSG:4326", "EPSG:32633", false},
		{"", "EPSG:4326", true}, // unknown matches anything
		{"EPSG:4326", "", true},
		{"+proj=longlat  +datum=WGS84", "+proj=longlat +datum=wgs84", true},
	}
	for _, c := range cases {
		if got := SameCRS(c.a, c.b); got != c.want {
			t.Errorf("SameCRS(%q, %q) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestValidateCRS(t *testing.T) {
	if err := ValidateCRS("+proj=longlat +datum=WGS84"); err != nil {
		t.Errorf("valid proj4 rejected: %v", err)
	}
	if err := ValidateCRS("EPSG:4326"); err != nil {
		t.Errorf("opaque identifier rejected: %v", err)
	}
}

func TestCollectionBoundsAndIndex(t *testing.T) {
	fc := &FeatureCollection{
		Features: []*Feature{
			{ID: "a", Geom: geom.Point{X: 1, Y: 1}},
			{ID: "b", Geom: geom.Point{X: 5, Y: 3}},
			{ID: "c", Geom: geom.Polygon{{{X: -2, Y: 0}, {X: 0, Y: 0}, {X: 0, Y: 2}}}},
		},
	}
	b := fc.Bounds()
	if b.Min.X != -2 || b.Min.Y != 0 || b.Max.X != 5 || b.Max.Y != 3 {
		t.Errorf("Bounds() = %+v", b)
	}

	tree := fc.Index()
	hits := tree.SearchIntersect(&geom.Bounds{
		Min: geom.Point{X: 4, Y: 2},
		Max: geom.Point{X: 6, Y: 4},
	})
	if len(hits) != 1 {
		t.Fatalf("SearchIntersect returned %d features, want 1", len(hits))
	}
	if f := hits[0].(*Feature); f.ID != "b" {
		t.Errorf("SearchIntersect hit %q, want b", f.ID)
	}
}

func TestReadGeoJSON(t *testing.T) {
	src := `{
		"type": "FeatureCollection",
		"features": [
			{"type": "Feature", "id": "pt-1",
			 "geometry": {"type": "Point", "coordinates": [10.5, 59.9]},
			 "properties": {"name": "oslo", "rank": 1}},
			{"type": "Feature",
			 "geometry": {"type": "Polygon",
			  "coordinates": [[[0,0],[4,0],[4,4],[0,4],[0,0]]]}}
		]
	}`
	fc, err := ReadGeoJSON(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if fc.CRS != GeoJSONCRS {
		t.Errorf("CRS = %q, want %q", fc.CRS, GeoJSONCRS)
	}
	if len(fc.Features) != 2 {
		t.Fatalf("got %d features, want 2", len(fc.Features))
	}

	p, ok := fc.Features[0].Geom.(geom.Point)
	if !ok {
		t.Fatalf("feature 0 is %T, want geom.Point", fc.Features[0].Geom)
	}
	if p.X != 10.5 || p.Y != 59.9 {
		t.Errorf("point = %+v", p)
	}
	if fc.Features[0].ID != "pt-1" {
		t.Errorf("feature 0 ID = %q, want pt-1", fc.Features[0].ID)
	}
	if fc.Features[0].Fields["name"] != "oslo" {
		t.Errorf("feature 0 name = %q", fc.Features[0].Fields["name"])
	}

	poly, ok := fc.Features[1].Geom.(geom.Polygon)
	if !ok {
		t.Fatalf("feature 1 is %T, want geom.Polygon", fc.Features[1].Geom)
	}
	if len(poly) != 1 || len(poly[0]) != 4 {
		t.Errorf("polygon ring sizes = %d rings, %d vertices (closing vertex should be dropped)", len(poly), len(poly[0]))
	}
	if fc.Features[1].ID != "1" {
		t.Errorf("feature 1 ID = %q, want positional 1", fc.Features[1].ID)
	}
}

func TestReadGeoJSONBareGeometry(t *testing.T) {
	fc, err := ReadGeoJSON(strings.NewReader(`{"type":"Point","coordinates":[1,2]}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(fc.Features) != 1 {
		t.Fatalf("got %d features, want 1", len(fc.Features))
	}
	if _, err := ReadGeoJSON(strings.NewReader(`{"type":"LineString","coordinates":[[0,0],[1,1]]}`)); err == nil {
		t.Error("expected error for unsupported geometry type")
	}
}
