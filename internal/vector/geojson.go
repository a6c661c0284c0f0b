package vector

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/ctessum/geom"
)

// GeoJSONCRS is the coordinate reference assigned to decoded GeoJSON
// collections. RFC 7946 fixes GeoJSON coordinates to WGS 84.
const GeoJSONCRS = "EPSG:4326"

type geojsonFeatureCollection struct {
	Type     string            `json:"type"`
	Features []*geojsonFeature `json:"features"`
}

type geojsonFeature struct {
	Type       string          `json:"type"`
	ID         json.RawMessage `json:"id,omitempty"`
	Geometry   geojsonGeometry `json:"geometry"`
	Properties map[string]any  `json:"properties,omitempty"`
}

type geojsonGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// ReadGeoJSON decodes an RFC 7946 FeatureCollection (or a bare Feature
// or geometry object) into a FeatureCollection with ctessum geometries.
// Supported geometry types: Point, MultiPoint, Polygon, MultiPolygon.
// Feature IDs come from the "id" member when present, otherwise the
// zero-based feature position.
func ReadGeoJSON(r io.Reader) (*FeatureCollection, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("vector: decoding GeoJSON: %w", err)
	}

	fc := &FeatureCollection{CRS: GeoJSONCRS}
	switch probe.Type {
	case "FeatureCollection":
		var raw geojsonFeatureCollection
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("vector: decoding GeoJSON: %w", err)
		}
		for i, rf := range raw.Features {
			f, err := decodeGeoJSONFeature(rf, i)
			if err != nil {
				return nil, err
			}
			fc.Features = append(fc.Features, f)
		}
	case "Feature":
		var rf geojsonFeature
		if err := json.Unmarshal(data, &rf); err != nil {
			return nil, fmt.Errorf("vector: decoding GeoJSON: %w", err)
		}
		f, err := decodeGeoJSONFeature(&rf, 0)
		if err != nil {
			return nil, err
		}
		fc.Features = append(fc.Features, f)
	case "Point", "MultiPoint", "Polygon", "MultiPolygon":
		var rg geojsonGeometry
		if err := json.Unmarshal(data, &rg); err != nil {
			return nil, fmt.Errorf("vector: decoding GeoJSON: %w", err)
		}
		g, err := decodeGeoJSONGeometry(&rg)
		if err != nil {
			return nil, err
		}
		fc.Features = append(fc.Features, &Feature{ID: "0", Geom: g})
	default:
		return nil, fmt.Errorf("vector: unsupported GeoJSON object type %q", probe.Type)
	}
	return fc, nil
}

func decodeGeoJSONFeature(rf *geojsonFeature, pos int) (*Feature, error) {
	g, err := decodeGeoJSONGeometry(&rf.Geometry)
	if err != nil {
		return nil, fmt.Errorf("feature %d: %w", pos, err)
	}
	f := &Feature{ID: strconv.Itoa(pos), Geom: g}
	if len(rf.ID) > 0 {
		var s string
		if err := json.Unmarshal(rf.ID, &s); err == nil {
			f.ID = s
		} else {
			f.ID = string(rf.ID)
		}
	}
	if len(rf.Properties) > 0 {
		f.Fields = make(map[string]string, len(rf.Properties))
		for k, v := range rf.Properties {
			f.Fields[k] = fmt.Sprint(v)
		}
	}
	return f, nil
}

func decodeGeoJSONGeometry(rg *geojsonGeometry) (geom.Geom, error) {
	switch rg.Type {
	case "Point":
		var c []float64
		if err := json.Unmarshal(rg.Coordinates, &c); err != nil {
			return nil, fmt.Errorf("vector: bad Point coordinates: %w", err)
		}
		if len(c) < 2 {
			return nil, fmt.Errorf("vector: Point needs 2 coordinates, got %d", len(c))
		}
		return geom.Point{X: c[0], Y: c[1]}, nil
	case "MultiPoint":
		var cs [][]float64
		if err := json.Unmarshal(rg.Coordinates, &cs); err != nil {
			return nil, fmt.Errorf("vector: bad MultiPoint coordinates: %w", err)
		}
		mp := make(geom.MultiPoint, len(cs))
		for i, c := range cs {
			if len(c) < 2 {
				return nil, fmt.Errorf("vector: MultiPoint member %d needs 2 coordinates", i)
			}
			mp[i] = geom.Point{X: c[0], Y: c[1]}
		}
		return mp, nil
	case "Polygon":
		var rings [][][]float64
		if err := json.Unmarshal(rg.Coordinates, &rings); err != nil {
			return nil, fmt.Errorf("vector: bad Polygon coordinates: %w", err)
		}
		return decodeRings(rings)
	case "MultiPolygon":
		var polys [][][][]float64
		if err := json.Unmarshal(rg.Coordinates, &polys); err != nil {
			return nil, fmt.Errorf("vector: bad MultiPolygon coordinates: %w", err)
		}
		mp := make(geom.MultiPolygon, len(polys))
		for i, rings := range polys {
			p, err := decodeRings(rings)
			if err != nil {
				return nil, err
			}
			mp[i] = p
		}
		return mp, nil
	default:
		return nil, fmt.Errorf("vector: unsupported geometry type %q", rg.Type)
	}
}

func decodeRings(rings [][][]float64) (geom.Polygon, error) {
	p := make(geom.Polygon, len(rings))
	for i, ring := range rings {
		r := make([]geom.Point, 0, len(ring))
		for j, c := range ring {
			if len(c) < 2 {
				return nil, fmt.Errorf("vector: ring %d vertex %d needs 2 coordinates", i, j)
			}
			r = append(r, geom.Point{X: c[0], Y: c[1]})
		}
		// GeoJSON rings repeat the first vertex; ctessum rings do not.
		if len(r) > 1 && r[0] == r[len(r)-1] {
			r = r[:len(r)-1]
		}
		p[i] = r
	}
	return p, nil
}
