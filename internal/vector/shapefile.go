package vector

import (
	"fmt"
	"strconv"

	"github.com/ctessum/geom/encoding/shp"
)

// ReadShapefile loads all rows of a shapefile into a FeatureCollection.
// Feature IDs are zero-based row numbers and the named attribute columns
// (if any) are copied into each feature's Fields. When the shapefile
// carries projection metadata (.prj) the collection CRS is set to the
// parsed reference's name; callers with better knowledge of the source
// reference may overwrite it.
func ReadShapefile(path string, attrs ...string) (*FeatureCollection, error) {
	d, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("vector: opening %s: %w", path, err)
	}
	defer d.Close()

	fc := &FeatureCollection{}
	if sr, err := d.SR(); err == nil && sr != nil {
		fc.CRS = sr.Name
	}

	for i := 0; ; i++ {
		g, fields, more := d.DecodeRowFields(attrs...)
		if !more {
			break
		}
		f := &Feature{ID: strconv.Itoa(i), Geom: g}
		if len(fields) > 0 {
			f.Fields = make(map[string]string, len(fields))
			for k, v := range fields {
				f.Fields[k] = v
			}
		}
		fc.Features = append(fc.Features, f)
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("vector: reading %s: %w", path, err)
	}
	return fc, nil
}
