package raster

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadEsriASCII decodes an ESRI ASCII grid (".asc") into a single-layer
// Grid. The header is a sequence of "key value" lines (ncols, nrows,
// xllcorner or xllcenter, yllcorner or yllcenter, cellsize, optionally
// nodata_value), case-insensitive, followed by nrows*ncols values in
// row-major order from the top-left corner. crs is attached to the
// resulting Grid as-is; pass "" when unknown.
func ReadEsriASCII(r io.Reader, crs string) (*Grid, error) {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)
	next := func() (string, bool) {
		if !sc.Scan() {
			return "", false
		}
		return sc.Text(), true
	}

	spec := GridSpec{Layers: 1, CRS: crs}
	var xCenter, yCenter bool
	headerDone := false
	var first string

	for !headerDone {
		tok, ok := next()
		if !ok {
			return nil, fmt.Errorf("raster: truncated ESRI ASCII header")
		}
		key := strings.ToLower(tok)
		switch key {
		case "ncols", "nrows", "xllcorner", "xllcenter", "yllcorner", "yllcenter", "cellsize", "nodata_value":
			val, ok := next()
			if !ok {
				return nil, fmt.Errorf("raster: ESRI ASCII header key %q has no value", key)
			}
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return nil, fmt.Errorf("raster: ESRI ASCII header %s: %w", key, err)
			}
			switch key {
			case "ncols":
				spec.Cols = int(f)
			case "nrows":
				spec.Rows = int(f)
			case "xllcorner":
				spec.MinX = f
			case "xllcenter":
				spec.MinX = f
				xCenter = true
			case "yllcorner":
				spec.MinY = f
			case "yllcenter":
				spec.MinY = f
				yCenter = true
			case "cellsize":
				spec.Dx, spec.Dy = f, f
			case "nodata_value":
				spec.NoData = f
				spec.NoDataSet = true
			}
		default:
			// First data value; header is over.
			headerDone = true
			first = tok
		}
	}

	// Center-referenced origins shift by half a cell.
	if xCenter {
		spec.MinX -= spec.Dx / 2
	}
	if yCenter {
		spec.MinY -= spec.Dy / 2
	}

	n := spec.Rows * spec.Cols
	if n <= 0 {
		return nil, fmt.Errorf("raster: ESRI ASCII header missing ncols/nrows")
	}
	vals := make([]float64, 0, n)
	f, err := strconv.ParseFloat(first, 64)
	if err != nil {
		return nil, fmt.Errorf("raster: ESRI ASCII cell 0: %w", err)
	}
	vals = append(vals, f)
	for len(vals) < n {
		tok, ok := next()
		if !ok {
			return nil, fmt.Errorf("raster: ESRI ASCII data truncated at cell %d of %d", len(vals), n)
		}
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("raster: ESRI ASCII cell %d: %w", len(vals), err)
		}
		vals = append(vals, f)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return NewGrid(spec, [][]float64{vals})
}

// OpenEsriASCII reads an ESRI ASCII grid file, transparently
// decompressing ".gz" files.
func OpenEsriASCII(path, crs string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("raster: %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}
	g, err := ReadEsriASCII(r, crs)
	if err != nil {
		return nil, fmt.Errorf("raster: %s: %w", path, err)
	}
	return g, nil
}

// WriteEsriASCII encodes layer 0 of g in ESRI ASCII grid format.
// Multi-layer grids must be written one layer at a time by cropping or
// reconstructing; the format is single-band.
func WriteEsriASCII(w io.Writer, g *Grid) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ncols %d\n", g.cols)
	fmt.Fprintf(bw, "nrows %d\n", g.rows)
	fmt.Fprintf(bw, "xllcorner %g\n", g.minX)
	fmt.Fprintf(bw, "yllcorner %g\n", g.minY)
	fmt.Fprintf(bw, "cellsize %g\n", g.dx)
	fmt.Fprintf(bw, "NODATA_value %g\n", g.noData)
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			if c > 0 {
				bw.WriteByte(' ')
			}
			fmt.Fprintf(bw, "%g", g.Value(0, r, c))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
