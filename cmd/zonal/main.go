// Command zonal extracts raster statistics for a set of vector
// geometries: it reads a grid and a point or polygon collection,
// reduces the overlapping cell values per geometry, and writes the
// result as CSV or JSON. Optionally it persists the run to a SQLite
// database, renders a heatmap of the input grid, and writes an HTML
// report of the output.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gridward/zonal/internal/config"
	"github.com/gridward/zonal/internal/monitoring"
	"github.com/gridward/zonal/internal/raster"
	"github.com/gridward/zonal/internal/render"
	"github.com/gridward/zonal/internal/resultdb"
	"github.com/gridward/zonal/internal/vector"
	"github.com/gridward/zonal/internal/version"
	"github.com/gridward/zonal/internal/zonal"
)

func main() {
	var (
		rasterPath   = flag.String("raster", "", "path to ESRI ASCII grid (.asc, .asc.gz)")
		vectorPath   = flag.String("vector", "", "path to geometries (.shp, .geojson, .json)")
		rasterCRS    = flag.String("raster-crs", "", "CRS to assume for the raster (ASCII grids carry none)")
		attrs        = flag.String("attrs", "", "comma-separated shapefile attributes to carry into results")
		stat         = flag.String("stat", "mean", "statistic: mean, sum, min, max, median, count")
		areaWeighted = flag.Bool("area-weighted", false, "weight polygon cells by intersection area fraction")
		normalize    = flag.Bool("normalize", false, "rescale weights to sum to one per geometry")
		fallback     = flag.Bool("small-fallback", true, "fall back to the centroid cell for polygons that cover no cell")
		buffer       = flag.Float64("buffer", 0, "point buffer radius in map units (0 disables)")
		interp       = flag.String("interp", "nearest", "point sampling: nearest or bilinear")
		strict       = flag.Bool("strict", false, "treat any no-data contribution as missing")
		workers      = flag.Int("workers", 1, "number of extraction workers")
		outPath      = flag.String("out", "", "output file (default stdout)")
		format       = flag.String("format", "", "output format: csv or json (default from -out extension, else csv)")
		dbPath       = flag.String("db", "", "sqlite database to record the run in")
		notes        = flag.String("notes", "", "free-form note stored with the run")
		plotPath     = flag.String("plot", "", "write a heatmap of the input grid to this image file")
		plotLayer    = flag.Int("plot-layer", 0, "grid layer to plot")
		reportPath   = flag.String("report", "", "write an HTML report of the result to this file")
		configPath   = flag.String("config", "", "JSON file with extraction defaults (flags win over it)")
		verbose      = flag.Bool("verbose", false, "enable debug logging")
		showVersion  = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	monitoring.SetVerbose(*verbose)

	if *rasterPath == "" || *vectorPath == "" {
		log.Fatal("both -raster and -vector are required")
	}

	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		applyConfig(cfg, stat, areaWeighted, normalize, fallback, buffer, interp, strict, workers, rasterCRS)
	}

	grid, err := raster.OpenEsriASCII(*rasterPath, *rasterCRS)
	if err != nil {
		log.Fatalf("read raster: %v", err)
	}
	monitoring.Debugf("grid: %dx%d cells, %d layer(s)", grid.Rows(), grid.Cols(), grid.Layers())

	fc, err := readVector(*vectorPath, *attrs)
	if err != nil {
		log.Fatalf("read vector: %v", err)
	}
	monitoring.Debugf("geometries: %d", len(fc.Features))

	agg, err := zonal.ByName(*stat)
	if err != nil {
		log.Fatalf("bad -stat: %v", err)
	}

	pol := zonal.Policy{
		AreaWeighted:         *areaWeighted,
		SmallPolygonFallback: *fallback,
		NormalizeWeights:     *normalize,
		PointBufferRadius:    *buffer,
		Strict:               *strict,
	}
	switch *interp {
	case "nearest":
		pol.PointInterpolation = zonal.InterpNearest
	case "bilinear":
		pol.PointInterpolation = zonal.InterpBilinear
	default:
		log.Fatalf("bad -interp: %q (want nearest or bilinear)", *interp)
	}

	res, err := zonal.ExtractConcurrent(grid, fc, agg, pol, *workers)
	if err != nil {
		log.Fatalf("extract: %v", err)
	}

	if err := writeResult(res, *outPath, *format); err != nil {
		log.Fatalf("write result: %v", err)
	}

	if *dbPath != "" {
		store, err := resultdb.Open(*dbPath)
		if err != nil {
			log.Fatalf("open result db: %v", err)
		}
		defer store.Close()
		run := &resultdb.Run{RasterPath: *rasterPath, VectorPath: *vectorPath, Notes: *notes}
		if err := store.SaveRun(run, res); err != nil {
			log.Fatalf("save run: %v", err)
		}
		fmt.Fprintf(os.Stderr, "saved run %s\n", run.RunID)
	}

	if *plotPath != "" {
		title := filepath.Base(*rasterPath)
		if err := render.SaveHeatmap(grid, *plotLayer, title, *plotPath); err != nil {
			log.Fatalf("plot: %v", err)
		}
	}

	if *reportPath != "" {
		f, err := os.Create(*reportPath)
		if err != nil {
			log.Fatalf("create report: %v", err)
		}
		title := fmt.Sprintf("%s over %s", *stat, filepath.Base(*vectorPath))
		if err := render.WriteReport(res, title, f); err != nil {
			f.Close()
			log.Fatalf("report: %v", err)
		}
		if err := f.Close(); err != nil {
			log.Fatalf("close report: %v", err)
		}
	}
}

// applyConfig fills in config-file values for flags the user did not
// set explicitly, so command-line flags always win.
func applyConfig(cfg *config.ExtractionConfig, stat *string, areaWeighted, normalize, fallback *bool, buffer *float64, interp *string, strict *bool, workers *int, rasterCRS *string) {
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if !set["stat"] {
		config.ApplyString(stat, cfg.Stat)
	}
	if !set["area-weighted"] {
		config.ApplyBool(areaWeighted, cfg.AreaWeighted)
	}
	if !set["normalize"] {
		config.ApplyBool(normalize, cfg.Normalize)
	}
	if !set["small-fallback"] {
		config.ApplyBool(fallback, cfg.SmallFallback)
	}
	if !set["buffer"] {
		config.ApplyFloat64(buffer, cfg.Buffer)
	}
	if !set["interp"] {
		config.ApplyString(interp, cfg.Interp)
	}
	if !set["strict"] {
		config.ApplyBool(strict, cfg.Strict)
	}
	if !set["workers"] {
		config.ApplyInt(workers, cfg.Workers)
	}
	if !set["raster-crs"] {
		config.ApplyString(rasterCRS, cfg.RasterCRS)
	}
}

// readVector picks the decoder by file extension.
func readVector(path, attrs string) (*vector.FeatureCollection, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		var fields []string
		if attrs != "" {
			fields = strings.Split(attrs, ",")
		}
		return vector.ReadShapefile(path, fields...)
	case ".json", ".geojson":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return vector.ReadGeoJSON(f)
	default:
		return nil, fmt.Errorf("unsupported vector format: %s", path)
	}
}

// writeResult writes res to path (stdout when empty) in the requested
// format; an empty format follows the output extension and falls back
// to CSV.
func writeResult(res *zonal.Result, path, format string) error {
	if format == "" {
		if strings.EqualFold(filepath.Ext(path), ".json") {
			format = "json"
		} else {
			format = "csv"
		}
	}

	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "csv":
		return res.WriteCSV(w)
	case "json":
		return res.WriteJSON(w)
	default:
		return fmt.Errorf("unsupported format: %q (want csv or json)", format)
	}
}
