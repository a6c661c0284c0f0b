package render

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gridward/zonal/internal/testutil"
	"github.com/gridward/zonal/internal/zonal"
)

func TestSaveHeatmap(t *testing.T) {
	g := testutil.Grid4x4(t)
	path := filepath.Join(t.TempDir(), "dem.png")
	if err := SaveHeatmap(g, 0, "elevation", path); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("heatmap image is empty")
	}
}

func TestSaveHeatmapLayerOutOfRange(t *testing.T) {
	g := testutil.Grid4x4(t)
	if err := SaveHeatmap(g, 1, "x", filepath.Join(t.TempDir(), "x.png")); err == nil {
		t.Error("expected error for out of range layer")
	}
}

func TestWriteReport(t *testing.T) {
	res := &zonal.Result{
		Aggregator: "mean",
		Layers:     2,
		Rows: []zonal.Row{
			{ID: "parcel-1", Values: []float64{1.5, 2.5}},
			{ID: "parcel-2", Values: []float64{math.NaN(), 4}},
			{ID: "parcel-3", Values: []float64{math.NaN(), math.NaN()},
				Err: fmt.Errorf("%w: self-intersecting ring", zonal.ErrInvalidGeometry)},
		},
	}

	var sb strings.Builder
	if err := WriteReport(res, "extraction report", &sb); err != nil {
		t.Fatal(err)
	}
	html := sb.String()
	if !strings.Contains(html, "parcel-1") {
		t.Error("report missing geometry id")
	}
	if !strings.Contains(html, "mean, layer 2") {
		t.Error("report missing second layer chart")
	}
}
