package zonal

import (
	"fmt"
	"sync"

	"github.com/ctessum/geom"

	"github.com/gridward/zonal/internal/monitoring"
	"github.com/gridward/zonal/internal/raster"
	"github.com/gridward/zonal/internal/vector"
)

// ExtractConcurrent runs point or polygon extraction (chosen by the
// collection's geometry type) across workers goroutines. The
// collection is split into contiguous chunks and each worker receives
// a grid cropped to its chunk's padded bounds, so per-worker memory is
// bounded by the chunk's spatial footprint rather than the whole grid.
// Rows are reassembled in input order, so the result is row-for-row
// identical to the sequential call.
func ExtractConcurrent(g *raster.Grid, fc *vector.FeatureCollection, agg Aggregator, pol Policy, workers int) (*Result, error) {
	wantPolygons, err := batchKind(fc)
	if err != nil {
		return nil, err
	}
	// Batch-fatal checks run once, up front, for the whole collection.
	if err := checkBatch(g, fc, pol, wantPolygons); err != nil {
		return nil, err
	}

	n := len(fc.Features)
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		return extractChunk(g, fc, agg, pol, wantPolygons)
	}

	chunkSize := (n + workers - 1) / workers
	type chunkOut struct {
		res *Result
		err error
	}
	outs := make([]chunkOut, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunkSize
		hi := lo + chunkSize
		if hi > n {
			hi = n
		}
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(w int, chunk *vector.FeatureCollection) {
			defer wg.Done()
			sub := chunkGrid(g, chunk, pol)
			res, err := extractChunk(sub, chunk, agg, pol, wantPolygons)
			outs[w] = chunkOut{res: res, err: err}
		}(w, fc.Slice(lo, hi))
	}
	wg.Wait()

	res := &Result{Layers: g.Layers()}
	res.Rows = make([]Row, 0, n)
	for w := range outs {
		if outs[w].err != nil {
			// Surface the first chunk failure rather than dropping it.
			return nil, fmt.Errorf("zonal: chunk %d: %w", w, outs[w].err)
		}
		if outs[w].res == nil {
			continue
		}
		res.Aggregator = outs[w].res.Aggregator
		res.Rows = append(res.Rows, outs[w].res.Rows...)
	}
	return res, nil
}

// batchKind reports whether the collection is polygonal. Mixed or empty
// collections are settled by checkBatch later; an empty collection
// defaults to the point path, which yields an empty result either way.
func batchKind(fc *vector.FeatureCollection) (wantPolygons bool, err error) {
	for _, f := range fc.Features {
		switch f.Geom.(type) {
		case geom.Point, geom.MultiPoint:
			return false, nil
		case geom.Polygonal:
			return true, nil
		default:
			return false, fmt.Errorf("%w: unsupported geometry type %T", ErrGeometryMismatch, f.Geom)
		}
	}
	return false, nil
}

func extractChunk(g *raster.Grid, fc *vector.FeatureCollection, agg Aggregator, pol Policy, wantPolygons bool) (*Result, error) {
	if wantPolygons {
		return ExtractPolygons(g, fc, agg, pol)
	}
	return ExtractPoints(g, fc, agg, pol)
}

// chunkGrid crops the grid to a chunk's padded bounds. The pad covers
// the point buffer radius plus a two-cell margin so bilinear reads and
// boundary cells behave exactly as they would against the full grid.
// Chunks that miss the grid entirely keep the full grid; their rows
// come out missing regardless.
func chunkGrid(g *raster.Grid, fc *vector.FeatureCollection, pol Policy) *raster.Grid {
	b := fc.Bounds()
	if b == nil {
		return g
	}
	dx, dy := g.Resolution()
	padX := pol.PointBufferRadius + 2*dx
	padY := pol.PointBufferRadius + 2*dy
	window := &geom.Bounds{
		Min: geom.Point{X: b.Min.X - padX, Y: b.Min.Y - padY},
		Max: geom.Point{X: b.Max.X + padX, Y: b.Max.Y + padY},
	}
	sub, err := g.Crop(window)
	if err != nil {
		monitoring.Logf("zonal: chunk crop fell back to full grid: %v", err)
		return g
	}
	return sub
}
