package zonal

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ValueWeight is one contributing cell: its value and overlay weight.
type ValueWeight struct {
	Value  float64
	Weight float64
}

// Aggregator reduces the (value, weight) pairs contributed by one
// geometry on one layer to a single summary. It must be pure: no state
// between calls. ok is false when the input is empty or otherwise
// yields no summary; the extractor records the row value as missing.
type Aggregator interface {
	Name() string
	Reduce(pairs []ValueWeight) (value float64, ok bool)
}

// AggregatorFunc adapts a function to the Aggregator interface.
type AggregatorFunc struct {
	AggName string
	Fn      func(pairs []ValueWeight) (float64, bool)
}

// Name returns the aggregator's name.
func (a AggregatorFunc) Name() string { return a.AggName }

// Reduce applies the wrapped function.
func (a AggregatorFunc) Reduce(pairs []ValueWeight) (float64, bool) { return a.Fn(pairs) }

// split separates pairs into value and weight slices, dropping
// zero-weight entries.
func split(pairs []ValueWeight) (vals, weights []float64) {
	vals = make([]float64, 0, len(pairs))
	weights = make([]float64, 0, len(pairs))
	for _, p := range pairs {
		if p.Weight == 0 {
			continue
		}
		vals = append(vals, p.Value)
		weights = append(weights, p.Weight)
	}
	return vals, weights
}

// Mean is the weighted arithmetic mean.
var Mean Aggregator = AggregatorFunc{
	AggName: "mean",
	Fn: func(pairs []ValueWeight) (float64, bool) {
		vals, weights := split(pairs)
		if len(vals) == 0 {
			return 0, false
		}
		return stat.Mean(vals, weights), true
	},
}

// Sum is the weight-scaled sum (each value multiplied by its weight).
var Sum Aggregator = AggregatorFunc{
	AggName: "sum",
	Fn: func(pairs []ValueWeight) (float64, bool) {
		vals, weights := split(pairs)
		if len(vals) == 0 {
			return 0, false
		}
		return floats.Dot(vals, weights), true
	},
}

// Min is the smallest contributing value; weights only decide
// membership (zero-weight cells are ignored).
var Min Aggregator = AggregatorFunc{
	AggName: "min",
	Fn: func(pairs []ValueWeight) (float64, bool) {
		vals, _ := split(pairs)
		if len(vals) == 0 {
			return 0, false
		}
		return floats.Min(vals), true
	},
}

// Max is the largest contributing value.
var Max Aggregator = AggregatorFunc{
	AggName: "max",
	Fn: func(pairs []ValueWeight) (float64, bool) {
		vals, _ := split(pairs)
		if len(vals) == 0 {
			return 0, false
		}
		return floats.Max(vals), true
	},
}

// Median is the weighted median (0.5 empirical quantile).
var Median Aggregator = AggregatorFunc{
	AggName: "median",
	Fn: func(pairs []ValueWeight) (float64, bool) {
		vals, weights := split(pairs)
		if len(vals) == 0 {
			return 0, false
		}
		idx := make([]int, len(vals))
		for i := range idx {
			idx[i] = i
		}
		sort.Slice(idx, func(i, j int) bool { return vals[idx[i]] < vals[idx[j]] })
		sv := make([]float64, len(vals))
		sw := make([]float64, len(vals))
		for i, j := range idx {
			sv[i] = vals[j]
			sw[i] = weights[j]
		}
		return stat.Quantile(0.5, stat.Empirical, sv, sw), true
	},
}

// Count is the total overlay weight: the number of contributing cells
// under centroid selection, or the covered area in cell units under
// area weighting.
var Count Aggregator = AggregatorFunc{
	AggName: "count",
	Fn: func(pairs []ValueWeight) (float64, bool) {
		_, weights := split(pairs)
		if len(weights) == 0 {
			return 0, false
		}
		return floats.Sum(weights), true
	},
}

// ByName resolves a builtin aggregator from its name.
func ByName(name string) (Aggregator, error) {
	switch name {
	case "mean":
		return Mean, nil
	case "sum":
		return Sum, nil
	case "min":
		return Min, nil
	case "max":
		return Max, nil
	case "median":
		return Median, nil
	case "count":
		return Count, nil
	}
	return nil, fmt.Errorf("zonal: unknown aggregator %q (want mean, sum, min, max, median or count)", name)
}
