package pipeline

import (
	"math"
	"sort"

	"featurelab/domain/dataset"
	"featurelab/internal/errors"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// HistogramBins holds equal-width bin edges and the count in each bin
type HistogramBins struct {
	Feature string    `json:"feature"`
	Edges   []float64 `json:"edges"`
	Counts  []float64 `json:"counts"`
}

// Histogram counts the values of one feature in equal-width bins. When feature is
// empty the first column is used.
func Histogram(t *dataset.Table, feature string, bins int) (*HistogramBins, error) {
	if bins <= 0 {
		bins = DefaultHistogramBins
	}
	if feature == "" {
		if len(t.Columns) == 0 {
			return nil, errors.ValidationError("table has no columns")
		}
		feature = t.Columns[0].Name
	}
	col, ok := t.Column(feature)
	if !ok {
		return nil, errors.NotFound("feature " + feature)
	}
	if col.Kind != dataset.KindNumeric {
		return nil, errors.Newf(errors.CodeValidationError, "feature %q is not numeric", feature)
	}
	if len(col.Numbers) == 0 {
		return nil, errors.ValidationError("histogram of an empty column")
	}

	sorted := make([]float64, len(col.Numbers))
	copy(sorted, col.Numbers)
	sort.Float64s(sorted)

	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	edges := floats.Span(make([]float64, bins+1), lo, hi)
	// stat.Histogram bins are half-open, so nudge the last edge to include the maximum
	edges[bins] = math.Nextafter(hi, math.Inf(1))

	counts := stat.Histogram(nil, edges, sorted, nil)
	return &HistogramBins{Feature: feature, Edges: edges, Counts: counts}, nil
}
