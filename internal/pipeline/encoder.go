package pipeline

import (
	"fmt"
	"sort"

	"featurelab/domain/dataset"
	"featurelab/internal/errors"

	"gonum.org/v1/gonum/floats"
)

// binCount is the number of equal-width intervals used to turn a numeric column
// into a categorical one
const binCount = 3

// Encode converts one column according to its declared type. The four supported
// pairs are text→numerical (label encoding), numeric→categorical (equal-width
// binning then one-hot), numeric→numerical (pass-through) and text→categorical
// (one-hot). Anything else is reported as an unsupported encoding.
func Encode(col dataset.Column, declared dataset.FeatureType) ([]dataset.Column, error) {
	switch {
	case col.Kind == dataset.KindText && declared == dataset.TypeNumerical:
		return []dataset.Column{dataset.NumericColumn(col.Name, LabelEncode(col.Texts))}, nil
	case col.Kind == dataset.KindNumeric && declared == dataset.TypeCategorical:
		return BinOneHot(col.Name, col.Numbers), nil
	case col.Kind == dataset.KindNumeric && declared == dataset.TypeNumerical:
		values := make([]float64, len(col.Numbers))
		copy(values, col.Numbers)
		return []dataset.Column{dataset.NumericColumn(col.Name, values)}, nil
	case col.Kind == dataset.KindText && declared == dataset.TypeCategorical:
		return OneHot(col.Name, col.Texts), nil
	}
	return nil, errors.UnsupportedEncoding(col.Name, string(col.Kind), string(declared))
}

// LabelEncode maps each distinct value to its rank in sorted order
func LabelEncode(values []string) []float64 {
	classes := uniqueSorted(values)
	rank := make(map[string]float64, len(classes))
	for i, c := range classes {
		rank[c] = float64(i)
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = rank[v]
	}
	return out
}

// OneHot expands a text column into one indicator column per distinct value,
// named <feature>_<value> in sorted value order.
func OneHot(feature string, values []string) []dataset.Column {
	classes := uniqueSorted(values)
	cols := make([]dataset.Column, len(classes))
	slot := make(map[string]int, len(classes))
	for i, c := range classes {
		cols[i] = dataset.NumericColumn(fmt.Sprintf("%s_%s", feature, c), make([]float64, len(values)))
		slot[c] = i
	}
	for row, v := range values {
		cols[slot[v]].Numbers[row] = 1
	}
	return cols
}

// BinEdges returns the binCount+1 edges of equal-width intervals over the values.
// Intervals are right-closed; the first edge is pushed down by 0.1% of the range so
// the minimum falls inside the first interval. A constant column is widened by 0.1%
// of its magnitude on both sides.
func BinEdges(values []float64) []float64 {
	lo, hi := floats.Min(values), floats.Max(values)
	edges := make([]float64, binCount+1)
	if lo == hi {
		adj := 0.001
		if lo != 0 {
			adj = 0.001 * abs(lo)
		}
		return floats.Span(edges, lo-adj, hi+adj)
	}
	floats.Span(edges, lo, hi)
	edges[0] -= (hi - lo) * 0.001
	return edges
}

// BinOneHot bins a numeric column into binCount equal-width intervals and emits one
// indicator column per interval, named <feature>_cat1..<feature>_cat3. All intervals
// are emitted even when empty.
func BinOneHot(feature string, values []float64) []dataset.Column {
	cols := make([]dataset.Column, binCount)
	for i := range cols {
		cols[i] = dataset.NumericColumn(fmt.Sprintf("%s_cat%d", feature, i+1), make([]float64, len(values)))
	}
	if len(values) == 0 {
		return cols
	}
	edges := BinEdges(values)
	for row, v := range values {
		bin := binCount - 1
		for b := 0; b < binCount; b++ {
			if v <= edges[b+1] {
				bin = b
				break
			}
		}
		cols[bin].Numbers[row] = 1
	}
	return cols
}

func uniqueSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
