package pipeline

import (
	"math"
	"sort"

	"featurelab/domain/dataset"
	"featurelab/internal/errors"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// CorrelationMethod selects the correlation coefficient
type CorrelationMethod string

const (
	Pearson  CorrelationMethod = "pearson"
	Spearman CorrelationMethod = "spearman"
)

// Correlation is a correlation matrix over named features
type Correlation struct {
	Method   CorrelationMethod `json:"method"`
	Features []string          `json:"features"`
	Values   [][]float64       `json:"values"`
}

// Correlate computes the Pearson correlation matrix of the requested features, or
// of the first DefaultCorrelationMax columns when none are requested. Undefined
// correlations, including the diagonal entry of a constant column, are reported as 0.
func Correlate(t *dataset.Table, features []string) (*Correlation, error) {
	return CorrelateWith(t, features, Pearson)
}

// CorrelateWith is Correlate with a choice of coefficient. Spearman correlates the
// tie-averaged ranks of each column, which picks up monotonic relationships that
// are not linear.
func CorrelateWith(t *dataset.Table, features []string, method CorrelationMethod) (*Correlation, error) {
	switch method {
	case "":
		method = Pearson
	case Pearson, Spearman:
	default:
		return nil, errors.Newf(errors.CodeInvalidInput, "unknown correlation method %q", method)
	}
	if len(features) == 0 {
		for i, c := range t.Columns {
			if i >= DefaultCorrelationMax {
				break
			}
			features = append(features, c.Name)
		}
	}
	if len(features) == 0 {
		return nil, errors.ValidationError("no features to correlate")
	}
	if t.Rows() < 2 {
		return nil, errors.ValidationError("correlation needs at least two rows")
	}

	x, err := matrixOf(t, features)
	if err != nil {
		return nil, err
	}

	if method == Spearman {
		_, d := x.Dims()
		for j := 0; j < d; j++ {
			x.SetCol(j, ranks(mat.Col(nil, j, x)))
		}
	}

	var corr mat.SymDense
	stat.CorrelationMatrix(&corr, x, nil)

	n := len(features)
	constant := make([]bool, n)
	for j := 0; j < n; j++ {
		constant[j] = stat.Variance(mat.Col(nil, j, x), nil) == 0
	}
	values := make([][]float64, n)
	for i := 0; i < n; i++ {
		values[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			v := corr.At(i, j)
			if math.IsNaN(v) || constant[i] || constant[j] {
				v = 0
			}
			values[i][j] = v
		}
	}
	return &Correlation{Method: method, Features: features, Values: values}, nil
}

// ranks replaces each value with its 1-based rank; tied values share the mean of
// the ranks they span
func ranks(values []float64) []float64 {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return values[order[a]] < values[order[b]] })

	out := make([]float64, len(values))
	for i := 0; i < len(order); {
		j := i + 1
		for j < len(order) && values[order[j]] == values[order[i]] {
			j++
		}
		avg := float64(i+1) + float64(j-i-1)/2
		for k := i; k < j; k++ {
			out[order[k]] = avg
		}
		i = j
	}
	return out
}
