package pipeline

import (
	"strconv"

	"featurelab/domain/dataset"
	"featurelab/internal/errors"

	"gonum.org/v1/gonum/mat"
)

// featureMatrix lays every column of the table out as a rows×columns matrix. The
// index is not a column, so it can never leak into an estimator.
func featureMatrix(t *dataset.Table) (*mat.Dense, error) {
	return matrixOf(t, t.Names())
}

func matrixOf(t *dataset.Table, features []string) (*mat.Dense, error) {
	rows := t.Rows()
	if rows == 0 || len(features) == 0 {
		return nil, errors.ValidationError("feature matrix is empty")
	}
	x := mat.NewDense(rows, len(features), nil)
	for j, name := range features {
		col, ok := t.Column(name)
		if !ok {
			return nil, errors.NotFound("feature " + name)
		}
		if col.Kind != dataset.KindNumeric {
			return nil, errors.Newf(errors.CodeValidationError, "feature %q is not numeric", name)
		}
		x.SetCol(j, col.Numbers)
	}
	return x, nil
}

// componentNames returns "Component 1".."Component k"
func componentNames(k int) []string {
	names := make([]string, k)
	for i := range names {
		names[i] = "Component " + strconv.Itoa(i+1)
	}
	return names
}

// matrixTable wraps a matrix as a table keyed by the given index
func matrixTable(index []int, x mat.Matrix, names []string) dataset.Table {
	rows, cols := x.Dims()
	t := dataset.Table{Index: make([]int, rows), Columns: make([]dataset.Column, cols)}
	copy(t.Index, index)
	for j := 0; j < cols; j++ {
		values := make([]float64, rows)
		mat.Col(values, j, x)
		t.Columns[j] = dataset.NumericColumn(names[j], values)
	}
	return t
}
