package pipeline

import (
	"math"

	"featurelab/domain/dataset"
	"featurelab/internal/errors"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Weight scales every encoded column of a feature by its normalized weight,
// returning new columns.
func Weight(cols []dataset.Column, weight float64) []dataset.Column {
	out := make([]dataset.Column, len(cols))
	for i, c := range cols {
		values := make([]float64, len(c.Numbers))
		copy(values, c.Numbers)
		floats.Scale(weight, values)
		out[i] = dataset.NumericColumn(c.Name, values)
	}
	return out
}

// Transform applies the transformation to each column of a feature independently.
// The input columns are not modified.
func Transform(feature string, cols []dataset.Column, t dataset.Transformation) ([]dataset.Column, error) {
	out := make([]dataset.Column, len(cols))
	for i, c := range cols {
		values := make([]float64, len(c.Numbers))
		copy(values, c.Numbers)
		switch t {
		case dataset.TransformNone, "":
		case dataset.TransformLog:
			if err := log1p(feature, values); err != nil {
				return nil, err
			}
		case dataset.TransformZScore:
			zScore(values)
		case dataset.TransformMinMax:
			minMax(values)
		default:
			return nil, errors.Newf(errors.CodeValidationError, "unknown transformation %q for feature %q", t, feature)
		}
		out[i] = dataset.NumericColumn(c.Name, values)
	}
	return out, nil
}

func log1p(feature string, values []float64) error {
	for i, v := range values {
		if v < 0 {
			return errors.Newf(errors.CodeValidationError,
				"log transformation of feature %q requires non-negative values, found %g", feature, v)
		}
		values[i] = math.Log1p(v)
	}
	return nil
}

// zScore centers to zero mean and scales to unit population variance. Constant
// columns become all zeros.
func zScore(values []float64) {
	if len(values) == 0 {
		return
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	if std == 0 {
		std = 1
	}
	for i, v := range values {
		values[i] = (v - mean) / std
	}
}

// minMax rescales to [0, 1]. Constant columns become all zeros.
func minMax(values []float64) {
	if len(values) == 0 {
		return
	}
	lo, hi := floats.Min(values), floats.Max(values)
	span := hi - lo
	for i, v := range values {
		if span == 0 {
			values[i] = 0
			continue
		}
		values[i] = (v - lo) / span
	}
}
