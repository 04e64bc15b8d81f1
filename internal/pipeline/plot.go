package pipeline

import (
	"featurelab/domain/dataset"
	"featurelab/internal/errors"
)

// PlotResult holds plot coordinates per clustered row. Table carries the cluster
// label column followed by the axis columns named in Axes.
type PlotResult struct {
	Table   dataset.Table
	Axes    []string
	Reduced bool
}

// PlotData projects a clustered table for plotting. The label column is split off,
// the remaining features are reduced when the requested component count is in
// range, and the labels are reattached. An out of range count plots the features
// unreduced.
func PlotData(clustered *dataset.Table, cfg ReductionConfig, opts Options) (*PlotResult, error) {
	labels, ok := clustered.Column(dataset.LabelColumn)
	if !ok {
		return nil, errors.ValidationError("table has no cluster labels")
	}
	features := make([]string, 0, len(clustered.Columns))
	for _, c := range clustered.Columns {
		if c.Name != dataset.LabelColumn {
			features = append(features, c.Name)
		}
	}
	x, err := matrixOf(clustered, features)
	if err != nil {
		return nil, err
	}

	result := &PlotResult{}
	reduction := ReductionConfig{Algorithm: ReduceNone}
	if cfg.Algorithm != ReduceNone && cfg.Algorithm != "" && cfg.Components > 0 && cfg.Components <= len(features) {
		reduction = cfg
		result.Reduced = true
	}
	// components are already bounded by the feature count
	opts.TSNEMaxComponents = 0
	red, err := Reduce(x, features, reduction, opts)
	if err != nil {
		return nil, err
	}

	table := matrixTable(clustered.Index, red.Matrix, red.Names)
	table.Columns = append([]dataset.Column{dataset.NumericColumn(dataset.LabelColumn, append([]float64(nil), labels.Numbers...))}, table.Columns...)
	result.Table = table
	result.Axes = red.Names
	return result, nil
}
