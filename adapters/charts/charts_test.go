package charts

import (
	"bytes"
	"testing"

	"featurelab/domain/dataset"
	"featurelab/internal/pipeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, r Renderer) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf))
	return buf.String()
}

func TestScree(t *testing.T) {
	html := render(t, Scree([]float64{0.7, 0.2, 0.1}))
	assert.Contains(t, html, "Scree plot")
	assert.Contains(t, html, "Explained variance")
}

func TestScatterSeriesPerLabel(t *testing.T) {
	plot := &pipeline.PlotResult{
		Axes: []string{"Component 1", "Component 2"},
		Table: dataset.Table{
			Index: []int{5, 6, 7},
			Columns: []dataset.Column{
				dataset.NumericColumn(dataset.LabelColumn, []float64{1, 2, 1}),
				dataset.NumericColumn("Component 1", []float64{0.1, 0.2, 0.3}),
				dataset.NumericColumn("Component 2", []float64{1, 2, 3}),
			},
		},
	}

	chart, err := Scatter(plot, "", "")
	require.NoError(t, err)
	html := render(t, chart)
	assert.Contains(t, html, "Cluster 1")
	assert.Contains(t, html, "Cluster 2")
	assert.Contains(t, html, "ID: 7")

	_, err = Scatter(plot, "Component 9", "")
	assert.Error(t, err)
}

func TestFeatureScatter(t *testing.T) {
	table := &dataset.Table{
		Index: []int{3, 4},
		Columns: []dataset.Column{
			dataset.NumericColumn("age", []float64{0.1, 0.9}),
			dataset.NumericColumn("income", []float64{0.5, 0.2}),
		},
	}

	chart, err := FeatureScatter(table, "", "")
	require.NoError(t, err)
	html := render(t, chart)
	assert.Contains(t, html, "age vs income")
	assert.Contains(t, html, "ID: 4")

	_, err = FeatureScatter(table, "age", "height")
	assert.Error(t, err)
}

func TestCorrelationAndHistogram(t *testing.T) {
	html := render(t, Correlation(&pipeline.Correlation{
		Features: []string{"a", "b"},
		Values:   [][]float64{{1, 0.5}, {0.5, 1}},
	}))
	assert.Contains(t, html, "Correlation matrix")

	html = render(t, Histogram(&pipeline.HistogramBins{
		Feature: "age",
		Edges:   []float64{0, 1, 2},
		Counts:  []float64{3, 4},
	}))
	assert.Contains(t, html, "Histogram of age")
}
