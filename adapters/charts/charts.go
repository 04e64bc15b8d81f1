// Package charts renders pipeline results as standalone go-echarts HTML pages
package charts

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"featurelab/domain/dataset"
	"featurelab/internal/errors"
	"featurelab/internal/pipeline"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Renderer is any chart that can write itself as an HTML page
type Renderer interface {
	Render(w io.Writer) error
}

// Scree plots the explained variance ratio per principal component
func Scree(ratios []float64) Renderer {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Scree plot"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Component"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Explained variance"}),
	)

	xs := make([]string, len(ratios))
	points := make([]opts.LineData, len(ratios))
	for i, r := range ratios {
		xs[i] = strconv.Itoa(i + 1)
		points[i] = opts.LineData{Value: dataset.Round(r, 4)}
	}
	line.SetXAxis(xs).AddSeries("Explained variance", points)
	return line
}

// Scatter plots two axes of plot data with one series per cluster label
func Scatter(plot *pipeline.PlotResult, xAxis, yAxis string) (Renderer, error) {
	if xAxis == "" && len(plot.Axes) > 0 {
		xAxis = plot.Axes[0]
	}
	if yAxis == "" && len(plot.Axes) > 1 {
		yAxis = plot.Axes[1]
	}
	xs, ok := plot.Table.Column(xAxis)
	if !ok {
		return nil, errors.NotFound("axis " + xAxis)
	}
	ys, ok := plot.Table.Column(yAxis)
	if !ok {
		return nil, errors.NotFound("axis " + yAxis)
	}
	labels, ok := plot.Table.Column(dataset.LabelColumn)
	if !ok {
		return nil, errors.ValidationError("plot data has no cluster labels")
	}

	groups := make(map[int][]opts.ScatterData)
	for i := range plot.Table.Index {
		label := int(labels.Numbers[i])
		groups[label] = append(groups[label], opts.ScatterData{
			Name:  fmt.Sprintf("ID: %d", plot.Table.Index[i]),
			Value: []interface{}{xs.Numbers[i], ys.Numbers[i]},
		})
	}
	order := make([]int, 0, len(groups))
	for label := range groups {
		order = append(order, label)
	}
	sort.Ints(order)

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Clusters"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: xAxis}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: yAxis}),
	)
	for _, label := range order {
		scatter.AddSeries(fmt.Sprintf("Cluster %d", label), groups[label])
	}
	return scatter, nil
}

// FeatureScatter plots one feature of a processed table against another. Empty axis
// names default to the first two columns.
func FeatureScatter(t *dataset.Table, xFeature, yFeature string) (Renderer, error) {
	if xFeature == "" && len(t.Columns) > 0 {
		xFeature = t.Columns[0].Name
	}
	if yFeature == "" && len(t.Columns) > 1 {
		yFeature = t.Columns[1].Name
	}
	xs, ok := t.Column(xFeature)
	if !ok {
		return nil, errors.NotFound("feature " + xFeature)
	}
	ys, ok := t.Column(yFeature)
	if !ok {
		return nil, errors.NotFound("feature " + yFeature)
	}
	if xs.Kind != dataset.KindNumeric || ys.Kind != dataset.KindNumeric {
		return nil, errors.ValidationError("scatter axes must be numeric features")
	}

	points := make([]opts.ScatterData, len(t.Index))
	for i, idx := range t.Index {
		points[i] = opts.ScatterData{
			Name:  fmt.Sprintf("ID: %d", idx),
			Value: []interface{}{xs.Numbers[i], ys.Numbers[i]},
		}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: xFeature + " vs " + yFeature}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: xFeature}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: yFeature}),
	)
	scatter.AddSeries("Records", points)
	return scatter, nil
}

// Correlation draws the correlation matrix as a heatmap on a [-1, 1] scale
func Correlation(c *pipeline.Correlation) Renderer {
	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Correlation matrix", Subtitle: string(c.Method)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: c.Features}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: c.Features}),
		charts.WithVisualMapOpts(opts.VisualMap{Min: -1, Max: 1}),
	)

	cells := make([]opts.HeatMapData, 0, len(c.Features)*len(c.Features))
	for i := range c.Values {
		for j, v := range c.Values[i] {
			cells = append(cells, opts.HeatMapData{Value: [3]interface{}{i, j, dataset.Round(v, 2)}})
		}
	}
	hm.AddSeries("correlation", cells)
	return hm
}

// Histogram draws bin counts as a bar chart labelled by each bin's lower edge
func Histogram(h *pipeline.HistogramBins) Renderer {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Histogram of " + h.Feature}),
		charts.WithXAxisOpts(opts.XAxis{Name: h.Feature}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Count"}),
	)

	xs := make([]string, len(h.Counts))
	bars := make([]opts.BarData, len(h.Counts))
	for i, c := range h.Counts {
		xs[i] = strconv.FormatFloat(dataset.Round(h.Edges[i], 2), 'f', -1, 64)
		bars[i] = opts.BarData{Value: c}
	}
	bar.SetXAxis(xs).AddSeries("count", bars)
	return bar
}
