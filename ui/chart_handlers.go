package ui

import (
	"net/http"

	"featurelab/adapters/charts"
	"featurelab/internal/pipeline"
	"featurelab/ui/middleware"

	"github.com/gin-gonic/gin"
)

// handleChart renders one of the scree, scatter, correlation or histogram charts as
// a standalone HTML page. The scatter chart plots clustered data unless
// source=processed asks for two processed features against each other.
func (s *Server) handleChart(c *gin.Context) {
	id := middleware.SessionID(c)
	var (
		chart charts.Renderer
		err   error
	)

	switch c.Param("kind") {
	case "scree":
		var ratios []float64
		if ratios, err = s.workbench.Scree(id); err == nil {
			chart = charts.Scree(ratios)
		}
	case "correlation":
		var corr *pipeline.Correlation
		if corr, err = s.workbench.Correlation(id, splitList(c.Query("features")), pipeline.CorrelationMethod(c.Query("method"))); err == nil {
			chart = charts.Correlation(corr)
		}
	case "histogram":
		bins, ok := queryInt(c, "bins", 0)
		if !ok {
			return
		}
		var hist *pipeline.HistogramBins
		if hist, err = s.workbench.Histogram(id, c.Query("feature"), bins); err == nil {
			chart = charts.Histogram(hist)
		}
	case "scatter":
		if c.Query("source") == "processed" {
			var processed *pipeline.Processed
			if processed, err = s.workbench.Processed(id); err == nil {
				chart, err = charts.FeatureScatter(&processed.Table, c.Query("x"), c.Query("y"))
			}
			break
		}
		components, ok := queryInt(c, "components", 2)
		if !ok {
			return
		}
		cfg := pipeline.ReductionConfig{
			Algorithm:  pipeline.ReductionAlgorithm(c.DefaultQuery("reduction", string(pipeline.ReduceNone))),
			Components: components,
		}
		var plot *pipeline.PlotResult
		if plot, err = s.workbench.Plot(c.Request.Context(), id, cfg); err == nil {
			chart, err = charts.Scatter(plot, c.Query("x"), c.Query("y"))
		}
	default:
		badRequest(c, "unknown chart %q", c.Param("kind"))
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := chart.Render(c.Writer); err != nil {
		logger.Error("render %s chart: %v", c.Param("kind"), err)
	}
}
