package ui

import (
	"bytes"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"featurelab/app"
	"featurelab/domain/core"
	"featurelab/internal/pipeline"
	"featurelab/ui/middleware"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleCluster(c *gin.Context) {
	limit, ok := queryInt(c, "limit", defaultPreviewRows)
	if !ok {
		return
	}
	var cfg pipeline.ClusterConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		badRequest(c, "invalid cluster configuration: %v", err)
		return
	}
	outcome, err := s.workbench.Cluster(c.Request.Context(), middleware.SessionID(c), cfg)
	if err != nil {
		respondError(c, err)
		return
	}
	result := outcome.Result
	c.JSON(http.StatusOK, gin.H{
		"run_id":      outcome.Run.ID,
		"clusters":    result.Clusters,
		"noise_count": result.NoiseCount,
		"sampled":     result.Sampled,
		"parameter":   result.Parameter,
		"report":      result.Report.Messages,
		"preview":     preview(&result.Table, limit),
	})
}

func (s *Server) handlePlot(c *gin.Context) {
	var cfg pipeline.ReductionConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		badRequest(c, "invalid plot configuration: %v", err)
		return
	}
	plot, err := s.workbench.Plot(c.Request.Context(), middleware.SessionID(c), cfg)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"axes":    plot.Axes,
		"reduced": plot.Reduced,
		"points":  plot.Table.Records(0, -1),
	})
}

func (s *Server) handleDownload(c *gin.Context) {
	format, err := app.ParseExportFormat(c.Query("format"))
	if err != nil {
		respondError(c, err)
		return
	}
	id := middleware.SessionID(c)
	sess, err := s.workbench.Session(id)
	if err != nil {
		respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := s.workbench.Export(id, format, &buf); err != nil {
		respondError(c, err)
		return
	}

	base := strings.TrimSuffix(filepath.Base(sess.Dataset), filepath.Ext(sess.Dataset))
	filename := fmt.Sprintf("%s_clustered.%s", base, format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	contentType := "text/csv; charset=utf-8"
	if format == app.ExportXLSX {
		contentType = xlsxContentType
	}
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (s *Server) handleReport(c *gin.Context) {
	report, err := s.workbench.Report(middleware.SessionID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	switch c.DefaultQuery("format", "html") {
	case "markdown", "md":
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(report.Markdown()))
	case "json":
		c.JSON(http.StatusOK, report)
	default:
		c.Data(http.StatusOK, "text/html; charset=utf-8", report.HTML())
	}
}

func (s *Server) handleListRuns(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 50)
	if !ok {
		return
	}
	var sessionID core.ID
	if raw := c.Query("session"); raw != "" {
		id, err := core.ParseID(raw)
		if err != nil {
			badRequest(c, "%v", err)
			return
		}
		sessionID = id
	}
	runs, err := s.workbench.Runs(c.Request.Context(), sessionID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

func (s *Server) handleGetRun(c *gin.Context) {
	id, err := core.ParseID(c.Param("id"))
	if err != nil {
		badRequest(c, "%v", err)
		return
	}
	record, err := s.workbench.Run(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}
