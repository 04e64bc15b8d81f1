package ui

import (
	"net/http"
	"strings"

	"featurelab/domain/dataset"
	"featurelab/internal/pipeline"
	"featurelab/internal/session"
	"featurelab/ui/middleware"

	"github.com/gin-gonic/gin"
)

const defaultPreviewRows = 50

func sessionSummary(sess session.Session) gin.H {
	return gin.H{
		"session_id":   sess.ID,
		"dataset":      sess.Dataset,
		"rows":         sess.Raw.Rows(),
		"columns":      sess.Raw.Names(),
		"dropped_rows": sess.DroppedRows,
		"processed":    sess.Processed != nil,
		"clustered":    sess.Clustered != nil,
		"created_at":   sess.CreatedAt,
		"updated_at":   sess.UpdatedAt,
	}
}

// preview renders the first rows of a table with the index column first
func preview(t *dataset.Table, limit int) gin.H {
	return gin.H{
		"columns": append([]string{dataset.IndexColumn}, t.Names()...),
		"rows":    t.Records(limit, 4),
		"total":   t.Rows(),
	}
}

func (s *Server) handleUpload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "multipart field \"file\" is required")
		return
	}
	f, err := header.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()

	sess, err := s.workbench.Upload(c.Request.Context(), header.Filename, f)
	if err != nil {
		respondError(c, err)
		return
	}
	body := sessionSummary(sess)
	body["selection"] = sess.Selection
	c.JSON(http.StatusCreated, body)
}

func (s *Server) handleListSessions(c *gin.Context) {
	sessions := s.workbench.Sessions()
	out := make([]gin.H, len(sessions))
	for i, sess := range sessions {
		out[i] = sessionSummary(sess)
	}
	c.JSON(http.StatusOK, gin.H{"sessions": out, "count": len(out)})
}

func (s *Server) handleGetSession(c *gin.Context) {
	limit, ok := queryInt(c, "limit", defaultPreviewRows)
	if !ok {
		return
	}
	sess, err := s.workbench.Session(middleware.SessionID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	body := sessionSummary(sess)
	body["selection"] = sess.Selection
	body["preview"] = preview(sess.Raw, limit)
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	if err := s.workbench.CloseSession(middleware.SessionID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleEditSelection(c *gin.Context) {
	var edits []dataset.SelectionEdit
	if err := c.ShouldBindJSON(&edits); err != nil {
		badRequest(c, "invalid selection edits: %v", err)
		return
	}
	sel, err := s.workbench.EditSelection(middleware.SessionID(c), edits)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"selection": sel})
}

type weightsRequest struct {
	Weights []float64 `json:"weights" binding:"required"`
}

func (s *Server) handleSetWeights(c *gin.Context) {
	var req weightsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid weights: %v", err)
		return
	}
	sel, err := s.workbench.SetWeights(middleware.SessionID(c), req.Weights)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"selection": sel})
}

func (s *Server) handleProcess(c *gin.Context) {
	limit, ok := queryInt(c, "limit", defaultPreviewRows)
	if !ok {
		return
	}
	result, err := s.workbench.Process(c.Request.Context(), middleware.SessionID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"retained":   result.Processed.Retained,
		"preview":    preview(&result.Processed.Table, limit),
		"statistics": roundedStats(result.Statistics),
	})
}

func roundedStats(stats []pipeline.ColumnStats) []pipeline.ColumnStats {
	out := make([]pipeline.ColumnStats, len(stats))
	for i, st := range stats {
		out[i] = st.Rounded(4)
	}
	return out
}

func (s *Server) handleStatistics(c *gin.Context) {
	stats, err := s.workbench.Statistics(middleware.SessionID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"statistics": roundedStats(stats)})
}

// splitList parses a comma separated query value, ignoring blanks
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (s *Server) handleCorrelation(c *gin.Context) {
	corr, err := s.workbench.Correlation(middleware.SessionID(c), splitList(c.Query("features")), pipeline.CorrelationMethod(c.Query("method")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, corr)
}

func (s *Server) handleScree(c *gin.Context) {
	ratios, err := s.workbench.Scree(middleware.SessionID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"explained_variance": ratios})
}

func (s *Server) handleHistogram(c *gin.Context) {
	bins, ok := queryInt(c, "bins", 0)
	if !ok {
		return
	}
	hist, err := s.workbench.Histogram(middleware.SessionID(c), c.Query("feature"), bins)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, hist)
}
