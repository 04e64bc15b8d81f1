package ui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"featurelab/adapters/excel"
	"featurelab/app"
	"featurelab/domain/core"
	"featurelab/internal/errors"
	"featurelab/internal/pipeline"
	"featurelab/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	opts := pipeline.DefaultOptions()
	opts.KMeansRestarts = 2
	svc := app.NewWorkbenchService(session.NewStore(time.Hour), nil, app.WorkbenchConfig{
		Options:           opts,
		Reader:            excel.DefaultReaderConfig(),
		MaxFeatures:       10,
		MaxConcurrentRuns: 2,
	})
	return NewServer(svc, 5)
}

func do(t *testing.T, s *Server, method, path string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func upload(t *testing.T, s *Server, filename, content string) string {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	w := do(t, s, http.MethodPost, "/api/datasets", buf.Bytes(), mw.FormDataContentType())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)["session_id"].(string)
}

func scoresCSV() string {
	var b strings.Builder
	b.WriteString("index,score,height\n")
	for i := 0; i < 24; i++ {
		score := 1 + i%4
		if i >= 12 {
			score = 50 + i%4
		}
		fmt.Fprintf(&b, "%d,%d,%d\n", 100+i, score, 150+i%7)
	}
	return b.String()
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDatasetFlow(t *testing.T) {
	s := newTestServer(t)
	id := upload(t, s, "scores.csv", scoresCSV())
	base := "/api/datasets/" + id

	w := do(t, s, http.MethodGet, base+"?limit=3", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(24), body["rows"])
	rows := body["preview"].(map[string]interface{})["rows"].([]interface{})
	assert.Len(t, rows, 3)

	edits := `[{"feature":"height","type":"numerical","weight":0,"transformation":"none"}]`
	w = do(t, s, http.MethodPatch, base+"/selection", []byte(edits), "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, s, http.MethodPost, base+"/process", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	stats := decode(t, w)["statistics"].([]interface{})
	require.Len(t, stats, 1)
	assert.Equal(t, "score", stats[0].(map[string]interface{})["feature"])

	w = do(t, s, http.MethodPost, base+"/cluster", []byte(`{"algorithm":"kmeans","num_clusters":2}`), "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body = decode(t, w)
	assert.Equal(t, float64(2), body["clusters"])
	assert.Contains(t, body["report"], "Performed K-means clustering.")

	w = do(t, s, http.MethodGet, base+"/download", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "scores_clustered.csv")
	assert.True(t, strings.HasPrefix(w.Body.String(), "index,cluster labels,score\n"))

	w = do(t, s, http.MethodGet, base+"/report", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<li>Found 2 clusters.</li>")

	w = do(t, s, http.MethodPost, base+"/plot", []byte(`{"algorithm":"none"}`), "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []interface{}{"score"}, decode(t, w)["axes"])

	w = do(t, s, http.MethodGet, base+"/charts/histogram?feature=score", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Histogram of score")

	w = do(t, s, http.MethodGet, base+"/charts/scatter?x=score&y=score", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Cluster 1")

	w = do(t, s, http.MethodGet, base+"/charts/scatter?source=processed&x=score&y=score", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "score vs score")

	w = do(t, s, http.MethodGet, base+"/charts/scatter?source=processed&x=height", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code, "height was dropped from the selection")

	w = do(t, s, http.MethodGet, "/api/runs", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["count"])
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t)

	w := do(t, s, http.MethodGet, "/api/datasets/not-an-id", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, errors.CodeInvalidInput, decode(t, w)["code"])

	w = do(t, s, http.MethodGet, "/api/datasets/"+core.NewID().String(), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, errors.CodeNotFound, decode(t, w)["code"])

	id := upload(t, s, "scores.csv", scoresCSV())
	w = do(t, s, http.MethodGet, "/api/datasets/"+id+"/statistics", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, errors.CodeValidationError, decode(t, w)["code"])

	w = do(t, s, http.MethodPut, "/api/datasets/"+id+"/selection/weights", []byte(`{"weights":[1]}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodGet, "/api/datasets/"+id+"/charts/pie", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPost, "/api/datasets", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(errors.CodeUnsupportedEncoding))
	assert.Equal(t, http.StatusNotFound, statusFor(errors.CodeNotFound))
	assert.Equal(t, http.StatusRequestTimeout, statusFor(errors.CodeCanceled))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.CodeDatabaseError))
}

func TestRespondErrorPlainError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/runs", nil)

	respondError(c, fmt.Errorf("disk full"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, errors.CodeInternalError, decode(t, w)["code"])
}
