package ui

import (
	"net/http"
	"strconv"

	"featurelab/internal"
	"featurelab/internal/errors"

	"github.com/gin-gonic/gin"
)

var logger = internal.DefaultLogger.With("API")

func statusFor(code string) int {
	switch code {
	case errors.CodeValidationError, errors.CodeInvalidInput, errors.CodeUnsupportedEncoding:
		return http.StatusBadRequest
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeCanceled:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"error", "code"} with the status its code maps to
func respondError(c *gin.Context, err error) {
	code := errors.CodeInternalError
	if errors.IsAppError(err) {
		code = errors.GetCode(err)
	}
	status := statusFor(code)
	if status == http.StatusInternalServerError {
		logger.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}

func badRequest(c *gin.Context, format string, args ...interface{}) {
	respondError(c, errors.Newf(errors.CodeInvalidInput, format, args...))
}

// queryInt reads an integer query parameter, returning def when it is absent
func queryInt(c *gin.Context, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, "query parameter %s must be an integer", key)
		return 0, false
	}
	return v, true
}
