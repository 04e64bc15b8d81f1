package middleware

import (
	"log"
	"net/http"

	"featurelab/domain/core"
	"featurelab/internal/errors"

	"github.com/gin-gonic/gin"
)

// SessionKey is the gin context key holding the parsed session id
const SessionKey = "sessionID"

// RequireSession parses the :id path parameter as a session id and stores it on the
// context. Requests with a malformed id are rejected before reaching the handler.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := core.ParseID(c.Param("id"))
		if err != nil {
			log.Printf("[RequireSession] rejecting %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
				"code":  errors.CodeInvalidInput,
			})
			return
		}
		c.Set(SessionKey, id)
		c.Next()
	}
}

// SessionID returns the id stored by RequireSession
func SessionID(c *gin.Context) core.ID {
	id, _ := c.Get(SessionKey)
	sessionID, _ := id.(core.ID)
	return sessionID
}

// LimitBody caps request bodies at maxBytes
func LimitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
