package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ericogr/saga-combat/internal/constants"
	"github.com/ericogr/saga-combat/internal/logging"
	"github.com/ericogr/saga-combat/internal/session"
)

// requestLogger logs each request through the structured logger instead of
// gin's text logger.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logging.Debug("http request", logging.Fields{
			"method":                c.Request.Method,
			constants.LogFieldPath:  c.FullPath(),
			constants.JSONKeyStatus: c.Writer.Status(),
			"duration_ms":           time.Since(start).Milliseconds(),
		})
	}
}

// lookupSession resolves the :sessionID path parameter, writing a 404 when
// the session is unknown.
func (h *CombatHandler) lookupSession(c *gin.Context) (*session.Session, bool) {
	s, err := h.sessions.Get(c.Param("sessionID"))
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{constants.JSONKeyError: constants.ErrSessionNotFound})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{constants.JSONKeyError: err.Error()})
		}
		return nil, false
	}
	return s, true
}

// boundedQueryInt parses an optional positive integer query parameter,
// falling back to def when it is missing, malformed or above max.
func boundedQueryInt(c *gin.Context, key string, def, max int) int {
	if s := c.Query(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= max {
			return n
		}
	}
	return def
}
