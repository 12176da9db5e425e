package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quirelabs/quire/internal/logger"
)

// authCookie carries the access token between browser requests.
const authCookie = "quire_token"

// cookieMaxAge keeps the session cookie for thirty days.
const cookieMaxAge = 30 * 24 * 60 * 60

// requestLogger routes request logs through the internal logger.
// Server errors are promoted to warnings.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		elapsed := time.Since(start).Round(time.Millisecond)
		if status >= http.StatusInternalServerError {
			logger.Warn("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, status, elapsed)
			return
		}
		logger.Debug("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, status, elapsed)
	}
}

// recovery converts handler panics into 500s, logged through the
// internal logger.
func recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, err any) {
		logger.Warn("Panic serving %s: %v", c.Request.URL.Path, err)
		c.AbortWithStatus(http.StatusInternalServerError)
	})
}

// tokenAuth guards routes with the configured access token. Requests
// authenticate with a bearer header or the session cookie; a token
// query parameter sets the cookie so browsers can join with a link.
// An empty token disables the check.
func tokenAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		if c.GetHeader("Authorization") == "Bearer "+token {
			c.Next()
			return
		}
		if cookie, err := c.Cookie(authCookie); err == nil && cookie == token {
			c.Next()
			return
		}
		if c.Query("token") == token {
			c.SetCookie(authCookie, token, cookieMaxAge, "/", "", false, true)
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
}
