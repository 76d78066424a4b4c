package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Recovery turns a panic into a 500 response. In verbose mode the log entry
// also carries the stack trace and sanitized request metadata.
func Recovery(verbose bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			entry := GetRequestLogger(c)
			if verbose {
				entry.WithFields(logrus.Fields{
					"method":  c.Request.Method,
					"path":    SanitizePath(c.Request.URL.Path),
					"headers": SanitizeHeaders(c.Request.Header),
				}).Errorf("PANIC: %v\nStacktrace:\n%s", r, debug.Stack())
			} else {
				entry.Errorf("PANIC: %v", r)
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}()
		c.Next()
	}
}
