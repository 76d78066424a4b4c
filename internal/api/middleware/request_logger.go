package middleware

import (
	"time"

	"github.com/Wikid82/warden/backend/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs each handled request with its request_id and records
// it in the HTTP metrics.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		metrics.ObserveHTTP(c.Request.Method, c.FullPath(), status, latency)

		entry := GetRequestLogger(c).WithFields(logrus.Fields{
			"status":  status,
			"method":  c.Request.Method,
			"path":    SanitizePath(c.Request.URL.Path),
			"latency": latency.String(),
			"client":  c.ClientIP(),
		})
		if userID, ok := c.Get("userID"); ok {
			entry = entry.WithField("user_id", userID)
		}
		switch {
		case status >= 500:
			entry.Error("handled request")
		case status >= 400:
			entry.Warn("handled request")
		default:
			entry.Info("handled request")
		}
	}
}
