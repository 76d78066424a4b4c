package middleware

import (
	"regexp"

	"github.com/Wikid82/warden/backend/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	RequestIDKey    = "requestID"
	RequestIDHeader = "X-Request-ID"
	loggerKey       = "logger"
)

var inboundRequestID = regexp.MustCompile(`^[A-Za-z0-9._-]{8,64}$`)

// RequestID tags each request with an id, reusing a well-formed inbound
// X-Request-ID, and stores a request-scoped logger in the context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(RequestIDHeader)
		if !inboundRequestID.MatchString(rid) {
			rid = uuid.New().String()
		}
		c.Set(RequestIDKey, rid)
		c.Writer.Header().Set(RequestIDHeader, rid)
		c.Set(loggerKey, logger.WithFields(logrus.Fields{"request_id": rid}))
		c.Next()
	}
}

// GetRequestLogger returns the request-scoped logger, or the global one.
func GetRequestLogger(c *gin.Context) *logrus.Entry {
	if v, ok := c.Get(loggerKey); ok {
		if entry, ok := v.(*logrus.Entry); ok {
			return entry
		}
	}
	return logger.Log()
}
