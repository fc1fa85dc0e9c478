package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/playground/internal/shared/id"
)

// RequestIDHeader carries the request ID in both directions
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// RequestID tags every request with an ID. A well-formed incoming ID is
// kept, anything else is replaced.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := id.RequestID(c.GetHeader(RequestIDHeader))
		if !id.Valid(id.RequestPrefix, string(reqID)) {
			reqID = id.NewRequestID()
		}
		c.Set(requestIDKey, reqID)
		c.Header(RequestIDHeader, reqID.String())
		c.Next()
	}
}

// GetRequestID returns the ID assigned by RequestID
func GetRequestID(c *gin.Context) id.RequestID {
	if v, ok := c.Get(requestIDKey); ok {
		if reqID, ok := v.(id.RequestID); ok {
			return reqID
		}
	}
	return ""
}

// Logger logs each request at debug level and failures at warn
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", GetRequestID(c).String()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Error(c.Errors.Last()))
		}

		switch {
		case status >= 500:
			logger.Warn("Request failed", fields...)
		default:
			logger.Debug("Request handled", fields...)
		}
	}
}
