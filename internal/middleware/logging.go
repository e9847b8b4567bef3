package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/klass-lk/reviewpress/internal/server"
)

const RequestIDHeader = "X-Request-ID"

// RequestLogger tags each request with an id, exposes a request-scoped logger
// to handlers and writes one access line when the request finishes.
func RequestLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header(RequestIDHeader, requestID)
		c.Set(server.RequestIDKey, requestID)

		entry := logger.WithField("request_id", requestID)
		c.Set(server.LoggerKey, entry)

		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
		}
		if cache := c.Writer.Header().Get("X-Cache"); cache != "" {
			fields["cache"] = cache
		}

		access := entry.WithFields(fields)
		switch status := c.Writer.Status(); {
		case status >= 500:
			access.Error("request completed")
		case status >= 400:
			access.Warn("request completed")
		default:
			access.Info("request completed")
		}
	}
}

func loggerFrom(c *gin.Context) logrus.FieldLogger {
	return server.NewContext(c).Logger()
}
