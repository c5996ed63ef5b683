package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/eitanrom/plada-backend/internal/pkg/logger"
)

const RequestIDHeader = "X-Request-ID"

// RequestID tags every request with an id and logs request completion with
// method, path, status and latency.
func RequestID(log *logger.Logger) gin.HandlerFunc {
	reqLog := log.With("middleware", "RequestID")
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set(RequestIDHeader, id)

		start := time.Now()
		c.Next()

		reqLog.Info("request completed",
			"request_id", id,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}
