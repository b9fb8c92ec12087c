package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SolMeet-Labs/access_layer/internal/app/metrics"
	"github.com/SolMeet-Labs/access_layer/internal/logging"
)

// Metrics records request counts, durations and in-flight gauge for every
// handled request.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		metrics.IncrementInFlight()
		defer metrics.DecrementInFlight()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		metrics.RecordHTTPRequest(c.Request.Method, path, status, time.Since(start))
	}
}

// RequestLogging attaches a trace ID to each request and logs its outcome.
func RequestLogging(log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		traceID := c.GetHeader("X-Trace-ID")
		if traceID == "" {
			traceID = logging.NewTraceID()
		}
		ctx := logging.WithTraceID(c.Request.Context(), traceID)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Trace-ID", traceID)

		c.Next()

		log.WithContext(ctx).WithFields(map[string]interface{}{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("request handled")
	}
}
