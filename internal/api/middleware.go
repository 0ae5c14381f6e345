package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/blue-az/BabAnalysis/internal/metrics"
)

// HeaderRequestID carries the request id on every response.
const HeaderRequestID = "X-Request-ID"

const requestIDKey = "request_id"

// RequestIDMiddleware echoes a caller supplied X-Request-ID or assigns a new
// uuid.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// MetricsMiddleware records request counts and latency per route.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		durationMs := float64(time.Since(start).Microseconds()) / 1000
		status := strconv.Itoa(c.Writer.Status())

		metrics.RecordHTTPRequest(endpoint, c.Request.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, c.Request.Method, status, durationMs)
	}
}

func requestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
