package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/scanner-service/pkg/metrics"
)

// MetricsMiddleware records request counts, latency and in-flight requests
// by route template, so session IDs never become label values.
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isProbe(c) {
			c.Next()
			return
		}

		m.IncrementHTTPRequestsInFlight()
		start := time.Now()
		defer func() {
			m.DecrementHTTPRequestsInFlight()
			m.RecordHTTPRequest(c.Request.Method, routeOf(c, "unmatched"), c.Writer.Status(), time.Since(start))
		}()

		c.Next()
	}
}

// MetricsEndpoint exposes the registry on a gin route
func MetricsEndpoint(m *metrics.Metrics) gin.HandlerFunc {
	return gin.WrapH(m.Handler())
}
