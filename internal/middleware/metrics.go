package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/teachreg/trs-api/internal/service"
)

// Metrics records request count and latency per route. Unmatched routes are
// observed under their raw path so 404 probes remain visible without
// exploding label cardinality on real routes.
func Metrics(metrics *service.MetricsService) gin.HandlerFunc {
	if metrics == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		metrics.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
