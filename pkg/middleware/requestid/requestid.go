// Package requestid tags every request with a correlation ID so log lines and
// error reports from the same call can be stitched together.
package requestid

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// Header carries the correlation ID between services.
	Header = "X-Request-ID"

	ginKey = "request_id"
)

// Middleware reuses an inbound X-Request-ID when the caller supplies one,
// otherwise it mints a fresh UUID. The ID is echoed back on the response.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(Header)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(ginKey, id)
		c.Writer.Header().Set(Header, id)
		c.Next()
	}
}

// Value returns the correlation ID for the current request, or "" when the
// middleware is not installed.
func Value(c *gin.Context) string {
	id, _ := c.Value(ginKey).(string)
	return id
}
