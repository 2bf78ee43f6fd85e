package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/looplearn/looplearn-backend/internal/observability"
)

// Metrics records per-request counters and latency when metrics are
// enabled. Unmatched routes are bucketed under a single label to keep
// cardinality bounded.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		m := observability.Current()
		if m == nil {
			c.Next()
			return
		}
		m.ApiInflightInc()
		start := time.Now()
		c.Next()
		m.ApiInflightDec()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveAPI(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
