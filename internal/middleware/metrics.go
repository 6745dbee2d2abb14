package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mcabalar/acadrepo-api/internal/service"
)

// Metrics observes every request on the Prometheus collectors. The route
// template is used as the path label so /requests/42 and /requests/43 land
// in the same series; unmatched routes fall back to the raw path.
func Metrics(metrics *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		metrics.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
