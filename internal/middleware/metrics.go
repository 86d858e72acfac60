package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/deens-academy/timetable-api/internal/service"
)

// Metrics records a latency observation per request, labelled by the
// route template so path parameters do not explode cardinality.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		metricsSvc.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
