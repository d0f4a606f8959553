package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"promogen-go/internal/monitoring"
)

// RequestLogger logs HTTP requests and records request metrics.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		statusClass := fmt.Sprintf("%dxx", c.Writer.Status()/100)
		monitoring.HTTPRequestsTotal.WithLabelValues(method, path, statusClass).Inc()
		monitoring.HTTPRequestDuration.WithLabelValues(method, path, statusClass).Observe(latency.Seconds())
		ridVal, _ := c.Get("request_id")
		orgVal, _ := c.Get("organization_id")
		log.WithFields(log.Fields{
			"status":       c.Writer.Status(),
			"latency_ms":   latency.Milliseconds(),
			"method":       method,
			"path":         path,
			"request_id":   ridVal,
			"organization": orgVal,
			"user_agent":   c.Request.UserAgent(),
		}).Info("http_request")
	}
}
