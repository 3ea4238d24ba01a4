package middleware

import (
	"context"
	"strconv"
	"time"

	aws_pkg "catalog-service/pkg/aws"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MetricsMiddleware publishes one batch of CloudWatch samples per request:
// a count, the latency and, for failures, the error class.
func MetricsMiddleware(metricsClient *aws_pkg.MetricsClient, serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !metricsClient.IsEnabled() {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		dimensions := map[string]string{
			"Service": serviceName,
			"Method":  c.Request.Method,
			"Path":    route,
			"Status":  statusClass(status),
		}

		samples := []aws_pkg.Datum{
			aws_pkg.Count(aws_pkg.MetricHTTPRequests),
			aws_pkg.Latency(aws_pkg.MetricHTTPLatency, time.Since(start)),
		}
		switch {
		case status >= 500:
			samples = append(samples, aws_pkg.Count(aws_pkg.MetricHTTPErrors), aws_pkg.Count(aws_pkg.MetricHTTP5xx))
		case status >= 400:
			samples = append(samples, aws_pkg.Count(aws_pkg.MetricHTTPErrors), aws_pkg.Count(aws_pkg.MetricHTTP4xx))
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsClient.Record(ctx, dimensions, samples...); err != nil {
				zap.L().Debug("Failed to publish request metrics", zap.String("path", route), zap.Error(err))
			}
		}()
	}
}

// statusClass turns 404 into "4xx".
func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}
