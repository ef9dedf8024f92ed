package telemetry

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// RequestIDKey is the gin context key holding the request correlation id.
const RequestIDKey = "request_id"

// routeLabel is the matched route template, or "unmatched" for 404/405s.
// Raw paths never reach label or span names.
func routeLabel(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}

// SpanNameMiddleware renames the otelhttp server span to "METHOD route" once
// gin has matched the request.
func SpanNameMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		trace.SpanFromContext(c.Request.Context()).SetName(c.Request.Method + " " + routeLabel(c))
		c.Next()
	}
}
