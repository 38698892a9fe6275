// Package middleware holds the gin middleware of the playground server.
package middleware

import (
	"github.com/KOMKZ/go-yogan-propagation/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

const (
	TraceIDKey    = "trace_id"
	TraceIDHeader = "X-Trace-ID"
)

// TraceConfig configures TraceID.
type TraceConfig struct {
	Header               string
	EnableResponseHeader bool
	Generator            func() string
}

func DefaultTraceConfig() TraceConfig {
	return TraceConfig{
		Header:               TraceIDHeader,
		EnableResponseHeader: true,
		Generator:            func() string { return uuid.New().String() },
	}
}

// TraceID gives every request a trace id. An active OpenTelemetry span wins;
// otherwise the request header is reused or a fresh uuid generated and put
// on the request context through logger.WithTraceID.
func TraceID(cfg TraceConfig) gin.HandlerFunc {
	if cfg.Header == "" {
		cfg.Header = TraceIDHeader
	}
	if cfg.Generator == nil {
		cfg.Generator = func() string { return uuid.New().String() }
	}

	return func(c *gin.Context) {
		var traceID string
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.IsValid() {
			traceID = sc.TraceID().String()
		} else {
			traceID = c.GetHeader(cfg.Header)
			if traceID == "" {
				traceID = cfg.Generator()
			}
			c.Request = c.Request.WithContext(logger.WithTraceID(c.Request.Context(), traceID))
		}

		c.Set(TraceIDKey, traceID)
		if cfg.EnableResponseHeader {
			c.Writer.Header().Set(cfg.Header, traceID)
		}
		c.Next()
	}
}

// GetTraceID reads the id TraceID stored on c.
func GetTraceID(c *gin.Context) string {
	return c.GetString(TraceIDKey)
}
