package middleware

import (
	"errors"
	"sync"
	"time"

	"github.com/KOMKZ/go-yogan-propagation/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// HTTPMetrics implements component.MetricsProvider for the HTTP server. Until
// RegisterMetrics runs, Handler only passes requests through.
type HTTPMetrics struct {
	enabled bool

	mu       sync.RWMutex
	requests *telemetry.RequestMetrics
	inFlight metric.Int64UpDownCounter
}

func NewHTTPMetrics(enabled bool) *HTTPMetrics {
	return &HTTPMetrics{enabled: enabled}
}

func (m *HTTPMetrics) MetricsName() string { return "http" }

func (m *HTTPMetrics) IsMetricsEnabled() bool { return m.enabled }

// RegisterMetrics creates http_server_requests_total, the matching duration
// histogram and error counter, and http_requests_in_flight.
func (m *HTTPMetrics) RegisterMetrics(meter metric.Meter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.requests != nil {
		return nil
	}
	b := telemetry.NewMetricsBuilder(meter, "http")
	requests, err := b.NewRequestMetrics("server")
	if err != nil {
		return err
	}
	inFlight, err := b.UpDownCounter("requests_in_flight", "HTTP requests being served")
	if err != nil {
		return err
	}
	m.requests, m.inFlight = requests, inFlight
	return nil
}

// Handler records every request under its route pattern.
func (m *HTTPMetrics) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		m.mu.RLock()
		requests, inFlight := m.requests, m.inFlight
		m.mu.RUnlock()
		if requests == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		start := time.Now()
		inFlight.Add(ctx, 1)
		defer inFlight.Add(ctx, -1)

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}
		status := c.Writer.Status()
		var err error
		if status >= 500 {
			err = errServerStatus
		}
		requests.Record(ctx, time.Since(start).Seconds(), err,
			attribute.String("method", c.Request.Method),
			attribute.String("path", path),
			attribute.String("status_class", statusClass(status)),
		)
	}
}

var errServerStatus = errors.New("server error status")

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	default:
		return "unknown"
	}
}
