package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/KOMKZ/go-yogan-propagation/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v[0])
	}
	engine.ServeHTTP(w, req)
	return w
}

func TestTraceID(t *testing.T) {
	engine := gin.New()
	engine.Use(TraceID(DefaultTraceConfig()))
	var fromCtx, fromGin string
	engine.GET("/x", func(c *gin.Context) {
		fromCtx = logger.TraceIDFromContext(c.Request.Context())
		fromGin = GetTraceID(c)
	})

	w := serve(engine, http.MethodGet, "/x", http.Header{TraceIDHeader: {"abc-123"}})
	assert.Equal(t, "abc-123", w.Header().Get(TraceIDHeader))
	assert.Equal(t, "abc-123", fromCtx)
	assert.Equal(t, "abc-123", fromGin)

	w = serve(engine, http.MethodGet, "/x", nil)
	assert.Len(t, w.Header().Get(TraceIDHeader), 36, "generated uuid")
	assert.Equal(t, fromGin, fromCtx)
}

func TestRecovery(t *testing.T) {
	engine := gin.New()
	engine.Use(Recovery(nil))
	engine.GET("/panic", func(*gin.Context) { panic("kaboom") })

	w := serve(engine, http.MethodGet, "/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "kaboom")
	assert.NotContains(t, w.Body.String(), "goroutine")
}

func TestRequestLog(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestLog(RequestLogConfig{SkipPaths: []string{"/skip"}}))
	engine.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.GET("/skip", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/ok", nil).Code)
	assert.Equal(t, http.StatusTeapot, serve(engine, http.MethodGet, "/skip", nil).Code)
}

func TestHTTPMetrics(t *testing.T) {
	m := NewHTTPMetrics(true)
	assert.Equal(t, "http", m.MetricsName())

	engine := gin.New()
	engine.Use(m.Handler())
	engine.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.GET("/fail", func(c *gin.Context) { c.Status(http.StatusBadGateway) })

	// Unregistered metrics pass requests through.
	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/ok", nil).Code)

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	require.NoError(t, m.RegisterMetrics(provider.Meter("http")))
	require.NoError(t, m.RegisterMetrics(provider.Meter("http")))

	serve(engine, http.MethodGet, "/ok", nil)
	serve(engine, http.MethodGet, "/fail", nil)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	totals := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, metric := range sm.Metrics {
			if sum, ok := metric.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					totals[metric.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(2), totals["http_server_requests_total"])
	assert.Equal(t, int64(1), totals["http_server_errors_total"])
	assert.Equal(t, int64(0), totals["http_requests_in_flight"])
}

func TestStatusClass(t *testing.T) {
	for code, want := range map[int]string{200: "2xx", 302: "3xx", 404: "4xx", 503: "5xx", 100: "unknown"} {
		assert.Equal(t, want, statusClass(code))
	}
}
