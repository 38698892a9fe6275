package playground

import (
	"net/http"

	"github.com/KOMKZ/go-yogan-propagation/health"
	"github.com/KOMKZ/go-yogan-propagation/httpx"
	"github.com/KOMKZ/go-yogan-propagation/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// RouterConfig configures NewRouter.
type RouterConfig struct {
	ServiceName  string
	ErrorLogging httpx.ErrorLoggingConfig
	Metrics      *middleware.HTTPMetrics
	Health       *health.Aggregator // nil answers ok unconditionally
}

func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		ServiceName:  "propagate",
		ErrorLogging: httpx.DefaultErrorLoggingConfig(),
	}
}

// NewRouter serves the runner over HTTP:
//
//	POST /v1/scenarios/run  body: Scenario  ->  Result
//	GET  /healthz
func NewRouter(runner *Runner, cfg RouterConfig) *gin.Engine {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "propagate"
	}
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(
		otelgin.Middleware(cfg.ServiceName),
		middleware.TraceID(middleware.DefaultTraceConfig()),
		middleware.RequestLog(middleware.DefaultRequestLogConfig()),
		middleware.Recovery(nil),
		httpx.ErrorLoggingMiddleware(cfg.ErrorLogging),
	)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Handler())
	}
	r.NoRoute(httpx.NoRouteHandler())
	r.NoMethod(httpx.NoMethodHandler())

	r.GET("/healthz", func(c *gin.Context) {
		if cfg.Health == nil {
			httpx.OkJson(c, gin.H{"status": "ok"})
			return
		}
		resp := cfg.Health.Check(c.Request.Context())
		if !resp.IsHealthy() {
			c.JSON(http.StatusServiceUnavailable, httpx.Response{Code: http.StatusServiceUnavailable, Msg: "unhealthy", Data: resp})
			return
		}
		httpx.OkJson(c, resp)
	})
	r.POST("/v1/scenarios/run", httpx.Wrap(func(c *gin.Context, s *Scenario) (*Result, error) {
		return runner.Run(c.Request.Context(), s)
	}))
	return r
}
