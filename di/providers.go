package di

import (
	"context"
	"fmt"

	"github.com/KOMKZ/go-yogan-propagation/config"
	"github.com/KOMKZ/go-yogan-propagation/event"
	"github.com/KOMKZ/go-yogan-propagation/health"
	"github.com/KOMKZ/go-yogan-propagation/kafka"
	"github.com/KOMKZ/go-yogan-propagation/logger"
	"github.com/KOMKZ/go-yogan-propagation/middleware"
	"github.com/KOMKZ/go-yogan-propagation/playground"
	"github.com/KOMKZ/go-yogan-propagation/telemetry"
	"github.com/KOMKZ/go-yogan-propagation/tree"
	"github.com/gin-gonic/gin"
	"github.com/samber/do/v2"
)

// ConfigOptions locate the configuration the loader reads.
type ConfigOptions struct {
	ConfigPath   string      // directory holding config.yaml and {env}.yaml
	ConfigFile   string      // explicit file, wins over ConfigPath
	ConfigPrefix string      // environment variable prefix
	Flags        interface{} // struct with config tags, highest priority
}

// ProvideConfigLoader builds the layered loader; it has no dependencies.
func ProvideConfigLoader(opts ConfigOptions) func(do.Injector) (*config.Loader, error) {
	return config.ProvideLoader(config.ProvideLoaderOptions{
		ConfigPath:   opts.ConfigPath,
		ConfigFile:   opts.ConfigFile,
		ConfigPrefix: opts.ConfigPrefix,
		Flags:        opts.Flags,
	})
}

// ProvideLoggerManager installs the "logger" section as the global
// logger configuration. Depends on: config.
func ProvideLoggerManager(i do.Injector) (*logger.Manager, error) {
	loader, err := do.Invoke[*config.Loader](i)
	if err != nil {
		return nil, err
	}
	cfg := logger.DefaultManagerConfig()
	if loader.IsSet("logger") {
		if err := loader.UnmarshalKey("logger", &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal logger config failed: %w", err)
		}
	}
	if err := logger.ResetManager(cfg); err != nil {
		return nil, err
	}
	return logger.DefaultManager(), nil
}

// ProvideCtxLogger returns a provider for the logger of module.
func ProvideCtxLogger(module string) func(do.Injector) (*logger.CtxZapLogger, error) {
	return func(i do.Injector) (*logger.CtxZapLogger, error) {
		mgr, err := do.Invoke[*logger.Manager](i)
		if err != nil {
			return nil, err
		}
		return mgr.GetLogger(module), nil
	}
}

// ProvideTelemetryManager starts tracing and metrics from the "telemetry"
// section. Depends on: config, logger.
func ProvideTelemetryManager(i do.Injector) (*telemetry.Manager, error) {
	loader, err := do.Invoke[*config.Loader](i)
	if err != nil {
		return nil, err
	}
	mgr, err := do.Invoke[*logger.Manager](i)
	if err != nil {
		return nil, err
	}
	cfg := telemetry.DefaultConfig()
	if loader.IsSet("telemetry") {
		if err := loader.UnmarshalKey("telemetry", &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal telemetry config failed: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry config: %w", err)
	}
	tm := telemetry.NewManager(cfg, mgr.GetLogger("telemetry"))
	if err := tm.Start(context.Background()); err != nil {
		return nil, err
	}
	return tm, nil
}

// ProvideMetricsRegistry exposes the registry of the started telemetry
// manager.
func ProvideMetricsRegistry(i do.Injector) (*telemetry.MetricsRegistry, error) {
	tm, err := do.Invoke[*telemetry.Manager](i)
	if err != nil {
		return nil, err
	}
	return tm.MetricsRegistry(), nil
}

// ProvideKafkaProducer dials the brokers of the "kafka" section. It yields
// nil when the producer is not enabled.
func ProvideKafkaProducer(i do.Injector) (*kafka.Producer, error) {
	loader, err := do.Invoke[*config.Loader](i)
	if err != nil {
		return nil, err
	}
	if !loader.GetBool("kafka.producer.enabled") {
		return nil, nil
	}
	var cfg kafka.Config
	if err := loader.UnmarshalKey("kafka", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal kafka config failed: %w", err)
	}
	mgr, err := do.Invoke[*logger.Manager](i)
	if err != nil {
		return nil, err
	}
	p, err := kafka.NewProducer(cfg, mgr.GetLogger("kafka"))
	if err != nil {
		return nil, err
	}
	if err := registerMetrics(i, p.Metrics()); err != nil {
		_ = p.Close()
		return nil, err
	}
	return p, nil
}

// ProvideEventComponent initializes and starts the event component on the
// document tree host. Depends on: config, logger, telemetry, kafka.
func ProvideEventComponent(i do.Injector) (*event.Component, error) {
	loader, err := do.Invoke[*config.Loader](i)
	if err != nil {
		return nil, err
	}
	mgr, err := do.Invoke[*logger.Manager](i)
	if err != nil {
		return nil, err
	}
	tm, err := do.Invoke[*telemetry.Manager](i)
	if err != nil {
		return nil, err
	}
	producer, err := do.Invoke[*kafka.Producer](i)
	if err != nil {
		return nil, err
	}

	c := event.NewComponent()
	c.SetLogger(mgr.GetLogger("event"))
	c.SetHost(tree.Host{})
	c.SetTracer(tm.Tracer("event"))
	if producer != nil {
		c.SetPublisher(producer)
	}

	ctx := context.Background()
	if err := c.Init(ctx, loader); err != nil {
		return nil, err
	}
	if err := registerMetrics(i, c.Metrics()); err != nil {
		return nil, err
	}
	if err := c.Start(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// ProvideEngine exposes the engine of the event component.
func ProvideEngine(i do.Injector) (*event.Engine, error) {
	c, err := do.Invoke[*event.Component](i)
	if err != nil {
		return nil, err
	}
	return c.Engine(), nil
}

// ProvidePlaygroundConfig reads the "playground" section.
func ProvidePlaygroundConfig(i do.Injector) (playground.Config, error) {
	loader, err := do.Invoke[*config.Loader](i)
	if err != nil {
		return playground.Config{}, err
	}
	cfg := playground.DefaultConfig()
	if loader.IsSet("playground") {
		if err := loader.UnmarshalKey("playground", &cfg); err != nil {
			return cfg, fmt.Errorf("unmarshal playground config failed: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid playground config: %w", err)
	}
	return cfg, nil
}

// ProvidePlaygroundRunner builds a runner whose engines share the event
// component's configuration and failure sink.
func ProvidePlaygroundRunner(i do.Injector) (*playground.Runner, error) {
	cfg, err := do.Invoke[playground.Config](i)
	if err != nil {
		return nil, err
	}
	c, err := do.Invoke[*event.Component](i)
	if err != nil {
		return nil, err
	}
	tm, err := do.Invoke[*telemetry.Manager](i)
	if err != nil {
		return nil, err
	}
	mgr, err := do.Invoke[*logger.Manager](i)
	if err != nil {
		return nil, err
	}

	metrics := playground.NewRunnerMetrics(cfg.Metrics)
	if err := registerMetrics(i, metrics); err != nil {
		return nil, err
	}
	return playground.NewRunner(
		playground.WithEngineOptions(
			event.WithConfig(c.Config()),
			event.WithMetrics(c.Metrics()),
			event.WithTracer(tm.Tracer("event")),
			event.WithLogger(mgr.GetLogger("event")),
		),
		playground.WithSink(c.Sink()),
		playground.WithLogger(mgr.GetLogger("playground")),
		playground.WithMetrics(metrics),
		playground.WithTracer(tm.Tracer("playground")),
		playground.WithMaxDepth(cfg.MaxDepth),
		playground.WithMaxDispatches(cfg.MaxDispatches),
	), nil
}

// ProvideHealthAggregator checks the event engine and, when enabled, the
// kafka producer.
func ProvideHealthAggregator(i do.Injector) (*health.Aggregator, error) {
	c, err := do.Invoke[*event.Component](i)
	if err != nil {
		return nil, err
	}
	producer, err := do.Invoke[*kafka.Producer](i)
	if err != nil {
		return nil, err
	}
	agg := health.NewAggregator(0)
	agg.Register(health.CheckerFunc("event", func(context.Context) error {
		if c.Engine() == nil {
			return fmt.Errorf("event engine not initialized")
		}
		return nil
	}))
	if producer != nil {
		agg.Register(health.CheckerFunc("kafka", producer.Check))
	}
	return agg, nil
}

// ProvidePlaygroundRouter builds the HTTP handler around the runner.
func ProvidePlaygroundRouter(i do.Injector) (*gin.Engine, error) {
	cfg, err := do.Invoke[playground.Config](i)
	if err != nil {
		return nil, err
	}
	runner, err := do.Invoke[*playground.Runner](i)
	if err != nil {
		return nil, err
	}
	tm, err := do.Invoke[*telemetry.Manager](i)
	if err != nil {
		return nil, err
	}
	agg, err := do.Invoke[*health.Aggregator](i)
	if err != nil {
		return nil, err
	}

	gin.SetMode(cfg.Mode)
	httpMetrics := middleware.NewHTTPMetrics(cfg.Metrics)
	if err := registerMetrics(i, httpMetrics); err != nil {
		return nil, err
	}
	rc := playground.DefaultRouterConfig()
	rc.ServiceName = tm.Config().ServiceName
	rc.ErrorLogging = cfg.ErrorLogging
	rc.Metrics = httpMetrics
	rc.Health = agg
	return playground.NewRouter(runner, rc), nil
}
