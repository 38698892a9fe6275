package event

import (
	"context"
	"fmt"

	"github.com/KOMKZ/go-yogan-propagation/component"
	"github.com/KOMKZ/go-yogan-propagation/logger"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Component wires an Engine from the "event" configuration section.
type Component struct {
	config    Config
	logger    *logger.CtxZapLogger
	host      Host
	publisher Publisher
	tracer    trace.Tracer

	metrics *EngineMetrics
	sink    ExceptionSink
	async   *AsyncSink
	engine  *Engine
}

// NewComponent creates the event component
func NewComponent() *Component {
	return &Component{config: DefaultConfig()}
}

// Name returns the component name
func (c *Component) Name() string {
	return component.ComponentEvent
}

// DependsOn returns the components that must be ready first
func (c *Component) DependsOn() []string {
	return []string{component.ComponentConfig, component.ComponentLogger}
}

// SetHost sets the tree collaborators of the engine
func (c *Component) SetHost(h Host) { c.host = h }

// SetPublisher sets where the kafka sink publishes; without it the kafka
// sink stays off even when enabled in configuration.
func (c *Component) SetPublisher(p Publisher) { c.publisher = p }

// SetTracer sets the tracer for dispatch spans
func (c *Component) SetTracer(t trace.Tracer) { c.tracer = t }

// SetLogger overrides the module logger
func (c *Component) SetLogger(l *logger.CtxZapLogger) { c.logger = l }

// Init loads configuration and builds the engine
func (c *Component) Init(ctx context.Context, loader component.ConfigLoader) error {
	if c.logger == nil {
		c.logger = logger.GetLogger("event")
	}

	if loader != nil && loader.IsSet("event") {
		if err := loader.UnmarshalKey("event", &c.config); err != nil {
			return fmt.Errorf("unmarshal event config failed: %w", err)
		}
	}
	if err := c.config.Validate(); err != nil {
		return fmt.Errorf("invalid event config: %w", err)
	}

	sinks := MultiSink{NewLoggerSink(c.logger)}
	if c.config.KafkaSink.Enabled {
		if c.publisher == nil {
			c.logger.WarnCtx(ctx, "kafka sink enabled without a publisher, skipping")
		} else {
			sinks = append(sinks, NewKafkaSink(c.publisher, c.config.KafkaSink.Topic, c.logger))
		}
	}

	var sink ExceptionSink = sinks
	if c.config.AsyncSink.Enabled {
		async, err := NewAsyncSink(sinks, c.config.AsyncSink.PoolSize, c.logger)
		if err != nil {
			return err
		}
		c.async = async
		sink = async
	}
	c.sink = sink

	c.metrics = NewEngineMetrics(c.config.Metrics)

	opts := []EngineOption{
		WithConfig(c.config),
		WithSink(sink),
		WithLogger(c.logger),
		WithMetrics(c.metrics),
	}
	if c.host != nil {
		opts = append(opts, WithHost(c.host))
	}
	if c.tracer != nil {
		opts = append(opts, WithTracer(c.tracer))
	}
	c.engine = NewEngine(opts...)

	c.logger.DebugCtx(ctx, "event component initialized",
		zap.Bool("async_sink", c.async != nil),
		zap.Int("sinks", len(sinks)),
		zap.Bool("metrics", c.config.Metrics.Enabled))
	return nil
}

// Start is a no-op
func (c *Component) Start(ctx context.Context) error {
	return nil
}

// Stop flushes pending failure reports
func (c *Component) Stop(ctx context.Context) error {
	if c.async != nil {
		c.async.Close()
		c.async = nil
	}
	return nil
}

// Shutdown lets samber/do stop the component
func (c *Component) Shutdown() error {
	return c.Stop(context.Background())
}

// Engine returns the engine built by Init
func (c *Component) Engine() *Engine { return c.engine }

// Sink returns the failure sink the engine reports to, so engines built
// elsewhere can share it
func (c *Component) Sink() ExceptionSink { return c.sink }

// Metrics returns the metrics provider for registration
func (c *Component) Metrics() *EngineMetrics { return c.metrics }

// Config returns the effective configuration
func (c *Component) Config() Config { return c.config }
