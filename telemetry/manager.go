package telemetry

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/KOMKZ/go-yogan-propagation/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Manager owns the tracer and meter providers and the metrics registry.
type Manager struct {
	config Config
	logger *logger.CtxZapLogger
	writer io.Writer

	mu             sync.RWMutex
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	registry       *MetricsRegistry
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithWriter sets where the stdout exporters write. Defaults to os.Stdout.
func WithWriter(w io.Writer) ManagerOption {
	return func(m *Manager) { m.writer = w }
}

// NewManager creates a telemetry manager; nothing is exported until Start.
func NewManager(cfg Config, log *logger.CtxZapLogger, opts ...ManagerOption) *Manager {
	if log == nil {
		log = logger.GetLogger("telemetry")
	}
	m := &Manager{config: cfg, logger: log, writer: os.Stdout}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start builds the providers and installs them globally. When telemetry is
// disabled the manager serves noop tracers and meters.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.config.Enabled {
		m.registry = m.newRegistry(metricnoop.NewMeterProvider(), false)
		m.logger.InfoCtx(ctx, "telemetry disabled")
		return nil
	}

	res, err := m.createResource(ctx)
	if err != nil {
		return fmt.Errorf("create resource failed: %w", err)
	}

	exporter, err := m.createSpanExporter(ctx)
	if err != nil {
		return fmt.Errorf("create span exporter failed: %w", err)
	}
	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(m.createSampler()),
	}
	if b := m.config.Batch; b.Enabled {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exporter,
			sdktrace.WithMaxQueueSize(b.MaxQueueSize),
			sdktrace.WithMaxExportBatchSize(b.MaxExportBatchSize),
			sdktrace.WithBatchTimeout(b.ScheduleDelay),
			sdktrace.WithExportTimeout(b.ExportTimeout),
		))
	} else {
		tpOpts = append(tpOpts, sdktrace.WithSyncer(exporter))
	}
	m.tracerProvider = sdktrace.NewTracerProvider(tpOpts...)
	otel.SetTracerProvider(m.tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	var mp metric.MeterProvider = metricnoop.NewMeterProvider()
	if m.config.Metrics.Enabled {
		mpOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}
		metricExporter, err := m.createMetricExporter(ctx)
		if err != nil {
			return fmt.Errorf("create metrics exporter failed: %w", err)
		}
		if metricExporter != nil {
			mpOpts = append(mpOpts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter,
				sdkmetric.WithInterval(m.config.Metrics.ExportInterval),
				sdkmetric.WithTimeout(m.config.Metrics.ExportTimeout),
			)))
		}
		m.meterProvider = sdkmetric.NewMeterProvider(mpOpts...)
		otel.SetMeterProvider(m.meterProvider)
		mp = m.meterProvider
	}
	m.registry = m.newRegistry(mp, m.config.Metrics.Enabled)

	m.logger.InfoCtx(ctx, "telemetry started",
		zap.String("service_name", m.config.ServiceName),
		zap.String("exporter", m.config.Exporter.Type),
		zap.String("sampler", m.config.Sampler.Type),
		zap.Bool("metrics", m.config.Metrics.Enabled))
	return nil
}

func (m *Manager) newRegistry(mp metric.MeterProvider, enabled bool) *MetricsRegistry {
	labels := []attribute.KeyValue{
		attribute.String("service.name", m.config.ServiceName),
		attribute.String("service.version", m.config.ServiceVersion),
	}
	for k, v := range m.config.Metrics.Labels {
		labels = append(labels, attribute.String(k, v))
	}
	r := NewMetricsRegistry(mp,
		WithNamespace(m.config.Metrics.Namespace),
		WithBaseLabels(labels),
		WithLogger(m.logger))
	r.SetEnabled(enabled)
	return r
}

// Shutdown flushes and stops both providers concurrently.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	tp, mp := m.tracerProvider, m.meterProvider
	m.tracerProvider, m.meterProvider = nil, nil
	m.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	if tp != nil {
		g.Go(func() error {
			if err := tp.Shutdown(gctx); err != nil {
				return fmt.Errorf("shutdown tracer provider failed: %w", err)
			}
			return nil
		})
	}
	if mp != nil {
		g.Go(func() error {
			if err := mp.Shutdown(gctx); err != nil {
				return fmt.Errorf("shutdown meter provider failed: %w", err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Tracer returns a tracer from the managed provider, or a noop tracer.
func (m *Manager) Tracer(name string) trace.Tracer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.tracerProvider == nil {
		return tracenoop.NewTracerProvider().Tracer(name)
	}
	return m.tracerProvider.Tracer(name)
}

// MeterProvider returns the managed meter provider, or a noop one.
func (m *Manager) MeterProvider() metric.MeterProvider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.meterProvider == nil {
		return metricnoop.NewMeterProvider()
	}
	return m.meterProvider
}

// MetricsRegistry is available after Start.
func (m *Manager) MetricsRegistry() *MetricsRegistry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.registry
}

func (m *Manager) IsEnabled() bool { return m.config.Enabled }

func (m *Manager) Config() Config { return m.config }
