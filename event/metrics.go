package event

import (
	"context"
	"sync"
	"time"

	"github.com/KOMKZ/go-yogan-propagation/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// EngineMetricsConfig holds configuration for engine metrics
type EngineMetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// EngineMetrics implements component.MetricsProvider for the dispatch engine.
type EngineMetrics struct {
	config     EngineMetricsConfig
	registered bool
	mu         sync.RWMutex

	dispatches       metric.Int64Counter
	invocations      metric.Int64Counter
	failures         metric.Int64Counter
	dispatchDuration metric.Float64Histogram
}

// NewEngineMetrics creates a new engine metrics provider
func NewEngineMetrics(cfg EngineMetricsConfig) *EngineMetrics {
	return &EngineMetrics{config: cfg}
}

// MetricsName returns the metrics group name
func (m *EngineMetrics) MetricsName() string {
	return "event"
}

// IsMetricsEnabled returns whether metrics collection is enabled
func (m *EngineMetrics) IsMetricsEnabled() bool {
	return m.config.Enabled
}

// RegisterMetrics registers all engine instruments with the provided Meter
func (m *EngineMetrics) RegisterMetrics(meter metric.Meter) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registered {
		return nil
	}

	b := telemetry.NewMetricsBuilder(meter, "event")
	var err error
	if m.dispatches, err = b.CounterWithUnit("dispatch_total", "Total number of dispatches", "{dispatch}"); err != nil {
		return err
	}
	if m.invocations, err = b.CounterWithUnit("listener_invocations_total", "Total number of listener invocations", "{call}"); err != nil {
		return err
	}
	if m.failures, err = b.CounterWithUnit("listener_failures_total", "Total number of isolated listener failures", "{failure}"); err != nil {
		return err
	}
	if m.dispatchDuration, err = b.DurationHistogram("dispatch_duration_seconds", "Dispatch duration distribution"); err != nil {
		return err
	}

	m.registered = true
	return nil
}

// IsRegistered returns whether metrics have been registered
func (m *EngineMetrics) IsRegistered() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.registered
}

// RecordDispatch records one finished dispatch
func (m *EngineMetrics) RecordDispatch(ctx context.Context, eventType string, notCanceled bool, duration time.Duration) {
	if m == nil || !m.IsRegistered() {
		return
	}
	result := "ok"
	if !notCanceled {
		result = "canceled"
	}
	attrs := metric.WithAttributes(
		attribute.String("type", eventType),
		attribute.String("result", result),
	)
	m.dispatches.Add(ctx, 1, attrs)
	m.dispatchDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordInvocation records one listener call
func (m *EngineMetrics) RecordInvocation(ctx context.Context, eventType string, phase Phase, failed bool) {
	if m == nil || !m.IsRegistered() {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("type", eventType),
		attribute.String("phase", phase.String()),
	)
	m.invocations.Add(ctx, 1, attrs)
	if failed {
		m.failures.Add(ctx, 1, attrs)
	}
}
