package kafka

import (
	"context"
	"sync"
	"time"

	"github.com/KOMKZ/go-yogan-propagation/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ProducerMetrics implements component.MetricsProvider for the producer.
type ProducerMetrics struct {
	enabled bool
	mu      sync.RWMutex
	produce *telemetry.RequestMetrics
}

func NewProducerMetrics(enabled bool) *ProducerMetrics {
	return &ProducerMetrics{enabled: enabled}
}

func (m *ProducerMetrics) MetricsName() string { return "kafka" }

func (m *ProducerMetrics) IsMetricsEnabled() bool { return m.enabled }

// RegisterMetrics creates kafka_produce_requests_total and friends.
func (m *ProducerMetrics) RegisterMetrics(meter metric.Meter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.produce != nil {
		return nil
	}
	rm, err := telemetry.NewMetricsBuilder(meter, "kafka").NewRequestMetrics("produce")
	if err != nil {
		return err
	}
	m.produce = rm
	return nil
}

func (m *ProducerMetrics) record(ctx context.Context, d time.Duration, err error, attrs ...attribute.KeyValue) {
	if m == nil {
		return
	}
	m.mu.RLock()
	rm := m.produce
	m.mu.RUnlock()
	if rm != nil {
		rm.Record(ctx, d.Seconds(), err, attrs...)
	}
}
