package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsBuilder creates instruments named {namespace}_{name}.
type MetricsBuilder struct {
	meter     metric.Meter
	namespace string
}

func NewMetricsBuilder(meter metric.Meter, namespace string) *MetricsBuilder {
	return &MetricsBuilder{meter: meter, namespace: namespace}
}

func (b *MetricsBuilder) fullName(name string) string {
	if b.namespace == "" {
		return name
	}
	return b.namespace + "_" + name
}

// Counter creates an Int64Counter counted in {count}.
func (b *MetricsBuilder) Counter(name, desc string) (metric.Int64Counter, error) {
	return b.CounterWithUnit(name, desc, "{count}")
}

func (b *MetricsBuilder) CounterWithUnit(name, desc, unit string) (metric.Int64Counter, error) {
	return b.meter.Int64Counter(b.fullName(name), metric.WithDescription(desc), metric.WithUnit(unit))
}

func (b *MetricsBuilder) Histogram(name, desc, unit string) (metric.Float64Histogram, error) {
	return b.meter.Float64Histogram(b.fullName(name), metric.WithDescription(desc), metric.WithUnit(unit))
}

// DurationHistogram creates a histogram in seconds.
func (b *MetricsBuilder) DurationHistogram(name, desc string) (metric.Float64Histogram, error) {
	return b.Histogram(name, desc, "s")
}

func (b *MetricsBuilder) UpDownCounter(name, desc string) (metric.Int64UpDownCounter, error) {
	return b.meter.Int64UpDownCounter(b.fullName(name), metric.WithDescription(desc), metric.WithUnit("{count}"))
}

// RequestMetrics is the total/duration/errors triple most operations need.
type RequestMetrics struct {
	Total    metric.Int64Counter
	Duration metric.Float64Histogram
	Errors   metric.Int64Counter
}

// NewRequestMetrics creates {prefix}_requests_total, {prefix}_duration_seconds
// and {prefix}_errors_total.
func (b *MetricsBuilder) NewRequestMetrics(prefix string) (*RequestMetrics, error) {
	total, err := b.Counter(prefix+"_requests_total", "Total number of "+prefix+" requests")
	if err != nil {
		return nil, err
	}
	duration, err := b.DurationHistogram(prefix+"_duration_seconds", prefix+" request duration distribution")
	if err != nil {
		return nil, err
	}
	errs, err := b.Counter(prefix+"_errors_total", "Total number of "+prefix+" errors")
	if err != nil {
		return nil, err
	}
	return &RequestMetrics{Total: total, Duration: duration, Errors: errs}, nil
}

func (m *RequestMetrics) Record(ctx context.Context, durationSec float64, err error, attrs ...attribute.KeyValue) {
	opt := metric.WithAttributes(attrs...)
	m.Total.Add(ctx, 1, opt)
	m.Duration.Record(ctx, durationSec, opt)
	if err != nil {
		m.Errors.Add(ctx, 1, opt)
	}
}
