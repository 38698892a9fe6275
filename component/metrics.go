package component

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsProvider is implemented by components that publish instruments
type MetricsProvider interface {
	// MetricsName is the group name, also used as the meter name
	MetricsName() string

	RegisterMetrics(meter metric.Meter) error
	IsMetricsEnabled() bool
}

// MetricsCollector registers providers against a meter provider
type MetricsCollector interface {
	Register(provider MetricsProvider) error
	GetMeter(name string) metric.Meter
	GetBaseLabels() []attribute.KeyValue
	IsEnabled() bool
}
