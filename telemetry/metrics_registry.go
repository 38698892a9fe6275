package telemetry

import (
	"fmt"
	"sync"

	"github.com/KOMKZ/go-yogan-propagation/component"
	"github.com/KOMKZ/go-yogan-propagation/logger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// MetricsRegistry hands each MetricsProvider its own Meter and keeps track
// of what was registered.
type MetricsRegistry struct {
	meterProvider metric.MeterProvider
	meters        map[string]metric.Meter
	providers     []component.MetricsProvider
	baseLabels    []attribute.KeyValue
	namespace     string
	enabled       bool
	logger        *logger.CtxZapLogger
	mu            sync.RWMutex
}

// MetricsRegistryOption configures a MetricsRegistry.
type MetricsRegistryOption func(*MetricsRegistry)

// WithNamespace prefixes meter names.
func WithNamespace(namespace string) MetricsRegistryOption {
	return func(r *MetricsRegistry) { r.namespace = namespace }
}

// WithBaseLabels sets labels every provider may attach.
func WithBaseLabels(labels []attribute.KeyValue) MetricsRegistryOption {
	return func(r *MetricsRegistry) { r.baseLabels = labels }
}

func WithLogger(l *logger.CtxZapLogger) MetricsRegistryOption {
	return func(r *MetricsRegistry) { r.logger = l }
}

// NewMetricsRegistry creates an enabled registry over mp.
func NewMetricsRegistry(mp metric.MeterProvider, opts ...MetricsRegistryOption) *MetricsRegistry {
	r := &MetricsRegistry{
		meterProvider: mp,
		meters:        make(map[string]metric.Meter),
		namespace:     "propagate",
		enabled:       true,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.GetLogger("telemetry")
	}
	return r
}

// Register creates a meter for provider and lets it register instruments.
// Disabled registries and disabled providers are skipped without error.
func (r *MetricsRegistry) Register(provider component.MetricsProvider) error {
	if provider == nil {
		return fmt.Errorf("metrics provider is nil")
	}
	if !r.IsEnabled() {
		return nil
	}
	name := provider.MetricsName()
	if !provider.IsMetricsEnabled() {
		r.logger.Debug("metrics disabled for provider", zap.String("provider", name))
		return nil
	}
	if name == "" {
		return fmt.Errorf("metrics provider name is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.providers {
		if p.MetricsName() == name {
			return fmt.Errorf("metrics provider %q already registered", name)
		}
	}
	if err := provider.RegisterMetrics(r.getMeterLocked(name)); err != nil {
		return fmt.Errorf("register metrics for %q failed: %w", name, err)
	}
	r.providers = append(r.providers, provider)
	r.logger.Info("metrics provider registered", zap.String("provider", name))
	return nil
}

// GetMeter returns the meter named {namespace}_{name}.
func (r *MetricsRegistry) GetMeter(name string) metric.Meter {
	r.mu.RLock()
	if meter, ok := r.meters[name]; ok {
		r.mu.RUnlock()
		return meter
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getMeterLocked(name)
}

func (r *MetricsRegistry) getMeterLocked(name string) metric.Meter {
	if meter, ok := r.meters[name]; ok {
		return meter
	}
	meterName := name
	if r.namespace != "" {
		meterName = r.namespace + "_" + name
	}
	meter := r.meterProvider.Meter(meterName)
	r.meters[name] = meter
	return meter
}

func (r *MetricsRegistry) GetBaseLabels() []attribute.KeyValue {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]attribute.KeyValue{}, r.baseLabels...)
}

func (r *MetricsRegistry) IsEnabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled
}

func (r *MetricsRegistry) SetEnabled(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = enabled
}

func (r *MetricsRegistry) GetProviderCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}

var _ component.MetricsCollector = (*MetricsRegistry)(nil)
