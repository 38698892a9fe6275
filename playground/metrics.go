package playground

import (
	"context"
	"sync"
	"time"

	"github.com/KOMKZ/go-yogan-propagation/telemetry"
	"go.opentelemetry.io/otel/metric"
)

// RunnerMetrics implements component.MetricsProvider for scenario runs.
type RunnerMetrics struct {
	enabled bool

	mu         sync.RWMutex
	runs       *telemetry.RequestMetrics
	dispatches metric.Int64Counter
}

func NewRunnerMetrics(enabled bool) *RunnerMetrics {
	return &RunnerMetrics{enabled: enabled}
}

func (m *RunnerMetrics) MetricsName() string { return "playground" }

func (m *RunnerMetrics) IsMetricsEnabled() bool { return m.enabled }

// RegisterMetrics creates playground_scenario_requests_total, its duration
// and error instruments, and playground_dispatches_total.
func (m *RunnerMetrics) RegisterMetrics(meter metric.Meter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.runs != nil {
		return nil
	}
	b := telemetry.NewMetricsBuilder(meter, "playground")
	runs, err := b.NewRequestMetrics("scenario")
	if err != nil {
		return err
	}
	dispatches, err := b.Counter("dispatches_total", "Dispatches performed by scenario runs")
	if err != nil {
		return err
	}
	m.runs, m.dispatches = runs, dispatches
	return nil
}

func (m *RunnerMetrics) record(ctx context.Context, d time.Duration, res *Result, err error) {
	if m == nil {
		return
	}
	m.mu.RLock()
	runs, dispatches := m.runs, m.dispatches
	m.mu.RUnlock()
	if runs == nil {
		return
	}
	runs.Record(ctx, d.Seconds(), err)
	if res != nil {
		dispatches.Add(ctx, int64(countDispatches(res.Dispatches)))
	}
}

func countDispatches(results []DispatchResult) int {
	n := len(results)
	for _, r := range results {
		n += countDispatches(r.Nested)
	}
	return n
}

