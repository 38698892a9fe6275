package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/KOMKZ/go-yogan-propagation/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logger.CtxZapLogger {
	return logger.NewManager(logger.ManagerConfig{DisableFile: true}).GetLogger("telemetry")
}

func stdoutConfig() Config {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.Exporter.Type = "stdout"
	cfg.Batch.Enabled = false
	cfg.Sampler.Type = "always_on"
	cfg.Metrics.Enabled = true
	cfg.ResourceAttrs = map[string]interface{}{
		"deployment": map[string]interface{}{"environment": "test"},
	}
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate(), "disabled config is always valid")

	cfg := stdoutConfig()
	require.NoError(t, cfg.Validate())

	cfg.Exporter.Type = "jaeger"
	assert.Error(t, cfg.Validate())

	cfg = stdoutConfig()
	cfg.Exporter = ExporterConfig{Type: "otlp"}
	assert.Error(t, cfg.Validate(), "otlp needs an endpoint")

	cfg = stdoutConfig()
	cfg.Sampler = SamplerConfig{Type: "trace_id_ratio", Ratio: 1.5}
	assert.Error(t, cfg.Validate())

	cfg = stdoutConfig()
	cfg.Batch = BatchConfig{Enabled: true}
	assert.Error(t, cfg.Validate())
}

func TestManager_Disabled(t *testing.T) {
	m := NewManager(DefaultConfig(), testLogger())
	require.NoError(t, m.Start(context.Background()))

	assert.False(t, m.IsEnabled())
	_, span := m.Tracer("test").Start(context.Background(), "op")
	assert.False(t, span.SpanContext().IsValid(), "noop tracer")
	span.End()

	require.NotNil(t, m.MetricsRegistry())
	assert.False(t, m.MetricsRegistry().IsEnabled())
	assert.NoError(t, m.Shutdown(context.Background()))
}

func TestManager_StdoutExport(t *testing.T) {
	var buf bytes.Buffer
	m := NewManager(stdoutConfig(), testLogger(), WithWriter(&buf))
	require.NoError(t, m.Start(context.Background()))

	_, span := m.Tracer("test").Start(context.Background(), "event.dispatch")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	counter, err := NewMetricsBuilder(m.MeterProvider().Meter("test"), "event").Counter("probe_total", "probe")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	require.True(t, m.MetricsRegistry().IsEnabled())
	require.NoError(t, m.Shutdown(context.Background()))

	out := buf.String()
	assert.Contains(t, out, "event.dispatch")
	assert.Contains(t, out, "deployment.environment")
	assert.Contains(t, out, "event_probe_total")

	assert.NoError(t, m.Shutdown(context.Background()), "second shutdown is a no-op")
}

func TestManager_UnsupportedExporter(t *testing.T) {
	cfg := stdoutConfig()
	cfg.Exporter.Type = "zipkin"
	m := NewManager(cfg, testLogger())
	assert.Error(t, m.Start(context.Background()))
}

func TestFlattenMap(t *testing.T) {
	out := flattenMap(map[string]interface{}{
		"a": "x",
		"b": map[string]interface{}{"c": 1, "d": map[string]interface{}{"e": true}},
	}, "")
	assert.Equal(t, map[string]string{"a": "x", "b.c": "1", "b.d.e": "true"}, out)
}
