package telemetry

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config configures tracing and metrics export.
type Config struct {
	Enabled        bool                   `mapstructure:"enabled"`
	ServiceName    string                 `mapstructure:"service_name"`
	ServiceVersion string                 `mapstructure:"service_version"`
	Exporter       ExporterConfig         `mapstructure:"exporter"`
	Sampler        SamplerConfig          `mapstructure:"sampler"`
	ResourceAttrs  map[string]interface{} `mapstructure:"resource_attributes"` // nested maps flatten to dotted keys
	Batch          BatchConfig            `mapstructure:"batch"`
	Metrics        MetricsConfig          `mapstructure:"metrics"`
}

// ExporterConfig selects where spans and metrics go: otlp, stdout or noop.
type ExporterConfig struct {
	Type     string            `mapstructure:"type"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Timeout  time.Duration     `mapstructure:"timeout"`
	Headers  map[string]string `mapstructure:"headers"`
}

// SamplerConfig picks the sampler; Ratio only applies to trace_id_ratio.
type SamplerConfig struct {
	Type  string  `mapstructure:"type"`
	Ratio float64 `mapstructure:"ratio"`
}

// BatchConfig controls the batch span processor. Disabled means synchronous export.
type BatchConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	MaxQueueSize       int           `mapstructure:"max_queue_size"`
	MaxExportBatchSize int           `mapstructure:"max_export_batch_size"`
	ScheduleDelay      time.Duration `mapstructure:"schedule_delay"`
	ExportTimeout      time.Duration `mapstructure:"export_timeout"`
}

// MetricsConfig controls the meter provider.
type MetricsConfig struct {
	Enabled        bool              `mapstructure:"enabled"`
	ExportInterval time.Duration     `mapstructure:"export_interval"`
	ExportTimeout  time.Duration     `mapstructure:"export_timeout"`
	Namespace      string            `mapstructure:"namespace"`
	Labels         map[string]string `mapstructure:"labels"`
}

// DefaultConfig returns a disabled configuration with usable values.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "propagate",
		ServiceVersion: "1.0.0",
		Exporter: ExporterConfig{
			Type:     "otlp",
			Endpoint: "localhost:4317",
			Insecure: true,
			Timeout:  10 * time.Second,
		},
		Sampler: SamplerConfig{
			Type:  "parent_based_always_on",
			Ratio: 1.0,
		},
		ResourceAttrs: make(map[string]interface{}),
		Batch: BatchConfig{
			Enabled:            true,
			MaxQueueSize:       2048,
			MaxExportBatchSize: 512,
			ScheduleDelay:      5 * time.Second,
			ExportTimeout:      30 * time.Second,
		},
		Metrics: MetricsConfig{
			ExportInterval: 10 * time.Second,
			ExportTimeout:  5 * time.Second,
			Namespace:      "propagate",
			Labels:         make(map[string]string),
		},
	}
}

// Validate checks the configuration; a disabled config is always valid.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	return validation.ValidateStruct(&c,
		validation.Field(&c.ServiceName, validation.Required),
		validation.Field(&c.Exporter),
		validation.Field(&c.Sampler),
		validation.Field(&c.Batch),
	)
}

func (c ExporterConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Type, validation.Required, validation.In("otlp", "stdout", "noop")),
		validation.Field(&c.Endpoint, validation.When(c.Type == "otlp", validation.Required)),
	)
}

func (c SamplerConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Type, validation.Required,
			validation.In("always_on", "always_off", "trace_id_ratio", "parent_based_always_on")),
		validation.Field(&c.Ratio, validation.When(c.Type == "trace_id_ratio", validation.Min(0.0), validation.Max(1.0))),
	)
}

func (c BatchConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	return validation.ValidateStruct(&c,
		validation.Field(&c.MaxQueueSize, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxExportBatchSize, validation.Required, validation.Min(1)),
	)
}
