package event

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config is the "event" configuration section.
type Config struct {
	LoadEventType        string              `mapstructure:"load_event_type"`
	ErrorEventType       string              `mapstructure:"error_event_type"`
	PointerOverEventType string              `mapstructure:"pointer_over_event_type"`
	Metrics              EngineMetricsConfig `mapstructure:"metrics"`
	AsyncSink            AsyncSinkConfig     `mapstructure:"async_sink"`
	KafkaSink            KafkaSinkConfig     `mapstructure:"kafka_sink"`
}

// AsyncSinkConfig controls reporting through a goroutine pool.
type AsyncSinkConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	PoolSize int  `mapstructure:"pool_size"`
}

// KafkaSinkConfig controls publishing failure reports to Kafka. Connection
// settings live in the "kafka" section.
type KafkaSinkConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Topic   string `mapstructure:"topic"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		LoadEventType:        "load",
		ErrorEventType:       "error",
		PointerOverEventType: "mouseover",
		AsyncSink: AsyncSinkConfig{
			PoolSize: 16,
		},
		KafkaSink: KafkaSinkConfig{
			Topic: "event.listener-failures",
		},
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.LoadEventType, validation.Required),
		validation.Field(&c.ErrorEventType, validation.Required),
		validation.Field(&c.PointerOverEventType, validation.Required),
		validation.Field(&c.AsyncSink),
		validation.Field(&c.KafkaSink),
	)
}

// Validate checks the async sink settings
func (c AsyncSinkConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.PoolSize, validation.When(c.Enabled, validation.Required, validation.Min(1))),
	)
}

// Validate checks the kafka sink settings
func (c KafkaSinkConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Topic, validation.When(c.Enabled, validation.Required)),
	)
}
