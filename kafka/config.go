package kafka

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config is the "kafka" configuration section. Only producing is supported.
type Config struct {
	Brokers  []string       `mapstructure:"brokers"`
	Version  string         `mapstructure:"version"` // e.g. "3.8.0"
	ClientID string         `mapstructure:"client_id"`
	Producer ProducerConfig `mapstructure:"producer"`
	SASL     *SASLConfig    `mapstructure:"sasl"`
	TLS      *TLSConfig     `mapstructure:"tls"`
}

// ProducerConfig tunes the synchronous producer.
type ProducerConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	RequiredAcks    int           `mapstructure:"required_acks"` // 0, 1 or -1 (all)
	Timeout         time.Duration `mapstructure:"timeout"`
	RetryMax        int           `mapstructure:"retry_max"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"`
	MaxMessageBytes int           `mapstructure:"max_message_bytes"`
	Compression     string        `mapstructure:"compression"` // none, gzip, snappy, lz4, zstd
	Idempotent      bool          `mapstructure:"idempotent"`
	Metrics         bool          `mapstructure:"metrics"`
}

// SASLConfig enables PLAIN or SCRAM authentication.
type SASLConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Mechanism string `mapstructure:"mechanism"` // PLAIN, SCRAM-SHA-256, SCRAM-SHA-512
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
}

// TLSConfig enables TLS on broker connections.
type TLSConfig struct {
	Enabled            bool `mapstructure:"enabled"`
	InsecureSkipVerify bool `mapstructure:"insecure_skip_verify"`
}

// ApplyDefaults fills zero-valued fields in place.
func (c *Config) ApplyDefaults() {
	if c.Version == "" {
		c.Version = "3.8.0"
	}
	if c.ClientID == "" {
		c.ClientID = "propagate"
	}
	p := &c.Producer
	if p.RequiredAcks == 0 && !p.Idempotent {
		p.RequiredAcks = 1
	}
	if p.Timeout == 0 {
		p.Timeout = 10 * time.Second
	}
	if p.RetryMax == 0 {
		p.RetryMax = 3
	}
	if p.RetryBackoff == 0 {
		p.RetryBackoff = 100 * time.Millisecond
	}
	if p.MaxMessageBytes == 0 {
		p.MaxMessageBytes = 1 << 20
	}
	if p.Compression == "" {
		p.Compression = "none"
	}
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Brokers, validation.Required, validation.Each(validation.Required)),
		validation.Field(&c.Producer),
		validation.Field(&c.SASL),
	)
}

func (c ProducerConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.RequiredAcks, validation.In(-1, 0, 1)),
		validation.Field(&c.MaxMessageBytes, validation.Min(0)),
		validation.Field(&c.Compression, validation.In("none", "gzip", "snappy", "lz4", "zstd")),
	)
}

func (c SASLConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	return validation.ValidateStruct(&c,
		validation.Field(&c.Mechanism, validation.Required, validation.In("PLAIN", "SCRAM-SHA-256", "SCRAM-SHA-512")),
		validation.Field(&c.Username, validation.Required),
		validation.Field(&c.Password, validation.Required),
	)
}
