package playground

import (
	"time"

	"github.com/KOMKZ/go-yogan-propagation/httpx"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gin-gonic/gin"
)

// Config is the "playground" configuration section.
type Config struct {
	Addr            string                   `mapstructure:"addr"`
	Mode            string                   `mapstructure:"mode"` // gin mode: debug, release or test
	MaxDepth        int                      `mapstructure:"max_depth"`
	MaxDispatches   int                      `mapstructure:"max_dispatches"`
	Metrics         bool                     `mapstructure:"metrics"`
	ReadTimeout     time.Duration            `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration            `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration            `mapstructure:"shutdown_timeout"`
	ErrorLogging    httpx.ErrorLoggingConfig `mapstructure:"error_logging"`
}

func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		Mode:            gin.ReleaseMode,
		MaxDepth:        defaultMaxDepth,
		MaxDispatches:   defaultMaxDispatches,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		ErrorLogging:    httpx.DefaultErrorLoggingConfig(),
	}
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Addr, validation.Required),
		validation.Field(&c.Mode, validation.In(gin.DebugMode, gin.ReleaseMode, gin.TestMode)),
		validation.Field(&c.MaxDepth, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxDispatches, validation.Required, validation.Min(1)),
		validation.Field(&c.ReadTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.WriteTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.ErrorLogging, validation.By(checkErrorLogging)),
	)
}

func checkErrorLogging(value interface{}) error {
	cfg, _ := value.(httpx.ErrorLoggingConfig)
	return validation.Validate(cfg.LogLevel, validation.In("debug", "info", "warn", "error"))
}
