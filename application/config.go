package application

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// AppConfig is the "app" configuration section.
type AppConfig struct {
	Name            string        `mapstructure:"name"`
	Version         string        `mapstructure:"version"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DefaultAppConfig returns the values used for unset keys
func DefaultAppConfig() AppConfig {
	return AppConfig{Name: "propagate", ShutdownTimeout: 10 * time.Second}
}

func (c AppConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.ShutdownTimeout, validation.Required),
	)
}
