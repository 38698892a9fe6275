package config

import (
	"fmt"

	"github.com/samber/do/v2"
)

// ProvideLoaderOptions are the inputs of ProvideLoader
type ProvideLoaderOptions struct {
	ConfigPath   string
	ConfigFile   string
	ConfigPrefix string
	Flags        interface{}
}

// ProvideLoader returns a samber/do provider for *Loader.
//
//	do.Provide(injector, config.ProvideLoader(config.ProvideLoaderOptions{
//	    ConfigPath:   "./configs",
//	    ConfigPrefix: "PROPAGATE",
//	}))
func ProvideLoader(opts ProvideLoaderOptions) func(do.Injector) (*Loader, error) {
	return func(do.Injector) (*Loader, error) {
		loader, err := NewLoaderBuilder().
			WithConfigPath(opts.ConfigPath).
			WithConfigFile(opts.ConfigFile).
			WithEnvPrefix(opts.ConfigPrefix).
			WithFlags(opts.Flags).
			Build()
		if err != nil {
			return nil, fmt.Errorf("config loader build failed: %w", err)
		}
		return loader, nil
	}
}

// ProvideLoaderValue registers an already built loader
func ProvideLoaderValue(loader *Loader) func(do.Injector) (*Loader, error) {
	return func(do.Injector) (*Loader, error) {
		return loader, nil
	}
}
