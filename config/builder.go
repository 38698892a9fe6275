package config

import (
	"os"
	"path/filepath"
)

// LoaderBuilder assembles the standard source layers
type LoaderBuilder struct {
	configPath string
	configFile string
	envPrefix  string
	flags      interface{}
}

// NewLoaderBuilder creates a builder
func NewLoaderBuilder() *LoaderBuilder {
	return &LoaderBuilder{}
}

// WithConfigPath sets the directory holding config.yaml and <env>.yaml
func (b *LoaderBuilder) WithConfigPath(path string) *LoaderBuilder {
	b.configPath = path
	return b
}

// WithConfigFile adds one explicit file on top of the directory layers
func (b *LoaderBuilder) WithConfigFile(file string) *LoaderBuilder {
	b.configFile = file
	return b
}

// WithEnvPrefix enables the environment variable layer
func (b *LoaderBuilder) WithEnvPrefix(prefix string) *LoaderBuilder {
	b.envPrefix = prefix
	return b
}

// WithFlags enables the flag layer
func (b *LoaderBuilder) WithFlags(flags interface{}) *LoaderBuilder {
	b.flags = flags
	return b
}

// Build creates and loads the loader
func (b *LoaderBuilder) Build() (*Loader, error) {
	loader := NewLoader()

	if b.configPath != "" {
		loader.AddSource(NewFileSource(filepath.Join(b.configPath, "config.yaml"), 10))
		if env := GetEnv(); env != "" {
			loader.AddSource(NewFileSource(filepath.Join(b.configPath, env+".yaml"), 20))
		}
	}
	if b.configFile != "" {
		loader.AddSource(NewFileSource(b.configFile, 30))
	}
	if b.envPrefix != "" {
		loader.AddSource(NewEnvSource(b.envPrefix, 50))
	}
	if b.flags != nil {
		loader.AddSource(NewFlagSource(b.flags, 100))
	}

	if err := loader.Load(); err != nil {
		return nil, err
	}
	return loader, nil
}

// GetEnv returns the deployment environment: APP_ENV, then ENV, then "dev".
func GetEnv() string {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env
	}
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "dev"
}
