// Package component defines the lifecycle contracts shared by framework
// modules.
package component

import "context"

// Component is a unit with an explicit lifecycle: Init reads configuration,
// Start acquires runtime resources and Stop releases them.
type Component interface {
	Name() string

	// DependsOn lists component names that must be initialized first.
	DependsOn() []string

	Init(ctx context.Context, loader ConfigLoader) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// ConfigLoader is the read side of configuration a component may use
type ConfigLoader interface {
	Get(key string) interface{}
	UnmarshalKey(key string, v interface{}) error
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	IsSet(key string) bool
}
