package config

// ConfigSource is one layer of configuration. Sources are merged in
// ascending Priority order, so higher priorities win.
//
// Conventional priorities:
//   - config.yaml: 10
//   - <env>.yaml: 20
//   - environment variables: 50
//   - command line flags: 100
type ConfigSource interface {
	Name() string
	Priority() int

	// Load returns flat, dot-separated keys such as "event.load_event_type".
	Load() (map[string]interface{}, error)
}
