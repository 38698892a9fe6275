package config

import (
	"os"
	"strings"
)

// EnvSource reads prefixed environment variables. A double underscore
// separates nesting levels and a single underscore is kept, so
// PROPAGATE_EVENT__LOAD_EVENT_TYPE maps to "event.load_event_type".
type EnvSource struct {
	prefix   string
	priority int
	bindings map[string]string
}

// NewEnvSource creates an environment variable source
func NewEnvSource(prefix string, priority int) *EnvSource {
	return &EnvSource{
		prefix:   prefix,
		priority: priority,
		bindings: make(map[string]string),
	}
}

// AddBinding maps a config key to an explicit variable name. Once a binding
// exists, only bound variables are read.
func (s *EnvSource) AddBinding(key, envKey string) {
	s.bindings[key] = envKey
}

func (s *EnvSource) Name() string  { return "env:" + s.prefix }
func (s *EnvSource) Priority() int { return s.priority }

// Load collects the matching variables
func (s *EnvSource) Load() (map[string]interface{}, error) {
	result := make(map[string]interface{})

	if len(s.bindings) > 0 {
		for key, envKey := range s.bindings {
			full := envKey
			if s.prefix != "" && !strings.HasPrefix(envKey, s.prefix+"_") {
				full = s.prefix + "_" + envKey
			}
			if value, ok := os.LookupEnv(full); ok && value != "" {
				result[key] = value
			}
		}
		return result, nil
	}

	if s.prefix == "" {
		return result, nil
	}

	prefix := s.prefix + "_"
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, prefix) {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(name, prefix))
		key = strings.ReplaceAll(key, "__", ".")
		if key != "" {
			result[key] = value
		}
	}
	return result, nil
}
