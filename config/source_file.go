package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// FileSource reads a YAML (or any viper-supported) file. A missing file
// yields an empty layer.
type FileSource struct {
	path     string
	priority int
}

// NewFileSource creates a file source
func NewFileSource(path string, priority int) *FileSource {
	return &FileSource{path: path, priority: priority}
}

func (s *FileSource) Name() string  { return "file:" + s.path }
func (s *FileSource) Priority() int { return s.priority }

// Path returns the file path
func (s *FileSource) Path() string { return s.path }

// Load reads the file and flattens it
func (s *FileSource) Load() (map[string]interface{}, error) {
	if _, err := os.Stat(s.path); err != nil {
		if os.IsNotExist(err) {
			return map[string]interface{}{}, nil
		}
		return nil, fmt.Errorf("stat config file %s failed: %w", s.path, err)
	}

	v := viper.New()
	v.SetConfigFile(s.path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file %s failed: %w", s.path, err)
	}
	return flattenMap("", v.AllSettings()), nil
}

// flattenMap turns {"event": {"metrics": {"enabled": true}}} into
// {"event.metrics.enabled": true}.
func flattenMap(prefix string, data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for key, value := range data {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if nested, ok := value.(map[string]interface{}); ok {
			for k, v := range flattenMap(full, nested) {
				out[k] = v
			}
			continue
		}
		out[full] = value
	}
	return out
}
