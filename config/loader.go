package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// Loader merges configuration sources by priority and exposes the result
// through viper.
type Loader struct {
	sources     []ConfigSource
	merged      map[string]interface{}
	v           *viper.Viper
	loadedFiles []string
}

// NewLoader creates an empty loader
func NewLoader() *Loader {
	return &Loader{
		merged: make(map[string]interface{}),
		v:      viper.New(),
	}
}

// AddSource adds a source; call Load afterwards
func (l *Loader) AddSource(source ConfigSource) {
	l.sources = append(l.sources, source)
}

// Load reads every source, lowest priority first, and merges them
func (l *Loader) Load() error {
	sort.SliceStable(l.sources, func(i, j int) bool {
		return l.sources[i].Priority() < l.sources[j].Priority()
	})

	l.merged = make(map[string]interface{})
	l.loadedFiles = l.loadedFiles[:0]
	for _, source := range l.sources {
		data, err := source.Load()
		if err != nil {
			return fmt.Errorf("load config source %s failed: %w", source.Name(), err)
		}
		if fs, ok := source.(*FileSource); ok && len(data) > 0 {
			l.loadedFiles = append(l.loadedFiles, fs.Path())
		}
		for key, value := range data {
			l.merged[key] = value
		}
	}

	l.v = viper.New()
	for key, value := range unflatten(l.merged) {
		l.v.Set(key, value)
	}
	return nil
}

func unflatten(flat map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	// Shorter keys first, so a deeper key replaces a scalar at its parent.
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) < len(keys[j]) })

	for _, key := range keys {
		parts := strings.Split(key, ".")
		current := out
		for _, p := range parts[:len(parts)-1] {
			next, ok := current[p].(map[string]interface{})
			if !ok {
				next = make(map[string]interface{})
				current[p] = next
			}
			current = next
		}
		current[parts[len(parts)-1]] = flat[key]
	}
	return out
}

// Unmarshal decodes the whole configuration into v
func (l *Loader) Unmarshal(v interface{}) error {
	return l.v.Unmarshal(v)
}

// UnmarshalKey decodes one section into v
func (l *Loader) UnmarshalKey(key string, v interface{}) error {
	return l.v.UnmarshalKey(key, v)
}

func (l *Loader) Get(key string) interface{} { return l.v.Get(key) }
func (l *Loader) GetString(key string) string { return l.v.GetString(key) }
func (l *Loader) GetInt(key string) int       { return l.v.GetInt(key) }
func (l *Loader) GetBool(key string) bool     { return l.v.GetBool(key) }
func (l *Loader) IsSet(key string) bool       { return l.v.IsSet(key) }

// AllSettings returns the merged configuration as nested maps
func (l *Loader) AllSettings() map[string]interface{} {
	return l.v.AllSettings()
}

// LoadedFiles lists the files that contributed values
func (l *Loader) LoadedFiles() []string {
	return l.loadedFiles
}

// GetViper returns the underlying viper instance
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

// Reload re-reads every source
func (l *Loader) Reload() error {
	return l.Load()
}
