package config

import (
	"fmt"
	"reflect"
	"strings"
)

// FlagSource exposes a flags struct as a configuration layer. Fields map to
// keys through the `config` tag, e.g. `config:"playground.addr"`; one field
// may feed several comma-separated keys. Zero values are skipped so that
// unset flags never override lower layers.
type FlagSource struct {
	flags    interface{}
	priority int
}

// NewFlagSource creates a flag source
func NewFlagSource(flags interface{}, priority int) *FlagSource {
	return &FlagSource{flags: flags, priority: priority}
}

func (s *FlagSource) Name() string  { return "flags" }
func (s *FlagSource) Priority() int { return s.priority }

// Load walks the tagged fields
func (s *FlagSource) Load() (map[string]interface{}, error) {
	result := make(map[string]interface{})
	if s.flags == nil {
		return result, nil
	}

	v := reflect.ValueOf(s.flags)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return result, nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("flags must be a struct or pointer to struct, got %s", v.Kind())
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if !field.CanInterface() || field.IsZero() {
			continue
		}
		tag := t.Field(i).Tag.Get("config")
		for _, key := range strings.Split(tag, ",") {
			key = strings.TrimSpace(key)
			if key == "" || key == "-" {
				continue
			}
			result[key] = field.Interface()
		}
	}
	return result, nil
}
