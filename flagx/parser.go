// Package flagx binds tagged struct fields to pflag flag sets, the way gin
// binds request structs:
//
//	type Flags struct {
//	    Addr string `flag:"addr,a" usage:"listen address" default:":8080"`
//	}
//
// BindFlags registers the flags; ParseFlags copies parsed values back.
package flagx

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

var durationType = reflect.TypeOf(time.Duration(0))

type flagSpec struct {
	name, short, usage, def string
}

func specOf(f reflect.StructField) (flagSpec, bool) {
	tag := f.Tag.Get("flag")
	if tag == "" || tag == "-" {
		return flagSpec{}, false
	}
	name, short, _ := strings.Cut(tag, ",")
	return flagSpec{name: name, short: short, usage: f.Tag.Get("usage"), def: f.Tag.Get("default")}, true
}

func structOf(target interface{}) (reflect.Value, error) {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("target must be a pointer to struct, got %T", target)
	}
	return v.Elem(), nil
}

// BindFlags registers one flag per tagged field of target on fs.
func BindFlags(fs *pflag.FlagSet, target interface{}) error {
	v, err := structOf(target)
	if err != nil {
		return err
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		spec, ok := specOf(field)
		if !ok {
			continue
		}
		if err := register(fs, field.Type, spec); err != nil {
			return fmt.Errorf("flag %s: %w", spec.name, err)
		}
	}
	return nil
}

func register(fs *pflag.FlagSet, typ reflect.Type, s flagSpec) error {
	if typ == durationType {
		def := time.Duration(0)
		if s.def != "" {
			d, err := time.ParseDuration(s.def)
			if err != nil {
				return err
			}
			def = d
		}
		fs.DurationP(s.name, s.short, def, s.usage)
		return nil
	}
	switch typ.Kind() {
	case reflect.String:
		fs.StringP(s.name, s.short, s.def, s.usage)
	case reflect.Int:
		def := 0
		if s.def != "" {
			n, err := strconv.Atoi(s.def)
			if err != nil {
				return err
			}
			def = n
		}
		fs.IntP(s.name, s.short, def, s.usage)
	case reflect.Bool:
		def := false
		if s.def != "" {
			b, err := strconv.ParseBool(s.def)
			if err != nil {
				return err
			}
			def = b
		}
		fs.BoolP(s.name, s.short, def, s.usage)
	case reflect.Slice:
		if typ.Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice element type %s", typ.Elem().Kind())
		}
		fs.StringSliceP(s.name, s.short, nil, s.usage)
	default:
		return fmt.Errorf("unsupported field type %s", typ.Kind())
	}
	return nil
}

// ParseFlags copies the current values of fs into the tagged fields of
// target. Flags missing from fs are skipped.
func ParseFlags(fs *pflag.FlagSet, target interface{}) error {
	v, err := structOf(target)
	if err != nil {
		return err
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		spec, ok := specOf(t.Field(i))
		if !ok || fs.Lookup(spec.name) == nil {
			continue
		}
		if err := assign(fs, v.Field(i), spec.name); err != nil {
			return fmt.Errorf("field %s: %w", t.Field(i).Name, err)
		}
	}
	return nil
}

func assign(fs *pflag.FlagSet, field reflect.Value, name string) error {
	if field.Type() == durationType {
		d, err := fs.GetDuration(name)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
		return nil
	}
	switch field.Kind() {
	case reflect.String:
		s, err := fs.GetString(name)
		if err != nil {
			return err
		}
		field.SetString(s)
	case reflect.Int:
		n, err := fs.GetInt(name)
		if err != nil {
			return err
		}
		field.SetInt(int64(n))
	case reflect.Bool:
		b, err := fs.GetBool(name)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Slice:
		ss, err := fs.GetStringSlice(name)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(ss))
	default:
		return fmt.Errorf("unsupported field type %s", field.Kind())
	}
	return nil
}
