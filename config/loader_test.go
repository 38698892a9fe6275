package config

import (
	"testing"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_SingleFile(t *testing.T) {
	loader := NewLoader()
	loader.AddSource(NewFileSource("testdata/config.yaml", 10))
	require.NoError(t, loader.Load())

	assert.Equal(t, "propagate", loader.GetString("app.name"))
	assert.Equal(t, "load", loader.GetString("event.load_event_type"))
	assert.False(t, loader.GetBool("event.metrics.enabled"))
	assert.Equal(t, []string{"testdata/config.yaml"}, loader.LoadedFiles())
}

func TestLoader_PriorityOrder(t *testing.T) {
	loader := NewLoader()
	// Added out of order on purpose.
	loader.AddSource(NewFileSource("testdata/dev.yaml", 20))
	loader.AddSource(NewFileSource("testdata/config.yaml", 10))
	require.NoError(t, loader.Load())

	assert.True(t, loader.GetBool("event.metrics.enabled"))
	assert.Equal(t, ":9090", loader.GetString("playground.addr"))
	assert.Equal(t, "error", loader.GetString("event.error_event_type"))
}

func TestLoader_MissingFileIsEmpty(t *testing.T) {
	loader := NewLoader()
	loader.AddSource(NewFileSource("testdata/nope.yaml", 10))
	require.NoError(t, loader.Load())

	assert.False(t, loader.IsSet("event"))
	assert.Empty(t, loader.LoadedFiles())
}

func TestLoader_EnvOverridesFiles(t *testing.T) {
	t.Setenv("PROPTEST_PLAYGROUND__ADDR", ":7070")
	t.Setenv("PROPTEST_EVENT__POINTER_OVER_EVENT_TYPE", "pointerover")

	loader := NewLoader()
	loader.AddSource(NewFileSource("testdata/config.yaml", 10))
	loader.AddSource(NewEnvSource("PROPTEST", 50))
	require.NoError(t, loader.Load())

	assert.Equal(t, ":7070", loader.GetString("playground.addr"))
	assert.Equal(t, "pointerover", loader.GetString("event.pointer_over_event_type"))
}

func TestLoader_UnmarshalKey(t *testing.T) {
	loader := NewLoader()
	loader.AddSource(NewFileSource("testdata/config.yaml", 10))
	loader.AddSource(NewFlagSource(&struct {
		Addr string `config:"playground.addr"`
	}{Addr: ":1234"}, 100))
	require.NoError(t, loader.Load())

	var section struct {
		Addr string `mapstructure:"addr"`
	}
	require.NoError(t, loader.UnmarshalKey("playground", &section))
	assert.Equal(t, ":1234", section.Addr)
}

func TestBuilder_Layers(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("PROPBUILD_APP__NAME", "from-env")

	loader, err := NewLoaderBuilder().
		WithConfigPath("testdata").
		WithEnvPrefix("PROPBUILD").
		Build()
	require.NoError(t, err)

	assert.Equal(t, "from-env", loader.GetString("app.name"))
	assert.True(t, loader.GetBool("event.metrics.enabled"))
	assert.Len(t, loader.LoadedFiles(), 2)
}

func TestProvideLoader(t *testing.T) {
	injector := do.New()
	do.Provide(injector, ProvideLoader(ProvideLoaderOptions{ConfigFile: "testdata/config.yaml"}))

	loader, err := do.Invoke[*Loader](injector)
	require.NoError(t, err)
	assert.Equal(t, "propagate", loader.GetString("app.name"))
}

type failingSection struct{ err error }

func (f failingSection) Validate() error { return f.err }

func TestValidateAll(t *testing.T) {
	assert.NoError(t, ValidateAll(failingSection{}, failingSection{}))
	assert.ErrorIs(t, ValidateAll(failingSection{}, failingSection{err: assert.AnError}), assert.AnError)
}
