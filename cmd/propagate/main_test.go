package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/KOMKZ/go-yogan-propagation/logger"
	"github.com/KOMKZ/go-yogan-propagation/playground"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("APP_ENV", "test")
	color.NoColor = true
	t.Cleanup(func() { _ = logger.ResetManager(logger.ManagerConfig{DisableFile: true}) })

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", "../../configs", "--env-prefix", "PROPTEST"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestRunCommand_Text(t *testing.T) {
	out, err := execute(t, "run", "../../playground/testdata/bubbling.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "scenario bubbling")
	assert.Contains(t, out, "window-capture")
	assert.Contains(t, out, "failure button-fail@window")
	assert.Contains(t, out, "=> canceled")
}

func TestRunCommand_JSON(t *testing.T) {
	out, err := execute(t, "run", "--json", "--max-depth", "2", "../../playground/testdata/bubbling.yaml")
	require.NoError(t, err)

	var res playground.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "bubbling", res.Scenario)
	require.Len(t, res.Dispatches, 2)
	assert.False(t, res.Dispatches[0].NotCanceled)
}

func TestRunCommand_MissingFile(t *testing.T) {
	_, err := execute(t, "run", "./nope.yaml")
	assert.Error(t, err)
}

func TestValidateCommand(t *testing.T) {
	out, err := execute(t, "validate", "../../playground/testdata/bubbling.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "ok bubbling: 3 nodes, 4 listeners, 2 dispatches")
}

func TestRenderDispatch_Rejected(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	renderResult(&buf, &playground.Result{Scenario: "s", Dispatches: []playground.DispatchResult{
		{Index: 0, Type: "click", Target: "a", Error: "already dispatching"},
		{Index: 1, Type: "click", Target: "a", NotCanceled: true, Nested: []playground.DispatchResult{
			{Index: 2, Type: "focus", Target: "b", NotCanceled: true},
		}},
	}})
	out := buf.String()
	assert.Contains(t, out, "rejected: already dispatching")
	assert.Contains(t, out, "    #2 focus -> b")
	assert.Contains(t, out, "=> not canceled")
}
