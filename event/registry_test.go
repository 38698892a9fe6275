package event

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type valueHandler struct{ id string }

func (valueHandler) HandleEvent(context.Context, *Event) error { return nil }

type sliceHandler []int

func (sliceHandler) HandleEvent(context.Context, *Event) error { return nil }

type anyFieldHandler struct{ v any }

func (anyFieldHandler) HandleEvent(context.Context, *Event) error { return nil }

func TestRegistry_AddIsIdempotent(t *testing.T) {
	r := NewRegistry()
	h := Func(func(context.Context, *Event) error { return nil })

	require.NoError(t, r.Add("click", h, false))
	require.NoError(t, r.Add("click", h, false))
	assert.Equal(t, 1, r.Len("click"))

	// Same handler with the other capture flag is a distinct entry.
	require.NoError(t, r.Add("click", h, true))
	assert.Equal(t, 2, r.Len("click"))
	assert.True(t, r.Has("click", h, true))
	assert.True(t, r.Has("click", h, false))
}

func TestRegistry_ObjectIdentity(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Add("click", valueHandler{id: "a"}, false))
	require.NoError(t, r.Add("click", valueHandler{id: "a"}, false))
	require.NoError(t, r.Add("click", valueHandler{id: "b"}, false))
	assert.Equal(t, 2, r.Len("click"))

	require.NoError(t, r.Add("click", &valueHandler{id: "a"}, false))
	require.NoError(t, r.Add("click", &valueHandler{id: "a"}, false))
	assert.Equal(t, 4, r.Len("click"), "distinct pointers are distinct listeners")
}

func TestRegistry_EmptyCallbacks(t *testing.T) {
	r := NewRegistry()
	var nilFunc *FuncHandler
	var nilObj *valueHandler

	assert.NoError(t, r.Add("click", nil, false))
	assert.NoError(t, r.Add("click", nilFunc, false))
	assert.NoError(t, r.Add("click", nilObj, false))
	assert.NoError(t, r.Remove("click", nil, false))
	assert.Equal(t, 0, r.Len("click"))
}

func TestRegistry_InvalidCallbacks(t *testing.T) {
	r := NewRegistry()
	cases := map[string]Handler{
		"bare func": HandlerFunc(func(context.Context, *Event) error { return nil }),
		"slice":     sliceHandler{1},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			err := r.Add("click", h, false)
			assert.True(t, errors.Is(err, ErrInvalidCallback))
			err = r.Remove("click", h, false)
			assert.True(t, errors.Is(err, ErrInvalidCallback))
		})
	}
	assert.Equal(t, 0, r.Len("click"))
}

func TestRegistry_FuncFieldDoesNotPanic(t *testing.T) {
	r := NewRegistry()
	h := anyFieldHandler{v: func() {}}

	// Comparable type, but comparing values holding funcs panics at runtime.
	require.NoError(t, r.Add("click", h, false))
	require.NoError(t, r.Add("click", h, false))
	assert.Equal(t, 2, r.Len("click"))
}

func TestRegistry_Remove(t *testing.T) {
	r := NewRegistry()
	a := Func(func(context.Context, *Event) error { return nil })
	b := Func(func(context.Context, *Event) error { return nil })
	require.NoError(t, r.Add("click", a, false))
	require.NoError(t, r.Add("click", b, false))

	require.NoError(t, r.Remove("click", a, true), "wrong capture flag is a no-op")
	assert.Equal(t, 2, r.Len("click"))

	require.NoError(t, r.Remove("click", a, false))
	snap := r.Snapshot("click")
	require.Len(t, snap, 1)
	assert.Same(t, b, snap[0].Handler)

	require.NoError(t, r.Remove("click", b, false))
	assert.Empty(t, r.Types())
}

func TestRegistry_SnapshotIsIndependent(t *testing.T) {
	r := NewRegistry()
	a := Func(func(context.Context, *Event) error { return nil })
	b := Func(func(context.Context, *Event) error { return nil })
	c := Func(func(context.Context, *Event) error { return nil })
	require.NoError(t, r.Add("click", a, false))
	require.NoError(t, r.Add("click", b, false))

	snap := r.Snapshot("click")
	require.NoError(t, r.Remove("click", a, false))
	require.NoError(t, r.Add("click", c, false))

	require.Len(t, snap, 2)
	assert.Same(t, a, snap[0].Handler)
	assert.Same(t, b, snap[1].Handler)
	assert.Less(t, snap[0].Seq, snap[1].Seq)
}

func TestRegistry_TypesAndClear(t *testing.T) {
	r := NewRegistry()
	h := Func(func(context.Context, *Event) error { return nil })
	require.NoError(t, r.Add("load", h, false))
	require.NoError(t, r.Add("click", h, false))

	assert.Equal(t, []string{"click", "load"}, r.Types())
	r.Clear("click")
	assert.Equal(t, []string{"load"}, r.Types())
	assert.Nil(t, r.Snapshot("click"))
}

func TestTargetBase_LazyRegistry(t *testing.T) {
	var base TargetBase
	reg := base.EventListeners()
	require.NotNil(t, reg)
	assert.Same(t, reg, base.EventListeners())
}
