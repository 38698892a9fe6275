package event

import (
	"context"
	"errors"
	"testing"

	"github.com/KOMKZ/go-yogan-propagation/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(tree *fakeTree, sink ExceptionSink, opts ...EngineOption) *Engine {
	base := []EngineOption{WithHost(fakeHost{scripting: true})}
	if sink != nil {
		base = append(base, WithSink(sink))
	}
	return NewEngine(append(base, opts...)...)
}

func TestEngine_IdempotentRegistration(t *testing.T) {
	tree := newFakeTree()
	rec := &recorder{}
	engine := newTestEngine(tree, nil)

	h := rec.listener("h", nil)
	require.NoError(t, engine.AddEventListener(tree.leaf, "click", h, false))
	require.NoError(t, engine.AddEventListener(tree.leaf, "click", h, false))

	ok, err := engine.Dispatch(context.Background(), tree.leaf, New("click"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"leaf:h:at_target"}, rec.list())
}

func TestEngine_PhaseOrdering(t *testing.T) {
	tree := newFakeTree()
	rec := &recorder{}
	engine := newTestEngine(tree, nil)

	add := func(node *fakeNode, label string, capture bool) {
		require.NoError(t, engine.AddEventListener(node, "click", rec.listener(label, nil), capture))
	}
	// Registration order deliberately differs from delivery order.
	add(tree.root, "A-bubble", false)
	add(tree.leaf, "C-capture", true)
	add(tree.mid, "B-bubble", false)
	add(tree.leaf, "C-bubble", false)
	add(tree.root, "A-capture", true)
	add(tree.mid, "B-capture", true)

	ok, err := engine.Dispatch(context.Background(), tree.leaf, New("click", WithBubbles()))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{
		"root:A-capture:capturing",
		"mid:B-capture:capturing",
		"leaf:C-capture:at_target",
		"leaf:C-bubble:at_target",
		"mid:B-bubble:bubbling",
		"root:A-bubble:bubbling",
	}, rec.list())
}

func TestEngine_WindowOnPathExceptLoad(t *testing.T) {
	tree := newFakeTree()
	rec := &recorder{}
	engine := newTestEngine(tree, nil)

	for _, typ := range []string{"click", "load"} {
		require.NoError(t, engine.AddEventListener(tree.window, typ, rec.listener(typ, nil), true))
	}

	var path []Target
	require.NoError(t, engine.AddEventListener(tree.leaf, "click", Func(func(_ context.Context, ev *Event) error {
		path = ev.Path()
		return nil
	}), false))

	_, err := engine.Dispatch(context.Background(), tree.leaf, New("click"))
	require.NoError(t, err)
	_, err = engine.Dispatch(context.Background(), tree.leaf, New("load"))
	require.NoError(t, err)

	assert.Equal(t, []string{"window:click:capturing"}, rec.list())
	assert.Equal(t, []Target{tree.mid, tree.root, tree.window}, path)
}

func TestEngine_RootTargetGetsWindow(t *testing.T) {
	tree := newFakeTree()
	rec := &recorder{}
	engine := newTestEngine(tree, nil)
	require.NoError(t, engine.AddEventListener(tree.window, "click", rec.listener("w", nil), false))

	_, err := engine.Dispatch(context.Background(), tree.root, New("click", WithBubbles()))
	require.NoError(t, err)
	assert.Equal(t, []string{"window:w:bubbling"}, rec.list())
}

func TestEngine_StopPropagation(t *testing.T) {
	tree := newFakeTree()
	rec := &recorder{}
	engine := newTestEngine(tree, nil)

	stop := func(ev *Event) error { ev.StopPropagation(); return nil }
	require.NoError(t, engine.AddEventListener(tree.root, "click", rec.listener("A-capture", nil), true))
	require.NoError(t, engine.AddEventListener(tree.mid, "click", rec.listener("B-stop", stop), true))
	require.NoError(t, engine.AddEventListener(tree.mid, "click", rec.listener("B-capture-2", nil), true))
	require.NoError(t, engine.AddEventListener(tree.leaf, "click", rec.listener("C", nil), false))
	require.NoError(t, engine.AddEventListener(tree.root, "click", rec.listener("A-bubble", nil), false))

	ev := New("click", WithBubbles())
	_, err := engine.Dispatch(context.Background(), tree.leaf, ev)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"root:A-capture:capturing",
		"mid:B-stop:capturing",
		"mid:B-capture-2:capturing",
	}, rec.list())
	assert.True(t, ev.PropagationStopped())
	assert.False(t, ev.ImmediatePropagationStopped())
}

func TestEngine_StopPropagationAtTarget(t *testing.T) {
	tree := newFakeTree()
	rec := &recorder{}
	engine := newTestEngine(tree, nil)

	stop := func(ev *Event) error { ev.StopPropagation(); return nil }
	require.NoError(t, engine.AddEventListener(tree.leaf, "click", rec.listener("C-stop", stop), false))
	require.NoError(t, engine.AddEventListener(tree.leaf, "click", rec.listener("C-2", nil), false))
	require.NoError(t, engine.AddEventListener(tree.mid, "click", rec.listener("B", nil), false))

	_, err := engine.Dispatch(context.Background(), tree.leaf, New("click", WithBubbles()))
	require.NoError(t, err)
	assert.Equal(t, []string{"leaf:C-stop:at_target", "leaf:C-2:at_target"}, rec.list())
}

func TestEngine_StopImmediatePropagation(t *testing.T) {
	tree := newFakeTree()
	rec := &recorder{}
	engine := newTestEngine(tree, nil)

	stop := func(ev *Event) error { ev.StopImmediatePropagation(); return nil }
	require.NoError(t, engine.AddEventListener(tree.mid, "click", rec.listener("B-stop", stop), true))
	require.NoError(t, engine.AddEventListener(tree.mid, "click", rec.listener("B-2", nil), true))
	require.NoError(t, engine.AddEventListener(tree.leaf, "click", rec.listener("C", nil), false))

	ev := New("click", WithBubbles())
	_, err := engine.Dispatch(context.Background(), tree.leaf, ev)
	require.NoError(t, err)

	assert.Equal(t, []string{"mid:B-stop:capturing"}, rec.list())
	assert.True(t, ev.PropagationStopped())
	assert.True(t, ev.ImmediatePropagationStopped())
}

func TestEngine_SnapshotStability(t *testing.T) {
	tree := newFakeTree()
	rec := &recorder{}
	engine := newTestEngine(tree, nil)

	late := rec.listener("late", nil)
	second := rec.listener("second", nil)
	first := rec.listener("first", func(ev *Event) error {
		if err := engine.AddEventListener(tree.leaf, "click", late, false); err != nil {
			return err
		}
		return engine.RemoveEventListener(tree.leaf, "click", second, false)
	})
	require.NoError(t, engine.AddEventListener(tree.leaf, "click", first, false))
	require.NoError(t, engine.AddEventListener(tree.leaf, "click", second, false))

	_, err := engine.Dispatch(context.Background(), tree.leaf, New("click"))
	require.NoError(t, err)
	assert.Equal(t, []string{"leaf:first:at_target", "leaf:second:at_target"}, rec.list())

	rec.calls = nil
	_, err = engine.Dispatch(context.Background(), tree.leaf, New("click"))
	require.NoError(t, err)
	assert.Equal(t, []string{"leaf:first:at_target", "leaf:late:at_target"}, rec.list())
}

func TestEngine_Reentrancy(t *testing.T) {
	tree := newFakeTree()
	rec := &recorder{}
	engine := newTestEngine(tree, nil)

	outer := New("click", WithBubbles())
	var redispatchErr error
	require.NoError(t, engine.AddEventListener(tree.leaf, "click", rec.listener("outer", func(ev *Event) error {
		_, redispatchErr = engine.Dispatch(context.Background(), tree.mid, ev)
		_, err := engine.Dispatch(context.Background(), tree.mid, New("focus"))
		rec.add("outer-resumed")
		return err
	}), false))
	require.NoError(t, engine.AddEventListener(tree.mid, "focus", rec.listener("inner", nil), false))
	require.NoError(t, engine.AddEventListener(tree.mid, "click", rec.listener("bubble", nil), false))

	_, err := engine.Dispatch(context.Background(), tree.leaf, outer)
	require.NoError(t, err)

	assert.True(t, errors.Is(redispatchErr, ErrInvalidState))
	assert.Equal(t, []string{
		"leaf:outer:at_target",
		"mid:inner:at_target",
		"outer-resumed",
		"mid:bubble:bubbling",
	}, rec.list())
}

func TestEngine_NonBubblingEvent(t *testing.T) {
	tree := newFakeTree()
	rec := &recorder{}
	engine := newTestEngine(tree, nil)

	require.NoError(t, engine.AddEventListener(tree.root, "focus", rec.listener("A-capture", nil), true))
	require.NoError(t, engine.AddEventListener(tree.root, "focus", rec.listener("A-bubble", nil), false))
	require.NoError(t, engine.AddEventListener(tree.leaf, "focus", rec.listener("C", nil), false))

	_, err := engine.Dispatch(context.Background(), tree.leaf, New("focus"))
	require.NoError(t, err)
	assert.Equal(t, []string{"root:A-capture:capturing", "leaf:C:at_target"}, rec.list())
}

func TestEngine_CancellationResult(t *testing.T) {
	tree := newFakeTree()
	engine := newTestEngine(tree, nil)
	prevent := Func(func(_ context.Context, ev *Event) error {
		ev.PreventDefault()
		return nil
	})
	require.NoError(t, engine.AddEventListener(tree.mid, "submit", prevent, false))

	t.Run("cancelable", func(t *testing.T) {
		ev := New("submit", WithBubbles(), WithCancelable())
		ok, err := engine.Dispatch(context.Background(), tree.leaf, ev)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.True(t, ev.DefaultPrevented())
	})

	t.Run("not cancelable", func(t *testing.T) {
		ev := New("submit", WithBubbles())
		ok, err := engine.Dispatch(context.Background(), tree.leaf, ev)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.False(t, ev.DefaultPrevented())
	})
}

func TestEngine_FailureIsolation(t *testing.T) {
	tree := newFakeTree()
	rec := &recorder{}
	sink := &sinkRecorder{}
	engine := newTestEngine(tree, sink)

	boom := errors.New("boom")
	require.NoError(t, engine.AddEventListener(tree.leaf, "click", rec.listener("fails", func(*Event) error { return boom }), false))
	require.NoError(t, engine.AddEventListener(tree.leaf, "click", rec.listener("panics", func(*Event) error { panic("kaboom") }), false))
	require.NoError(t, engine.AddEventListener(tree.leaf, "click", rec.listener("after", nil), false))
	require.NoError(t, engine.AddEventListener(tree.mid, "click", rec.listener("bubble", nil), false))

	ev := New("click", WithBubbles(), WithCancelable())
	ok, err := engine.Dispatch(context.Background(), tree.leaf, ev)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, ev.Dispatching())

	assert.Equal(t, []string{
		"leaf:fails:at_target",
		"leaf:panics:at_target",
		"leaf:after:at_target",
		"mid:bubble:bubbling",
	}, rec.list())

	require.Equal(t, 2, sink.count())
	assert.Equal(t, []Target{tree.window, tree.window}, sink.globals)

	var lerr *ListenerError
	require.ErrorAs(t, sink.errs[0], &lerr)
	assert.Equal(t, "click", lerr.EventType)
	assert.Equal(t, PhaseAtTarget, lerr.Phase)
	assert.Equal(t, "fails", lerr.Listener)
	assert.ErrorIs(t, sink.errs[0], ErrListenerFailed)
	assert.ErrorIs(t, sink.errs[0], boom)

	require.ErrorAs(t, sink.errs[1], &lerr)
	assert.Equal(t, "panics", lerr.Listener)
	assert.ErrorIs(t, sink.errs[1], ErrListenerPanic)
	assert.Contains(t, lerr.Error(), "kaboom")
}

func TestEngine_FailureWithoutGlobalIsDropped(t *testing.T) {
	orphan := &fakeNode{name: "orphan"}
	sink := &sinkRecorder{}
	log := logger.NewTestCtxLogger()
	engine := NewEngine(WithHost(fakeHost{}), WithSink(sink), WithLogger(log))

	require.NoError(t, engine.AddEventListener(orphan, "click", NamedFunc("fails", func(context.Context, *Event) error {
		return errors.New("nobody hears this")
	}), false))

	ok, err := engine.Dispatch(context.Background(), orphan, New("click"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, sink.count())
	assert.True(t, log.HasLog("debug", "listener failure dropped: no global scope"))
}

func TestEngine_SinkPanicIsContained(t *testing.T) {
	tree := newFakeTree()
	log := logger.NewTestCtxLogger()
	sink := SinkFunc(func(context.Context, Target, error) { panic("sink down") })
	engine := newTestEngine(tree, sink, WithLogger(log))

	require.NoError(t, engine.AddEventListener(tree.leaf, "click", Func(func(context.Context, *Event) error {
		return errors.New("x")
	}), false))

	_, err := engine.Dispatch(context.Background(), tree.leaf, New("click"))
	require.NoError(t, err)
	assert.True(t, log.HasLog("warn", "exception sink panicked"))
}

func TestEngine_InvalidArguments(t *testing.T) {
	tree := newFakeTree()
	engine := newTestEngine(tree, nil)
	ctx := context.Background()

	_, err := engine.Dispatch(ctx, tree.leaf, nil)
	assert.ErrorIs(t, err, ErrInvalidEvent)

	_, err = engine.Dispatch(ctx, nil, New("click"))
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = engine.Dispatch(ctx, tree.leaf, &Event{})
	assert.ErrorIs(t, err, ErrInvalidState)

	assert.ErrorIs(t, engine.AddEventListener(nil, "click", nil, false), ErrInvalidTarget)
	assert.ErrorIs(t, engine.RemoveEventListener(nil, "click", nil, false), ErrInvalidTarget)

	var typedNil *fakeNode
	_, err = engine.Dispatch(ctx, typedNil, New("click"))
	assert.ErrorIs(t, err, ErrInvalidTarget)
	_, err = engine.DispatchWithTargetOverride(ctx, typedNil, New("click"), tree.leaf)
	assert.ErrorIs(t, err, ErrInvalidTarget)
	assert.ErrorIs(t, engine.AddEventListener(typedNil, "click", nil, false), ErrInvalidTarget)
	assert.ErrorIs(t, engine.RemoveEventListener(typedNil, "click", nil, false), ErrInvalidTarget)

	err = engine.AddEventListener(tree.leaf, "click", HandlerFunc(func(context.Context, *Event) error { return nil }), false)
	assert.ErrorIs(t, err, ErrInvalidCallback)
}

func TestEngine_InitEventMakesZeroValueDispatchable(t *testing.T) {
	tree := newFakeTree()
	engine := newTestEngine(tree, nil)

	var ev Event
	ev.InitEvent("click", true, true)
	ok, err := engine.Dispatch(context.Background(), tree.leaf, &ev)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, ev.Bubbles())
}

func TestEngine_PostConditions(t *testing.T) {
	tree := newFakeTree()
	engine := newTestEngine(tree, nil)

	var during struct {
		dispatching bool
		phase       Phase
		current     Target
		target      Target
	}
	require.NoError(t, engine.AddEventListener(tree.mid, "click", Func(func(_ context.Context, ev *Event) error {
		during.dispatching = ev.Dispatching()
		during.phase = ev.Phase()
		during.current = ev.CurrentTarget()
		during.target = ev.Target()
		ev.StopImmediatePropagation()
		return nil
	}), true))

	ev := New("click", WithBubbles())
	_, err := engine.Dispatch(context.Background(), tree.leaf, ev)
	require.NoError(t, err)

	assert.True(t, during.dispatching)
	assert.Equal(t, PhaseCapturing, during.phase)
	assert.Equal(t, Target(tree.mid), during.current)
	assert.Equal(t, Target(tree.leaf), during.target)

	assert.False(t, ev.Dispatching())
	assert.Equal(t, PhaseNone, ev.Phase())
	assert.Nil(t, ev.CurrentTarget())
	assert.Nil(t, ev.Path())
	assert.Equal(t, Target(tree.leaf), ev.Target())
}

func TestEngine_TrustedFlag(t *testing.T) {
	tree := newFakeTree()
	engine := newTestEngine(tree, nil)

	ev := New("click", WithTrusted())
	_, err := engine.Dispatch(context.Background(), tree.leaf, ev)
	require.NoError(t, err)
	assert.False(t, ev.IsTrusted(), "public dispatch resets isTrusted")

	ev = New("click", WithTrusted())
	_, err = engine.DispatchWithTargetOverride(context.Background(), tree.leaf, ev, tree.leaf)
	require.NoError(t, err)
	assert.True(t, ev.IsTrusted(), "override dispatch keeps isTrusted")
}

func TestEngine_TargetOverride(t *testing.T) {
	tree := newFakeTree()
	rec := &recorder{}
	engine := newTestEngine(tree, nil)

	// A detached node whose listeners are delivered as if the event came
	// from leaf.
	detached := &fakeNode{name: "detached", owner: tree.window}
	var seenTarget Target
	require.NoError(t, engine.AddEventListener(detached, "click", rec.listener("own", func(ev *Event) error {
		seenTarget = ev.Target()
		return nil
	}), false))
	require.NoError(t, engine.AddEventListener(tree.mid, "click", rec.listener("B", nil), false))
	require.NoError(t, engine.AddEventListener(tree.leaf, "click", rec.listener("leaf-own", nil), false))

	_, err := engine.DispatchWithTargetOverride(context.Background(), detached, New("click", WithBubbles()), tree.leaf)
	require.NoError(t, err)

	assert.Equal(t, []string{"leaf:own:at_target", "mid:B:bubbling"}, rec.list())
	assert.Equal(t, Target(tree.leaf), seenTarget)
}

func TestEngine_Interceptors(t *testing.T) {
	tree := newFakeTree()
	rec := &recorder{}
	sink := &sinkRecorder{}

	trace := func(name string) Interceptor {
		return func(ctx context.Context, ev *Event, listener string, next Next) error {
			rec.add(name + ">" + listener)
			err := next(ctx, ev)
			rec.add(name + "<" + listener)
			return err
		}
	}
	deny := func(ctx context.Context, ev *Event, listener string, next Next) error {
		if listener == "blocked" {
			return errors.New("denied")
		}
		return next(ctx, ev)
	}
	engine := newTestEngine(tree, sink, WithInterceptor(trace("outer"), trace("inner")), WithInterceptor(deny))

	require.NoError(t, engine.AddEventListener(tree.leaf, "click", rec.listener("ok", nil), false))
	require.NoError(t, engine.AddEventListener(tree.leaf, "click", rec.listener("blocked", nil), false))

	_, err := engine.Dispatch(context.Background(), tree.leaf, New("click"))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"outer>ok", "inner>ok", "leaf:ok:at_target", "inner<ok", "outer<ok",
		"outer>blocked", "inner>blocked", "inner<blocked", "outer<blocked",
	}, rec.list())
	require.Equal(t, 1, sink.count())
	assert.Contains(t, sink.errs[0].Error(), "denied")
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "none", PhaseNone.String())
	assert.Equal(t, "capturing", PhaseCapturing.String())
	assert.Equal(t, "at_target", PhaseAtTarget.String())
	assert.Equal(t, "bubbling", PhaseBubbling.String())
}
