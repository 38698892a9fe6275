package event

import (
	"context"
	"reflect"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// Logger is the logging surface the engine needs. *logger.CtxZapLogger
// satisfies it.
type Logger interface {
	DebugCtx(ctx context.Context, msg string, fields ...zap.Field)
	WarnCtx(ctx context.Context, msg string, fields ...zap.Field)
	ErrorCtx(ctx context.Context, msg string, fields ...zap.Field)
}

type nopLogger struct{}

func (nopLogger) DebugCtx(context.Context, string, ...zap.Field) {}
func (nopLogger) WarnCtx(context.Context, string, ...zap.Field)  {}
func (nopLogger) ErrorCtx(context.Context, string, ...zap.Field) {}

// Engine runs three-phase event dispatch over a host tree.
type Engine struct {
	parents   ParentResolver
	globals   GlobalResolver
	scripting ScriptingPolicy
	slots     InlineSlots

	sink         ExceptionSink
	logger       Logger
	metrics      *EngineMetrics
	tracer       trace.Tracer
	interceptors []Interceptor
	config       Config

	paths  *PathBuilder
	inline *InlineHandlerAdapter
}

// NewEngine creates an engine. Without options there are no parents, no
// globals, scripting is disabled and failures are discarded.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		parents:   noParents{},
		globals:   noGlobals{},
		scripting: scriptingDisabled{},
		slots:     noInlineSlots{},
		sink:      DiscardSink{},
		logger:    nopLogger{},
		tracer:    noop.NewTracerProvider().Tracer("event"),
		config:    DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.paths = NewPathBuilder(e.parents, e.globals, e.config.LoadEventType)
	e.inline = NewInlineHandlerAdapter(e.config.ErrorEventType, e.config.PointerOverEventType)
	return e
}

// InlineAdapter returns the adapter used for inline handlers, so that
// callers can register the same synthetic listener explicitly.
func (e *Engine) InlineAdapter() *InlineHandlerAdapter {
	return e.inline
}

// AddEventListener registers h on target.
func (e *Engine) AddEventListener(target Target, eventType string, h Handler, capture bool) error {
	if isNilTarget(target) {
		return ErrInvalidTarget
	}
	return target.EventListeners().Add(eventType, h, capture)
}

// RemoveEventListener unregisters h from target.
func (e *Engine) RemoveEventListener(target Target, eventType string, h Handler, capture bool) error {
	if isNilTarget(target) {
		return ErrInvalidTarget
	}
	return target.EventListeners().Remove(eventType, h, capture)
}

// Dispatch delivers ev to target and returns false if a listener canceled
// it. Listener failures are reported to the sink and never returned.
func (e *Engine) Dispatch(ctx context.Context, target Target, ev *Event) (bool, error) {
	if err := e.check(target, ev); err != nil {
		return false, err
	}
	ev.isTrusted = false
	return e.dispatch(ctx, target, ev, nil), nil
}

// DispatchWithTargetOverride delivers ev as if it originated at override:
// the path is built from override and target's own listeners see override
// as the current target. isTrusted is left untouched.
func (e *Engine) DispatchWithTargetOverride(ctx context.Context, target Target, ev *Event, override Target) (bool, error) {
	if err := e.check(target, ev); err != nil {
		return false, err
	}
	return e.dispatch(ctx, target, ev, override), nil
}

// isNilTarget also catches typed nils such as (*tree.Node)(nil).
func isNilTarget(t Target) bool {
	if t == nil {
		return true
	}
	v := reflect.ValueOf(t)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Slice, reflect.Func, reflect.Interface:
		return v.IsNil()
	}
	return false
}

func (e *Engine) check(target Target, ev *Event) error {
	if ev == nil {
		return ErrInvalidEvent
	}
	if isNilTarget(target) {
		return ErrInvalidTarget
	}
	if ev.dispatching || !ev.initialized {
		return ErrInvalidState.WithData("type", ev.typ)
	}
	return nil
}

func (e *Engine) dispatch(ctx context.Context, target Target, ev *Event, override Target) (notCanceled bool) {
	start := time.Now()
	nominal := target
	if !isNilTarget(override) {
		nominal = override
	}

	ev.dispatching = true
	ev.target = nominal
	ev.path = e.paths.Build(nominal, ev.typ)
	path := ev.path

	ctx, span := e.tracer.Start(ctx, "event.dispatch", trace.WithAttributes(
		attribute.String("event.type", ev.typ),
		attribute.Int("event.path_length", len(path)),
		attribute.Bool("event.bubbles", ev.bubbles),
	))

	defer func() {
		ev.dispatching = false
		ev.phase = PhaseNone
		ev.currentTarget = nil
		ev.path = nil
		notCanceled = !ev.canceled

		span.SetAttributes(attribute.Bool("event.default_prevented", ev.canceled))
		span.End()
		e.metrics.RecordDispatch(ctx, ev.typ, notCanceled, time.Since(start))
	}()

	ev.phase = PhaseCapturing
	for i := len(path) - 1; i >= 0 && !ev.stopPropagation; i-- {
		e.invokeNode(ctx, path[i], ev, captureOnly(path[i].EventListeners().Snapshot(ev.typ)))
	}

	if !ev.stopPropagation {
		ev.phase = PhaseAtTarget
		listeners := target.EventListeners().Snapshot(ev.typ)
		listeners = e.inline.withInline(listeners, target, ev.typ, e.slots, e.scripting)
		e.invokeNode(ctx, nominal, ev, listeners)
	}

	if ev.bubbles && !ev.stopPropagation {
		ev.phase = PhaseBubbling
		for i := 0; i < len(path) && !ev.stopPropagation; i++ {
			listeners := bubbleOnly(path[i].EventListeners().Snapshot(ev.typ))
			listeners = e.inline.withInline(listeners, path[i], ev.typ, e.slots, e.scripting)
			e.invokeNode(ctx, path[i], ev, listeners)
		}
	}
	return
}

// invokeNode runs one node's snapshot with current as the current target.
func (e *Engine) invokeNode(ctx context.Context, current Target, ev *Event, listeners []ListenerEntry) {
	ev.currentTarget = current
	for _, entry := range listeners {
		if ev.stopImmediate {
			return
		}
		e.invoke(ctx, current, ev, entry.Handler)
	}
}

func (e *Engine) invoke(ctx context.Context, current Target, ev *Event, h Handler) {
	name := describe(h)
	err := e.call(ctx, ev, name, h)
	e.metrics.RecordInvocation(ctx, ev.typ, ev.phase, err != nil)
	if err == nil {
		return
	}

	lerr := &ListenerError{EventType: ev.typ, Phase: ev.phase, Listener: name, Cause: err}
	trace.SpanFromContext(ctx).RecordError(lerr)
	trace.SpanFromContext(ctx).SetStatus(codes.Error, "listener failed")

	global := e.globals.GlobalOf(current)
	if global == nil {
		e.logger.DebugCtx(ctx, "listener failure dropped: no global scope",
			zap.String("type", ev.typ),
			zap.String("phase", ev.phase.String()),
			zap.String("listener", name),
			zap.Error(err))
		return
	}
	e.report(ctx, global, lerr)
}

// call invokes h through the interceptor chain, turning returned errors and
// panics into layered errors.
func (e *Engine) call(ctx context.Context, ev *Event, name string, h Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrListenerPanic.WithMsgf("event listener panicked: %v", r).
				WithData("stack", string(debug.Stack()))
		}
	}()
	if cerr := chain(e.interceptors, name, h)(ctx, ev); cerr != nil {
		return ErrListenerFailed.Wrap(cerr)
	}
	return nil
}

func (e *Engine) report(ctx context.Context, global Target, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.WarnCtx(ctx, "exception sink panicked", zap.Any("panic", r), zap.Error(err))
		}
	}()
	e.sink.Report(ctx, global, err)
}

func captureOnly(entries []ListenerEntry) []ListenerEntry {
	out := entries[:0:0]
	for _, e := range entries {
		if e.Capture {
			out = append(out, e)
		}
	}
	return out
}

func bubbleOnly(entries []ListenerEntry) []ListenerEntry {
	out := entries[:0:0]
	for _, e := range entries {
		if !e.Capture {
			out = append(out, e)
		}
	}
	return out
}
