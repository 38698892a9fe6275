package event

import (
	"go.opentelemetry.io/otel/trace"
)

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithHost installs h as every collaborator at once.
func WithHost(h Host) EngineOption {
	return func(e *Engine) {
		e.parents = h
		e.globals = h
		e.scripting = h
		e.slots = h
	}
}

// WithParents sets the parent relation used to build paths.
func WithParents(p ParentResolver) EngineOption {
	return func(e *Engine) { e.parents = p }
}

// WithGlobals sets the global-scope lookups.
func WithGlobals(g GlobalResolver) EngineOption {
	return func(e *Engine) { e.globals = g }
}

// WithScripting sets the predicate that gates inline handlers.
func WithScripting(p ScriptingPolicy) EngineOption {
	return func(e *Engine) { e.scripting = p }
}

// WithInlineSlots sets where inline handlers are read from.
func WithInlineSlots(s InlineSlots) EngineOption {
	return func(e *Engine) { e.slots = s }
}

// WithSink sets where isolated listener failures are reported.
func WithSink(s ExceptionSink) EngineOption {
	return func(e *Engine) { e.sink = s }
}

// WithLogger sets the engine logger.
func WithLogger(l Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics enables dispatch metrics.
func WithMetrics(m *EngineMetrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// WithTracer sets the tracer used for dispatch spans.
func WithTracer(t trace.Tracer) EngineOption {
	return func(e *Engine) { e.tracer = t }
}

// WithInterceptor appends interceptors around listener invocations.
func WithInterceptor(interceptors ...Interceptor) EngineOption {
	return func(e *Engine) { e.interceptors = append(e.interceptors, interceptors...) }
}

// WithConfig applies the event type categories of cfg. Empty fields keep
// their defaults.
func WithConfig(cfg Config) EngineOption {
	return func(e *Engine) {
		if cfg.LoadEventType != "" {
			e.config.LoadEventType = cfg.LoadEventType
		}
		if cfg.ErrorEventType != "" {
			e.config.ErrorEventType = cfg.ErrorEventType
		}
		if cfg.PointerOverEventType != "" {
			e.config.PointerOverEventType = cfg.PointerOverEventType
		}
	}
}
