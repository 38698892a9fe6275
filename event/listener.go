package event

import (
	"context"
	"fmt"
	"reflect"
	"sync"
)

// Target is anything that owns an event listener registry.
type Target interface {
	EventListeners() *Registry
}

// TargetBase is an embeddable Target. The zero value is ready to use.
type TargetBase struct {
	once      sync.Once
	listeners *Registry
}

// EventListeners returns the target's registry, creating it on first use.
func (b *TargetBase) EventListeners() *Registry {
	b.once.Do(func() {
		b.listeners = NewRegistry()
	})
	return b.listeners
}

// Handler is an object-like callback.
type Handler interface {
	HandleEvent(ctx context.Context, ev *Event) error
}

// HandlerFunc is a plain function callback. Funcs are not comparable, so a
// HandlerFunc cannot be registered directly: wrap it with Func to give it a
// stable identity.
type HandlerFunc func(ctx context.Context, ev *Event) error

// HandleEvent calls f. It exists so that a HandlerFunc passed by mistake is
// rejected with ErrInvalidCallback instead of failing to compile elsewhere.
func (f HandlerFunc) HandleEvent(ctx context.Context, ev *Event) error {
	return f(ctx, ev)
}

// FuncHandler is a function-like callback. Its identity is the pointer.
type FuncHandler struct {
	name string
	fn   HandlerFunc
}

// Func wraps fn into a registrable function listener.
func Func(fn HandlerFunc) *FuncHandler {
	return &FuncHandler{fn: fn}
}

// NamedFunc is Func with a label used in failure reports and traces.
func NamedFunc(name string, fn HandlerFunc) *FuncHandler {
	return &FuncHandler{name: name, fn: fn}
}

// Name returns the label given to NamedFunc, or a generic description.
func (f *FuncHandler) Name() string {
	if f.name != "" {
		return f.name
	}
	return fmt.Sprintf("func@%p", f)
}

// HandleEvent calls the wrapped function.
func (f *FuncHandler) HandleEvent(ctx context.Context, ev *Event) error {
	if f.fn == nil {
		return nil
	}
	return f.fn(ctx, ev)
}

type callbackKind uint8

const (
	callbackEmpty callbackKind = iota
	callbackFunc
	callbackObject
)

// resolveCallback classifies h once, at registration time.
func resolveCallback(h Handler) (callbackKind, error) {
	if h == nil {
		return callbackEmpty, nil
	}
	v := reflect.ValueOf(h)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Slice, reflect.Func, reflect.Interface:
		if v.IsNil() {
			return callbackEmpty, nil
		}
	}
	if _, ok := h.(*FuncHandler); ok {
		return callbackFunc, nil
	}
	if !v.Type().Comparable() {
		return callbackEmpty, ErrInvalidCallback.WithMsgf("handler of type %T has no comparable identity", h)
	}
	return callbackObject, nil
}

// sameHandler compares two registered handlers. Dynamic types are comparable
// at registration, but struct fields holding funcs still panic at runtime.
func sameHandler(a, b Handler) (same bool) {
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}

// describe returns a label for h used in logs, traces and failure reports.
func describe(h Handler) string {
	type named interface{ Name() string }
	if n, ok := h.(named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", h)
}
