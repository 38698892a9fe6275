package event

import (
	"context"
	"math"
	"reflect"
	"sync"
)

// InlineArgs is what an inline handler is called with. Error events carry the
// decomposed error tuple and a nil Event; every other event carries Event.
type InlineArgs struct {
	Event *Event

	Message string
	Source  string
	Line    int
	Column  int
	Err     error
}

// InlineFunc is the body of an inline handler. this is the current target.
type InlineFunc func(ctx context.Context, this Target, args InlineArgs) (any, error)

// InlineHandler is the value stored in a target's single per-type slot.
type InlineHandler struct {
	Name string
	Fn   InlineFunc

	mu      sync.Mutex
	adapted map[adaptKey]*FuncHandler
}

// adaptKey scopes a memoized listener to the adapter that built it, so
// engines with different event categories never share one.
type adaptKey struct {
	adapter   *InlineHandlerAdapter
	eventType string
}

// NewInlineHandler wraps fn.
func NewInlineHandler(name string, fn InlineFunc) *InlineHandler {
	return &InlineHandler{Name: name, Fn: fn}
}

// InlineHandlerAdapter turns inline handlers into synthetic listeners and
// applies the default-action rules of inline handler return values.
type InlineHandlerAdapter struct {
	errorType     string
	pointerOverTy string
}

// NewInlineHandlerAdapter creates an adapter. errorType is the event type
// whose handlers get decomposed error arguments; pointerOverType shares its
// return value rule.
func NewInlineHandlerAdapter(errorType, pointerOverType string) *InlineHandlerAdapter {
	return &InlineHandlerAdapter{errorType: errorType, pointerOverTy: pointerOverType}
}

// Adapt returns the synthetic listener for h and eventType. Repeated calls
// with the same handler and type on this adapter return the same listener.
func (a *InlineHandlerAdapter) Adapt(h *InlineHandler, eventType string) *FuncHandler {
	if h == nil || h.Fn == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	key := adaptKey{adapter: a, eventType: eventType}
	if fh, ok := h.adapted[key]; ok {
		return fh
	}
	if h.adapted == nil {
		h.adapted = make(map[adaptKey]*FuncHandler)
	}
	name := h.Name
	if name == "" {
		name = "inline"
	}
	fh := NamedFunc(name+":on"+eventType, func(ctx context.Context, ev *Event) error {
		return a.invoke(ctx, h, ev)
	})
	h.adapted[key] = fh
	return fh
}

func (a *InlineHandlerAdapter) invoke(ctx context.Context, h *InlineHandler, ev *Event) error {
	var args InlineArgs
	info, isError := ev.ErrorInfo()
	isError = isError && ev.Type() == a.errorType
	if isError {
		args = InlineArgs{
			Message: info.Message,
			Source:  info.Source,
			Line:    info.Line,
			Column:  info.Column,
			Err:     info.Err,
		}
	} else {
		args = InlineArgs{Event: ev}
	}

	ret, err := h.Fn(ctx, ev.CurrentTarget(), args)
	if err != nil {
		return err
	}

	if ev.Type() == a.pointerOverTy || isError {
		if Truthy(ret) {
			ev.PreventDefault()
		}
	} else if !Truthy(ret) {
		ev.PreventDefault()
	}
	return nil
}

// withInline appends the synthetic inline listener of node to a bubble-side
// snapshot unless scripting is off, the slot is empty or the same listener is
// already present.
func (a *InlineHandlerAdapter) withInline(snapshot []ListenerEntry, node Target, eventType string, slots InlineSlots, policy ScriptingPolicy) []ListenerEntry {
	h := slots.InlineHandlerOf(node, eventType)
	if h == nil {
		return snapshot
	}
	if !policy.ScriptingEnabled(node) {
		return snapshot
	}
	fh := a.Adapt(h, eventType)
	if fh == nil {
		return snapshot
	}
	for _, e := range snapshot {
		if !e.Capture && e.Handler == Handler(fh) {
			return snapshot
		}
	}
	return append(snapshot, ListenerEntry{Handler: fh})
}

// Truthy applies script truthiness: nil, false, zero numbers, NaN and the
// empty string are falsy. Nil pointers, maps and slices are falsy too.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int:
		return x != 0
	case int8:
		return x != 0
	case int16:
		return x != 0
	case int32:
		return x != 0
	case int64:
		return x != 0
	case uint:
		return x != 0
	case uint8:
		return x != 0
	case uint16:
		return x != 0
	case uint32:
		return x != 0
	case uint64:
		return x != 0
	case float32:
		return x != 0 && !math.IsNaN(float64(x))
	case float64:
		return x != 0 && !math.IsNaN(x)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return !rv.IsNil()
	}
	return true
}
