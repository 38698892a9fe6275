package event

import "time"

// Phase is the event phase of an in-flight dispatch.
type Phase uint16

const (
	PhaseNone Phase = iota
	PhaseCapturing
	PhaseAtTarget
	PhaseBubbling
)

func (p Phase) String() string {
	switch p {
	case PhaseCapturing:
		return "capturing"
	case PhaseAtTarget:
		return "at_target"
	case PhaseBubbling:
		return "bubbling"
	default:
		return "none"
	}
}

// ErrorInfo is the payload of a script error event. When the event type is
// the configured error type, inline handlers receive these fields as
// separate arguments instead of the event.
type ErrorInfo struct {
	Message string
	Source  string
	Line    int
	Column  int
	Err     error
}

// Event is the mutable record threaded through one dispatch.
// An Event must not be shared between goroutines.
type Event struct {
	typ        string
	bubbles    bool
	cancelable bool
	isTrusted  bool
	detail     any
	errInfo    *ErrorInfo
	timeStamp  time.Time

	target        Target
	currentTarget Target
	phase         Phase
	path          []Target

	dispatching     bool
	initialized     bool
	stopPropagation bool
	stopImmediate   bool
	canceled        bool
}

// Option configures an Event at construction.
type Option func(*Event)

// WithBubbles marks the event as bubbling.
func WithBubbles() Option {
	return func(e *Event) { e.bubbles = true }
}

// WithCancelable allows PreventDefault to cancel the event.
func WithCancelable() Option {
	return func(e *Event) { e.cancelable = true }
}

// WithDetail attaches custom data.
func WithDetail(detail any) Option {
	return func(e *Event) { e.detail = detail }
}

// WithErrorInfo attaches a script error payload.
func WithErrorInfo(info ErrorInfo) Option {
	return func(e *Event) { e.errInfo = &info }
}

// WithTrusted marks the event as generated by the host rather than by
// script. Dispatch resets it; DispatchWithTargetOverride keeps it.
func WithTrusted() Option {
	return func(e *Event) { e.isTrusted = true }
}

// New creates an initialized event of the given type.
func New(eventType string, opts ...Option) *Event {
	e := &Event{
		typ:         eventType,
		initialized: true,
		timeStamp:   time.Now(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewErrorEvent creates an initialized error event carrying info.
func NewErrorEvent(eventType string, info ErrorInfo, opts ...Option) *Event {
	return New(eventType, append([]Option{WithErrorInfo(info)}, opts...)...)
}

// InitEvent (re)initializes the event. It has no effect while the event is
// being dispatched.
func (e *Event) InitEvent(eventType string, bubbles, cancelable bool) {
	if e.dispatching {
		return
	}
	e.initialized = true
	e.stopPropagation = false
	e.stopImmediate = false
	e.canceled = false
	e.isTrusted = false
	e.target = nil
	e.typ = eventType
	e.bubbles = bubbles
	e.cancelable = cancelable
	if e.timeStamp.IsZero() {
		e.timeStamp = time.Now()
	}
}

func (e *Event) Type() string           { return e.typ }
func (e *Event) Bubbles() bool          { return e.bubbles }
func (e *Event) Cancelable() bool       { return e.cancelable }
func (e *Event) IsTrusted() bool        { return e.isTrusted }
func (e *Event) Detail() any            { return e.detail }
func (e *Event) TimeStamp() time.Time   { return e.timeStamp }
func (e *Event) Target() Target         { return e.target }
func (e *Event) CurrentTarget() Target  { return e.currentTarget }
func (e *Event) Phase() Phase           { return e.phase }
func (e *Event) DefaultPrevented() bool { return e.canceled }

// ErrorInfo returns the script error payload, if any.
func (e *Event) ErrorInfo() (ErrorInfo, bool) {
	if e.errInfo == nil {
		return ErrorInfo{}, false
	}
	return *e.errInfo, true
}

// Path returns the propagation path of the current dispatch, nearest parent
// first. It is empty outside of a dispatch.
func (e *Event) Path() []Target {
	if !e.dispatching {
		return nil
	}
	return append([]Target(nil), e.path...)
}

// Dispatching reports whether the event is in flight.
func (e *Event) Dispatching() bool { return e.dispatching }

// PreventDefault cancels the event. It is ignored unless the event is cancelable.
func (e *Event) PreventDefault() {
	if e.cancelable {
		e.canceled = true
	}
}

// StopPropagation prevents delivery to further nodes. Remaining listeners on
// the current node still run.
func (e *Event) StopPropagation() {
	e.stopPropagation = true
}

// StopImmediatePropagation prevents delivery to any further listener.
func (e *Event) StopImmediatePropagation() {
	e.stopPropagation = true
	e.stopImmediate = true
}

func (e *Event) PropagationStopped() bool          { return e.stopPropagation }
func (e *Event) ImmediatePropagationStopped() bool { return e.stopImmediate }
