package event

import (
	"net/http"

	"github.com/KOMKZ/go-yogan-propagation/errcode"
)

const moduleCode = 30

var (
	// ErrInvalidCallback is returned by Add/Remove when the handler is neither
	// empty nor usable as a listener identity.
	ErrInvalidCallback = errcode.Register(errcode.New(moduleCode, 1, "event",
		"error.event.invalid_callback", "callback is neither empty nor invokable", http.StatusBadRequest))

	// ErrInvalidState is returned by Dispatch for an event that is already
	// being dispatched or was never initialized.
	ErrInvalidState = errcode.Register(errcode.New(moduleCode, 2, "event",
		"error.event.invalid_state", "event is being dispatched or is not initialized", http.StatusConflict))

	// ErrInvalidEvent is returned by Dispatch when no event is supplied.
	ErrInvalidEvent = errcode.Register(errcode.New(moduleCode, 3, "event",
		"error.event.invalid_event", "argument to dispatch must be an event", http.StatusBadRequest))

	// ErrListenerFailed wraps an error returned by a listener.
	ErrListenerFailed = errcode.Register(errcode.New(moduleCode, 4, "event",
		"error.event.listener_failed", "event listener failed"))

	// ErrListenerPanic wraps a value recovered from a panicking listener.
	ErrListenerPanic = errcode.Register(errcode.New(moduleCode, 5, "event",
		"error.event.listener_panic", "event listener panicked"))

	// ErrInvalidTarget is returned when a nil target is passed to the engine.
	ErrInvalidTarget = errcode.Register(errcode.New(moduleCode, 6, "event",
		"error.event.invalid_target", "target must not be nil", http.StatusBadRequest))
)

// ListenerError describes one isolated listener failure. It is what the
// engine hands to the ExceptionSink.
type ListenerError struct {
	EventType string
	Phase     Phase
	Listener  string
	Cause     error
}

func (e *ListenerError) Error() string {
	return "listener " + e.Listener + " failed during " + e.EventType + " (" + e.Phase.String() + "): " + e.Cause.Error()
}

func (e *ListenerError) Unwrap() error {
	return e.Cause
}
