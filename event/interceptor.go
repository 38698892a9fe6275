package event

import "context"

// Next continues to the next interceptor or to the listener itself.
type Next func(ctx context.Context, ev *Event) error

// Interceptor wraps every listener invocation. It runs inside the isolation
// boundary, so its own errors and panics are reported like listener failures.
type Interceptor func(ctx context.Context, ev *Event, listener string, next Next) error

// chain builds the invocation of h through interceptors, first one outermost.
func chain(interceptors []Interceptor, listener string, h Handler) Next {
	next := Next(h.HandleEvent)
	for i := len(interceptors) - 1; i >= 0; i-- {
		ic := interceptors[i]
		inner := next
		next = func(ctx context.Context, ev *Event) error {
			return ic(ctx, ev, listener, inner)
		}
	}
	return next
}
