package errcode

import (
	"fmt"
	"sync"
)

// Registry guards against two packages claiming the same code.
type Registry struct {
	mu    sync.RWMutex
	codes map[int]string // code -> module:msgKey
}

var globalRegistry = NewRegistry()

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{codes: make(map[int]string)}
}

// Register adds err to the global registry and returns it, so package-level
// error variables can be declared in one expression.
func Register(err *LayeredError) *LayeredError {
	return globalRegistry.Register(err)
}

// Register panics when code is already bound to a different module:msgKey.
// Registering the same pair twice is a no-op.
func (r *Registry) Register(err *LayeredError) *LayeredError {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := err.Module() + ":" + err.MsgKey()
	if existing, ok := r.codes[err.Code()]; ok {
		if existing != key {
			panic(fmt.Sprintf("error code conflict: %d is registered as %s, cannot register as %s",
				err.Code(), existing, key))
		}
		return err
	}
	r.codes[err.Code()] = key
	return err
}

// Lookup returns the module:msgKey bound to code.
func (r *Registry) Lookup(code int) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key, ok := r.codes[code]
	return key, ok
}

// Count returns the number of registered codes.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.codes)
}

// LookupCode queries the global registry.
func LookupCode(code int) (string, bool) {
	return globalRegistry.Lookup(code)
}
