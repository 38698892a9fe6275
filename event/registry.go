package event

import (
	"sort"
	"sync"
)

// ListenerEntry is one registration on a target.
type ListenerEntry struct {
	Handler Handler
	Capture bool
	Seq     uint64
}

// Registry holds the listeners of one target, per event type, in
// registration order. (Handler, Capture) is unique per type.
type Registry struct {
	mu      sync.RWMutex
	entries map[string][]ListenerEntry
	nextSeq uint64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string][]ListenerEntry)}
}

// Add registers h for eventType. Empty handlers and duplicates are ignored.
func (r *Registry) Add(eventType string, h Handler, capture bool) error {
	kind, err := resolveCallback(h)
	if err != nil {
		return err
	}
	if kind == callbackEmpty {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries[eventType] {
		if e.Capture == capture && sameHandler(e.Handler, h) {
			return nil
		}
	}
	r.nextSeq++
	r.entries[eventType] = append(r.entries[eventType], ListenerEntry{
		Handler: h,
		Capture: capture,
		Seq:     r.nextSeq,
	})
	return nil
}

// Remove unregisters the (h, capture) entry for eventType, if present.
func (r *Registry) Remove(eventType string, h Handler, capture bool) error {
	kind, err := resolveCallback(h)
	if err != nil {
		return err
	}
	if kind == callbackEmpty {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.entries[eventType]
	for i, e := range list {
		if e.Capture == capture && sameHandler(e.Handler, h) {
			// Rebuild rather than shift in place: snapshots taken earlier
			// share the old backing array.
			next := make([]ListenerEntry, 0, len(list)-1)
			next = append(next, list[:i]...)
			next = append(next, list[i+1:]...)
			if len(next) == 0 {
				delete(r.entries, eventType)
			} else {
				r.entries[eventType] = next
			}
			return nil
		}
	}
	return nil
}

// Snapshot returns an independent copy of the listeners for eventType.
func (r *Registry) Snapshot(eventType string) []ListenerEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.entries[eventType]
	if len(list) == 0 {
		return nil
	}
	out := make([]ListenerEntry, len(list))
	copy(out, list)
	return out
}

// Has reports whether (h, capture) is registered for eventType.
func (r *Registry) Has(eventType string, h Handler, capture bool) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries[eventType] {
		if e.Capture == capture && sameHandler(e.Handler, h) {
			return true
		}
	}
	return false
}

// Len returns the number of listeners registered for eventType.
func (r *Registry) Len(eventType string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries[eventType])
}

// Types returns the event types with at least one listener, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.entries))
	for t := range r.entries {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Clear drops every listener for eventType.
func (r *Registry) Clear(eventType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, eventType)
}
