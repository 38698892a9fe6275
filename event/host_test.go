package event

import (
	"context"
	"fmt"
	"sync"
)

// fakeNode is a minimal tree node for engine tests.
type fakeNode struct {
	TargetBase
	name   string
	parent *fakeNode
	view   *fakeNode // default view, on roots only
	owner  *fakeNode // owning global
	inline map[string]*InlineHandler
}

func (n *fakeNode) String() string { return n.name }

// fakeHost resolves fakeNode relations.
type fakeHost struct {
	scripting bool
}

func (h fakeHost) ParentOf(t Target) Target {
	n := t.(*fakeNode)
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (h fakeHost) DefaultViewOf(t Target) Target {
	n := t.(*fakeNode)
	if n.view == nil {
		return nil
	}
	return n.view
}

func (h fakeHost) GlobalOf(t Target) Target {
	n := t.(*fakeNode)
	if n.owner == nil {
		return nil
	}
	return n.owner
}

func (h fakeHost) ScriptingEnabled(Target) bool { return h.scripting }

func (h fakeHost) InlineHandlerOf(t Target, eventType string) *InlineHandler {
	return t.(*fakeNode).inline[eventType]
}

// fakeTree is window <- root <- mid <- leaf, every node owned by window.
type fakeTree struct {
	window, root, mid, leaf *fakeNode
}

func newFakeTree() *fakeTree {
	window := &fakeNode{name: "window"}
	window.owner = window
	root := &fakeNode{name: "root", view: window, owner: window}
	mid := &fakeNode{name: "mid", parent: root, owner: window}
	leaf := &fakeNode{name: "leaf", parent: mid, owner: window}
	return &fakeTree{window: window, root: root, mid: mid, leaf: leaf}
}

// recorder collects "node:label:phase" entries in call order.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// listener returns a function listener recording its invocation and then
// running then, if given.
func (r *recorder) listener(label string, then func(ev *Event) error) *FuncHandler {
	return NamedFunc(label, func(ctx context.Context, ev *Event) error {
		r.add(fmt.Sprintf("%s:%s:%s", TargetLabel(ev.CurrentTarget()), label, ev.Phase()))
		if then != nil {
			return then(ev)
		}
		return nil
	})
}

// sinkRecorder captures reports.
type sinkRecorder struct {
	mu      sync.Mutex
	globals []Target
	errs    []error
}

func (s *sinkRecorder) Report(_ context.Context, global Target, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.globals = append(s.globals, global)
	s.errs = append(s.errs, err)
}

func (s *sinkRecorder) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.errs)
}
