package event

// PathBuilder computes propagation paths.
type PathBuilder struct {
	parents   ParentResolver
	globals   GlobalResolver
	loadEvent string
}

// NewPathBuilder creates a builder. Events of type loadEvent never reach the
// global node.
func NewPathBuilder(parents ParentResolver, globals GlobalResolver, loadEvent string) *PathBuilder {
	if parents == nil {
		parents = noParents{}
	}
	if globals == nil {
		globals = noGlobals{}
	}
	return &PathBuilder{parents: parents, globals: globals, loadEvent: loadEvent}
}

// Build returns the ancestors of target, nearest parent first, followed by
// the global node of the outermost ancestor when eventType is not the load
// event. The result is built fresh on every call.
func (b *PathBuilder) Build(target Target, eventType string) []Target {
	var path []Target
	outermost := target
	for node := b.parents.ParentOf(target); node != nil; node = b.parents.ParentOf(node) {
		path = append(path, node)
		outermost = node
	}
	if eventType != b.loadEvent {
		if view := b.globals.DefaultViewOf(outermost); view != nil {
			path = append(path, view)
		}
	}
	return path
}
