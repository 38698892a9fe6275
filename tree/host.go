package tree

import "github.com/KOMKZ/go-yogan-propagation/event"

// Host resolves the engine's collaborators from *Node targets. Targets of
// any other type have no parent, no globals, no scripting and no slots.
// The zero value is ready to use.
type Host struct{}

var _ event.Host = Host{}

func asNode(t event.Target) *Node {
	n, _ := t.(*Node)
	return n
}

// ParentOf returns the tree parent. Windows and detached roots have none.
func (Host) ParentOf(t event.Target) event.Target {
	n := asNode(t)
	if n == nil {
		return nil
	}
	if p := n.Parent(); p != nil {
		return p
	}
	return nil
}

// DefaultViewOf returns the window of a document node.
func (Host) DefaultViewOf(t event.Target) event.Target {
	n := asNode(t)
	if n == nil || n.kind != DocumentNode || n.doc.window == nil {
		return nil
	}
	return n.doc.window
}

// GlobalOf returns the window owning t; a window owns itself.
func (Host) GlobalOf(t event.Target) event.Target {
	n := asNode(t)
	if n == nil || n.doc.window == nil {
		return nil
	}
	return n.doc.window
}

func (Host) ScriptingEnabled(t event.Target) bool {
	n := asNode(t)
	return n != nil && n.ScriptingEnabled()
}

func (Host) InlineHandlerOf(t event.Target, eventType string) *event.InlineHandler {
	n := asNode(t)
	if n == nil {
		return nil
	}
	return n.InlineHandler(eventType)
}
