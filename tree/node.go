// Package tree is an in-memory document tree that hosts event dispatch:
// a document with an optional window, elements, text and comment nodes.
package tree

import (
	"net/http"
	"sync"

	"github.com/KOMKZ/go-yogan-propagation/errcode"
	"github.com/KOMKZ/go-yogan-propagation/event"
)

const moduleCode = 32

var (
	// ErrHierarchy is returned when an insertion would produce an invalid tree.
	ErrHierarchy = errcode.Register(errcode.New(moduleCode, 1, "tree",
		"error.tree.hierarchy", "node cannot be inserted here", http.StatusBadRequest))

	// ErrNotChild is returned by RemoveChild for a node that is not a child.
	ErrNotChild = errcode.Register(errcode.New(moduleCode, 2, "tree",
		"error.tree.not_child", "node is not a child of this node", http.StatusNotFound))
)

// Kind is the node type.
type Kind int

const (
	DocumentNode Kind = iota
	ElementNode
	TextNode
	CommentNode
	WindowNode
)

func (k Kind) String() string {
	switch k {
	case DocumentNode:
		return "document"
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	case CommentNode:
		return "comment"
	case WindowNode:
		return "window"
	default:
		return "unknown"
	}
}

// document is shared by every node it owns. mu guards the structure and the
// inline slots of all of them.
type document struct {
	mu        sync.RWMutex
	node      *Node
	window    *Node
	scripting bool
}

// Node is an event target in a document tree.
type Node struct {
	event.TargetBase

	kind Kind
	name string
	doc  *document

	parent   *Node
	children []*Node
	inline   map[string]*event.InlineHandler
}

// Option configures NewDocument.
type Option func(*document)

// WithScripting turns inline handlers on or off for the whole document.
func WithScripting(enabled bool) Option {
	return func(d *document) { d.scripting = enabled }
}

// WithoutWindow creates a document without a default view.
func WithoutWindow() Option {
	return func(d *document) { d.window = nil }
}

// NewDocument creates a document node with an attached window. Scripting is
// enabled unless turned off.
func NewDocument(opts ...Option) *Node {
	d := &document{scripting: true}
	d.node = &Node{kind: DocumentNode, name: "#document", doc: d}
	d.window = &Node{kind: WindowNode, name: "window", doc: d}
	for _, opt := range opts {
		opt(d)
	}
	return d.node
}

func (n *Node) create(kind Kind, name string) *Node {
	return &Node{kind: kind, name: name, doc: n.doc}
}

// CreateElement creates a detached element owned by n's document.
func (n *Node) CreateElement(name string) *Node { return n.create(ElementNode, name) }

// CreateText creates a detached text node.
func (n *Node) CreateText(data string) *Node { return n.create(TextNode, data) }

// CreateComment creates a detached comment node.
func (n *Node) CreateComment(data string) *Node { return n.create(CommentNode, data) }

func (n *Node) Kind() Kind { return n.kind }

func (n *Node) Name() string { return n.name }

// String labels the node in logs and traces.
func (n *Node) String() string { return n.name }

// OwnerDocument returns the document node; a document owns itself.
func (n *Node) OwnerDocument() *Node { return n.doc.node }

// Window returns the document's window, or nil.
func (n *Node) Window() *Node { return n.doc.window }

// ScriptingEnabled reports the document's scripting flag.
func (n *Node) ScriptingEnabled() bool {
	n.doc.mu.RLock()
	defer n.doc.mu.RUnlock()
	return n.doc.scripting
}

// SetScripting flips the document's scripting flag.
func (n *Node) SetScripting(enabled bool) {
	n.doc.mu.Lock()
	n.doc.scripting = enabled
	n.doc.mu.Unlock()
}

// Parent returns the parent node, or nil.
func (n *Node) Parent() *Node {
	n.doc.mu.RLock()
	defer n.doc.mu.RUnlock()
	return n.parent
}

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	n.doc.mu.RLock()
	defer n.doc.mu.RUnlock()
	return append([]*Node(nil), n.children...)
}

// AppendChild moves child under n, detaching it from its previous parent.
// Documents and windows cannot be children, text and comment nodes cannot
// have children, a node cannot become its own descendant, and both nodes
// must share a document.
func (n *Node) AppendChild(child *Node) error {
	if child == nil {
		return ErrHierarchy.WithMsgf("child is nil")
	}
	if child.kind == DocumentNode || child.kind == WindowNode {
		return ErrHierarchy.WithMsgf("%s node cannot be a child", child.kind)
	}
	if n.kind != DocumentNode && n.kind != ElementNode {
		return ErrHierarchy.WithMsgf("%s node cannot have children", n.kind)
	}
	if child.doc != n.doc {
		return ErrHierarchy.WithMsgf("%s belongs to another document", child.name)
	}

	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	for p := n; p != nil; p = p.parent {
		if p == child {
			return ErrHierarchy.WithMsgf("%s is an ancestor of %s", child.name, n.name)
		}
	}
	if child.parent != nil {
		child.parent.children = without(child.parent.children, child)
	}
	child.parent = n
	n.children = append(n.children, child)
	return nil
}

// RemoveChild detaches child from n.
func (n *Node) RemoveChild(child *Node) error {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	if child == nil || child.parent != n {
		return ErrNotChild
	}
	n.children = without(n.children, child)
	child.parent = nil
	return nil
}

func without(nodes []*Node, target *Node) []*Node {
	out := make([]*Node, 0, len(nodes))
	for _, c := range nodes {
		if c != target {
			out = append(out, c)
		}
	}
	return out
}

// SetInlineHandler fills the node's single slot for eventType. A nil handler
// clears it.
func (n *Node) SetInlineHandler(eventType string, h *event.InlineHandler) {
	n.doc.mu.Lock()
	defer n.doc.mu.Unlock()
	if h == nil {
		delete(n.inline, eventType)
		return
	}
	if n.inline == nil {
		n.inline = make(map[string]*event.InlineHandler)
	}
	n.inline[eventType] = h
}

// InlineHandler reads the slot for eventType.
func (n *Node) InlineHandler(eventType string) *event.InlineHandler {
	n.doc.mu.RLock()
	defer n.doc.mu.RUnlock()
	return n.inline[eventType]
}
