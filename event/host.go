package event

import "context"

// ParentResolver answers the parent relation of the hosting tree.
// ParentOf returns nil at the root.
type ParentResolver interface {
	ParentOf(t Target) Target
}

// GlobalResolver locates global-scope nodes. DefaultViewOf returns the global
// node attached to a root (nil when there is none); GlobalOf returns the
// global that owns t, used as the reporting context for listener failures.
type GlobalResolver interface {
	DefaultViewOf(t Target) Target
	GlobalOf(t Target) Target
}

// ScriptingPolicy gates inline handler participation.
type ScriptingPolicy interface {
	ScriptingEnabled(t Target) bool
}

// InlineSlots reads the single inline handler slot of a target.
type InlineSlots interface {
	InlineHandlerOf(t Target, eventType string) *InlineHandler
}

// Host bundles every collaborator the engine consumes.
type Host interface {
	ParentResolver
	GlobalResolver
	ScriptingPolicy
	InlineSlots
}

// ExceptionSink receives isolated listener failures. Report is
// fire-and-forget.
type ExceptionSink interface {
	Report(ctx context.Context, global Target, err error)
}

type noParents struct{}

func (noParents) ParentOf(Target) Target { return nil }

type noGlobals struct{}

func (noGlobals) DefaultViewOf(Target) Target { return nil }
func (noGlobals) GlobalOf(Target) Target      { return nil }

type scriptingDisabled struct{}

func (scriptingDisabled) ScriptingEnabled(Target) bool { return false }

type noInlineSlots struct{}

func (noInlineSlots) InlineHandlerOf(Target, string) *InlineHandler { return nil }
