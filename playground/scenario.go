// Package playground runs declarative event scenarios against the engine: a
// small tree, listeners with scripted behaviors and a list of dispatches,
// reported back as an ordered invocation trace.
package playground

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KOMKZ/go-yogan-propagation/validator"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
)

// Reserved node ids. Every scenario has a document; the window exists unless
// NoWindow is set.
const (
	DocumentID = "document"
	WindowID   = "window"
)

// Action names understood by listeners and inline handlers.
const (
	ActionStopPropagation = "stop_propagation"
	ActionStopImmediate   = "stop_immediate"
	ActionPreventDefault  = "prevent_default"
	ActionFail            = "fail"
	ActionPanic           = "panic"
	ActionRedispatch      = "redispatch"
	ActionAddListener     = "add_listener"
	ActionRemoveListener  = "remove_listener"
	ActionDispatch        = "dispatch"
)

// Scenario is the document accepted by Runner.Run, from YAML (viper) or JSON.
type Scenario struct {
	Name       string         `mapstructure:"name" json:"name"`
	Scripting  bool           `mapstructure:"scripting" json:"scripting"`
	NoWindow   bool           `mapstructure:"no_window" json:"no_window"`
	Nodes      []NodeSpec     `mapstructure:"nodes" json:"nodes"`
	Listeners  []ListenerSpec `mapstructure:"listeners" json:"listeners"`
	Inline     []InlineSpec   `mapstructure:"inline" json:"inline"`
	Dispatches []DispatchSpec `mapstructure:"dispatches" json:"dispatches"`
}

// NodeSpec declares a node. Parent is a previously declared id or
// "document"; empty leaves the node detached.
type NodeSpec struct {
	ID     string `mapstructure:"id" json:"id"`
	Parent string `mapstructure:"parent" json:"parent"`
	Kind   string `mapstructure:"kind" json:"kind"`
}

// ListenerSpec declares a listener. Deferred listeners are only registered
// by an add_listener action.
type ListenerSpec struct {
	ID       string   `mapstructure:"id" json:"id"`
	Node     string   `mapstructure:"node" json:"node"`
	Type     string   `mapstructure:"type" json:"type"`
	Capture  bool     `mapstructure:"capture" json:"capture"`
	Deferred bool     `mapstructure:"deferred" json:"deferred"`
	Actions  []string `mapstructure:"actions" json:"actions"`
}

// InlineSpec fills a node's inline slot. Returns is the handler's return
// value, judged by the engine's truthiness rules.
type InlineSpec struct {
	Node    string   `mapstructure:"node" json:"node"`
	Type    string   `mapstructure:"type" json:"type"`
	Returns any      `mapstructure:"returns" json:"returns"`
	Actions []string `mapstructure:"actions" json:"actions"`
}

// DispatchSpec describes one dispatch. Nested dispatches only run through a
// dispatch:<index> action.
type DispatchSpec struct {
	Target     string     `mapstructure:"target" json:"target"`
	Override   string     `mapstructure:"override" json:"override"`
	Type       string     `mapstructure:"type" json:"type"`
	Bubbles    bool       `mapstructure:"bubbles" json:"bubbles"`
	Cancelable bool       `mapstructure:"cancelable" json:"cancelable"`
	Trusted    bool       `mapstructure:"trusted" json:"trusted"`
	Nested     bool       `mapstructure:"nested" json:"nested"`
	Detail     any        `mapstructure:"detail" json:"detail"`
	Error      *ErrorSpec `mapstructure:"error" json:"error"`
}

// ErrorSpec turns a dispatch into an error event.
type ErrorSpec struct {
	Message string `mapstructure:"message" json:"message"`
	Source  string `mapstructure:"source" json:"source"`
	Line    int    `mapstructure:"line" json:"line"`
	Column  int    `mapstructure:"column" json:"column"`
}

func (s *Scenario) Validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.Nodes),
		validation.Field(&s.Listeners),
		validation.Field(&s.Inline),
		validation.Field(&s.Dispatches, validation.Required),
	)
}

func (n NodeSpec) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.ID, validation.Required, validation.NotIn(DocumentID, WindowID).Error("is reserved")),
		validation.Field(&n.Kind, validation.In("", "element", "text", "comment")),
	)
}

func (l ListenerSpec) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.ID, validation.Required),
		validation.Field(&l.Node, validation.Required),
		validation.Field(&l.Type, validation.Required),
		validation.Field(&l.Actions, validation.Each(validation.By(checkAction))),
	)
}

func (i InlineSpec) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Node, validation.Required),
		validation.Field(&i.Type, validation.Required),
		validation.Field(&i.Actions, validation.Each(validation.By(checkAction))),
	)
}

func (d DispatchSpec) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Target, validation.Required),
		validation.Field(&d.Type, validation.Required),
	)
}

// Action is a parsed behavior such as "dispatch:2".
type Action struct {
	Name string
	Arg  string
}

// ParseAction splits "name[:arg]" and checks that name is known and that
// the argument is present exactly when the action needs one.
func ParseAction(s string) (Action, error) {
	name, arg, hasArg := strings.Cut(s, ":")
	a := Action{Name: name, Arg: arg}
	switch name {
	case ActionStopPropagation, ActionStopImmediate, ActionPreventDefault,
		ActionFail, ActionPanic, ActionRedispatch:
		if hasArg {
			return a, fmt.Errorf("action %q takes no argument", name)
		}
	case ActionAddListener, ActionRemoveListener:
		if arg == "" {
			return a, fmt.Errorf("action %q needs a listener id", name)
		}
	case ActionDispatch:
		if _, err := strconv.Atoi(arg); err != nil {
			return a, fmt.Errorf("action %q needs a dispatch index", name)
		}
	default:
		return a, fmt.Errorf("unknown action %q", s)
	}
	return a, nil
}

func checkAction(value interface{}) error {
	s, _ := value.(string)
	_, err := ParseAction(s)
	return err
}

// ValidateScenario runs the structural checks and converts the result into
// an ErrInvalidScenario carrying per-field messages.
func ValidateScenario(s *Scenario) error {
	if s == nil {
		return ErrInvalidScenario.WithMsgf("scenario is nil")
	}
	if err := validator.ValidateRequest(s); err != nil {
		return ErrInvalidScenario.WithData("fields", validator.Fields(err)).Wrap(err)
	}
	return nil
}

// LoadFile reads a YAML or JSON scenario through viper.
func LoadFile(path string) (*Scenario, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, ErrScenarioFile.WithMsgf("cannot load scenario %s", path).Wrap(err)
	}
	var s Scenario
	if err := v.Unmarshal(&s); err != nil {
		return nil, ErrScenarioFile.WithMsgf("cannot decode scenario %s", path).Wrap(err)
	}
	if s.Name == "" {
		s.Name = path
	}
	return &s, nil
}
