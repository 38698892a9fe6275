package playground

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/KOMKZ/go-yogan-propagation/event"
	"github.com/KOMKZ/go-yogan-propagation/logger"
	"github.com/KOMKZ/go-yogan-propagation/tree"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	defaultMaxDepth      = 8
	defaultMaxDispatches = 256
)

var (
	errScripted = errors.New("scripted failure")
)

// Runner executes scenarios. Every run builds a fresh tree and engine, so a
// Runner is safe for concurrent use.
type Runner struct {
	engineOpts []event.EngineOption
	sink       event.ExceptionSink
	logger     *logger.CtxZapLogger
	metrics    *RunnerMetrics
	tracer     trace.Tracer
	maxDepth   int
	maxTotal   int
}

// RunnerOption configures NewRunner.
type RunnerOption func(*Runner)

// WithEngineOptions adds options to every engine the runner builds. The
// runner always installs its own host and sink after them.
func WithEngineOptions(opts ...event.EngineOption) RunnerOption {
	return func(r *Runner) { r.engineOpts = append(r.engineOpts, opts...) }
}

// WithSink forwards every listener failure to s as well as to the result.
func WithSink(s event.ExceptionSink) RunnerOption {
	return func(r *Runner) { r.sink = s }
}

func WithLogger(l *logger.CtxZapLogger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

func WithMetrics(m *RunnerMetrics) RunnerOption {
	return func(r *Runner) { r.metrics = m }
}

func WithTracer(t trace.Tracer) RunnerOption {
	return func(r *Runner) { r.tracer = t }
}

// WithMaxDepth bounds nested dispatch:<index> chains.
func WithMaxDepth(n int) RunnerOption {
	return func(r *Runner) { r.maxDepth = n }
}

// WithMaxDispatches bounds the nested dispatches a single run may perform,
// counted across every level.
func WithMaxDispatches(n int) RunnerOption {
	return func(r *Runner) { r.maxTotal = n }
}

func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{maxDepth: defaultMaxDepth, maxTotal: defaultMaxDispatches}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.GetLogger("playground")
	}
	if r.metrics == nil {
		r.metrics = NewRunnerMetrics(false)
	}
	if r.tracer == nil {
		r.tracer = otel.Tracer("playground")
	}
	if r.maxDepth <= 0 {
		r.maxDepth = defaultMaxDepth
	}
	if r.maxTotal <= 0 {
		r.maxTotal = defaultMaxDispatches
	}
	return r
}

func (r *Runner) Metrics() *RunnerMetrics { return r.metrics }

// Run validates s, builds its tree and listeners, then performs every
// non-nested dispatch in order.
func (r *Runner) Run(ctx context.Context, s *Scenario) (*Result, error) {
	start := time.Now()
	ctx, span := r.tracer.Start(ctx, "playground.run")
	defer span.End()

	res, err := r.run(ctx, s)
	r.metrics.record(ctx, time.Since(start), res, err)
	if err != nil {
		span.RecordError(err)
		r.logger.WarnCtx(ctx, "scenario rejected", zap.Error(err))
		return nil, err
	}
	span.SetAttributes(
		attribute.String("playground.scenario", res.Scenario),
		attribute.Int("playground.dispatches", len(res.Dispatches)),
	)
	r.logger.DebugCtx(ctx, "scenario finished",
		zap.String("scenario", res.Scenario),
		zap.Int("dispatches", len(res.Dispatches)),
		zap.Duration("elapsed", time.Since(start)))
	return res, nil
}

func (r *Runner) run(ctx context.Context, s *Scenario) (*Result, error) {
	if err := ValidateScenario(s); err != nil {
		return nil, err
	}
	sess, err := r.newSession(s)
	if err != nil {
		return nil, err
	}
	res := &Result{Scenario: s.Name}
	for i, d := range s.Dispatches {
		if d.Nested {
			continue
		}
		res.Dispatches = append(res.Dispatches, sess.dispatch(ctx, i))
	}
	return res, nil
}

type boundListener struct {
	spec    ListenerSpec
	node    *tree.Node
	handler event.Handler
}

// session is the state of one run: the tree, the engine and the stack of
// in-flight dispatches.
type session struct {
	runner    *Runner
	scenario  *Scenario
	engine    *event.Engine
	nodes     map[string]*tree.Node
	labels    map[event.Target]string
	listeners map[string]*boundListener

	results []*DispatchResult
	events  []*event.Event
	nested  int
}

func (r *Runner) newSession(s *Scenario) (*session, error) {
	sess := &session{
		runner:    r,
		scenario:  s,
		nodes:     make(map[string]*tree.Node),
		labels:    make(map[event.Target]string),
		listeners: make(map[string]*boundListener),
	}

	docOpts := []tree.Option{tree.WithScripting(s.Scripting)}
	if s.NoWindow {
		docOpts = append(docOpts, tree.WithoutWindow())
	}
	doc := tree.NewDocument(docOpts...)
	sess.bind(DocumentID, doc)
	if w := doc.Window(); w != nil {
		sess.bind(WindowID, w)
	}

	for _, spec := range s.Nodes {
		if _, dup := sess.nodes[spec.ID]; dup {
			return nil, ErrInvalidScenario.WithMsgf("duplicate node id %q", spec.ID)
		}
		var n *tree.Node
		switch spec.Kind {
		case "text":
			n = doc.CreateText(spec.ID)
		case "comment":
			n = doc.CreateComment(spec.ID)
		default:
			n = doc.CreateElement(spec.ID)
		}
		if spec.Parent != "" {
			parent, err := sess.node(spec.Parent)
			if err != nil {
				return nil, err
			}
			if err := parent.AppendChild(n); err != nil {
				return nil, ErrInvalidScenario.WithMsgf("node %q: %v", spec.ID, err).Wrap(err)
			}
		}
		sess.bind(spec.ID, n)
	}

	for _, spec := range s.Listeners {
		if _, dup := sess.listeners[spec.ID]; dup {
			return nil, ErrInvalidScenario.WithMsgf("duplicate listener id %q", spec.ID)
		}
		n, err := sess.node(spec.Node)
		if err != nil {
			return nil, err
		}
		bl := &boundListener{spec: spec, node: n}
		bl.handler = event.NamedFunc(spec.ID, sess.listenerFunc(spec.ID, spec.Actions))
		sess.listeners[spec.ID] = bl
	}

	for _, d := range s.Dispatches {
		if _, err := sess.node(d.Target); err != nil {
			return nil, err
		}
		if d.Override != "" {
			if _, err := sess.node(d.Override); err != nil {
				return nil, err
			}
		}
	}

	allActions := make([][]string, 0, len(s.Listeners)+len(s.Inline))
	for _, spec := range s.Listeners {
		allActions = append(allActions, spec.Actions)
	}
	for _, spec := range s.Inline {
		allActions = append(allActions, spec.Actions)
	}
	for _, list := range allActions {
		if _, err := sess.parseActions(list); err != nil {
			return nil, err
		}
	}

	sink := event.MultiSink{event.SinkFunc(sess.collect), r.sink}
	opts := append(append([]event.EngineOption{}, r.engineOpts...), event.WithHost(tree.Host{}), event.WithSink(sink))
	sess.engine = event.NewEngine(opts...)

	for _, spec := range s.Listeners {
		if spec.Deferred {
			continue
		}
		bl := sess.listeners[spec.ID]
		if err := sess.engine.AddEventListener(bl.node, spec.Type, bl.handler, spec.Capture); err != nil {
			return nil, ErrInvalidScenario.WithMsgf("listener %q: %v", spec.ID, err).Wrap(err)
		}
	}

	for _, spec := range s.Inline {
		n, err := sess.node(spec.Node)
		if err != nil {
			return nil, err
		}
		n.SetInlineHandler(spec.Type, event.NewInlineHandler("on"+spec.Type, sess.inlineFunc(spec)))
	}
	return sess, nil
}

func (s *session) bind(id string, n *tree.Node) {
	s.nodes[id] = n
	s.labels[n] = id
}

func (s *session) node(id string) (*tree.Node, error) {
	n, ok := s.nodes[id]
	if !ok {
		return nil, ErrUnknownNode.WithMsgf("unknown node %q", id).WithData("node", id)
	}
	return n, nil
}

func (s *session) label(t event.Target) string {
	if id, ok := s.labels[t]; ok {
		return id
	}
	return event.TargetLabel(t)
}

// parseActions resolves the references of list against the scenario,
// caching the parsed form.
func (s *session) parseActions(list []string) ([]Action, error) {
	out := make([]Action, 0, len(list))
	for _, raw := range list {
		a, err := ParseAction(raw)
		if err != nil {
			return nil, ErrInvalidScenario.WithMsgf("%v", err)
		}
		switch a.Name {
		case ActionAddListener, ActionRemoveListener:
			if _, ok := s.listeners[a.Arg]; !ok {
				return nil, ErrUnknownListener.WithMsgf("unknown listener %q", a.Arg).WithData("listener", a.Arg)
			}
		case ActionDispatch:
			idx, _ := strconv.Atoi(a.Arg)
			if idx < 0 || idx >= len(s.scenario.Dispatches) {
				return nil, ErrInvalidScenario.WithMsgf("dispatch index %d out of range", idx)
			}
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *session) listenerFunc(id string, raw []string) event.HandlerFunc {
	return func(ctx context.Context, ev *event.Event) error {
		s.step(Step{Listener: id, Node: s.label(ev.CurrentTarget()), Phase: ev.Phase().String()})
		return s.perform(ctx, ev, raw)
	}
}

func (s *session) inlineFunc(spec InlineSpec) event.InlineFunc {
	name := "on" + spec.Type
	return func(ctx context.Context, this event.Target, args event.InlineArgs) (any, error) {
		ev := args.Event
		if ev == nil {
			ev = s.currentEvent()
		}
		s.step(Step{Listener: name, Node: s.label(this), Phase: ev.Phase().String(), Inline: true})
		if err := s.perform(ctx, ev, spec.Actions); err != nil {
			return nil, err
		}
		return spec.Returns, nil
	}
}

// perform runs the scripted actions against ev. A failing action ends the
// list and its error becomes the callback's failure.
func (s *session) perform(ctx context.Context, ev *event.Event, raw []string) error {
	actions, err := s.parseActions(raw)
	if err != nil {
		return err
	}
	for _, a := range actions {
		switch a.Name {
		case ActionStopPropagation:
			ev.StopPropagation()
		case ActionStopImmediate:
			ev.StopImmediatePropagation()
		case ActionPreventDefault:
			ev.PreventDefault()
		case ActionFail:
			return errScripted
		case ActionPanic:
			panic("scripted panic")
		case ActionRedispatch:
			if _, err := s.engine.Dispatch(ctx, ev.Target(), ev); err != nil {
				return err
			}
		case ActionAddListener:
			bl := s.listeners[a.Arg]
			if err := s.engine.AddEventListener(bl.node, bl.spec.Type, bl.handler, bl.spec.Capture); err != nil {
				return err
			}
		case ActionRemoveListener:
			bl := s.listeners[a.Arg]
			if err := s.engine.RemoveEventListener(bl.node, bl.spec.Type, bl.handler, bl.spec.Capture); err != nil {
				return err
			}
		case ActionDispatch:
			if len(s.results) >= s.runner.maxDepth {
				return ErrDepthExceeded.WithMsgf("nested dispatch depth %d exceeded", s.runner.maxDepth)
			}
			if s.nested >= s.runner.maxTotal {
				return ErrDispatchLimit.WithMsgf("nested dispatch limit %d reached", s.runner.maxTotal)
			}
			s.nested++
			idx, _ := strconv.Atoi(a.Arg)
			nested := s.dispatch(ctx, idx)
			parent := s.results[len(s.results)-1]
			parent.Nested = append(parent.Nested, nested)
		}
	}
	return nil
}

func (s *session) newEvent(spec DispatchSpec) *event.Event {
	var opts []event.Option
	if spec.Bubbles {
		opts = append(opts, event.WithBubbles())
	}
	if spec.Cancelable {
		opts = append(opts, event.WithCancelable())
	}
	if spec.Trusted {
		opts = append(opts, event.WithTrusted())
	}
	if spec.Detail != nil {
		opts = append(opts, event.WithDetail(spec.Detail))
	}
	if spec.Error != nil {
		return event.NewErrorEvent(spec.Type, event.ErrorInfo{
			Message: spec.Error.Message,
			Source:  spec.Error.Source,
			Line:    spec.Error.Line,
			Column:  spec.Error.Column,
			Err:     errors.New(spec.Error.Message),
		}, opts...)
	}
	return event.New(spec.Type, opts...)
}

// dispatch performs scenario dispatch idx and returns its record once the
// engine is done with it.
func (s *session) dispatch(ctx context.Context, idx int) DispatchResult {
	spec := s.scenario.Dispatches[idx]
	target := s.nodes[spec.Target]
	ev := s.newEvent(spec)

	dr := &DispatchResult{Index: idx, Type: spec.Type, Target: spec.Target, Steps: []Step{}}
	s.results = append(s.results, dr)
	s.events = append(s.events, ev)
	defer func() {
		s.results = s.results[:len(s.results)-1]
		s.events = s.events[:len(s.events)-1]
	}()

	var (
		ok  bool
		err error
	)
	if spec.Override != "" {
		ok, err = s.engine.DispatchWithTargetOverride(ctx, target, ev, s.nodes[spec.Override])
	} else {
		ok, err = s.engine.Dispatch(ctx, target, ev)
	}
	if err != nil {
		dr.Error = err.Error()
		return *dr
	}
	dr.NotCanceled = ok
	dr.DefaultPrevented = ev.DefaultPrevented()
	return *dr
}

func (s *session) current() *DispatchResult {
	if len(s.results) == 0 {
		return nil
	}
	return s.results[len(s.results)-1]
}

func (s *session) currentEvent() *event.Event {
	return s.events[len(s.events)-1]
}

func (s *session) step(st Step) {
	if cur := s.current(); cur != nil {
		cur.Steps = append(cur.Steps, st)
	}
}

func (s *session) collect(_ context.Context, global event.Target, err error) {
	cur := s.current()
	if cur == nil {
		return
	}
	f := Failure{Global: s.label(global), Message: err.Error()}
	var lerr *event.ListenerError
	if errors.As(err, &lerr) {
		f.Listener = lerr.Listener
		f.Phase = lerr.Phase.String()
	}
	cur.Failures = append(cur.Failures, f)
}
