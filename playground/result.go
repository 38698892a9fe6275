package playground

// Result is the outcome of one scenario run, one entry per top-level dispatch.
type Result struct {
	Scenario   string           `json:"scenario"`
	Dispatches []DispatchResult `json:"dispatches"`
}

// DispatchResult records a single dispatch. Error is set when the engine
// rejected the dispatch; NotCanceled is meaningful only without it.
type DispatchResult struct {
	Index            int              `json:"index"`
	Type             string           `json:"type"`
	Target           string           `json:"target"`
	NotCanceled      bool             `json:"not_canceled"`
	DefaultPrevented bool             `json:"default_prevented"`
	Error            string           `json:"error,omitempty"`
	Steps            []Step           `json:"steps"`
	Failures         []Failure        `json:"failures,omitempty"`
	Nested           []DispatchResult `json:"nested,omitempty"`
}

// Step is one callback invocation.
type Step struct {
	Listener string `json:"listener"`
	Node     string `json:"node"`
	Phase    string `json:"phase"`
	Inline   bool   `json:"inline,omitempty"`
}

// Label renders the step as node:listener:phase.
func (s Step) Label() string {
	return s.Node + ":" + s.Listener + ":" + s.Phase
}

// Labels lists the labels of every step in order.
func (d DispatchResult) Labels() []string {
	out := make([]string, len(d.Steps))
	for i, s := range d.Steps {
		out[i] = s.Label()
	}
	return out
}

// Failure is a listener failure as seen by the exception sink.
type Failure struct {
	Listener string `json:"listener,omitempty"`
	Phase    string `json:"phase,omitempty"`
	Global   string `json:"global"`
	Message  string `json:"message"`
}
