package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/KOMKZ/go-yogan-propagation/playground"
	"github.com/fatih/color"
)

var phaseColors = map[string]*color.Color{
	"capturing": color.New(color.FgCyan),
	"at_target": color.New(color.FgGreen, color.Bold),
	"bubbling":  color.New(color.FgYellow),
}

func renderResult(w io.Writer, res *playground.Result) {
	fmt.Fprintf(w, "scenario %s\n", color.New(color.Bold).Sprint(res.Scenario))
	for _, d := range res.Dispatches {
		renderDispatch(w, d, 1)
	}
}

func renderDispatch(w io.Writer, d playground.DispatchResult, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%s#%d %s -> %s\n", indent, d.Index, d.Type, d.Target)
	if d.Error != "" {
		fmt.Fprintf(w, "%s  %s %s\n", indent, color.RedString("rejected:"), d.Error)
		return
	}
	for _, s := range d.Steps {
		phase := s.Phase
		if c, ok := phaseColors[s.Phase]; ok {
			phase = c.Sprint(s.Phase)
		}
		name := s.Listener
		if s.Inline {
			name += " (inline)"
		}
		fmt.Fprintf(w, "%s  %-10s %s %s\n", indent, s.Node, phase, name)
	}
	for _, f := range d.Failures {
		fmt.Fprintf(w, "%s  %s %s@%s: %s\n", indent, color.RedString("failure"), f.Listener, f.Global, f.Message)
	}
	for _, n := range d.Nested {
		renderDispatch(w, n, depth+1)
	}
	outcome := color.GreenString("not canceled")
	if !d.NotCanceled {
		outcome = color.YellowString("canceled")
	}
	fmt.Fprintf(w, "%s  => %s\n", indent, outcome)
}
