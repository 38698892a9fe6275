package playground

import (
	"net/http"

	"github.com/KOMKZ/go-yogan-propagation/errcode"
)

const moduleCode = 31

var (
	// ErrInvalidScenario wraps validation and tree-building failures.
	ErrInvalidScenario = errcode.Register(errcode.New(moduleCode, 1, "playground",
		"error.playground.invalid_scenario", "invalid scenario", http.StatusBadRequest))

	// ErrUnknownNode is returned when a scenario names a node it never declares.
	ErrUnknownNode = errcode.Register(errcode.New(moduleCode, 2, "playground",
		"error.playground.unknown_node", "unknown node", http.StatusBadRequest))

	// ErrUnknownListener is returned for actions naming an undeclared listener.
	ErrUnknownListener = errcode.Register(errcode.New(moduleCode, 3, "playground",
		"error.playground.unknown_listener", "unknown listener", http.StatusBadRequest))

	// ErrDepthExceeded is a listener failure raised by runaway nested dispatches.
	ErrDepthExceeded = errcode.Register(errcode.New(moduleCode, 4, "playground",
		"error.playground.depth_exceeded", "nested dispatch depth exceeded", http.StatusUnprocessableEntity))

	// ErrScenarioFile is returned when a scenario file cannot be read.
	ErrScenarioFile = errcode.Register(errcode.New(moduleCode, 5, "playground",
		"error.playground.scenario_file", "cannot load scenario file", http.StatusBadRequest))

	// ErrDispatchLimit is a listener failure raised once a run has used up its
	// nested dispatch budget.
	ErrDispatchLimit = errcode.Register(errcode.New(moduleCode, 6, "playground",
		"error.playground.dispatch_limit", "nested dispatch limit reached", http.StatusUnprocessableEntity))
)
