// Package health aggregates readiness checks of the running components.
package health

import (
	"context"
	"time"
)

// Status of a check or of the whole aggregate
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// Checker reports whether one component can serve.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
func CheckerFunc(name string, fn func(context.Context) error) Checker {
	return checkerFunc{name: name, fn: fn}
}

type checkerFunc struct {
	name string
	fn   func(context.Context) error
}

func (c checkerFunc) Name() string                    { return c.name }
func (c checkerFunc) Check(ctx context.Context) error { return c.fn(ctx) }

// CheckResult is the outcome of one checker
type CheckResult struct {
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Response is the aggregate outcome
type Response struct {
	Status   Status                 `json:"status"`
	Duration time.Duration          `json:"duration"`
	Checks   map[string]CheckResult `json:"checks"`
}

func (r *Response) IsHealthy() bool { return r.Status == StatusHealthy }
