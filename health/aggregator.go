package health

import (
	"context"
	"sync"
	"time"
)

// Aggregator runs every registered checker concurrently under one timeout.
type Aggregator struct {
	mu       sync.RWMutex
	checkers []Checker
	timeout  time.Duration
}

// NewAggregator creates an aggregator; a non-positive timeout means 5s.
func NewAggregator(timeout time.Duration) *Aggregator {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Aggregator{timeout: timeout}
}

// Register adds a checker
func (a *Aggregator) Register(c Checker) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.checkers = append(a.checkers, c)
}

// Check is healthy only when every checker passes. No checkers is healthy.
func (a *Aggregator) Check(ctx context.Context) *Response {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	a.mu.RLock()
	checkers := append([]Checker(nil), a.checkers...)
	a.mu.RUnlock()

	results := make(chan CheckResult, len(checkers))
	for _, c := range checkers {
		go func(c Checker) {
			results <- checkOne(ctx, c)
		}(c)
	}

	resp := &Response{Status: StatusHealthy, Checks: make(map[string]CheckResult, len(checkers))}
	for range checkers {
		r := <-results
		resp.Checks[r.Name] = r
		if r.Status != StatusHealthy {
			resp.Status = StatusUnhealthy
		}
	}
	resp.Duration = time.Since(start)
	return resp
}

func checkOne(ctx context.Context, c Checker) CheckResult {
	start := time.Now()
	r := CheckResult{Name: c.Name(), Status: StatusHealthy}
	done := make(chan error, 1)
	go func() { done <- c.Check(ctx) }()
	select {
	case err := <-done:
		if err != nil {
			r.Status, r.Error = StatusUnhealthy, err.Error()
		}
	case <-ctx.Done():
		r.Status, r.Error = StatusUnhealthy, ctx.Err().Error()
	}
	r.Duration = time.Since(start)
	return r
}
