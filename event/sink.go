package event

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// SinkFunc adapts a function to ExceptionSink.
type SinkFunc func(ctx context.Context, global Target, err error)

func (f SinkFunc) Report(ctx context.Context, global Target, err error) {
	f(ctx, global, err)
}

// DiscardSink drops every report.
type DiscardSink struct{}

func (DiscardSink) Report(context.Context, Target, error) {}

// MultiSink fans a report out to every sink in order.
type MultiSink []ExceptionSink

func (m MultiSink) Report(ctx context.Context, global Target, err error) {
	for _, s := range m {
		if s != nil {
			s.Report(ctx, global, err)
		}
	}
}

// LoggerSink writes each report as an error log line.
type LoggerSink struct {
	logger Logger
}

// NewLoggerSink creates a sink logging through l.
func NewLoggerSink(l Logger) *LoggerSink {
	return &LoggerSink{logger: l}
}

func (s *LoggerSink) Report(ctx context.Context, global Target, err error) {
	fields := []zap.Field{zap.String("global", TargetLabel(global)), zap.Error(err)}
	var lerr *ListenerError
	if errors.As(err, &lerr) {
		fields = append(fields,
			zap.String("type", lerr.EventType),
			zap.String("phase", lerr.Phase.String()),
			zap.String("listener", lerr.Listener))
	}
	s.logger.ErrorCtx(ctx, "event listener failed", fields...)
}

// AsyncSink hands reports to a goroutine pool so that slow sinks never stall
// dispatch.
type AsyncSink struct {
	next   ExceptionSink
	pool   *ants.Pool
	logger Logger
	wg     sync.WaitGroup
}

// NewAsyncSink wraps next with a pool of size workers.
func NewAsyncSink(next ExceptionSink, size int, l Logger) (*AsyncSink, error) {
	if next == nil {
		return nil, fmt.Errorf("async sink: next sink cannot be nil")
	}
	if l == nil {
		l = nopLogger{}
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, fmt.Errorf("async sink: create pool failed: %w", err)
	}
	return &AsyncSink{next: next, pool: pool, logger: l}, nil
}

func (s *AsyncSink) Report(ctx context.Context, global Target, err error) {
	ctx = context.WithoutCancel(ctx)
	s.wg.Add(1)
	submitErr := s.pool.Submit(func() {
		defer s.wg.Done()
		s.next.Report(ctx, global, err)
	})
	if submitErr != nil {
		s.wg.Done()
		s.logger.WarnCtx(ctx, "async sink rejected report, reporting inline", zap.Error(submitErr))
		s.next.Report(ctx, global, err)
	}
}

// Flush blocks until every submitted report has been handed to the next sink.
func (s *AsyncSink) Flush() {
	s.wg.Wait()
}

// Close flushes pending reports and releases the pool.
func (s *AsyncSink) Close() {
	s.wg.Wait()
	s.pool.Release()
}

// TargetLabel describes t for logs and reports.
func TargetLabel(t Target) string {
	if t == nil {
		return ""
	}
	if s, ok := t.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", t)
}
