package event

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/KOMKZ/go-yogan-propagation/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func sampleFailure() *ListenerError {
	return &ListenerError{
		EventType: "click",
		Phase:     PhaseBubbling,
		Listener:  "save-button",
		Cause:     ErrListenerFailed.Wrap(errors.New("disk full")),
	}
}

func TestMultiSink(t *testing.T) {
	var hits int32
	count := SinkFunc(func(context.Context, Target, error) { atomic.AddInt32(&hits, 1) })

	MultiSink{count, nil, DiscardSink{}, count}.Report(context.Background(), nil, errors.New("x"))
	assert.Equal(t, int32(2), hits)
}

func TestLoggerSink(t *testing.T) {
	log := logger.NewTestCtxLogger()
	window := &fakeNode{name: "window"}

	NewLoggerSink(log).Report(context.Background(), window, sampleFailure())

	require.Equal(t, 1, log.CountLogs("error"))
	assert.True(t, log.HasLogWithField("error", "event listener failed", "global", "window"))
	assert.True(t, log.HasLogWithField("error", "event listener failed", "listener", "save-button"))
	assert.True(t, log.HasLogWithField("error", "event listener failed", "phase", "bubbling"))
}

func TestAsyncSink(t *testing.T) {
	inner := &sinkRecorder{}
	async, err := NewAsyncSink(inner, 4, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	for i := 0; i < 20; i++ {
		async.Report(ctx, nil, sampleFailure())
	}
	cancel()
	async.Flush()
	assert.Equal(t, 20, inner.count())

	async.Close()
	async.Report(context.Background(), nil, sampleFailure())
	assert.Equal(t, 21, inner.count(), "reports after Close are delivered inline")
}

func TestAsyncSink_RequiresNext(t *testing.T) {
	_, err := NewAsyncSink(nil, 1, nil)
	assert.Error(t, err)
}

type capturePublisher struct {
	mu       sync.Mutex
	topic    string
	key      string
	payloads []any
	err      error
}

func (p *capturePublisher) PublishJSON(_ context.Context, topic, key string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic, p.key = topic, key
	p.payloads = append(p.payloads, payload)
	return p.err
}

func TestKafkaSink_PublishesReport(t *testing.T) {
	pub := &capturePublisher{}
	sink := NewKafkaSink(pub, "failures", nil)

	traceID := trace.TraceID{0x0a, 0x0b}
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  trace.SpanID{0x01},
	}))
	sink.Report(ctx, &fakeNode{name: "window"}, sampleFailure())

	require.Len(t, pub.payloads, 1)
	assert.Equal(t, "failures", pub.topic)
	assert.Equal(t, "click", pub.key)

	report, ok := pub.payloads[0].(FailureReport)
	require.True(t, ok)
	_, err := uuid.Parse(report.ID)
	assert.NoError(t, err)
	assert.Equal(t, "click", report.EventType)
	assert.Equal(t, "bubbling", report.Phase)
	assert.Equal(t, "save-button", report.Listener)
	assert.Equal(t, "window", report.Global)
	assert.Contains(t, report.Message, "disk full")
	assert.Equal(t, traceID.String(), report.TraceID)
	assert.False(t, report.OccurredAt.IsZero())
}

func TestKafkaSink_PublishErrorIsLogged(t *testing.T) {
	log := logger.NewTestCtxLogger()
	sink := NewKafkaSink(&capturePublisher{err: errors.New("broker down")}, "failures", log)

	sink.Report(context.Background(), nil, errors.New("plain failure"))
	assert.True(t, log.HasLog("warn", "publish failure report failed"))
}

func TestNewFailureReport_PlainError(t *testing.T) {
	r := NewFailureReport(context.Background(), nil, errors.New("plain"))
	assert.Empty(t, r.EventType)
	assert.Empty(t, r.TraceID)
	assert.Equal(t, "plain", r.Message)
	assert.Equal(t, "", r.Global)
}

func TestTargetLabel(t *testing.T) {
	assert.Equal(t, "", TargetLabel(nil))
	assert.Equal(t, "leaf", TargetLabel(&fakeNode{name: "leaf"}))
	assert.Equal(t, "*event.TargetBase", TargetLabel(&TargetBase{}))
}
