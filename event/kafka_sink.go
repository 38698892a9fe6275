package event

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Publisher publishes JSON payloads. It keeps the event package free of a
// direct Kafka client dependency; kafka.Producer implements it.
type Publisher interface {
	PublishJSON(ctx context.Context, topic string, key string, payload any) error
}

// FailureReport is the wire form of one isolated listener failure.
type FailureReport struct {
	ID         string    `json:"id"`
	EventType  string    `json:"event_type,omitempty"`
	Phase      string    `json:"phase,omitempty"`
	Listener   string    `json:"listener,omitempty"`
	Global     string    `json:"global"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
	TraceID    string    `json:"trace_id,omitempty"`
}

// NewFailureReport builds the report for err raised under global.
func NewFailureReport(ctx context.Context, global Target, err error) FailureReport {
	r := FailureReport{
		ID:         uuid.NewString(),
		Global:     TargetLabel(global),
		Message:    err.Error(),
		OccurredAt: time.Now().UTC(),
	}
	var lerr *ListenerError
	if errors.As(err, &lerr) {
		r.EventType = lerr.EventType
		r.Phase = lerr.Phase.String()
		r.Listener = lerr.Listener
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		r.TraceID = sc.TraceID().String()
	}
	return r
}

// KafkaSink publishes failure reports to a topic, keyed by event type.
type KafkaSink struct {
	publisher Publisher
	topic     string
	logger    Logger
}

// NewKafkaSink creates a sink publishing to topic.
func NewKafkaSink(p Publisher, topic string, l Logger) *KafkaSink {
	if l == nil {
		l = nopLogger{}
	}
	return &KafkaSink{publisher: p, topic: topic, logger: l}
}

func (s *KafkaSink) Report(ctx context.Context, global Target, err error) {
	report := NewFailureReport(ctx, global, err)
	if pubErr := s.publisher.PublishJSON(ctx, s.topic, report.EventType, report); pubErr != nil {
		s.logger.WarnCtx(ctx, "publish failure report failed",
			zap.String("topic", s.topic),
			zap.String("report_id", report.ID),
			zap.Error(pubErr))
	}
}
