package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/KOMKZ/go-yogan-propagation/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Message is one record to produce.
type Message struct {
	Topic     string
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// ProducerResult is where a record landed.
type ProducerResult struct {
	Topic     string
	Partition int32
	Offset    int64
}

// Producer is a synchronous producer that propagates the trace context in
// record headers.
type Producer struct {
	producer sarama.SyncProducer
	logger   *logger.CtxZapLogger
	metrics  *ProducerMetrics

	mu     sync.RWMutex
	closed bool
}

// NewProducer dials the brokers in cfg.
func NewProducer(cfg Config, log *logger.CtxZapLogger) (*Producer, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid kafka config: %w", err)
	}
	sc, err := buildSaramaConfig(cfg)
	if err != nil {
		return nil, err
	}
	sp, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("create sync producer failed: %w", err)
	}
	p := NewProducerWithClient(sp, log)
	p.metrics = NewProducerMetrics(cfg.Producer.Metrics)
	return p, nil
}

// NewProducerWithClient wraps an existing sarama producer.
func NewProducerWithClient(sp sarama.SyncProducer, log *logger.CtxZapLogger) *Producer {
	if log == nil {
		log = logger.GetLogger("kafka")
	}
	return &Producer{producer: sp, logger: log, metrics: NewProducerMetrics(false)}
}

// Metrics returns the producer's metrics provider.
func (p *Producer) Metrics() *ProducerMetrics { return p.metrics }

// Send produces msg and waits for the broker acknowledgement.
func (p *Producer) Send(ctx context.Context, msg *Message) (*ProducerResult, error) {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return nil, fmt.Errorf("producer is closed")
	}
	if msg == nil || msg.Topic == "" {
		return nil, fmt.Errorf("message with a topic is required")
	}

	pm := &sarama.ProducerMessage{
		Topic: msg.Topic,
		Value: sarama.ByteEncoder(msg.Value),
	}
	if len(msg.Key) > 0 {
		pm.Key = sarama.ByteEncoder(msg.Key)
	}
	if !msg.Timestamp.IsZero() {
		pm.Timestamp = msg.Timestamp
	}
	for k, v := range msg.Headers {
		pm.Headers = append(pm.Headers, sarama.RecordHeader{Key: []byte(k), Value: []byte(v)})
	}
	otel.GetTextMapPropagator().Inject(ctx, headerCarrier{msg: pm})

	start := time.Now()
	partition, offset, err := p.producer.SendMessage(pm)
	p.metrics.record(ctx, time.Since(start), err, attribute.String("topic", msg.Topic))
	if err != nil {
		p.logger.ErrorCtx(ctx, "send message failed", zap.String("topic", msg.Topic), zap.Error(err))
		return nil, fmt.Errorf("send message failed: %w", err)
	}

	p.logger.DebugCtx(ctx, "message sent",
		zap.String("topic", msg.Topic),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset))
	return &ProducerResult{Topic: msg.Topic, Partition: partition, Offset: offset}, nil
}

// PublishJSON marshals payload and produces it under key.
func (p *Producer) PublishJSON(ctx context.Context, topic, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload failed: %w", err)
	}
	_, err = p.Send(ctx, &Message{
		Topic:   topic,
		Key:     []byte(key),
		Value:   data,
		Headers: map[string]string{"content-type": "application/json"},
	})
	return err
}

// Close is idempotent and safe on a nil producer.
func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("close producer failed: %w", err)
	}
	return nil
}

// Check fails once the producer is closed; it backs the readiness probe.
func (p *Producer) Check(context.Context) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return errors.New("kafka producer closed")
	}
	return nil
}

// Shutdown lets samber/do close the producer.
func (p *Producer) Shutdown() error { return p.Close() }

// headerCarrier exposes sarama record headers to otel propagators.
type headerCarrier struct {
	msg *sarama.ProducerMessage
}

func (c headerCarrier) Get(key string) string {
	for _, h := range c.msg.Headers {
		if string(h.Key) == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c headerCarrier) Set(key, value string) {
	for i, h := range c.msg.Headers {
		if string(h.Key) == key {
			c.msg.Headers[i].Value = []byte(value)
			return
		}
	}
	c.msg.Headers = append(c.msg.Headers, sarama.RecordHeader{Key: []byte(key), Value: []byte(value)})
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c.msg.Headers))
	for _, h := range c.msg.Headers {
		keys = append(keys, string(h.Key))
	}
	return keys
}
