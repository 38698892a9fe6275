package logger

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogEntry is one line captured by TestCtxLogger.
type LogEntry struct {
	Level   string
	Message string
	TraceID string
	Fields  map[string]interface{}
}

type logStore struct {
	mu   sync.RWMutex
	logs []LogEntry
}

// TestCtxLogger records lines in memory for assertions. Levels are the
// lowercase zap names: "debug", "info", "warn", "error".
//
//	log := logger.NewTestCtxLogger()
//	svc := NewService(log)
//	assert.True(t, log.HasLog("warn", "retrying"))
type TestCtxLogger struct {
	store  *logStore
	preset []zap.Field
}

func NewTestCtxLogger() *TestCtxLogger {
	return &TestCtxLogger{store: &logStore{}}
}

func (t *TestCtxLogger) record(ctx context.Context, level zapcore.Level, msg string, fields []zap.Field) {
	all := make([]zap.Field, 0, len(t.preset)+len(fields))
	all = append(append(all, t.preset...), fields...)
	entry := LogEntry{
		Level:   level.String(),
		Message: msg,
		TraceID: TraceIDFromContext(ctx),
		Fields:  extractFieldsMap(all),
	}
	t.store.mu.Lock()
	t.store.logs = append(t.store.logs, entry)
	t.store.mu.Unlock()
}

func (t *TestCtxLogger) InfoCtx(ctx context.Context, msg string, fields ...zap.Field) {
	t.record(ctx, zapcore.InfoLevel, msg, fields)
}

func (t *TestCtxLogger) DebugCtx(ctx context.Context, msg string, fields ...zap.Field) {
	t.record(ctx, zapcore.DebugLevel, msg, fields)
}

func (t *TestCtxLogger) WarnCtx(ctx context.Context, msg string, fields ...zap.Field) {
	t.record(ctx, zapcore.WarnLevel, msg, fields)
}

func (t *TestCtxLogger) ErrorCtx(ctx context.Context, msg string, fields ...zap.Field) {
	t.record(ctx, zapcore.ErrorLevel, msg, fields)
}

// With returns a logger sharing the same store with extra preset fields.
func (t *TestCtxLogger) With(fields ...zap.Field) *TestCtxLogger {
	preset := make([]zap.Field, 0, len(t.preset)+len(fields))
	preset = append(append(preset, t.preset...), fields...)
	return &TestCtxLogger{store: t.store, preset: preset}
}

// HasLog reports whether a line with level and message was recorded.
func (t *TestCtxLogger) HasLog(level, message string) bool {
	return t.find(func(e LogEntry) bool { return e.Level == level && e.Message == message })
}

// HasLogWithTraceID also matches the trace id.
func (t *TestCtxLogger) HasLogWithTraceID(level, message, traceID string) bool {
	return t.find(func(e LogEntry) bool {
		return e.Level == level && e.Message == message && e.TraceID == traceID
	})
}

// HasLogWithField also matches one field. String fields compare as strings.
func (t *TestCtxLogger) HasLogWithField(level, message, key string, value interface{}) bool {
	return t.find(func(e LogEntry) bool {
		if e.Level != level || e.Message != message {
			return false
		}
		v, ok := e.Fields[key]
		return ok && v == value
	})
}

func (t *TestCtxLogger) find(match func(LogEntry) bool) bool {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	for _, e := range t.store.logs {
		if match(e) {
			return true
		}
	}
	return false
}

// CountLogs counts lines recorded at level.
func (t *TestCtxLogger) CountLogs(level string) int {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	n := 0
	for _, e := range t.store.logs {
		if e.Level == level {
			n++
		}
	}
	return n
}

// Logs returns a copy of everything recorded.
func (t *TestCtxLogger) Logs() []LogEntry {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	out := make([]LogEntry, len(t.store.logs))
	copy(out, t.store.logs)
	return out
}

func (t *TestCtxLogger) Clear() {
	t.store.mu.Lock()
	t.store.logs = nil
	t.store.mu.Unlock()
}

func extractFieldsMap(fields []zap.Field) map[string]interface{} {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}
	return enc.Fields
}
