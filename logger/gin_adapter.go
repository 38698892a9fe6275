package logger

import (
	"strings"
)

// GinLogWriter adapts gin's text output (gin.DefaultWriter and
// gin.DefaultErrorWriter) to a module logger.
type GinLogWriter struct {
	logger *CtxZapLogger
}

// NewGinLogWriter routes gin output to the logger for module.
func NewGinLogWriter(module string) *GinLogWriter {
	return &GinLogWriter{logger: GetLogger(module)}
}

// Write classifies a gin line by its prefix: route registration is debug,
// recovery output is error, the rest is info.
func (w *GinLogWriter) Write(p []byte) (int, error) {
	msg := strings.TrimSpace(string(p))
	switch {
	case msg == "":
	case strings.Contains(msg, "[GIN-debug]"):
		w.logger.Debug(msg)
	case strings.Contains(msg, "[Recovery]"), strings.Contains(msg, "panic recovered"):
		w.logger.Error(msg)
	default:
		w.logger.Info(msg)
	}
	return len(p), nil
}
