package logger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Manager owns one CtxZapLogger per module and the files behind them.
type Manager struct {
	baseConfig ManagerConfig
	loggers    map[string]*CtxZapLogger
	zapLoggers map[string]*zap.Logger
	writers    map[string][]*lumberjack.Logger
	mu         sync.RWMutex
}

var (
	globalManager *Manager
	globalMu      sync.RWMutex
)

// NewManager creates a standalone Manager; zero-valued fields get defaults.
func NewManager(cfg ManagerConfig) *Manager {
	cfg.ApplyDefaults()
	return &Manager{
		baseConfig: cfg,
		loggers:    make(map[string]*CtxZapLogger),
		zapLoggers: make(map[string]*zap.Logger),
		writers:    make(map[string][]*lumberjack.Logger),
	}
}

// InitManager installs the global manager if none exists yet.
func InitManager(cfg ManagerConfig) {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalManager == nil {
		globalManager = NewManager(cfg)
	}
}

// ResetManager replaces the global manager, closing the previous one.
// Loggers handed out earlier keep writing through their old cores.
func ResetManager(cfg ManagerConfig) error {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid logger config: %w", err)
	}
	globalMu.Lock()
	old := globalManager
	globalManager = NewManager(cfg)
	globalMu.Unlock()
	if old != nil {
		old.CloseAll()
	}
	return nil
}

func global() *Manager {
	globalMu.RLock()
	m := globalManager
	globalMu.RUnlock()
	if m != nil {
		return m
	}
	InitManager(DefaultManagerConfig())
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalManager
}

// DefaultManager returns the global manager, creating it with defaults
// when nothing installed one yet.
func DefaultManager() *Manager {
	return global()
}

// Config returns the manager's effective configuration.
func (m *Manager) Config() ManagerConfig {
	return m.baseConfig
}

// GetLogger returns the logger for module, creating it on first use.
// Every line it writes carries a module field.
func (m *Manager) GetLogger(module string) *CtxZapLogger {
	m.mu.RLock()
	if l, ok := m.loggers[module]; ok {
		m.mu.RUnlock()
		return l
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.loggers[module]; ok {
		return l
	}

	withModule := m.createLogger(module).With(zap.String("module", module))
	l := &CtxZapLogger{
		base:   withModule.WithOptions(zap.AddCallerSkip(1)),
		module: module,
		config: &m.baseConfig,
	}
	m.loggers[module] = l
	m.zapLoggers[module] = withModule
	return l
}

func (m *Manager) createLogger(module string) *zap.Logger {
	cfg := m.baseConfig
	level := ParseLevel(cfg.Level)
	var cores []zapcore.Core

	if cfg.EnableConsole {
		cores = append(cores, zapcore.NewCore(createEncoder(cfg.ConsoleEncoding), zapcore.AddSync(os.Stdout), level))
	}

	if !cfg.DisableFile {
		encoder := createEncoder(cfg.Encoding)
		infoWriter, infoFile := createFileWriter(cfg.filePath(module, "info"), cfg)
		errorWriter, errorFile := createFileWriter(cfg.filePath(module, "error"), cfg)
		m.writers[module] = []*lumberjack.Logger{infoFile, errorFile}

		// info file takes [level, error), error file takes [error, ∞)
		cores = append(cores,
			zapcore.NewCore(encoder, infoWriter, zap.LevelEnablerFunc(func(l zapcore.Level) bool {
				return l >= level && l < zapcore.ErrorLevel
			})),
			zapcore.NewCore(encoder, errorWriter, zap.LevelEnablerFunc(func(l zapcore.Level) bool {
				return l >= zapcore.ErrorLevel
			})),
		)
	}

	var opts []zap.Option
	if cfg.EnableCaller {
		opts = append(opts, zap.AddCaller())
	}
	// stacks are attached by CtxZapLogger.ErrorCtx with a bounded depth
	return zap.New(zapcore.NewTee(cores...), opts...)
}

// CloseAll syncs every logger and closes their files.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, l := range m.zapLoggers {
		_ = l.Sync()
	}
	for _, ws := range m.writers {
		for _, w := range ws {
			_ = w.Close()
		}
	}
	m.loggers = make(map[string]*CtxZapLogger)
	m.zapLoggers = make(map[string]*zap.Logger)
	m.writers = make(map[string][]*lumberjack.Logger)
}

// Shutdown closes every logger; it lets the manager take part in
// injector shutdown.
func (m *Manager) Shutdown() error {
	m.CloseAll()
	return nil
}

func createEncoder(encoding string) zapcore.Encoder {
	encCfg := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		MessageKey:     "msg",
		CallerKey:      "caller",
		StacktraceKey:  "stack",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if encoding == "console" {
		return zapcore.NewConsoleEncoder(encCfg)
	}
	return zapcore.NewJSONEncoder(encCfg)
}

func createFileWriter(filename string, cfg ManagerConfig) (zapcore.WriteSyncer, *lumberjack.Logger) {
	_ = os.MkdirAll(filepath.Dir(filename), 0o755)
	lj := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
		LocalTime:  true,
	}
	return zapcore.AddSync(lj), lj
}

// GetLogger returns a module logger from the global manager.
func GetLogger(module string) *CtxZapLogger {
	return global().GetLogger(module)
}

// CloseAll flushes and closes the global manager's loggers.
func CloseAll() {
	globalMu.RLock()
	m := globalManager
	globalMu.RUnlock()
	if m != nil {
		m.CloseAll()
	}
}

// Info logs through the global manager without a context.
func Info(module, msg string, fields ...zap.Field) {
	GetLogger(module).InfoCtx(context.Background(), msg, fields...)
}

// Debug logs through the global manager without a context.
func Debug(module, msg string, fields ...zap.Field) {
	GetLogger(module).DebugCtx(context.Background(), msg, fields...)
}

// Warn logs through the global manager without a context.
func Warn(module, msg string, fields ...zap.Field) {
	GetLogger(module).WarnCtx(context.Background(), msg, fields...)
}

// Error logs through the global manager without a context.
func Error(module, msg string, fields ...zap.Field) {
	GetLogger(module).ErrorCtx(context.Background(), msg, fields...)
}
