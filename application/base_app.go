// Package application runs the propagation stack as a CLI or HTTP
// process on top of the di injector.
package application

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/KOMKZ/go-yogan-propagation/config"
	"github.com/KOMKZ/go-yogan-propagation/di"
	"github.com/KOMKZ/go-yogan-propagation/logger"
	"github.com/samber/do/v2"
	"go.uber.org/zap"
)

// AppState is the lifecycle state of an application
type AppState int

const (
	StateInit AppState = iota
	StateSetup
	StateRunning
	StateStopping
	StateStopped
)

func (s AppState) String() string {
	switch s {
	case StateInit:
		return "Init"
	case StateSetup:
		return "Setup"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// Options locate configuration; they map onto di.ConfigOptions.
type Options struct {
	ConfigPath   string
	ConfigFile   string
	ConfigPrefix string
	Flags        interface{}
}

// BaseApplication owns the injector and the shared lifecycle of every
// application type.
type BaseApplication struct {
	injector  *do.RootScope
	loader    *config.Loader
	logger    *logger.CtxZapLogger
	appConfig AppConfig

	ctx    context.Context
	cancel context.CancelFunc
	state  AppState
	mu     sync.RWMutex

	onSetup    func(*BaseApplication) error
	onShutdown func(context.Context) error
}

// NewBase registers the providers and resolves configuration and logging.
func NewBase(opts Options) (*BaseApplication, error) {
	injector := do.New()
	di.RegisterCoreProviders(injector, di.ConfigOptions{
		ConfigPath:   opts.ConfigPath,
		ConfigFile:   opts.ConfigFile,
		ConfigPrefix: opts.ConfigPrefix,
		Flags:        opts.Flags,
	})

	loader, err := do.Invoke[*config.Loader](injector)
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	log, err := do.Invoke[*logger.CtxZapLogger](injector)
	if err != nil {
		return nil, fmt.Errorf("init logger failed: %w", err)
	}

	appCfg := DefaultAppConfig()
	if loader.IsSet("app") {
		if err := loader.UnmarshalKey("app", &appCfg); err != nil {
			return nil, fmt.Errorf("unmarshal app config failed: %w", err)
		}
	}
	if err := config.ValidateAll(appCfg); err != nil {
		return nil, fmt.Errorf("invalid app config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	log.DebugCtx(ctx, "application created",
		zap.String("name", appCfg.Name),
		zap.Strings("config_files", loader.LoadedFiles()))

	return &BaseApplication{
		injector:  injector,
		loader:    loader,
		logger:    log,
		appConfig: appCfg,
		ctx:       ctx,
		cancel:    cancel,
		state:     StateInit,
	}, nil
}

// Setup builds the core components and runs the OnSetup callback.
func (b *BaseApplication) Setup() error {
	b.setState(StateSetup)
	if err := di.StartCoreComponents(b.ctx, b.injector, b.logger); err != nil {
		return fmt.Errorf("start core components failed: %w", err)
	}
	if b.onSetup != nil {
		if err := b.onSetup(b); err != nil {
			return fmt.Errorf("onSetup failed: %w", err)
		}
	}
	return nil
}

// Shutdown runs the OnShutdown callback, then shuts the injector down,
// which stops every component implementing a Shutdown method.
func (b *BaseApplication) Shutdown(timeout time.Duration) error {
	b.setState(StateStopping)
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var firstErr error
	if b.onShutdown != nil {
		if err := b.onShutdown(ctx); err != nil {
			b.logger.ErrorCtx(ctx, "onShutdown callback failed", zap.Error(err))
			firstErr = err
		}
	}
	b.logger.DebugCtx(ctx, "shutting down components")
	if err := b.shutdownInjector(ctx); err != nil {
		// the logger manager is closed by now
		fmt.Fprintf(os.Stderr, "injector shutdown failed: %v\n", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	b.cancel()
	b.setState(StateStopped)
	return firstErr
}

func (b *BaseApplication) shutdownInjector(ctx context.Context) error {
	report := b.injector.ShutdownWithContext(ctx)
	if report != nil && !report.Succeed {
		return report
	}
	return nil
}

// WaitShutdown blocks until SIGINT, SIGTERM or Cancel. A second signal
// exits the process at once.
func (b *BaseApplication) WaitShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		b.logger.InfoCtx(b.ctx, "shutdown signal received", zap.String("signal", sig.String()))
		b.cancel()
		go func() {
			sig := <-quit
			b.logger.WarnCtx(context.Background(), "second signal received, forcing exit", zap.String("signal", sig.String()))
			os.Exit(1)
		}()
	case <-b.ctx.Done():
		signal.Stop(quit)
		b.logger.DebugCtx(context.Background(), "context cancelled, shutting down")
	}
}

// Cancel triggers shutdown programmatically
func (b *BaseApplication) Cancel() { b.cancel() }

// OnSetup registers a callback run at the end of Setup
func (b *BaseApplication) OnSetup(fn func(*BaseApplication) error) *BaseApplication {
	b.onSetup = fn
	return b
}

// OnShutdown registers a callback run before components stop
func (b *BaseApplication) OnShutdown(fn func(context.Context) error) *BaseApplication {
	b.onShutdown = fn
	return b
}

func (b *BaseApplication) Logger() *logger.CtxZapLogger { return b.logger }

func (b *BaseApplication) ConfigLoader() *config.Loader { return b.loader }

func (b *BaseApplication) Injector() *do.RootScope { return b.injector }

func (b *BaseApplication) AppConfig() AppConfig { return b.appConfig }

func (b *BaseApplication) Context() context.Context { return b.ctx }

// State is safe for concurrent use
func (b *BaseApplication) State() AppState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

func (b *BaseApplication) setState(state AppState) {
	b.mu.Lock()
	old := b.state
	b.state = state
	b.mu.Unlock()
	b.logger.DebugCtx(b.ctx, "state changed",
		zap.String("from", old.String()),
		zap.String("to", state.String()))
}
