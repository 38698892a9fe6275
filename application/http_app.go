package application

import (
	"context"
	"fmt"

	"github.com/KOMKZ/go-yogan-propagation/logger"
	"github.com/KOMKZ/go-yogan-propagation/playground"
	"github.com/gin-gonic/gin"
	"github.com/samber/do/v2"
	"go.uber.org/zap"
)

// HTTPApplication serves the playground API.
type HTTPApplication struct {
	*BaseApplication
	server *HTTPServer
}

// NewHTTP creates the application; gin output goes through the logger.
func NewHTTP(opts Options) (*HTTPApplication, error) {
	base, err := NewBase(opts)
	if err != nil {
		return nil, err
	}
	gin.DefaultWriter = logger.NewGinLogWriter("gin")
	gin.DefaultErrorWriter = logger.NewGinLogWriter("gin")
	return &HTTPApplication{BaseApplication: base}, nil
}

// Start runs Setup, builds the router and starts listening.
func (a *HTTPApplication) Start() error {
	if err := a.Setup(); err != nil {
		return err
	}
	cfg, err := do.Invoke[playground.Config](a.injector)
	if err != nil {
		return err
	}
	router, err := do.Invoke[*gin.Engine](a.injector)
	if err != nil {
		return fmt.Errorf("build router failed: %w", err)
	}
	a.server = NewHTTPServer(router, ServerConfig{
		Addr:         cfg.Addr,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	if err := a.server.Start(); err != nil {
		return err
	}
	a.setState(StateRunning)
	a.logger.InfoCtx(a.ctx, "playground listening",
		zap.String("app", a.appConfig.Name),
		zap.String("addr", a.server.Addr()))
	return nil
}

// Run starts the server and blocks until a shutdown signal.
func (a *HTTPApplication) Run() error {
	if err := a.Start(); err != nil {
		_ = a.Shutdown(a.appConfig.ShutdownTimeout)
		return err
	}
	a.WaitShutdown()
	return a.Stop()
}

// Stop drains the server, then stops the components.
func (a *HTTPApplication) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.appConfig.ShutdownTimeout)
	defer cancel()
	var serverErr error
	if a.server != nil {
		serverErr = a.server.Stop(ctx)
	}
	if err := a.Shutdown(a.appConfig.ShutdownTimeout); err != nil {
		return err
	}
	return serverErr
}

// Addr is the bound address once started
func (a *HTTPApplication) Addr() string {
	if a.server == nil {
		return ""
	}
	return a.server.Addr()
}
