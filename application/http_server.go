package application

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/KOMKZ/go-yogan-propagation/logger"
	"go.uber.org/zap"
)

// ServerConfig configures HTTPServer.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// HTTPServer serves a handler in the background.
type HTTPServer struct {
	cfg      ServerConfig
	handler  http.Handler
	server   *http.Server
	listener net.Listener
	log      *logger.CtxZapLogger
}

// NewHTTPServer creates a server; nothing listens until Start.
func NewHTTPServer(handler http.Handler, cfg ServerConfig) *HTTPServer {
	return &HTTPServer{cfg: cfg, handler: handler, log: logger.GetLogger("http")}
}

// Start binds the address and serves without blocking. It waits briefly so
// that immediate serve failures are returned instead of logged.
func (s *HTTPServer) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("address %s unavailable: %w", s.cfg.Addr, err)
	}
	s.listener = ln
	s.server = &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		s.log.Error("http server start failed", zap.Error(err))
		return fmt.Errorf("http server start failed: %w", err)
	case <-time.After(50 * time.Millisecond):
		s.log.Info("http server started", zap.String("addr", s.Addr()))
		return nil
	}
}

// Addr is the bound address, useful when configured with port 0.
func (s *HTTPServer) Addr() string {
	if s.listener == nil {
		return s.cfg.Addr
	}
	return s.listener.Addr().String()
}

// Stop drains in-flight requests until ctx expires.
func (s *HTTPServer) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	s.log.Info("http server stopped")
	return nil
}
