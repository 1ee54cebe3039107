package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/JaimeStill/underwriter/internal/config"
	"github.com/JaimeStill/underwriter/pkg/lifecycle"
)

type httpServer struct {
	srv             *http.Server
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

func newHTTPServer(cfg *config.ServerConfig, handler http.Handler, logger *slog.Logger) *httpServer {
	return &httpServer{
		srv: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           handler,
			ReadHeaderTimeout: cfg.ReadHeaderTimeoutDuration(),
			ReadTimeout:       cfg.ReadTimeoutDuration(),
			WriteTimeout:      cfg.WriteTimeoutDuration(),
		},
		logger:          logger.With("system", "http"),
		shutdownTimeout: cfg.ShutdownTimeoutDuration(),
	}
}

// Start binds the listen address synchronously. Request contexts derive from
// the lifecycle context, so open event streams end on shutdown.
func (s *httpServer) Start(lc *lifecycle.Coordinator) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.srv.Addr, err)
	}

	s.srv.BaseContext = func(net.Listener) context.Context { return lc.Context() }

	go func() {
		s.logger.Info("server listening", "addr", ln.Addr().String())
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server error", "error", err)
		}
	}()

	// Tracked as background work so in-flight requests finish before the
	// database and broker shutdown hooks run.
	lc.Go(func(lcCtx context.Context) {
		<-lcCtx.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		if err := s.srv.Shutdown(ctx); err != nil {
			s.logger.Error("server shutdown error", "error", err)
			return
		}
		s.logger.Info("server stopped")
	})

	return nil
}
