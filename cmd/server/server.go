package main

import (
	"context"
	"time"

	"github.com/JaimeStill/underwriter/internal/api"
	"github.com/JaimeStill/underwriter/internal/config"
	"github.com/JaimeStill/underwriter/internal/infrastructure"
)

// Server owns the infrastructure and the HTTP listener in front of it.
type Server struct {
	infra *infrastructure.Infrastructure
	http  *httpServer
}

func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	router := buildRouter(infra)
	router.Mount(apiModule)

	infra.Logger.Info(
		"server initialized",
		"addr", cfg.Server.Addr(),
		"api", apiModule.Prefix(),
		"version", cfg.Version,
		"env", cfg.Env(),
	)

	return &Server{
		infra: infra,
		http:  newHTTPServer(&cfg.Server, router, infra.Logger),
	}, nil
}

// Start registers every subsystem with the lifecycle and begins serving.
// Readiness is reported through /readyz once startup hooks finish.
func (s *Server) Start() error {
	if err := s.infra.Start(); err != nil {
		return err
	}
	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	go func() {
		s.infra.Lifecycle.WaitForStartup()
		s.infra.Logger.Info("underwriter ready")
	}()

	return nil
}

// Shutdown cancels the lifecycle context, which stops the listener, waits
// for background decision runs, then closes redis and postgres.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown", "timeout", timeout)
	return s.infra.Lifecycle.Shutdown(timeout)
}
