// Package api mounts the applications and decisions endpoints under the
// configured base path.
package api

import (
	"net/http"

	"github.com/JaimeStill/underwriter/internal/config"
	"github.com/JaimeStill/underwriter/internal/infrastructure"
	"github.com/JaimeStill/underwriter/pkg/middleware"
	"github.com/JaimeStill/underwriter/pkg/module"
)

// NewModule builds the domain systems and wraps their routes with CORS,
// request logging and panic recovery, outermost first.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	rt := NewRuntime(cfg, infra)
	domain := NewDomain(rt)
	logger := rt.Logger

	mux := http.NewServeMux()
	registerRoutes(mux, domain, logger)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(logger))
	m.Use(middleware.Recover(logger))

	return m, nil
}
