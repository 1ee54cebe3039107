package api

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/underwriter/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain, logger *slog.Logger) {
	groups := []routes.Group{
		domain.Applications.Handler().Routes(),
		domain.Decisions.Handler().Routes(),
	}

	routes.Register(mux, groups...)

	for _, g := range groups {
		for _, pattern := range g.Patterns() {
			logger.Debug("route registered", "pattern", pattern)
		}
	}
}
