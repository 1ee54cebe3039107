package api

import (
	"log/slog"

	"github.com/JaimeStill/underwriter/internal/config"
	"github.com/JaimeStill/underwriter/internal/infrastructure"
	"github.com/JaimeStill/underwriter/pkg/pagination"
)

// Runtime is what the API's domain systems are built from: shared
// infrastructure plus the request-facing limits.
type Runtime struct {
	Infra      *infrastructure.Infrastructure
	Logger     *slog.Logger
	Pagination pagination.Config
	Pipeline   config.PipelineConfig
	MaxBatch   int
}

func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infra:      infra,
		Logger:     infra.Logger.With("module", "api"),
		Pagination: cfg.API.Pagination,
		Pipeline:   cfg.Pipeline,
		MaxBatch:   cfg.API.MaxBatch,
	}
}
