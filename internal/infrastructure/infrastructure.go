// Package infrastructure builds the shared systems every entry point needs:
// the lifecycle, the logger, postgres, redis, blob storage and the model router.
package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/JaimeStill/underwriter/internal/config"
	"github.com/JaimeStill/underwriter/pkg/broker"
	"github.com/JaimeStill/underwriter/pkg/database"
	"github.com/JaimeStill/underwriter/pkg/lifecycle"
	"github.com/JaimeStill/underwriter/pkg/llm"
	"github.com/JaimeStill/underwriter/pkg/storage"
)

// Infrastructure is shared by the server and the one-shot decide command.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Broker    broker.System
	LLM       llm.Client
}

// New constructs every system without connecting. The server calls Start;
// cmd/decide starts only what it uses.
func New(ctx context.Context, cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := cfg.Logging.NewLogger(os.Stderr).With("version", cfg.Version)

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	router, err := llm.New(ctx, &cfg.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("llm init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Database:  db,
		Storage:   store,
		Broker:    broker.New(&cfg.Broker, logger),
		LLM:       router,
	}, nil
}

// Start registers each system's lifecycle hooks.
func (i *Infrastructure) Start() error {
	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	if err := i.Broker.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("broker start failed: %w", err)
	}
	return nil
}
