package llm

import (
	"context"
	"log/slog"
)

// New builds a Router with every provider the configuration enables.
// Bedrock is always registered; OpenAI and Azure register when configured.
func New(ctx context.Context, cfg *Config, logger *slog.Logger) (*Router, error) {
	logger = logger.With("system", "llm")
	router := NewRouter(cfg.DefaultProvider)

	bedrock, err := NewBedrockFromConfig(ctx, &cfg.Bedrock)
	if err != nil {
		return nil, err
	}
	router.Register(bedrock)

	if cfg.OpenAI.Enabled() {
		router.Register(NewOpenAI(&cfg.OpenAI))
	}

	if cfg.Azure.Enabled() {
		azure, err := NewAzure(&cfg.Azure, nil)
		if err != nil {
			return nil, err
		}
		router.Register(azure)
	}

	logger.Info("llm providers registered",
		"default", cfg.DefaultProvider,
		"providers", router.Providers(),
	)

	return router, nil
}
