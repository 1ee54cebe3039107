// Package broker provides a Redis client with lifecycle coordination.
// The client backs distributed locks and progress event fan-out.
package broker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/JaimeStill/underwriter/pkg/lifecycle"
)

// System manages the Redis client and lifecycle coordination.
type System interface {
	// Client returns the underlying Redis client.
	Client() *redis.Client
	// Start registers startup ping and shutdown close hooks.
	Start(lc *lifecycle.Coordinator) error
	// Ping verifies the connection.
	Ping(ctx context.Context) error
}

type broker struct {
	client *redis.Client
	logger *slog.Logger
}

// New creates a broker system. No connection is made until first use.
func New(cfg *Config, logger *slog.Logger) System {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeoutDuration(),
		ReadTimeout:  cfg.ReadTimeoutDuration(),
		WriteTimeout: cfg.WriteTimeoutDuration(),
	})

	return &broker{
		client: client,
		logger: logger.With("system", "broker"),
	}
}

func (b *broker) Client() *redis.Client {
	return b.client
}

func (b *broker) Ping(ctx context.Context) error {
	if err := b.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (b *broker) Start(lc *lifecycle.Coordinator) error {
	b.logger.Info("starting broker")

	lc.OnStartup(func() {
		if err := b.Ping(lc.Context()); err != nil {
			b.logger.Error("broker ping failed", "error", err)
			return
		}
		b.logger.Info("broker connection established", "addr", b.client.Options().Addr)
	})

	lc.OnShutdown(func() {
		if err := b.client.Close(); err != nil {
			b.logger.Error("broker close failed", "error", err)
			return
		}
		b.logger.Info("broker connection closed")
	})

	return nil
}
