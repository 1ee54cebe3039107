// Package database owns the PostgreSQL pool and ties its readiness and
// teardown to the service lifecycle.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/JaimeStill/underwriter/pkg/lifecycle"
)

// ErrNotReady is returned by Ping until the startup ping succeeds.
var ErrNotReady = errors.New("database not ready")

// startupAttempts bounds the startup ping loop; attempts are spaced by the
// connection timeout.
const startupAttempts = 5

// System is the pool plus its readiness state.
type System interface {
	Connection() *sql.DB
	// Start registers the startup ping and the shutdown close.
	Start(lc *lifecycle.Coordinator) error
	Ping(ctx context.Context) error
}

type database struct {
	conn        *sql.DB
	logger      *slog.Logger
	connTimeout time.Duration
	ready       atomic.Bool
}

// New configures the pool without connecting.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	db, err := sql.Open("pgx", cfg.Dsn())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	return &database{
		conn:        db,
		logger:      logger.With("system", "database", "host", cfg.Host, "db", cfg.Name),
		connTimeout: cfg.ConnTimeoutDuration(),
	}, nil
}

func (d *database) Connection() *sql.DB { return d.conn }

func (d *database) Ping(ctx context.Context) error {
	if !d.ready.Load() {
		return ErrNotReady
	}
	return d.ping(ctx)
}

func (d *database) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, d.connTimeout)
	defer cancel()
	return d.conn.PingContext(ctx)
}

func (d *database) Start(lc *lifecycle.Coordinator) error {
	lc.OnStartup(func() {
		if err := d.awaitServer(lc.Context()); err != nil {
			d.logger.Error("database unreachable", "attempts", startupAttempts, "error", err)
			return
		}
		d.ready.Store(true)
		d.logger.Info("database connection established")
	})

	lc.OnShutdown(func() {
		if err := d.conn.Close(); err != nil {
			d.logger.Error("database close failed", "error", err)
			return
		}
		d.logger.Info("database connection closed")
	})

	return nil
}

func (d *database) awaitServer(ctx context.Context) error {
	var err error
	for attempt := 1; attempt <= startupAttempts; attempt++ {
		if err = d.ping(ctx); err == nil {
			return nil
		}
		d.logger.Warn("database ping failed", "attempt", attempt, "error", err)
		if attempt == startupAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.connTimeout):
		}
	}
	return err
}
