package decisions

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/underwriter/internal/applications"
	"github.com/JaimeStill/underwriter/internal/notify"
	"github.com/JaimeStill/underwriter/workflow"
)

// System defines the public contract for running decisions.
type System interface {
	Handler() *Handler

	// Run executes the pipeline for id and waits for the result.
	// Returns ErrInProgress if another run holds the application's lock.
	Run(ctx context.Context, id uuid.UUID) (*workflow.Result, error)
	// Submit queues a background run for an existing application.
	Submit(ctx context.Context, id uuid.UUID) error
	// Apply stores a new application and queues its decision.
	Apply(ctx context.Context, cmd applications.CreateCommand) (*applications.Application, error)
	// RunBatch runs each application with bounded parallelism.
	// Per-application failures are reported in the items, not returned.
	RunBatch(ctx context.Context, ids []uuid.UUID) ([]BatchItem, error)
	// Subscribe streams progress events for one application until ctx ends.
	Subscribe(ctx context.Context, id uuid.UUID) (<-chan notify.Event, error)
}
