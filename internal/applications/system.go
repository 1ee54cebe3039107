package applications

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/JaimeStill/underwriter/pkg/pagination"
)

// System defines the public contract for application domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Application], error)

	// Recent returns up to limit applications, newest first.
	Recent(ctx context.Context, limit int) ([]Application, error)
	Find(ctx context.Context, id uuid.UUID) (*Application, error)
	// FindLatestByApplicant returns the newest application whose name matches
	// name case-insensitively after trimming.
	FindLatestByApplicant(ctx context.Context, name string) (*Application, error)
	Create(ctx context.Context, cmd CreateCommand) (*Application, error)
	SetStatus(ctx context.Context, id uuid.UUID, update StatusUpdate) error
	// SetAgentOutput replaces the stored decision document.
	SetAgentOutput(ctx context.Context, id uuid.UUID, doc json.RawMessage) error
	Stats(ctx context.Context) (*Stats, error)
}
