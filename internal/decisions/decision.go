// Package decisions runs credit decisions for stored applications.
// It guards each application with a Redis lock so only one run is active
// per application, bounds background work, archives completed results,
// and streams progress to HTTP observers.
package decisions

import (
	"github.com/google/uuid"

	"github.com/JaimeStill/underwriter/internal/applications"
)

// Accepted acknowledges a queued decision run.
type Accepted struct {
	ApplicationID uuid.UUID           `json:"application_id"`
	Status        applications.Status `json:"status"`
	Queued        bool                `json:"queued"`
}

// BatchCommand lists the applications to decide in one request.
type BatchCommand struct {
	IDs []uuid.UUID `json:"ids"`
}

// BatchItem is the per-application result of a batch run.
// Error is set when the run could not complete.
type BatchItem struct {
	ApplicationID uuid.UUID           `json:"application_id"`
	Status        applications.Status `json:"status,omitempty"`
	Reason        *string             `json:"reason,omitempty"`
	Confidence    *float64            `json:"confidence,omitempty"`
	Error         string              `json:"error,omitempty"`
}
