package decisions

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/underwriter/internal/applications"
	"github.com/JaimeStill/underwriter/workflow"
)

// Domain errors for decision operations.
var (
	ErrInProgress    = errors.New("decision already in progress")
	ErrEmptyBatch    = errors.New("batch contains no application ids")
	ErrBatchTooLarge = errors.New("batch exceeds maximum size")
)

// MapHTTPStatus maps decision errors to HTTP status codes.
// Persistence failures are checked before pipeline failures since a
// failed terminal write wraps both.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, applications.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInProgress):
		return http.StatusConflict
	case errors.Is(err, applications.ErrInvalidApplication),
		errors.Is(err, ErrEmptyBatch),
		errors.Is(err, ErrBatchTooLarge):
		return http.StatusBadRequest
	case errors.Is(err, workflow.ErrPersistence),
		errors.Is(err, applications.ErrPersistence):
		return http.StatusInternalServerError
	case errors.Is(err, workflow.ErrPipelineFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
