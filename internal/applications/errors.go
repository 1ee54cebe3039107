package applications

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Domain errors for application operations.
var (
	ErrNotFound           = errors.New("application not found")
	ErrDuplicate          = errors.New("application already exists")
	ErrInvalidApplication = errors.New("invalid application")
	ErrPersistence        = errors.New("application persistence failed")
)

// ValidationError maps offending fields to the rule they failed.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s: %s", name, e.Fields[name])
	}
	return fmt.Sprintf("%s: %s", ErrInvalidApplication, strings.Join(parts, ", "))
}

// Is reports whether target is ErrInvalidApplication.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidApplication
}

// MapHTTPStatus maps application domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrInvalidApplication) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
