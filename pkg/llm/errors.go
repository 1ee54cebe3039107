package llm

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvocation matches every *InvocationError.
	ErrInvocation = errors.New("llm invocation failed")
	// ErrUnknownProvider indicates a request named an unregistered provider.
	ErrUnknownProvider = errors.New("unknown llm provider")
	// ErrEmptyResponse indicates the provider returned no text content.
	ErrEmptyResponse = errors.New("empty llm response")
)

// InvocationError describes a failed model call.
type InvocationError struct {
	Provider   string
	Model      string
	StatusCode int
	Retryable  bool
	Err        error
}

func (e *InvocationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Provider, e.Model, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Model, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrInvocation.
func (e *InvocationError) Is(target error) bool {
	return target == ErrInvocation
}

// IsRetryable reports whether err is an InvocationError marked retryable.
func IsRetryable(err error) bool {
	var ie *InvocationError
	return errors.As(err, &ie) && ie.Retryable
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
