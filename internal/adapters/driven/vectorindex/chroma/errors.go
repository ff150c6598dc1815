package chroma

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/custodia-labs/docsync/internal/core/domain"
)

// APIError is a non-2xx response from the Chroma server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("chroma: status %d: %s", e.StatusCode, e.Message)
}

// Unwrap exposes domain.ErrTransient for responses worth retrying.
func (e *APIError) Unwrap() error {
	if e.Retryable() {
		return domain.ErrTransient
	}
	return nil
}

// Retryable reports whether the server was overloaded or unavailable.
func (e *APIError) Retryable() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
