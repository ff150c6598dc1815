package domain

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid user input.
	// Callers map it to a client-class error.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfiguration indicates a missing credential or unusable setting.
	// It is never retried.
	ErrConfiguration = errors.New("configuration error")

	// ErrTransient marks an infrastructure failure that is worth retrying.
	// Adapters wrap it around failures that are not network errors but
	// still indicate a temporarily unavailable service (e.g. HTTP 503).
	ErrTransient = errors.New("transient failure")

	// ErrUnsupportedType indicates a file type that cannot be ingested.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrSyncInProgress indicates another sync attempt holds the lock.
	ErrSyncInProgress = errors.New("sync in progress")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index did not answer
	// its liveness probe.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrNoText indicates extraction produced no usable text.
	ErrNoText = errors.New("no extractable text")
)

// IsTransient reports whether err is a connection-class failure:
// refused or reset connections, timeouts, DNS failures, truncated
// responses, or anything wrapping ErrTransient.
// Cancellation of the caller's context is never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrTransient) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

// IsClientError reports whether err was caused by the caller's input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
