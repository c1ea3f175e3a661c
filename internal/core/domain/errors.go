package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider or backend type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrUnknownSchema indicates a record schema name that is not registered.
	ErrUnknownSchema = errors.New("unknown record schema")

	// ErrSchemaMismatch indicates two records of different schemas were combined.
	ErrSchemaMismatch = errors.New("record schema mismatch")

	// ErrDimensionMismatch indicates an embedding whose length differs from the store dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Retrieval context and indexing are disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not configured.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrTierUnavailable indicates no model is configured for the requested tier.
	ErrTierUnavailable = errors.New("model tier unavailable")
)

// TransientProviderError is a provider failure that is expected to clear on
// its own: rate limiting, timeouts and server-side errors.
type TransientProviderError struct {
	// Provider names the backend that failed.
	Provider string

	// StatusCode is the HTTP status when known, 0 otherwise.
	StatusCode int

	// RetryAfter is the wait suggested by the provider, 0 when none was given.
	RetryAfter time.Duration

	Err error
}

func (e *TransientProviderError) Error() string {
	msg := fmt.Sprintf("%s: transient provider failure", e.Provider)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.RetryAfter > 0 {
		msg += fmt.Sprintf(", retry after %s", e.RetryAfter)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransientProviderError) Unwrap() error { return e.Err }

// ProviderError is a non-transient provider failure (bad credentials,
// unknown model, malformed request).
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	msg := e.Provider + ": provider failure"
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error { return e.Err }

// FatalGenerationError is returned when every tier and recovery step has
// been exhausted without producing a record.
type FatalGenerationError struct {
	Schema   Schema
	Attempts int
	Err      error
}

func (e *FatalGenerationError) Error() string {
	return fmt.Sprintf("generate %s record: gave up after %d attempt(s): %v", e.Schema, e.Attempts, e.Err)
}

func (e *FatalGenerationError) Unwrap() error { return e.Err }

// MalformedOutputError reports model output that could not be turned into a
// record, including output that echoes the schema instead of data.
type MalformedOutputError struct {
	// Reason is a short classification ("no json object", "schema regurgitation").
	Reason string

	// Snippet is the leading part of the offending text.
	Snippet string

	Err error
}

func (e *MalformedOutputError) Error() string {
	msg := "malformed model output: " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedOutputError) Unwrap() error { return e.Err }

// ValidationError reports a JSON object that is missing required fields
// or holds values of the wrong shape for its schema.
type ValidationError struct {
	Schema  Schema
	Missing []string
	Err     error
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("invalid %s record: missing %s", e.Schema, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("invalid %s record: %v", e.Schema, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// PersistenceError reports a durable store that could not be read or written.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("persistence %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsTransient returns true if err is or wraps a TransientProviderError.
func IsTransient(err error) bool {
	var terr *TransientProviderError
	return errors.As(err, &terr)
}

// RetryAfter returns the provider's suggested wait carried by err, if any.
func RetryAfter(err error) time.Duration {
	var terr *TransientProviderError
	if errors.As(err, &terr) {
		return terr.RetryAfter
	}
	return 0
}

// ClassifyStatus wraps err as a TransientProviderError for rate limiting,
// request timeouts and server errors, and as a ProviderError otherwise.
func ClassifyStatus(provider string, status int, retryAfter time.Duration, err error) error {
	if IsTransientStatus(status) {
		return &TransientProviderError{Provider: provider, StatusCode: status, RetryAfter: retryAfter, Err: err}
	}
	return &ProviderError{Provider: provider, StatusCode: status, Err: err}
}

// IsTransientStatus reports whether an HTTP status is worth retrying.
func IsTransientStatus(status int) bool {
	switch {
	case status == http.StatusTooManyRequests, status == http.StatusRequestTimeout:
		return true
	case status >= http.StatusInternalServerError:
		return true
	default:
		return false
	}
}
