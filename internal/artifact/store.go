// ABOUTME: Store interface and errors for per-run artifact document storage
// ABOUTME: Defines the atomic Put/Get/List contract shared by fs, memory, and s3 backends

package artifact

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a run or document does not exist.
var ErrNotFound = errors.New("artifact not found")

// ErrUnavailable is returned when the underlying storage substrate cannot be
// reached. Transient: idempotent reads and writes may be retried.
var ErrUnavailable = errors.New("artifact storage unavailable")

// SerializationError indicates a document that exists but cannot be decoded.
// Fatal: the document requires manual intervention and is never silently dropped.
type SerializationError struct {
	RunID string
	Name  string
	Err   error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("artifact %s in run %s is corrupt: %v", e.Name, e.RunID, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// Store provides atomic document storage scoped by run ID. Writes are
// whole-document replacements: a reader never observes a half-written
// document. Names may contain "/" to form logical directories.
type Store interface {
	// Put writes data under name in the given run, replacing any prior
	// content atomically.
	Put(ctx context.Context, runID, name string, data []byte) error

	// Get returns the full content of the named document, or ErrNotFound.
	Get(ctx context.Context, runID, name string) ([]byte, error)

	// List returns the names of all documents in the run whose name starts
	// with prefix, sorted lexically. A run with no documents yields an
	// empty slice, not an error.
	List(ctx context.Context, runID, prefix string) ([]string, error)
}
