// Package storage implements the Object Store Adapter: a thin capability
// surface over an external blob store used by the chunk assembler and the
// ingestion orchestrator.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by GetRange/Exists-adjacent calls when the key
// does not exist. The Chunk Assembler treats this as "no prior chunks".
var ErrNotFound = errors.New("storage: object not found")

// Adapter is the Object Store Adapter contract (spec §4.1).
type Adapter interface {
	// Put uploads a complete object, overwriting any existing object at key.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// GetRange returns an ordered byte stream for [start, endInclusive]. If
	// endInclusive is nil, the stream runs to EOF. The returned ReadCloser
	// must be closed by the caller to cancel an in-flight read.
	GetRange(ctx context.Context, key string, start int64, endInclusive *int64) (io.ReadCloser, error)

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// AppendViaRewrite is not a native append: it downloads the existing
	// object (treating ErrNotFound as empty), concatenates chunkBytes, and
	// re-uploads the whole thing. This is a deliberate spec tradeoff for
	// chunk sizes in the tens of MB (see spec §4.2, §9) — it assumes strict
	// client-side chunk ordering; out-of-order chunks corrupt the object.
	// LocalAdapter appends to the file in place instead; the resulting bytes
	// are the same.
	AppendViaRewrite(ctx context.Context, key string, chunkBytes []byte) error

	// Delete removes the object at key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// transientError wraps an underlying error to mark it retryable by
// internal/pkg/backoff.
type transientError struct{ err error }

func (e transientError) Error() string  { return e.err.Error() }
func (e transientError) Unwrap() error  { return e.err }
func (e transientError) Retryable() bool { return true }

func transient(err error) error {
	if err == nil {
		return nil
	}
	return transientError{err}
}
