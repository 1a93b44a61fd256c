package storage

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Store.Get when no entry exists under the key.
var ErrNotFound = errors.New("storage: entry not found")

// ErrQuotaExceeded is returned by Store.Set when the write would exceed the store's size limit.
var ErrQuotaExceeded = errors.New("storage: quota exceeded")

// Store is a key/value store of serialised blobs.
// This allows swapping implementations (files on disk vs. per-session memory).
type Store interface {
	// Get returns the raw bytes stored under key, or ErrNotFound.
	Get(key string) ([]byte, error)

	// Set replaces the value under key. A failed Set leaves the previous value in place.
	Set(key string, value []byte) error

	// Delete removes the entry. Deleting a missing key is not an error.
	Delete(key string) error

	// Keys lists every key currently held.
	Keys() ([]string, error)
}

// WriteError reports a failed save. The caller's in-memory state stays authoritative.
type WriteError struct {
	Key string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("storage: failed to save %q: %v", e.Key, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
