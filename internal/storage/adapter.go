package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Adapter reads and writes typed JSON values on top of a Store.
type Adapter struct {
	store  Store
	logger zerolog.Logger
}

// NewAdapter wraps store. Read failures that get replaced by defaults are logged on logger.
func NewAdapter(store Store, logger zerolog.Logger) *Adapter {
	return &Adapter{store: store, logger: logger}
}

// Store returns the underlying Store.
func (a *Adapter) Store() Store {
	return a.store
}

// Load reads the entry under key and returns it decoded as T.
// When the entry is missing, unparsable, or rejected by valid, def is written back
// under key and returned instead. Read problems are never surfaced to the caller.
func Load[T any](a *Adapter, key string, def T, valid Predicate) T {
	value, err := read[T](a.store, key, valid)
	if err == nil {
		return value
	}

	if errors.Is(err, ErrNotFound) {
		a.logger.Debug().Str("key", key).Msg("No stored entry, seeding default")
	} else {
		a.logger.Warn().Err(err).Str("key", key).Msg("Stored entry unusable, replacing with default")
	}

	if saveErr := Save(a, key, def); saveErr != nil {
		// The default is still returned; the next successful save fixes the store.
		a.logger.Error().Err(saveErr).Str("key", key).Msg("Failed to write default back to store")
	}
	return def
}

func read[T any](store Store, key string, valid Predicate) (T, error) {
	var value T
	raw, err := store.Get(key)
	if err != nil {
		return value, err
	}
	if valid != nil && !valid(raw) {
		return value, fmt.Errorf("entry %q failed shape check", key)
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return value, fmt.Errorf("failed to unmarshal entry %q: %w", key, err)
	}
	return value, nil
}

// Save serialises value and writes it under key.
// Any failure is returned as a *WriteError; the store is either fully updated or untouched.
func Save[T any](a *Adapter, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return &WriteError{Key: key, Err: fmt.Errorf("failed to marshal value: %w", err)}
	}
	if err := a.store.Set(key, data); err != nil {
		return &WriteError{Key: key, Err: err}
	}
	a.logger.Debug().Str("key", key).Int("bytes", len(data)).Msg("Saved entry")
	return nil
}
