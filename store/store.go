// Package store is the public entry point for the embedded key/value
// storage engine described by spec.md: an append-only, single-writer,
// single-process LSM-tree. Store is a thin wrapper over internal/engine —
// the direct descendant of the teacher's pkg/ignite.Instance — applying
// functional options and translating the engine's (value, found, error)
// return shape into the conventional Go (value, error) with a sentinel for
// "not found".
package store

import (
	"context"
	"errors"

	"github.com/iamNilotpal/lsmkv/internal/engine"
	lsmerrors "github.com/iamNilotpal/lsmkv/pkg/errors"
	"github.com/iamNilotpal/lsmkv/pkg/logger"
	"github.com/iamNilotpal/lsmkv/pkg/options"
)

// ErrKeyNotFound is returned by Get when the key is absent from every tier:
// active memtable, frozen memtable, and every on-disk segment.
var ErrKeyNotFound = errors.New("store: key not found")

// Store is the primary handle for interacting with one data directory. A
// Store owns its own background flush and compaction workers; open exactly
// one Store per data directory, since spec.md's Non-goals rule out
// concurrent writers.
type Store struct {
	engine  *engine.Engine
	options *options.Options
}

// Open creates or recovers a Store, applying opts over the documented
// defaults (see pkg/options) — most callers will at least pass
// options.WithDataDir. service names the logger, matching the teacher's
// NewInstance(ctx, service, opts...) shape. The resulting configuration is
// validated before anything touches disk; a malformed combination (suffix
// collisions, zero periods, empty fields) is rejected with a ValidationError
// rather than accepted silently.
func Open(ctx context.Context, service string, opts ...options.OptionFunc) (*Store, error) {
	o := options.NewDefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if err := o.Validate(); err != nil {
		return nil, err
	}

	log := logger.New(service)

	eng, err := engine.New(ctx, &engine.Config{Logger: log, Options: &o})
	if err != nil {
		return nil, err
	}

	return &Store{engine: eng, options: &o}, nil
}

// Get returns the value stored for key, or ErrKeyNotFound if it isn't
// present. The returned slice is a private copy; callers may mutate it
// freely.
func (s *Store) Get(key []byte) ([]byte, error) {
	v, ok, err := s.engine.Get(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrKeyNotFound
	}
	return v, nil
}

// Set durably writes key/value: by the time Set returns, the record has been
// fsynced to the write-ahead log and is visible to subsequent Gets, per
// spec.md §5's durability property. A zero-length key is rejected per
// spec.md §7's reserved KeyNotAllowed behavior.
func (s *Store) Set(key, value []byte) error {
	if len(key) == 0 {
		return lsmerrors.NewStorageError(nil, lsmerrors.ErrorCodeKeyNotAllowed, "key must not be empty")
	}
	return s.engine.Set(key, value)
}

// Close flushes any remaining in-memory data to disk and releases all file
// handles. After Close returns, every acknowledged Set is durably recorded
// in either a segment file or a write-ahead log that will be recovered by
// the next Open.
func (s *Store) Close() error {
	return s.engine.Close()
}

// ForceClose stops the background workers without waiting for them or
// performing Close's synchronous final flush. Any data still only in the
// active memtable remains recorded in its write-ahead log and is recovered
// by the next Open, but this call itself does not wait for that to happen —
// use it only when Close's latency is unacceptable.
func (s *Store) ForceClose() error {
	return s.engine.ForceClose()
}
