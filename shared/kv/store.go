// shared/kv/store.go
package kv

import (
	"context"
	"errors"
)

// Version is a per-key modification counter maintained by the store.
// A key that has never been written has version 0. Every successful Set,
// IncrBy or Delete bumps it by one, and the counter survives deletion, so a
// version observed before a delete-and-recreate cycle can never validate
// again. That is what makes Check-based optimistic commits possible.
type Version int64

// ErrKeyNotFound is returned by Get when the key does not exist.
var ErrKeyNotFound = errors.New("kv: key not found")

// Store is the versioned key-value contract every ledger operation is built
// on. Implementations must guarantee that Commit on the returned Tx is
// all-or-nothing: either every mutation applies, or none do.
type Store interface {
	// Get returns the raw value and current version for key. When the key
	// is absent it returns ErrKeyNotFound together with the key's version:
	// 0 for a key that never existed, or the live counter of a deleted key.
	// Callers doing check-on-absence must Check against that version, not
	// against a literal 0.
	Get(ctx context.Context, key string) ([]byte, Version, error)

	// Scan visits every key matching the given prefix and calls fn with the
	// key and its raw value. The iteration order is unspecified and the
	// snapshot is not isolated from concurrent writes; callers that need
	// consistency must re-validate via Check at commit time.
	Scan(ctx context.Context, prefix string, fn func(key string, value []byte) error) error

	// Atomic starts building a new atomic transaction against this store.
	Atomic() Tx
}

// Tx accumulates version checks and mutations, then commits them in one
// atomic step. A Tx is single-use and not safe for concurrent use.
type Tx interface {
	// Check records that the commit must fail unless key is still at the
	// given version. Every key whose value influenced the mutations MUST be
	// checked, including keys on the other side of a two-party operation.
	Check(key string, expected Version)

	// Set overwrites key with value and bumps its version.
	Set(key string, value []byte)

	// Delete removes key's value and bumps its version. A deleted key reads
	// as absent but keeps its counter, so checks taken before the delete
	// fail against whatever replaces it.
	Delete(key string)

	// IncrBy adds delta to an integer-encoded value, creating the key at
	// delta if absent, and bumps its version.
	IncrBy(key string, delta int64)

	// Commit applies the batch. It returns (false, nil) when any Check
	// failed due to a concurrent modification; in that case nothing was
	// written. A non-nil error means the store itself failed.
	Commit(ctx context.Context) (bool, error)
}
