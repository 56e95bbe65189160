// shared/kv/coordinator.go
package kv

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// ErrTxConflict is returned by Coordinator.Execute once the retry budget is
// exhausted against a contended key. No state was changed by any attempt.
var ErrTxConflict = errors.New("kv: transaction conflict, retries exhausted")

// DefaultMaxAttempts is the retry budget used when none is configured.
const DefaultMaxAttempts = 4

// maxBackoff bounds the randomized sleep between attempts. The jitter exists
// to de-correlate clients hammering the same key.
const maxBackoff = 50 * time.Millisecond

// Coordinator turns "read current state, decide mutation, atomic commit"
// into a safe retry loop. A failed commit means someone else modified a
// checked key between read and commit, so the whole read-compute-commit
// cycle is re-run from fresh reads.
type Coordinator struct {
	maxAttempts int
}

// NewCoordinator creates a Coordinator with the given retry budget.
// Values below 1 fall back to DefaultMaxAttempts.
func NewCoordinator(maxAttempts int) *Coordinator {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Coordinator{maxAttempts: maxAttempts}
}

// Execute runs fn up to the configured number of attempts. fn must perform
// all of its reads itself, build a transaction referencing only the versions
// captured during this attempt, and return it for commit. Returning a nil Tx
// means the operation decided there is nothing to write.
//
// A non-nil error from fn (a validation or business-rule failure) aborts
// immediately with no state touched. A commit conflict triggers a retry with
// randomized backoff; exhausting all attempts returns ErrTxConflict.
func (c *Coordinator) Execute(ctx context.Context, fn func(ctx context.Context) (Tx, error)) error {
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(rand.Int63n(int64(maxBackoff)))):
			}
		}

		tx, err := fn(ctx)
		if err != nil {
			return err
		}
		if tx == nil {
			return nil
		}

		ok, err := tx.Commit(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return ErrTxConflict
}
