package otpcode

import (
	"context"
	"time"
)

// Store persists outstanding codes. Implementations must make Consume atomic
// with respect to concurrent calls on the same handle: a compare-and-delete,
// not a read-then-delete pair.
type Store interface {
	// Put stores a new entry and invalidates any outstanding entry for the
	// same (email, purpose) pair, so a reissued code is the only live one.
	Put(ctx context.Context, entry Entry) error

	// Consume runs the full consume decision atomically: lookup, expiry
	// check (expired entries are deleted on observation), attempt
	// accounting, code comparison, deletion on success or lockout.
	Consume(ctx context.Context, handle, code string, now time.Time) (Result, error)

	// DeleteExpired sweeps entries whose expiry has passed.
	DeleteExpired(ctx context.Context, now time.Time) error
}
