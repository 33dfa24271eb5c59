// Package registry contains the aggregate write/read path for students: the
// lock-guarded, cache-aside orchestration of Create/Update/Delete and the
// two-mode search. Everything here runs under a per-business-key distributed
// lock; the persistent store stays authoritative and the cache only ever
// holds display projections.
package registry

import (
	"context"
	"time"
)

// LockHandle is one held lock. Release is idempotent and must be called on
// every exit path; a handle that is never released falls back on the lease
// expiry.
type LockHandle interface {
	Release(ctx context.Context)
}

// LockCoordinator is the distributed per-key reader/writer lock. A failed
// acquisition reports shared.ErrLockUnavailable (wait budget spent) or
// shared.ErrCancelled (wait interrupted); it never retries silently.
type LockCoordinator interface {
	AcquireWrite(ctx context.Context, key string, wait, hold time.Duration) (LockHandle, error)
	AcquireRead(ctx context.Context, key string, wait, hold time.Duration) (LockHandle, error)
}

// Config carries the lock budgets every registry operation runs under.
type Config struct {
	// LockWait bounds how long an operation waits for its lock.
	LockWait time.Duration

	// LockHold is the lease on an acquired lock; a crashed holder wedges the
	// key for at most this long.
	LockHold time.Duration
}

// DefaultConfig returns the budgets used when none are configured.
func DefaultConfig() Config {
	return Config{
		LockWait: 5 * time.Second,
		LockHold: 30 * time.Second,
	}
}
