package redis

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sixt-edu/student-registry/internal/domain/shared"
)

// RWLock is a distributed per-key reader/writer lock over Redis. Callers may
// run on different machines; the only shared state is the two Redis keys per
// business key:
//
//	lock:w:{key} - the writer lease, a token string with PX expiry
//	lock:r:{key} - the reader set, a hash of owner tokens with key expiry
//
// A writer excludes everyone on the key; readers exclude only writers. The
// hold budget is a lease: if a holder crashes without releasing, the keys
// expire on their own and the key unwedges itself. There is no deadlock
// detector beyond that.
//
// Waiting is a poll loop rather than a blocking primitive; the retry interval
// is short enough that the extra latency is noise next to the store
// round-trips the lock protects.
type RWLock struct {
	client        *redis.Client
	retryInterval time.Duration
}

// NewRWLock creates a lock coordinator over the given cache connection.
func NewRWLock(cache *Cache) *RWLock {
	return &RWLock{
		client:        cache.Client(),
		retryInterval: 25 * time.Millisecond,
	}
}

// acquireWriteScript takes the writer lease only when neither a writer nor
// any reader holds the key.
var acquireWriteScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
if redis.call('EXISTS', KEYS[2]) == 1 then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
return 1
`)

// acquireReadScript registers a reader token unless a writer holds the key.
// The reader-set TTL only ever grows: it covers the longest outstanding hold
// budget, so a short-lived reader cannot truncate the lease of one still
// inside its own budget. The lease is per key, not per reader, which is
// coarse but crash-safe.
var acquireReadScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('HSET', KEYS[2], ARGV[1], 1)
local ttl = redis.call('PTTL', KEYS[2])
if ttl < tonumber(ARGV[2]) then
	redis.call('PEXPIRE', KEYS[2], ARGV[2])
end
return 1
`)

// releaseWriteScript deletes the lease only when the caller still owns it, so
// a lease that expired and was re-acquired by someone else is never clobbered.
var releaseWriteScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// releaseReadScript removes the caller's token and drops the set when empty.
var releaseReadScript = redis.NewScript(`
redis.call('HDEL', KEYS[1], ARGV[1])
if redis.call('HLEN', KEYS[1]) == 0 then
	redis.call('DEL', KEYS[1])
end
return 1
`)

type lockMode int

const (
	modeRead lockMode = iota
	modeWrite
)

// Handle represents one held lock. Release is idempotent: releasing twice, or
// releasing a lease that has already expired, is a no-op.
type Handle struct {
	lock     *RWLock
	key      string
	token    string
	mode     lockMode
	released atomic.Bool
}

// Release gives the lock back. Safe to call on every exit path; errors from
// Redis are swallowed because the lease expiry bounds the damage of a failed
// release.
func (h *Handle) Release(ctx context.Context) {
	if h == nil || !h.released.CompareAndSwap(false, true) {
		return
	}

	switch h.mode {
	case modeWrite:
		_ = releaseWriteScript.Run(ctx, h.lock.client,
			[]string{PrefixWriteLock + h.key}, h.token).Err()
	case modeRead:
		_ = releaseReadScript.Run(ctx, h.lock.client,
			[]string{PrefixReadLock + h.key}, h.token).Err()
	}
}

// AcquireWrite obtains the exclusive writer lease on key, waiting up to wait.
// Returns shared.ErrLockUnavailable when the wait budget expires and
// shared.ErrCancelled when ctx is cancelled mid-wait; a cancelled wait is
// reported, never silently retried.
func (l *RWLock) AcquireWrite(ctx context.Context, key string, wait, hold time.Duration) (*Handle, error) {
	token := uuid.NewString()
	try := func(ctx context.Context) (bool, error) {
		res, err := acquireWriteScript.Run(ctx, l.client,
			[]string{PrefixWriteLock + key, PrefixReadLock + key},
			token, hold.Milliseconds()).Int64()
		if err != nil {
			return false, shared.WrapError("lock", "AcquireWrite", shared.ErrInternal, "lock service failure", err)
		}
		return res == 1, nil
	}

	if err := l.waitFor(ctx, wait, try); err != nil {
		return nil, err
	}
	return &Handle{lock: l, key: key, token: token, mode: modeWrite}, nil
}

// AcquireRead obtains a shared reader slot on key, waiting up to wait for any
// writer to clear. Outcomes mirror AcquireWrite.
func (l *RWLock) AcquireRead(ctx context.Context, key string, wait, hold time.Duration) (*Handle, error) {
	token := uuid.NewString()
	try := func(ctx context.Context) (bool, error) {
		res, err := acquireReadScript.Run(ctx, l.client,
			[]string{PrefixWriteLock + key, PrefixReadLock + key},
			token, hold.Milliseconds()).Int64()
		if err != nil {
			return false, shared.WrapError("lock", "AcquireRead", shared.ErrInternal, "lock service failure", err)
		}
		return res == 1, nil
	}

	if err := l.waitFor(ctx, wait, try); err != nil {
		return nil, err
	}
	return &Handle{lock: l, key: key, token: token, mode: modeRead}, nil
}

// waitFor polls try until it succeeds, the wait budget runs out, or ctx is
// cancelled.
func (l *RWLock) waitFor(ctx context.Context, wait time.Duration, try func(ctx context.Context) (bool, error)) error {
	deadline := time.Now().Add(wait)

	for {
		ok, err := try(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return shared.NewDomainError("lock", "Acquire", shared.ErrLockUnavailable, "wait budget exhausted")
		}

		select {
		case <-ctx.Done():
			return shared.WrapError("lock", "Acquire", shared.ErrCancelled, "wait interrupted", ctx.Err())
		case <-time.After(l.retryInterval):
		}
	}
}

// IsHeld reports whether any writer or reader currently holds the key.
// Used by tests and health diagnostics, not by the lock protocol itself.
func (l *RWLock) IsHeld(ctx context.Context, key string) (bool, error) {
	n, err := l.client.Exists(ctx, PrefixWriteLock+key, PrefixReadLock+key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
