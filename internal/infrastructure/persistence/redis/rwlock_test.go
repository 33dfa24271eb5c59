package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sixt-edu/student-registry/internal/domain/shared"
)

func newTestLock(t *testing.T) (*RWLock, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRWLock(NewCacheWithClient(client)), mr
}

func TestRWLock_WriteExcludesWrite(t *testing.T) {
	lock, _ := newTestLock(t)
	ctx := context.Background()

	h1, err := lock.AcquireWrite(ctx, "SV001", time.Second, 30*time.Second)
	require.NoError(t, err)
	defer h1.Release(ctx)

	_, err = lock.AcquireWrite(ctx, "SV001", 50*time.Millisecond, 30*time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrLockUnavailable)
}

func TestRWLock_WriteExcludesRead(t *testing.T) {
	lock, _ := newTestLock(t)
	ctx := context.Background()

	h, err := lock.AcquireWrite(ctx, "SV001", time.Second, 30*time.Second)
	require.NoError(t, err)
	defer h.Release(ctx)

	_, err = lock.AcquireRead(ctx, "SV001", 50*time.Millisecond, 30*time.Second)
	assert.ErrorIs(t, err, shared.ErrLockUnavailable)
}

func TestRWLock_ReadersShare(t *testing.T) {
	lock, _ := newTestLock(t)
	ctx := context.Background()

	h1, err := lock.AcquireRead(ctx, "SV001", time.Second, 30*time.Second)
	require.NoError(t, err)
	h2, err := lock.AcquireRead(ctx, "SV001", time.Second, 30*time.Second)
	require.NoError(t, err)

	// A writer is blocked while any reader holds the key.
	_, err = lock.AcquireWrite(ctx, "SV001", 50*time.Millisecond, 30*time.Second)
	assert.ErrorIs(t, err, shared.ErrLockUnavailable)

	h1.Release(ctx)
	_, err = lock.AcquireWrite(ctx, "SV001", 50*time.Millisecond, 30*time.Second)
	assert.ErrorIs(t, err, shared.ErrLockUnavailable, "one reader still holds")

	h2.Release(ctx)
	h3, err := lock.AcquireWrite(ctx, "SV001", time.Second, 30*time.Second)
	require.NoError(t, err, "last reader gone, writer may proceed")
	h3.Release(ctx)
}

func TestRWLock_IndependentKeys(t *testing.T) {
	lock, _ := newTestLock(t)
	ctx := context.Background()

	h1, err := lock.AcquireWrite(ctx, "SV001", time.Second, 30*time.Second)
	require.NoError(t, err)
	defer h1.Release(ctx)

	h2, err := lock.AcquireWrite(ctx, "SV002", time.Second, 30*time.Second)
	require.NoError(t, err, "locks on different keys never contend")
	h2.Release(ctx)
}

func TestRWLock_WriteReleaseAllowsNextWriter(t *testing.T) {
	lock, _ := newTestLock(t)
	ctx := context.Background()

	h1, err := lock.AcquireWrite(ctx, "SV001", time.Second, 30*time.Second)
	require.NoError(t, err)
	h1.Release(ctx)

	h2, err := lock.AcquireWrite(ctx, "SV001", time.Second, 30*time.Second)
	require.NoError(t, err)
	h2.Release(ctx)
}

func TestRWLock_ReleaseIdempotent(t *testing.T) {
	lock, _ := newTestLock(t)
	ctx := context.Background()

	h, err := lock.AcquireWrite(ctx, "SV001", time.Second, 30*time.Second)
	require.NoError(t, err)

	h.Release(ctx)
	h.Release(ctx) // second release is a no-op

	held, err := lock.IsHeld(ctx, "SV001")
	require.NoError(t, err)
	assert.False(t, held)
}

func TestRWLock_ReleaseDoesNotClobberNewOwner(t *testing.T) {
	lock, mr := newTestLock(t)
	ctx := context.Background()

	h1, err := lock.AcquireWrite(ctx, "SV001", time.Second, 100*time.Millisecond)
	require.NoError(t, err)

	// Lease expires; someone else takes the lock.
	mr.FastForward(200 * time.Millisecond)
	h2, err := lock.AcquireWrite(ctx, "SV001", time.Second, 30*time.Second)
	require.NoError(t, err)

	// The stale holder's release must not free the new owner's lease.
	h1.Release(ctx)
	held, err := lock.IsHeld(ctx, "SV001")
	require.NoError(t, err)
	assert.True(t, held)

	h2.Release(ctx)
}

func TestRWLock_LeaseExpiryUnwedges(t *testing.T) {
	lock, mr := newTestLock(t)
	ctx := context.Background()

	_, err := lock.AcquireWrite(ctx, "SV001", time.Second, 100*time.Millisecond)
	require.NoError(t, err)

	// Holder crashes without releasing; after the hold budget the key frees
	// itself.
	mr.FastForward(200 * time.Millisecond)

	h, err := lock.AcquireWrite(ctx, "SV001", time.Second, 30*time.Second)
	require.NoError(t, err)
	h.Release(ctx)
}

func TestRWLock_LaterReaderCannotTruncateLease(t *testing.T) {
	lock, mr := newTestLock(t)
	ctx := context.Background()

	h1, err := lock.AcquireRead(ctx, "SV001", time.Second, 30*time.Second)
	require.NoError(t, err)
	defer h1.Release(ctx)

	// A second reader with a much shorter hold budget must not shrink the
	// lease covering the first.
	h2, err := lock.AcquireRead(ctx, "SV001", time.Second, 100*time.Millisecond)
	require.NoError(t, err)
	defer h2.Release(ctx)

	mr.FastForward(200 * time.Millisecond)

	_, err = lock.AcquireWrite(ctx, "SV001", 50*time.Millisecond, 30*time.Second)
	assert.ErrorIs(t, err, shared.ErrLockUnavailable,
		"first reader's lease still excludes writers")
}

func TestRWLock_ReaderLeaseExtendsToLongestHold(t *testing.T) {
	lock, mr := newTestLock(t)
	ctx := context.Background()

	_, err := lock.AcquireRead(ctx, "SV001", time.Second, 100*time.Millisecond)
	require.NoError(t, err)
	_, err = lock.AcquireRead(ctx, "SV001", time.Second, 500*time.Millisecond)
	require.NoError(t, err)

	// Neither reader releases. The set expires on the longer budget, not the
	// first one registered.
	mr.FastForward(200 * time.Millisecond)
	_, err = lock.AcquireWrite(ctx, "SV001", 50*time.Millisecond, 30*time.Second)
	assert.ErrorIs(t, err, shared.ErrLockUnavailable)

	mr.FastForward(400 * time.Millisecond)
	h, err := lock.AcquireWrite(ctx, "SV001", time.Second, 30*time.Second)
	require.NoError(t, err)
	h.Release(ctx)
}

func TestRWLock_WaitTimeoutKind(t *testing.T) {
	lock, _ := newTestLock(t)
	ctx := context.Background()

	h, err := lock.AcquireWrite(ctx, "SV001", time.Second, 30*time.Second)
	require.NoError(t, err)
	defer h.Release(ctx)

	start := time.Now()
	_, err = lock.AcquireWrite(ctx, "SV001", 100*time.Millisecond, 30*time.Second)
	assert.ErrorIs(t, err, shared.ErrLockUnavailable)
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond, "caller waits the full budget before giving up")
}

func TestRWLock_CancellationKind(t *testing.T) {
	lock, _ := newTestLock(t)

	h, err := lock.AcquireWrite(context.Background(), "SV001", time.Second, 30*time.Second)
	require.NoError(t, err)
	defer h.Release(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err = lock.AcquireWrite(ctx, "SV001", 5*time.Second, 30*time.Second)
	assert.ErrorIs(t, err, shared.ErrCancelled, "cancellation reads as cancelled, not as lock exhaustion")
}

func TestRWLock_WriterWaitsOutReader(t *testing.T) {
	lock, _ := newTestLock(t)
	ctx := context.Background()

	h, err := lock.AcquireRead(ctx, "SV001", time.Second, 30*time.Second)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		wh, err := lock.AcquireWrite(ctx, "SV001", 2*time.Second, 30*time.Second)
		if err == nil {
			wh.Release(ctx)
		}
		done <- err
	}()

	time.Sleep(100 * time.Millisecond)
	h.Release(ctx)

	require.NoError(t, <-done, "queued writer proceeds once the reader releases")
}
