// Package service adapts infrastructure components to the interfaces the
// application layer consumes.
package service

import (
	"context"
	"time"

	"github.com/sixt-edu/student-registry/internal/application/registry"
	"github.com/sixt-edu/student-registry/internal/infrastructure/persistence/redis"
)

// RedisLockCoordinator presents the Redis reader/writer lock as the
// coordinator interface the registry services depend on.
type RedisLockCoordinator struct {
	locks *redis.RWLock
}

// NewRedisLockCoordinator creates the adapter.
func NewRedisLockCoordinator(locks *redis.RWLock) *RedisLockCoordinator {
	return &RedisLockCoordinator{locks: locks}
}

// AcquireWrite obtains the exclusive writer lease on key.
func (c *RedisLockCoordinator) AcquireWrite(ctx context.Context, key string, wait, hold time.Duration) (registry.LockHandle, error) {
	h, err := c.locks.AcquireWrite(ctx, key, wait, hold)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// AcquireRead obtains a shared reader lease on key.
func (c *RedisLockCoordinator) AcquireRead(ctx context.Context, key string, wait, hold time.Duration) (registry.LockHandle, error) {
	h, err := c.locks.AcquireRead(ctx, key, wait, hold)
	if err != nil {
		return nil, err
	}
	return h, nil
}
