package redis

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/sixt-edu/student-registry/internal/domain/shared"
	"github.com/sixt-edu/student-registry/internal/domain/student"
)

// ProjectionCache implements student.ProjectionCache over the generic Cache.
// It holds display projections only; the Postgres store keeps the
// authoritative records.
type ProjectionCache struct {
	cache *Cache
}

// NewProjectionCache creates a new ProjectionCache.
func NewProjectionCache(cache *Cache) *ProjectionCache {
	return &ProjectionCache{cache: cache}
}

// Get returns the cached projection. A miss comes back as a not-found kinded
// error so callers can tell it apart from a broken connection.
func (p *ProjectionCache) Get(ctx context.Context, studentID string) (*student.Projection, error) {
	var proj student.Projection
	if err := p.cache.Get(ctx, StudentKey(studentID), &proj); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, shared.WrapError("cache", "Get", shared.ErrNotFound, "projection not cached", err)
		}
		return nil, err
	}
	return &proj, nil
}

// Set stores the projection under the student's business key.
func (p *ProjectionCache) Set(ctx context.Context, proj *student.Projection) error {
	if proj == nil {
		return nil
	}
	return p.cache.Set(ctx, StudentKey(proj.StudentID), proj)
}

// Invalidate removes the entry for the business key.
func (p *ProjectionCache) Invalidate(ctx context.Context, studentID string) error {
	return p.cache.Delete(ctx, StudentKey(studentID))
}

// Scan streams cached projections in the student namespace to fn, stopping
// early when fn returns false. Entries that fail to decode are skipped rather
// than aborting the scan; a corrupt entry should not break search.
func (p *ProjectionCache) Scan(ctx context.Context, fn func(proj *student.Projection) bool) error {
	keys, err := p.cache.Keys(ctx, PrefixStudent)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	values, err := p.cache.MGet(ctx, keys...)
	if err != nil {
		return err
	}

	for _, raw := range values {
		var proj student.Projection
		if err := json.Unmarshal([]byte(raw), &proj); err != nil {
			continue
		}
		if !fn(&proj) {
			return nil
		}
	}
	return nil
}
