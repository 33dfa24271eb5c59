package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sixt-edu/student-registry/internal/domain/shared"
	"github.com/sixt-edu/student-registry/internal/domain/student"
)

func newTestProjectionCache(t *testing.T) (*ProjectionCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewProjectionCache(NewCacheWithClient(client)), mr
}

func sampleProjection(id, name string) *student.Projection {
	return &student.Projection{
		StudentID:  id,
		FullName:   name,
		Department: "Computer Science",
		Status:     "Active",
	}
}

func TestProjectionCache_SetGet(t *testing.T) {
	pc, _ := newTestProjectionCache(t)
	ctx := context.Background()

	require.NoError(t, pc.Set(ctx, sampleProjection("SV001", "Nguyen Van A")))

	got, err := pc.Get(ctx, "SV001")
	require.NoError(t, err)
	assert.Equal(t, "Nguyen Van A", got.FullName)
	assert.Equal(t, "Computer Science", got.Department)
}

func TestProjectionCache_MissIsNotFound(t *testing.T) {
	pc, _ := newTestProjectionCache(t)

	_, err := pc.Get(context.Background(), "SV404")
	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

func TestProjectionCache_EntriesHaveNoExpiry(t *testing.T) {
	pc, mr := newTestProjectionCache(t)
	ctx := context.Background()

	require.NoError(t, pc.Set(ctx, sampleProjection("SV001", "Nguyen Van A")))

	ttl := mr.TTL(StudentKey("SV001"))
	assert.Zero(t, ttl, "projection entries live until invalidated, not until a TTL")
}

func TestProjectionCache_Invalidate(t *testing.T) {
	pc, _ := newTestProjectionCache(t)
	ctx := context.Background()

	require.NoError(t, pc.Set(ctx, sampleProjection("SV001", "Nguyen Van A")))
	require.NoError(t, pc.Invalidate(ctx, "SV001"))

	_, err := pc.Get(ctx, "SV001")
	assert.True(t, shared.IsNotFound(err))
}

func TestProjectionCache_InvalidateMissingKey(t *testing.T) {
	pc, _ := newTestProjectionCache(t)
	assert.NoError(t, pc.Invalidate(context.Background(), "SV404"))
}

func TestProjectionCache_Scan(t *testing.T) {
	pc, _ := newTestProjectionCache(t)
	ctx := context.Background()

	require.NoError(t, pc.Set(ctx, sampleProjection("SV001", "Nguyen Van A")))
	require.NoError(t, pc.Set(ctx, sampleProjection("SV002", "Tran Thi B")))
	require.NoError(t, pc.Set(ctx, sampleProjection("SV003", "Le Van C")))

	seen := map[string]bool{}
	err := pc.Scan(ctx, func(p *student.Projection) bool {
		seen[p.StudentID] = true
		return true
	})
	require.NoError(t, err)
	assert.Len(t, seen, 3)
	assert.True(t, seen["SV002"])
}

func TestProjectionCache_ScanStopsEarly(t *testing.T) {
	pc, _ := newTestProjectionCache(t)
	ctx := context.Background()

	require.NoError(t, pc.Set(ctx, sampleProjection("SV001", "Nguyen Van A")))
	require.NoError(t, pc.Set(ctx, sampleProjection("SV002", "Tran Thi B")))

	count := 0
	err := pc.Scan(ctx, func(p *student.Projection) bool {
		count++
		return false
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestProjectionCache_ScanSkipsCorruptEntries(t *testing.T) {
	pc, mr := newTestProjectionCache(t)
	ctx := context.Background()

	require.NoError(t, pc.Set(ctx, sampleProjection("SV001", "Nguyen Van A")))
	require.NoError(t, mr.Set(StudentKey("SV999"), "{not json"))

	var ids []string
	err := pc.Scan(ctx, func(p *student.Projection) bool {
		ids = append(ids, p.StudentID)
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"SV001"}, ids)
}

func TestProjectionCache_ScanIgnoresForeignKeys(t *testing.T) {
	pc, mr := newTestProjectionCache(t)
	ctx := context.Background()

	require.NoError(t, pc.Set(ctx, sampleProjection("SV001", "Nguyen Van A")))
	require.NoError(t, mr.Set("lock:w:SV001", "token"))

	count := 0
	err := pc.Scan(ctx, func(p *student.Projection) bool {
		count++
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count, "only the student namespace is enumerated")
}
