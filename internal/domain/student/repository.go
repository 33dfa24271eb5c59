package student

import "context"

// ChildReplacement describes what happens to one child set during an
// aggregate update: either it is left untouched (Replace false) or the stored
// set is deleted and Records inserted in its place. There is no partial merge.
type ChildReplacement[T any] struct {
	Replace bool
	Records []T
}

// Keep leaves the child set untouched.
func Keep[T any]() ChildReplacement[T] {
	return ChildReplacement[T]{}
}

// ReplaceWith replaces the whole child set with the given records.
func ReplaceWith[T any](records []T) ChildReplacement[T] {
	return ChildReplacement[T]{Replace: true, Records: records}
}

// AggregateUpdate carries the merged parent record plus the child-set
// decisions into a single atomic store write.
type AggregateUpdate struct {
	Student   *Record
	Addresses ChildReplacement[Address]
	Identity  ChildReplacement[IdentityDocument]
}

// Store is the persistent home of the aggregate. Every mutating method is a
// single transactional boundary: the parent and all named children commit
// together or not at all. The orphan risk of writing children outside the
// parent's transaction is exactly what this interface exists to prevent.
//
// Implementations return shared.ErrStudentNotFound (wrapped) when the business
// key does not exist, and shared.ErrConflict-kinded errors on unique
// violations of studentId or email.
type Store interface {
	// FindByStudentID returns the parent record by business key.
	FindByStudentID(ctx context.Context, studentID string) (*Record, error)

	// FindByEmail returns the parent record by its unique email.
	FindByEmail(ctx context.Context, email string) (*Record, error)

	// LoadChildren returns the address list and identity document for the
	// business key. A missing document is (nil, ...) rather than an error.
	LoadChildren(ctx context.Context, studentID string) ([]Address, *IdentityDocument, error)

	// CreateAggregate inserts the parent and children atomically, filling in
	// the store-assigned ids and timestamps on the passed records.
	CreateAggregate(ctx context.Context, rec *Record, addresses []Address, identity *IdentityDocument) error

	// UpdateAggregate persists a merged parent and applies the child-set
	// replacements atomically. The updated-at stamp is refreshed by the store.
	UpdateAggregate(ctx context.Context, upd AggregateUpdate) error

	// DeleteAggregate removes the parent and every child atomically.
	DeleteAggregate(ctx context.Context, studentID string) error

	// SearchBySubstring returns parents whose studentId or fullName contains
	// the keyword, case-insensitively.
	SearchBySubstring(ctx context.Context, keyword string) ([]Record, error)

	// FindByDepartment returns parents in the department, optionally filtered
	// by a case-insensitive fullName substring.
	FindByDepartment(ctx context.Context, departmentID int64, nameFilter string) ([]Record, error)

	// ListAll returns every parent record, ordered by studentId. Used by the
	// bulk export path only.
	ListAll(ctx context.Context) ([]Record, error)
}

// ProjectionCache is the cache-aside side of the read path. It is never
// authoritative: a miss falls through to the Store, a failed write degrades to
// a slower read later. Entries have no expiry at this layer; they live until
// a writer invalidates or overwrites them.
type ProjectionCache interface {
	// Get returns the cached projection. A miss is a not-found kinded error;
	// any other error means the cache itself is unhealthy, and callers fall
	// back to the Store either way.
	Get(ctx context.Context, studentID string) (*Projection, error)

	// Set stores the projection under the student's business key.
	Set(ctx context.Context, p *Projection) error

	// Invalidate removes the entry for the business key.
	Invalidate(ctx context.Context, studentID string) error

	// Scan streams every cached projection in the student namespace to fn,
	// stopping early when fn returns false. The enumeration is best-effort
	// and may be stale relative to concurrent writers.
	Scan(ctx context.Context, fn func(p *Projection) bool) error
}
