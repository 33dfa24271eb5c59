package registry

import (
	"context"
	"errors"

	"github.com/sixt-edu/student-registry/internal/domain/lookup"
	"github.com/sixt-edu/student-registry/internal/domain/shared"
)

// Resolver turns human-readable lookup names into canonical ids and back.
// It is only invoked with non-empty names; an absent name never reaches it.
type Resolver struct {
	lookups lookup.Repository
}

// NewResolver creates a Resolver over the lookup tables.
func NewResolver(lookups lookup.Repository) *Resolver {
	return &Resolver{lookups: lookups}
}

// Resolve returns the lookup id for name within kind. A missing row surfaces
// as the kind's ReferenceNotFound error.
func (r *Resolver) Resolve(ctx context.Context, kind lookup.Kind, name string) (int64, error) {
	rec, err := r.lookups.FindByName(ctx, kind, name)
	if err != nil {
		if shared.IsReferenceNotFound(err) {
			return 0, err
		}
		return 0, shared.WrapError("lookup", "Resolve", shared.ErrInternal, "lookup query failed", err)
	}
	return rec.ID, nil
}

// NameOf returns the display name for a lookup id on a projection. A nil id
// means no reference and maps to the empty string; a dangling id is rendered
// empty rather than failing the read, since the store's foreign keys make it
// unreachable in practice.
func (r *Resolver) NameOf(ctx context.Context, kind lookup.Kind, id *int64) (string, error) {
	if id == nil {
		return "", nil
	}
	rec, err := r.lookups.FindByID(ctx, kind, *id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", nil
		}
		return "", shared.WrapError("lookup", "NameOf", shared.ErrInternal, "lookup query failed", err)
	}
	return rec.Name, nil
}
