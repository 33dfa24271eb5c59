package lookup

import "context"

// Repository provides access to one reference table, selected by Kind.
// Reads return shared.ErrLookupNotFound (wrapped) on a missing row; writes
// return shared.ErrLookupNameExists on a name collision.
type Repository interface {
	// FindByName returns the row whose unique name matches exactly.
	FindByName(ctx context.Context, kind Kind, name string) (*Record, error)

	// FindByID returns the row by its surrogate id.
	FindByID(ctx context.Context, kind Kind, id int64) (*Record, error)

	// List returns all rows of the table, ordered by name.
	List(ctx context.Context, kind Kind) ([]Record, error)

	// Create inserts a new row and fills in its store-assigned id.
	Create(ctx context.Context, kind Kind, rec *Record) error

	// Rename changes the display name of an existing row.
	Rename(ctx context.Context, kind Kind, id int64, name string) (*Record, error)

	// Delete removes a row. Rows referenced by students are protected by the
	// store's foreign keys; the resulting error surfaces as Internal.
	Delete(ctx context.Context, kind Kind, id int64) error
}
