package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sixt-edu/student-registry/internal/domain/lookup"
	"github.com/sixt-edu/student-registry/internal/domain/shared"
)

// LookupRepository implements lookup.Repository for PostgreSQL. The three
// reference tables share one shape (id, unique name), so one repository
// serves them all, keyed by lookup.Kind.
type LookupRepository struct {
	conn *Connection
}

// NewLookupRepository creates a new LookupRepository.
func NewLookupRepository(conn *Connection) *LookupRepository {
	return &LookupRepository{conn: conn}
}

// FindByName returns the row whose unique name matches exactly.
func (r *LookupRepository) FindByName(ctx context.Context, kind lookup.Kind, name string) (*lookup.Record, error) {
	table := kind.Table()
	if table == "" {
		return nil, shared.NewDomainError("lookup", "FindByName", shared.ErrValidation, "unknown lookup kind")
	}

	query := fmt.Sprintf(`SELECT id, name FROM %s WHERE name = $1`, table)

	var rec lookup.Record
	err := r.conn.QueryRow(ctx, query, name).Scan(&rec.ID, &rec.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, kind.NotFoundError()
		}
		return nil, fmt.Errorf("failed to query %s by name: %w", table, err)
	}
	return &rec, nil
}

// FindByID returns the row by its surrogate id.
func (r *LookupRepository) FindByID(ctx context.Context, kind lookup.Kind, id int64) (*lookup.Record, error) {
	table := kind.Table()
	if table == "" {
		return nil, shared.NewDomainError("lookup", "FindByID", shared.ErrValidation, "unknown lookup kind")
	}

	query := fmt.Sprintf(`SELECT id, name FROM %s WHERE id = $1`, table)

	var rec lookup.Record
	err := r.conn.QueryRow(ctx, query, id).Scan(&rec.ID, &rec.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrLookupNotFound
		}
		return nil, fmt.Errorf("failed to query %s by id: %w", table, err)
	}
	return &rec, nil
}

// List returns all rows of the table, ordered by name.
func (r *LookupRepository) List(ctx context.Context, kind lookup.Kind) ([]lookup.Record, error) {
	table := kind.Table()
	if table == "" {
		return nil, shared.NewDomainError("lookup", "List", shared.ErrValidation, "unknown lookup kind")
	}

	rows, err := r.conn.Query(ctx, fmt.Sprintf(`SELECT id, name FROM %s ORDER BY name`, table))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	defer rows.Close()

	var records []lookup.Record
	for rows.Next() {
		var rec lookup.Record
		if err := rows.Scan(&rec.ID, &rec.Name); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Create inserts a new row and fills in its store-assigned id.
func (r *LookupRepository) Create(ctx context.Context, kind lookup.Kind, rec *lookup.Record) error {
	table := kind.Table()
	if table == "" {
		return shared.NewDomainError("lookup", "Create", shared.ErrValidation, "unknown lookup kind")
	}

	query := fmt.Sprintf(`INSERT INTO %s (name) VALUES ($1) RETURNING id`, table)

	if err := r.conn.QueryRow(ctx, query, rec.Name).Scan(&rec.ID); err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrLookupNameExists
		}
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}

// Rename changes the display name of an existing row.
func (r *LookupRepository) Rename(ctx context.Context, kind lookup.Kind, id int64, name string) (*lookup.Record, error) {
	table := kind.Table()
	if table == "" {
		return nil, shared.NewDomainError("lookup", "Rename", shared.ErrValidation, "unknown lookup kind")
	}

	query := fmt.Sprintf(`UPDATE %s SET name = $1 WHERE id = $2 RETURNING id, name`, table)

	var rec lookup.Record
	err := r.conn.QueryRow(ctx, query, name, id).Scan(&rec.ID, &rec.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrLookupNotFound
		}
		if IsUniqueViolation(err) {
			return nil, shared.ErrLookupNameExists
		}
		return nil, fmt.Errorf("failed to rename %s row: %w", table, err)
	}
	return &rec, nil
}

// Delete removes a row.
func (r *LookupRepository) Delete(ctx context.Context, kind lookup.Kind, id int64) error {
	table := kind.Table()
	if table == "" {
		return shared.NewDomainError("lookup", "Delete", shared.ErrValidation, "unknown lookup kind")
	}

	tag, err := r.conn.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table), id)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return shared.WrapError("lookup", "Delete", shared.ErrConflict, "lookup row is referenced by students", err)
		}
		return fmt.Errorf("failed to delete %s row: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrLookupNotFound
	}
	return nil
}
