package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

const migration001Up = `
-- Migration: lookup tables
-- Version: 001

CREATE TABLE IF NOT EXISTS departments (
    id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
    name VARCHAR(255) NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS programs (
    id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
    name VARCHAR(255) NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS student_statuses (
    id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
    name VARCHAR(255) NOT NULL UNIQUE
);
`

const migration001Down = `
DROP TABLE IF EXISTS student_statuses;
DROP TABLE IF EXISTS programs;
DROP TABLE IF EXISTS departments;
`

const migration002Up = `
-- Migration: student aggregate
-- Version: 002

CREATE TABLE IF NOT EXISTS students (
    id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
    student_id VARCHAR(50) NOT NULL UNIQUE,
    full_name VARCHAR(255) NOT NULL,
    date_of_birth DATE,
    gender VARCHAR(10),
    department BIGINT REFERENCES departments(id),
    course VARCHAR(100),
    program BIGINT REFERENCES programs(id),
    nationality VARCHAR(100),
    email VARCHAR(255) UNIQUE,
    phone_number VARCHAR(20),
    status BIGINT REFERENCES student_statuses(id),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_gender CHECK (gender IS NULL OR gender IN ('MALE', 'FEMALE', 'OTHER'))
);

CREATE INDEX IF NOT EXISTS idx_student_id ON students(student_id);
CREATE INDEX IF NOT EXISTS idx_email ON students(email);
CREATE INDEX IF NOT EXISTS idx_students_full_name ON students(LOWER(full_name));
CREATE INDEX IF NOT EXISTS idx_students_department ON students(department);

-- Children are keyed by the business key, not the surrogate id, so they
-- survive surrogate reassignment. Cascading deletes stay in the service's
-- transactional boundary rather than in the schema.
CREATE TABLE IF NOT EXISTS addresses (
    id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
    student_id VARCHAR(50) NOT NULL,
    type VARCHAR(20) NOT NULL,
    house_number VARCHAR(50),
    street VARCHAR(255),
    ward VARCHAR(100),
    district VARCHAR(100),
    province VARCHAR(100),
    country VARCHAR(100),

    CONSTRAINT valid_address_type CHECK (type IN ('PERMANENT', 'TEMPORARY', 'MAILING'))
);

CREATE INDEX IF NOT EXISTS idx_addresses_student_id ON addresses(student_id);

CREATE TABLE IF NOT EXISTS identity_documents (
    id BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
    student_id VARCHAR(50) NOT NULL,
    type VARCHAR(20) NOT NULL,
    number VARCHAR(50) NOT NULL,
    issue_date DATE,
    issue_place VARCHAR(255),
    expiry_date DATE,
    has_chip BOOLEAN,
    country VARCHAR(100),
    note TEXT,

    CONSTRAINT valid_identity_type CHECK (type IN ('CMND', 'CCCD', 'PASSPORT'))
);

CREATE INDEX IF NOT EXISTS idx_identity_documents_student_id ON identity_documents(student_id);
`

const migration002Down = `
DROP TABLE IF EXISTS identity_documents;
DROP TABLE IF EXISTS addresses;
DROP TABLE IF EXISTS students;
`

// Migration pairs a schema version with its up and down SQL.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
	DownSQL string
}

// DefaultMigrations returns the registry schema in order.
func DefaultMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "lookup_tables", UpSQL: migration001Up, DownSQL: migration001Down},
		{Version: 2, Name: "student_aggregate", UpSQL: migration002Up, DownSQL: migration002Down},
	}
}

// Migrator applies schema migrations, tracking applied versions in a table.
type Migrator struct {
	conn       *Connection
	migrations []Migration
	tableName  string
}

// NewMigrator creates a migrator with the registry schema.
func NewMigrator(conn *Connection) *Migrator {
	return &Migrator{
		conn:       conn,
		migrations: DefaultMigrations(),
		tableName:  "schema_migrations",
	}
}

// EnsureMigrationTable creates the version-tracking table if needed.
func (m *Migrator) EnsureMigrationTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version INTEGER PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`, m.tableName)

	_, err := m.conn.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create migration table: %w", err)
	}
	return nil
}

// AppliedMigrations returns the versions already applied.
func (m *Migrator) AppliedMigrations(ctx context.Context) (map[int]time.Time, error) {
	query := fmt.Sprintf("SELECT version, applied_at FROM %s", m.tableName)

	rows, err := m.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]time.Time)
	for rows.Next() {
		var version int
		var appliedAt time.Time
		if err := rows.Scan(&version, &appliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[version] = appliedAt
	}

	return applied, rows.Err()
}

// Migrate applies all pending migrations, each in its own transaction.
func (m *Migrator) Migrate(ctx context.Context) error {
	if err := m.EnsureMigrationTable(ctx); err != nil {
		return err
	}

	applied, err := m.AppliedMigrations(ctx)
	if err != nil {
		return err
	}

	for _, mig := range m.migrations {
		if _, isApplied := applied[mig.Version]; isApplied {
			continue
		}

		err := m.conn.WithTx(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, mig.UpSQL); err != nil {
				return fmt.Errorf("failed to execute migration %d: %w", mig.Version, err)
			}
			insertQuery := fmt.Sprintf("INSERT INTO %s (version, name) VALUES ($1, $2)", m.tableName)
			_, err := tx.Exec(ctx, insertQuery, mig.Version, mig.Name)
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %d: %w", mig.Version, err)
		}
	}

	return nil
}
