package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/sixt-edu/student-registry/internal/domain/shared"
	"github.com/sixt-edu/student-registry/internal/domain/student"
)

// StudentStore implements student.Store for PostgreSQL. Every aggregate
// mutation runs inside one transaction so the parent and its children commit
// or roll back as a unit.
type StudentStore struct {
	conn *Connection
}

// NewStudentStore creates a new StudentStore.
func NewStudentStore(conn *Connection) *StudentStore {
	return &StudentStore{conn: conn}
}

const studentColumns = `
	id, student_id, full_name, date_of_birth, gender, department, course,
	program, nationality, email, phone_number, status, created_at, updated_at`

func scanStudent(row pgx.Row) (*student.Record, error) {
	var rec student.Record
	var gender, email *string
	err := row.Scan(
		&rec.ID,
		&rec.StudentID,
		&rec.FullName,
		&rec.Birthday,
		&gender,
		&rec.Department,
		&rec.Course,
		&rec.Program,
		&rec.Nationality,
		&email,
		&rec.PhoneNumber,
		&rec.Status,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to scan student: %w", err)
	}
	if gender != nil {
		rec.Gender = student.Gender(*gender)
	}
	if email != nil {
		rec.Email = *email
	}
	return &rec, nil
}

func scanStudents(rows pgx.Rows) ([]student.Record, error) {
	defer rows.Close()

	var records []student.Record
	for rows.Next() {
		rec, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func nullableGender(g student.Gender) *string {
	if g == "" {
		return nil
	}
	s := string(g)
	return &s
}

// nullableStr maps an empty string to NULL so that the email unique index
// does not make two students without an email collide on ''.
func nullableStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// FindByStudentID returns the parent record by business key.
func (s *StudentStore) FindByStudentID(ctx context.Context, studentID string) (*student.Record, error) {
	query := `SELECT` + studentColumns + ` FROM students WHERE student_id = $1`
	return scanStudent(s.conn.QueryRow(ctx, query, studentID))
}

// FindByEmail returns the parent record by its unique email.
func (s *StudentStore) FindByEmail(ctx context.Context, email string) (*student.Record, error) {
	query := `SELECT` + studentColumns + ` FROM students WHERE email = $1`
	return scanStudent(s.conn.QueryRow(ctx, query, email))
}

// LoadChildren returns the address list and identity document for the key.
func (s *StudentStore) LoadChildren(ctx context.Context, studentID string) ([]student.Address, *student.IdentityDocument, error) {
	addresses, err := s.loadAddresses(ctx, s.conn, studentID)
	if err != nil {
		return nil, nil, err
	}
	identity, err := s.loadIdentity(ctx, s.conn, studentID)
	if err != nil {
		return nil, nil, err
	}
	return addresses, identity, nil
}

func (s *StudentStore) loadAddresses(ctx context.Context, q Querier, studentID string) ([]student.Address, error) {
	query := `
		SELECT id, student_id, type, house_number, street, ward, district, province, country
		FROM addresses
		WHERE student_id = $1
		ORDER BY id`

	rows, err := q.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query addresses: %w", err)
	}
	defer rows.Close()

	var addresses []student.Address
	for rows.Next() {
		var a student.Address
		if err := rows.Scan(&a.ID, &a.StudentID, &a.Type, &a.HouseNumber, &a.Street, &a.Ward, &a.District, &a.Province, &a.Country); err != nil {
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		addresses = append(addresses, a)
	}
	return addresses, rows.Err()
}

func (s *StudentStore) loadIdentity(ctx context.Context, q Querier, studentID string) (*student.IdentityDocument, error) {
	query := `
		SELECT id, student_id, type, number, issue_date, issue_place, expiry_date, has_chip, country, note
		FROM identity_documents
		WHERE student_id = $1
		ORDER BY id
		LIMIT 1`

	var d student.IdentityDocument
	err := q.QueryRow(ctx, query, studentID).Scan(
		&d.ID, &d.StudentID, &d.Type, &d.Number, &d.IssueDate, &d.IssuePlace,
		&d.ExpiryDate, &d.HasChip, &d.Country, &d.Note,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan identity document: %w", err)
	}
	return &d, nil
}

// CreateAggregate inserts the parent and children atomically.
func (s *StudentStore) CreateAggregate(ctx context.Context, rec *student.Record, addresses []student.Address, identity *student.IdentityDocument) error {
	return s.conn.WithTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO students (
				student_id, full_name, date_of_birth, gender, department, course,
				program, nationality, email, phone_number, status
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING id, created_at, updated_at`

		err := tx.QueryRow(ctx, query,
			rec.StudentID,
			rec.FullName,
			rec.Birthday,
			nullableGender(rec.Gender),
			rec.Department,
			rec.Course,
			rec.Program,
			rec.Nationality,
			nullableStr(rec.Email),
			rec.PhoneNumber,
			rec.Status,
		).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
		if err != nil {
			if IsUniqueViolation(err) {
				return s.conflictFor(err)
			}
			return fmt.Errorf("failed to insert student: %w", err)
		}

		if err := s.insertAddresses(ctx, tx, addresses); err != nil {
			return err
		}
		if identity != nil {
			if err := s.insertIdentity(ctx, tx, identity); err != nil {
				return err
			}
		}
		return nil
	})
}

// conflictFor maps a unique violation onto the duplicated field.
func (s *StudentStore) conflictFor(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "email") {
		return shared.WrapError("student", "Save", shared.ErrConflict, "email already exists", err)
	}
	return shared.WrapError("student", "Save", shared.ErrConflict, "student id already exists", err)
}

func (s *StudentStore) insertAddresses(ctx context.Context, tx pgx.Tx, addresses []student.Address) error {
	query := `
		INSERT INTO addresses (student_id, type, house_number, street, ward, district, province, country)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	for i := range addresses {
		a := &addresses[i]
		err := tx.QueryRow(ctx, query,
			a.StudentID, string(a.Type), a.HouseNumber, a.Street, a.Ward, a.District, a.Province, a.Country,
		).Scan(&a.ID)
		if err != nil {
			return fmt.Errorf("failed to insert address: %w", err)
		}
	}
	return nil
}

func (s *StudentStore) insertIdentity(ctx context.Context, tx pgx.Tx, d *student.IdentityDocument) error {
	query := `
		INSERT INTO identity_documents (student_id, type, number, issue_date, issue_place, expiry_date, has_chip, country, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	err := tx.QueryRow(ctx, query,
		d.StudentID, string(d.Type), d.Number, d.IssueDate, d.IssuePlace, d.ExpiryDate, d.HasChip, d.Country, d.Note,
	).Scan(&d.ID)
	if err != nil {
		return fmt.Errorf("failed to insert identity document: %w", err)
	}
	return nil
}

// UpdateAggregate persists the merged parent and applies child replacements
// atomically.
func (s *StudentStore) UpdateAggregate(ctx context.Context, upd student.AggregateUpdate) error {
	rec := upd.Student
	return s.conn.WithTx(ctx, func(tx pgx.Tx) error {
		query := `
			UPDATE students SET
				full_name = $1,
				date_of_birth = $2,
				gender = $3,
				department = $4,
				course = $5,
				program = $6,
				nationality = $7,
				email = $8,
				phone_number = $9,
				status = $10,
				updated_at = NOW()
			WHERE student_id = $11
			RETURNING updated_at`

		err := tx.QueryRow(ctx, query,
			rec.FullName,
			rec.Birthday,
			nullableGender(rec.Gender),
			rec.Department,
			rec.Course,
			rec.Program,
			rec.Nationality,
			nullableStr(rec.Email),
			rec.PhoneNumber,
			rec.Status,
			rec.StudentID,
		).Scan(&rec.UpdatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return shared.ErrStudentNotFound
			}
			if IsUniqueViolation(err) {
				return s.conflictFor(err)
			}
			return fmt.Errorf("failed to update student: %w", err)
		}

		if upd.Addresses.Replace {
			if _, err := tx.Exec(ctx, `DELETE FROM addresses WHERE student_id = $1`, rec.StudentID); err != nil {
				return fmt.Errorf("failed to delete addresses: %w", err)
			}
			if err := s.insertAddresses(ctx, tx, upd.Addresses.Records); err != nil {
				return err
			}
		}

		if upd.Identity.Replace {
			if _, err := tx.Exec(ctx, `DELETE FROM identity_documents WHERE student_id = $1`, rec.StudentID); err != nil {
				return fmt.Errorf("failed to delete identity document: %w", err)
			}
			for i := range upd.Identity.Records {
				if err := s.insertIdentity(ctx, tx, &upd.Identity.Records[i]); err != nil {
					return err
				}
			}
		}

		return nil
	})
}

// DeleteAggregate removes the parent and every child atomically.
func (s *StudentStore) DeleteAggregate(ctx context.Context, studentID string) error {
	return s.conn.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM addresses WHERE student_id = $1`, studentID); err != nil {
			return fmt.Errorf("failed to delete addresses: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM identity_documents WHERE student_id = $1`, studentID); err != nil {
			return fmt.Errorf("failed to delete identity document: %w", err)
		}

		tag, err := tx.Exec(ctx, `DELETE FROM students WHERE student_id = $1`, studentID)
		if err != nil {
			return fmt.Errorf("failed to delete student: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrStudentNotFound
		}
		return nil
	})
}

// SearchBySubstring returns parents whose studentId or fullName contains the
// keyword, case-insensitively.
func (s *StudentStore) SearchBySubstring(ctx context.Context, keyword string) ([]student.Record, error) {
	query := `SELECT` + studentColumns + `
		FROM students
		WHERE student_id ILIKE '%' || $1 || '%' OR full_name ILIKE '%' || $1 || '%'
		ORDER BY student_id`

	rows, err := s.conn.Query(ctx, query, keyword)
	if err != nil {
		return nil, fmt.Errorf("failed to search students: %w", err)
	}
	return scanStudents(rows)
}

// FindByDepartment returns parents in the department, optionally filtered by
// a case-insensitive fullName substring.
func (s *StudentStore) FindByDepartment(ctx context.Context, departmentID int64, nameFilter string) ([]student.Record, error) {
	query := `SELECT` + studentColumns + `
		FROM students
		WHERE department = $1 AND ($2 = '' OR full_name ILIKE '%' || $2 || '%')
		ORDER BY student_id`

	rows, err := s.conn.Query(ctx, query, departmentID, nameFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to query students by department: %w", err)
	}
	return scanStudents(rows)
}

// ListAll returns every parent record, ordered by studentId.
func (s *StudentStore) ListAll(ctx context.Context) ([]student.Record, error) {
	query := `SELECT` + studentColumns + ` FROM students ORDER BY student_id`

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return scanStudents(rows)
}
