// Package lookup defines the reference tables the student aggregate points at:
// departments, study programs, and student statuses. Rows are identified by a
// store-assigned id and carry a globally unique display name.
package lookup

import (
	"strings"

	"github.com/sixt-edu/student-registry/internal/domain/shared"
)

// Kind identifies which reference table a lookup row belongs to.
type Kind string

const (
	KindDepartment Kind = "department"
	KindProgram    Kind = "program"
	KindStatus     Kind = "student_status"
)

// Valid reports whether the kind is one of the known reference tables.
func (k Kind) Valid() bool {
	switch k {
	case KindDepartment, KindProgram, KindStatus:
		return true
	}
	return false
}

// Table returns the backing table name for the kind.
func (k Kind) Table() string {
	switch k {
	case KindDepartment:
		return "departments"
	case KindProgram:
		return "programs"
	case KindStatus:
		return "student_statuses"
	default:
		return ""
	}
}

// Record is a single reference row.
type Record struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Validate checks the row before it is written.
func (r *Record) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return shared.NewDomainError("lookup", "Validate", shared.ErrValidation, "name must not be blank")
	}
	return nil
}

// NotFoundError returns the resolver error for the kind, so an unresolved
// department reads differently from an unresolved program in logs and
// responses.
func (k Kind) NotFoundError() error {
	switch k {
	case KindDepartment:
		return shared.ErrDepartmentNotFound
	case KindProgram:
		return shared.ErrProgramNotFound
	case KindStatus:
		return shared.ErrStatusNotFound
	default:
		return shared.ErrLookupNotFound
	}
}
