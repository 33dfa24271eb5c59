package registry

import (
	"strings"
	"time"

	"github.com/sixt-edu/student-registry/internal/domain/shared"
	"github.com/sixt-edu/student-registry/internal/domain/student"
)

// AddressInput is one address in a create or update payload.
type AddressInput struct {
	Type        student.AddressType
	HouseNumber string
	Street      string
	Ward        string
	District    string
	Province    string
	Country     string
}

// IdentityDocumentInput is the identity document in a create or update
// payload.
type IdentityDocumentInput struct {
	Type       student.IdentityType
	Number     string
	IssueDate  *time.Time
	IssuePlace string
	ExpiryDate *time.Time
	HasChip    *bool
	Country    string
	Note       string
}

// CreateStudentRequest carries a new aggregate. Department, Program and
// Status are human-readable lookup names; an empty name means no reference.
type CreateStudentRequest struct {
	StudentID   string
	FullName    string
	Birthday    *time.Time
	Gender      student.Gender
	Department  string
	Course      string
	Program     string
	Nationality string
	Email       string
	PhoneNumber string
	Status      string
	Addresses   []AddressInput
	Identity    *IdentityDocumentInput
}

// Validate checks the request before any lock is taken.
func (r CreateStudentRequest) Validate() error {
	if strings.TrimSpace(r.StudentID) == "" {
		return shared.NewDomainError("student", "Create", shared.ErrValidation, "student id must not be blank")
	}
	if strings.TrimSpace(r.FullName) == "" {
		return shared.NewDomainError("student", "Create", shared.ErrValidation, "full name must not be blank")
	}
	if !r.Gender.Valid() {
		return shared.NewDomainError("student", "Create", shared.ErrValidation, "unknown gender")
	}
	for _, a := range r.Addresses {
		if !a.Type.Valid() {
			return shared.NewDomainError("student", "Create", shared.ErrValidation, "unknown address type")
		}
	}
	if r.Identity != nil {
		if !r.Identity.Type.Valid() {
			return shared.NewDomainError("student", "Create", shared.ErrValidation, "unknown identity type")
		}
		if strings.TrimSpace(r.Identity.Number) == "" {
			return shared.NewDomainError("student", "Create", shared.ErrValidation, "document number must not be blank")
		}
	}
	return nil
}

// UpdateStudentRequest carries a partial update. Every field is explicitly
// present-or-absent; an absent field leaves the stored value untouched, and
// a present child set wholly replaces the stored one.
type UpdateStudentRequest struct {
	FullName    shared.Optional[string]
	Birthday    shared.Optional[time.Time]
	Gender      shared.Optional[student.Gender]
	Department  shared.Optional[string]
	Course      shared.Optional[string]
	Program     shared.Optional[string]
	Nationality shared.Optional[string]
	Email       shared.Optional[string]
	PhoneNumber shared.Optional[string]
	Status      shared.Optional[string]
	Addresses   shared.Optional[[]AddressInput]
	Identity    shared.Optional[*IdentityDocumentInput]
}

// Validate checks the present fields before any lock is taken.
func (r UpdateStudentRequest) Validate() error {
	if g, ok := r.Gender.Value(); ok && !g.Valid() {
		return shared.NewDomainError("student", "Update", shared.ErrValidation, "unknown gender")
	}
	if name, ok := r.FullName.Value(); ok && strings.TrimSpace(name) == "" {
		return shared.NewDomainError("student", "Update", shared.ErrValidation, "full name must not be blank")
	}
	if addrs, ok := r.Addresses.Value(); ok {
		for _, a := range addrs {
			if !a.Type.Valid() {
				return shared.NewDomainError("student", "Update", shared.ErrValidation, "unknown address type")
			}
		}
	}
	if doc, ok := r.Identity.Value(); ok && doc != nil {
		if !doc.Type.Valid() {
			return shared.NewDomainError("student", "Update", shared.ErrValidation, "unknown identity type")
		}
		if strings.TrimSpace(doc.Number) == "" {
			return shared.NewDomainError("student", "Update", shared.ErrValidation, "document number must not be blank")
		}
	}
	return nil
}
