// Package student holds the student aggregate: the parent record identified by
// its business key (the student id printed on the card, not the store's
// surrogate id), plus its dependent address list and identity document.
//
// Child records reference the parent by business key. The surrogate id is a
// storage detail and never leaves the persistence layer except on the
// projection for display.
package student

import (
	"strings"
	"time"

	"github.com/sixt-edu/student-registry/internal/domain/shared"
)

// Gender enumerates the registered gender of a student.
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

// Valid reports whether the gender is a known value. The empty string is
// accepted as "not recorded".
func (g Gender) Valid() bool {
	switch g {
	case "", GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// AddressType enumerates the kinds of address a student can register.
type AddressType string

const (
	AddressPermanent AddressType = "PERMANENT"
	AddressTemporary AddressType = "TEMPORARY"
	AddressMailing   AddressType = "MAILING"
)

// Valid reports whether the address type is a known value.
func (t AddressType) Valid() bool {
	switch t {
	case AddressPermanent, AddressTemporary, AddressMailing:
		return true
	}
	return false
}

// IdentityType enumerates the accepted identity documents.
type IdentityType string

const (
	IdentityCMND     IdentityType = "CMND"
	IdentityCCCD     IdentityType = "CCCD"
	IdentityPassport IdentityType = "PASSPORT"
)

// Valid reports whether the identity type is a known value.
func (t IdentityType) Valid() bool {
	switch t {
	case IdentityCMND, IdentityCCCD, IdentityPassport:
		return true
	}
	return false
}

// Record is the parent student row. Department, Program and Status hold
// lookup-table ids; nil means no reference. The cache never holds this type,
// only the derived Projection.
type Record struct {
	ID          int64
	StudentID   string
	FullName    string
	Birthday    *time.Time
	Gender      Gender
	Department  *int64
	Course      string
	Program     *int64
	Nationality string
	Email       string
	PhoneNumber string
	Status      *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the invariants the store cannot express.
func (r *Record) Validate() error {
	if strings.TrimSpace(r.StudentID) == "" {
		return shared.NewDomainError("student", "Validate", shared.ErrValidation, "student id must not be blank")
	}
	if strings.TrimSpace(r.FullName) == "" {
		return shared.NewDomainError("student", "Validate", shared.ErrValidation, "full name must not be blank")
	}
	if !r.Gender.Valid() {
		return shared.NewDomainError("student", "Validate", shared.ErrValidation, "unknown gender")
	}
	return nil
}

// Address is a dependent child row, keyed by the parent's business key.
type Address struct {
	ID          int64       `json:"id"`
	StudentID   string      `json:"studentId"`
	Type        AddressType `json:"type"`
	HouseNumber string      `json:"houseNumber"`
	Street      string      `json:"street"`
	Ward        string      `json:"ward"`
	District    string      `json:"district"`
	Province    string      `json:"province"`
	Country     string      `json:"country"`
}

// Validate checks the invariants the store cannot express.
func (a *Address) Validate() error {
	if !a.Type.Valid() {
		return shared.NewDomainError("student", "Validate", shared.ErrValidation, "unknown address type")
	}
	return nil
}

// IdentityDocument is the 0..1 dependent child row, keyed by the parent's
// business key.
type IdentityDocument struct {
	ID         int64        `json:"id"`
	StudentID  string       `json:"studentId"`
	Type       IdentityType `json:"type"`
	Number     string       `json:"number"`
	IssueDate  *time.Time   `json:"issueDate,omitempty"`
	IssuePlace string       `json:"issuePlace"`
	ExpiryDate *time.Time   `json:"expiryDate,omitempty"`
	HasChip    *bool        `json:"hasChip,omitempty"`
	Country    string       `json:"country"`
	Note       string       `json:"note"`
}

// Validate checks the invariants the store cannot express.
func (d *IdentityDocument) Validate() error {
	if !d.Type.Valid() {
		return shared.NewDomainError("student", "Validate", shared.ErrValidation, "unknown identity type")
	}
	if strings.TrimSpace(d.Number) == "" {
		return shared.NewDomainError("student", "Validate", shared.ErrValidation, "document number must not be blank")
	}
	return nil
}
