package registry

import (
	"context"

	"github.com/sixt-edu/student-registry/internal/domain/lookup"
	"github.com/sixt-edu/student-registry/internal/domain/student"
)

// Mapping between requests, records, and projections is deliberately explicit
// and statically typed per pair; no reflection-driven field copying.

func addressFromInput(studentID string, in AddressInput) student.Address {
	return student.Address{
		StudentID:   studentID,
		Type:        in.Type,
		HouseNumber: in.HouseNumber,
		Street:      in.Street,
		Ward:        in.Ward,
		District:    in.District,
		Province:    in.Province,
		Country:     in.Country,
	}
}

func addressesFromInputs(studentID string, ins []AddressInput) []student.Address {
	addresses := make([]student.Address, 0, len(ins))
	for _, in := range ins {
		addresses = append(addresses, addressFromInput(studentID, in))
	}
	return addresses
}

func identityFromInput(studentID string, in *IdentityDocumentInput) *student.IdentityDocument {
	if in == nil {
		return nil
	}
	return &student.IdentityDocument{
		StudentID:  studentID,
		Type:       in.Type,
		Number:     in.Number,
		IssueDate:  in.IssueDate,
		IssuePlace: in.IssuePlace,
		ExpiryDate: in.ExpiryDate,
		HasChip:    in.HasChip,
		Country:    in.Country,
		Note:       in.Note,
	}
}

// recordFromCreate builds the parent record for a creation request. Lookup
// references are filled in by the caller after resolution.
func recordFromCreate(req CreateStudentRequest) *student.Record {
	return &student.Record{
		StudentID:   req.StudentID,
		FullName:    req.FullName,
		Birthday:    req.Birthday,
		Gender:      req.Gender,
		Course:      req.Course,
		Nationality: req.Nationality,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
	}
}

// projectRecord renders the display view of an aggregate, resolving lookup
// ids to their names.
func projectRecord(ctx context.Context, resolver *Resolver, rec *student.Record, addresses []student.Address, identity *student.IdentityDocument) (*student.Projection, error) {
	department, err := resolver.NameOf(ctx, lookup.KindDepartment, rec.Department)
	if err != nil {
		return nil, err
	}
	program, err := resolver.NameOf(ctx, lookup.KindProgram, rec.Program)
	if err != nil {
		return nil, err
	}
	status, err := resolver.NameOf(ctx, lookup.KindStatus, rec.Status)
	if err != nil {
		return nil, err
	}

	if addresses == nil {
		addresses = []student.Address{}
	}

	return &student.Projection{
		ID:          rec.ID,
		StudentID:   rec.StudentID,
		FullName:    rec.FullName,
		Birthday:    rec.Birthday,
		Gender:      rec.Gender,
		Department:  department,
		Course:      rec.Course,
		Program:     program,
		Nationality: rec.Nationality,
		Email:       rec.Email,
		PhoneNumber: rec.PhoneNumber,
		Status:      status,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
		Addresses:   addresses,
		Identity:    identity,
	}, nil
}
