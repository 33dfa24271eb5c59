package http

import (
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sixt-edu/student-registry/internal/application/registry"
	"github.com/sixt-edu/student-registry/internal/domain/shared"
	"github.com/sixt-edu/student-registry/internal/domain/student"
)

// vnPhonePattern accepts Vietnamese mobile numbers in local (0xxxxxxxxx) or
// international (+84xxxxxxxxx) form.
var vnPhonePattern = regexp.MustCompile(`^(0[3-9][0-9]{8}|\+84[3-9][0-9]{8})$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("vn_phone", func(fl validator.FieldLevel) bool {
		val := fl.Field().String()
		if val == "" {
			return true
		}
		return vnPhonePattern.MatchString(val)
	})
	return v
}

const dateLayout = "2006-01-02"

type addressDTO struct {
	Type        string `json:"type" validate:"required,oneof=PERMANENT TEMPORARY MAILING"`
	HouseNumber string `json:"houseNumber"`
	Street      string `json:"street"`
	Ward        string `json:"ward"`
	District    string `json:"district"`
	Province    string `json:"province"`
	Country     string `json:"country"`
}

type identityDocumentDTO struct {
	Type       string `json:"type" validate:"required,oneof=CMND CCCD PASSPORT"`
	Number     string `json:"number" validate:"required"`
	IssueDate  string `json:"issueDate" validate:"omitempty,datetime=2006-01-02"`
	IssuePlace string `json:"issuePlace"`
	ExpiryDate string `json:"expiryDate" validate:"omitempty,datetime=2006-01-02"`
	HasChip    *bool  `json:"hasChip"`
	Country    string `json:"country"`
	Note       string `json:"note"`
}

type createStudentDTO struct {
	StudentID   string               `json:"studentId" validate:"required"`
	FullName    string               `json:"fullName" validate:"required"`
	Birthday    string               `json:"birthday" validate:"omitempty,datetime=2006-01-02"`
	Gender      string               `json:"gender" validate:"omitempty,oneof=MALE FEMALE OTHER"`
	Department  string               `json:"department"`
	Course      string               `json:"course"`
	Program     string               `json:"program"`
	Nationality string               `json:"nationality"`
	Email       string               `json:"email" validate:"omitempty,email"`
	PhoneNumber string               `json:"phoneNumber" validate:"omitempty,vn_phone"`
	Status      string               `json:"status"`
	Addresses   []addressDTO         `json:"addresses" validate:"dive"`
	Identity    *identityDocumentDTO `json:"identity"`
}

// updateStudentDTO uses pointers so that an absent field, a null, and an
// empty string stay distinguishable after decoding: absent means leave the
// stored value alone.
type updateStudentDTO struct {
	FullName    *string              `json:"fullName" validate:"omitempty,min=1"`
	Birthday    *string              `json:"birthday" validate:"omitempty,datetime=2006-01-02"`
	Gender      *string              `json:"gender" validate:"omitempty,oneof=MALE FEMALE OTHER"`
	Department  *string              `json:"department"`
	Course      *string              `json:"course"`
	Program     *string              `json:"program"`
	Nationality *string              `json:"nationality"`
	Email       *string              `json:"email" validate:"omitempty,email"`
	PhoneNumber *string              `json:"phoneNumber" validate:"omitempty,vn_phone"`
	Status      *string              `json:"status"`
	Addresses   *[]addressDTO        `json:"addresses" validate:"omitempty,dive"`
	Identity    *identityDocumentDTO `json:"identity"`

	// identityPresent records whether the identity key appeared in the
	// payload at all; json.Unmarshal cannot tell "absent" from "null" on a
	// pointer, so the handler sets this from a raw-message pre-pass.
	identityPresent bool
}

type lookupDTO struct {
	Name string `json:"name" validate:"required,min=1"`
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, shared.NewDomainError("http", "parseDate", shared.ErrValidation, "date must be YYYY-MM-DD")
	}
	return &t, nil
}

func (d addressDTO) toInput() registry.AddressInput {
	return registry.AddressInput{
		Type:        student.AddressType(d.Type),
		HouseNumber: d.HouseNumber,
		Street:      d.Street,
		Ward:        d.Ward,
		District:    d.District,
		Province:    d.Province,
		Country:     d.Country,
	}
}

func addressInputs(dtos []addressDTO) []registry.AddressInput {
	ins := make([]registry.AddressInput, 0, len(dtos))
	for _, d := range dtos {
		ins = append(ins, d.toInput())
	}
	return ins
}

func (d *identityDocumentDTO) toInput() (*registry.IdentityDocumentInput, error) {
	if d == nil {
		return nil, nil
	}
	issue, err := parseDate(d.IssueDate)
	if err != nil {
		return nil, err
	}
	expiry, err := parseDate(d.ExpiryDate)
	if err != nil {
		return nil, err
	}
	return &registry.IdentityDocumentInput{
		Type:       student.IdentityType(d.Type),
		Number:     d.Number,
		IssueDate:  issue,
		IssuePlace: d.IssuePlace,
		ExpiryDate: expiry,
		HasChip:    d.HasChip,
		Country:    d.Country,
		Note:       d.Note,
	}, nil
}

func (d createStudentDTO) toRequest() (registry.CreateStudentRequest, error) {
	birthday, err := parseDate(d.Birthday)
	if err != nil {
		return registry.CreateStudentRequest{}, err
	}
	identity, err := d.Identity.toInput()
	if err != nil {
		return registry.CreateStudentRequest{}, err
	}
	return registry.CreateStudentRequest{
		StudentID:   d.StudentID,
		FullName:    d.FullName,
		Birthday:    birthday,
		Gender:      student.Gender(d.Gender),
		Department:  d.Department,
		Course:      d.Course,
		Program:     d.Program,
		Nationality: d.Nationality,
		Email:       d.Email,
		PhoneNumber: d.PhoneNumber,
		Status:      d.Status,
		Addresses:   addressInputs(d.Addresses),
		Identity:    identity,
	}, nil
}

func (d updateStudentDTO) toRequest() (registry.UpdateStudentRequest, error) {
	req := registry.UpdateStudentRequest{
		FullName:    shared.FromPtr(d.FullName),
		Gender:      optionalGender(d.Gender),
		Department:  shared.FromPtr(d.Department),
		Course:      shared.FromPtr(d.Course),
		Program:     shared.FromPtr(d.Program),
		Nationality: shared.FromPtr(d.Nationality),
		Email:       shared.FromPtr(d.Email),
		PhoneNumber: shared.FromPtr(d.PhoneNumber),
		Status:      shared.FromPtr(d.Status),
	}

	if d.Birthday != nil {
		t, err := parseDate(*d.Birthday)
		if err != nil {
			return registry.UpdateStudentRequest{}, err
		}
		if t != nil {
			req.Birthday = shared.Some(*t)
		}
	}

	if d.Addresses != nil {
		req.Addresses = shared.Some(addressInputs(*d.Addresses))
	}

	if d.identityPresent {
		identity, err := d.Identity.toInput()
		if err != nil {
			return registry.UpdateStudentRequest{}, err
		}
		req.Identity = shared.Some(identity)
	}

	return req, nil
}

func optionalGender(s *string) shared.Optional[student.Gender] {
	if s == nil {
		return shared.None[student.Gender]()
	}
	return shared.Some(student.Gender(*s))
}
