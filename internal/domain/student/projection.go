package student

import "time"

// Projection is the display view of a student aggregate: the flat parent
// fields with lookup ids replaced by their display names, plus the child
// records. This is the only shape the services emit to callers and the only
// shape the cache ever holds; it is derived data, never authoritative.
type Projection struct {
	ID          int64             `json:"id"`
	StudentID   string            `json:"studentId"`
	FullName    string            `json:"fullName"`
	Birthday    *time.Time        `json:"birthday,omitempty"`
	Gender      Gender            `json:"gender,omitempty"`
	Department  string            `json:"department,omitempty"`
	Course      string            `json:"course,omitempty"`
	Program     string            `json:"program,omitempty"`
	Nationality string            `json:"nationality,omitempty"`
	Email       string            `json:"email"`
	PhoneNumber string            `json:"phoneNumber,omitempty"`
	Status      string            `json:"status,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
	Addresses   []Address         `json:"addresses"`
	Identity    *IdentityDocument `json:"identityDocument,omitempty"`
}
