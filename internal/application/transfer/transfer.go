// Package transfer moves student records across the system boundary in bulk:
// CSV and JSON export of the whole registry, and CSV import that feeds rows
// through the same locked write path as interactive creates.
package transfer

import (
	"context"

	"github.com/sixt-edu/student-registry/internal/application/registry"
	"github.com/sixt-edu/student-registry/internal/domain/student"
)

// csvHeader is the fixed column set of exported and imported CSV files.
var csvHeader = []string{"ID", "StudentID", "FullName", "Email", "Department", "Status"}

// StudentCreator is the slice of the registry service the importer needs.
type StudentCreator interface {
	Create(ctx context.Context, req registry.CreateStudentRequest) (*student.Projection, error)
}

// StudentLister is the slice of the store the exporter needs.
type StudentLister interface {
	ListAll(ctx context.Context) ([]student.Record, error)
}
