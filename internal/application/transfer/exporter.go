package transfer

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/sixt-edu/student-registry/internal/application/registry"
	"github.com/sixt-edu/student-registry/internal/domain/lookup"
	"github.com/sixt-edu/student-registry/internal/domain/shared"
	"github.com/sixt-edu/student-registry/pkg/logger"
)

// Exporter streams the full registry to a writer. Export reads the store
// directly rather than the cache: a bulk dump must be complete, and the
// cache guarantees nothing about coverage.
type Exporter struct {
	store    StudentLister
	resolver *registry.Resolver
	log      *logger.Logger
}

// NewExporter wires the exporter.
func NewExporter(store StudentLister, resolver *registry.Resolver, log *logger.Logger) *Exporter {
	return &Exporter{store: store, resolver: resolver, log: log}
}

// ExportCSV writes every student as one CSV row under the fixed header.
func (e *Exporter) ExportCSV(ctx context.Context, w io.Writer) error {
	recs, err := e.store.ListAll(ctx)
	if err != nil {
		return shared.WrapError("transfer", "ExportCSV", shared.ErrInternal, "listing students failed", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return shared.WrapError("transfer", "ExportCSV", shared.ErrInternal, "writing header failed", err)
	}

	for i := range recs {
		rec := &recs[i]
		department, err := e.resolver.NameOf(ctx, lookup.KindDepartment, rec.Department)
		if err != nil {
			return err
		}
		status, err := e.resolver.NameOf(ctx, lookup.KindStatus, rec.Status)
		if err != nil {
			return err
		}
		row := []string{
			strconv.FormatInt(rec.ID, 10),
			rec.StudentID,
			rec.FullName,
			rec.Email,
			department,
			status,
		}
		if err := cw.Write(row); err != nil {
			return shared.WrapError("transfer", "ExportCSV", shared.ErrInternal, "writing row failed", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return shared.WrapError("transfer", "ExportCSV", shared.ErrInternal, "flushing output failed", err)
	}

	e.log.Info("csv export complete", logger.Int("rows", len(recs)))
	return nil
}

// exportedStudent is the JSON export row. Unlike the CSV dump it keeps the
// full scalar record, with lookup references resolved to names.
type exportedStudent struct {
	ID          int64  `json:"id"`
	StudentID   string `json:"studentId"`
	FullName    string `json:"fullName"`
	Birthday    string `json:"birthday,omitempty"`
	Gender      string `json:"gender,omitempty"`
	Department  string `json:"department,omitempty"`
	Course      string `json:"course,omitempty"`
	Program     string `json:"program,omitempty"`
	Nationality string `json:"nationality,omitempty"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Status      string `json:"status,omitempty"`
}

// ExportJSON writes every student as one element of a JSON array.
func (e *Exporter) ExportJSON(ctx context.Context, w io.Writer) error {
	recs, err := e.store.ListAll(ctx)
	if err != nil {
		return shared.WrapError("transfer", "ExportJSON", shared.ErrInternal, "listing students failed", err)
	}

	out := make([]exportedStudent, 0, len(recs))
	for i := range recs {
		rec := &recs[i]
		department, err := e.resolver.NameOf(ctx, lookup.KindDepartment, rec.Department)
		if err != nil {
			return err
		}
		program, err := e.resolver.NameOf(ctx, lookup.KindProgram, rec.Program)
		if err != nil {
			return err
		}
		status, err := e.resolver.NameOf(ctx, lookup.KindStatus, rec.Status)
		if err != nil {
			return err
		}

		row := exportedStudent{
			ID:          rec.ID,
			StudentID:   rec.StudentID,
			FullName:    rec.FullName,
			Gender:      string(rec.Gender),
			Department:  department,
			Course:      rec.Course,
			Program:     program,
			Nationality: rec.Nationality,
			Email:       rec.Email,
			PhoneNumber: rec.PhoneNumber,
			Status:      status,
		}
		if rec.Birthday != nil {
			row.Birthday = rec.Birthday.Format("2006-01-02")
		}
		out = append(out, row)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return shared.WrapError("transfer", "ExportJSON", shared.ErrInternal, "encoding output failed", err)
	}

	e.log.Info("json export complete", logger.Int("rows", len(out)))
	return nil
}
