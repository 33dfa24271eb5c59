package transfer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sixt-edu/student-registry/internal/application/registry"
	"github.com/sixt-edu/student-registry/internal/domain/shared"
	"github.com/sixt-edu/student-registry/pkg/logger"
	"github.com/sixt-edu/student-registry/pkg/retry"
)

// RowError records why one CSV line was rejected.
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// Report summarizes an import run. The run is row-by-row, not transactional:
// rows that fail leave the rest of the file unaffected.
type Report struct {
	Total    int        `json:"total"`
	Imported int        `json:"imported"`
	Failed   []RowError `json:"failed,omitempty"`
}

// Importer feeds CSV rows through the registry's locked create path. Each row
// is one independent create; a busy business key is retried with backoff
// because lock contention during a bulk load is expected, not exceptional.
type Importer struct {
	creator  StudentCreator
	log      *logger.Logger
	retryCfg retry.Config
}

// NewImporter wires the importer.
func NewImporter(creator StudentCreator, log *logger.Logger) *Importer {
	return &Importer{
		creator:  creator,
		log:      log,
		retryCfg: retry.DefaultConfig(),
	}
}

// ImportCSV reads rows in the export format and creates a student per row.
// The ID column is ignored; the store assigns its own ids.
func (im *Importer) ImportCSV(ctx context.Context, r io.Reader) (*Report, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, shared.WrapError("transfer", "ImportCSV", shared.ErrValidation, "reading header failed", err)
	}
	if !headerMatches(header) {
		return nil, shared.NewDomainError("transfer", "ImportCSV", shared.ErrValidation,
			fmt.Sprintf("unexpected header, want %s", strings.Join(csvHeader, ",")))
	}

	report := &Report{}
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			report.Total++
			report.Failed = append(report.Failed, RowError{Line: line, Message: err.Error()})
			continue
		}

		report.Total++
		if err := im.importRow(ctx, row); err != nil {
			if errors.Is(err, shared.ErrCancelled) || ctx.Err() != nil {
				return report, err
			}
			report.Failed = append(report.Failed, RowError{Line: line, Message: err.Error()})
			continue
		}
		report.Imported++
	}

	im.log.Info("csv import complete",
		logger.Int("total", report.Total),
		logger.Int("imported", report.Imported),
		logger.Int("failed", len(report.Failed)))
	return report, nil
}

// importRow creates one student, retrying while the business key's lock is
// held by someone else. Everything except lock contention is permanent: a
// duplicate or an unknown department will not get better on a second try.
func (im *Importer) importRow(ctx context.Context, row []string) error {
	req := registry.CreateStudentRequest{
		StudentID:  strings.TrimSpace(row[1]),
		FullName:   strings.TrimSpace(row[2]),
		Email:      strings.TrimSpace(row[3]),
		Department: strings.TrimSpace(row[4]),
		Status:     strings.TrimSpace(row[5]),
	}

	return retry.Do(ctx, im.retryCfg, func(ctx context.Context) error {
		_, err := im.creator.Create(ctx, req)
		if err != nil && !errors.Is(err, shared.ErrLockUnavailable) {
			return retry.Permanent(err)
		}
		return err
	})
}

func headerMatches(header []string) bool {
	if len(header) != len(csvHeader) {
		return false
	}
	for i, col := range header {
		if !strings.EqualFold(strings.TrimSpace(col), csvHeader[i]) {
			return false
		}
	}
	return true
}
