package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sixt-edu/student-registry/internal/application/registry"
	"github.com/sixt-edu/student-registry/internal/domain/lookup"
	"github.com/sixt-edu/student-registry/internal/domain/shared"
	"github.com/sixt-edu/student-registry/internal/domain/student"
	"github.com/sixt-edu/student-registry/pkg/logger"
)

// stubLookups resolves the handful of names the fixtures use.
type stubLookups struct {
	byName map[string]int64
	byID   map[int64]string
}

func newStubLookups() *stubLookups {
	return &stubLookups{
		byName: map[string]int64{"Computer Science": 1, "Active": 2, "Bachelor": 3},
		byID:   map[int64]string{1: "Computer Science", 2: "Active", 3: "Bachelor"},
	}
}

func (s *stubLookups) FindByName(ctx context.Context, kind lookup.Kind, name string) (*lookup.Record, error) {
	id, ok := s.byName[name]
	if !ok {
		return nil, kind.NotFoundError()
	}
	return &lookup.Record{ID: id, Name: name}, nil
}

func (s *stubLookups) FindByID(ctx context.Context, kind lookup.Kind, id int64) (*lookup.Record, error) {
	name, ok := s.byID[id]
	if !ok {
		return nil, shared.ErrLookupNotFound
	}
	return &lookup.Record{ID: id, Name: name}, nil
}

func (s *stubLookups) List(ctx context.Context, kind lookup.Kind) ([]lookup.Record, error) {
	return nil, nil
}

func (s *stubLookups) Create(ctx context.Context, kind lookup.Kind, rec *lookup.Record) error {
	return nil
}

func (s *stubLookups) Rename(ctx context.Context, kind lookup.Kind, id int64, name string) (*lookup.Record, error) {
	return nil, shared.ErrLookupNotFound
}

func (s *stubLookups) Delete(ctx context.Context, kind lookup.Kind, id int64) error {
	return nil
}

type stubLister struct {
	records []student.Record
}

func (s *stubLister) ListAll(ctx context.Context) ([]student.Record, error) {
	return s.records, nil
}

func ptr63(v int64) *int64 { return &v }

func fixtureRecords() []student.Record {
	return []student.Record{
		{
			ID:         1,
			StudentID:  "SV001",
			FullName:   "Nguyen Van An",
			Email:      "an@example.edu.vn",
			Department: ptr63(1),
			Status:     ptr63(2),
		},
		{
			ID:        2,
			StudentID: "SV002",
			FullName:  "Tran Thi Binh",
			Email:     "binh@example.edu.vn",
			// No lookup references: exported columns stay empty.
		},
	}
}

func TestExporter_CSV(t *testing.T) {
	exporter := NewExporter(
		&stubLister{records: fixtureRecords()},
		registry.NewResolver(newStubLookups()),
		logger.Nop(),
	)

	var buf bytes.Buffer
	require.NoError(t, exporter.ExportCSV(context.Background(), &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "ID,StudentID,FullName,Email,Department,Status", lines[0])
	assert.Equal(t, "1,SV001,Nguyen Van An,an@example.edu.vn,Computer Science,Active", lines[1])
	assert.Equal(t, "2,SV002,Tran Thi Binh,binh@example.edu.vn,,", lines[2])
}

func TestExporter_JSON(t *testing.T) {
	exporter := NewExporter(
		&stubLister{records: fixtureRecords()},
		registry.NewResolver(newStubLookups()),
		logger.Nop(),
	)

	var buf bytes.Buffer
	require.NoError(t, exporter.ExportJSON(context.Background(), &buf))

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "SV001", rows[0]["studentId"])
	assert.Equal(t, "Computer Science", rows[0]["department"])
	_, hasDept := rows[1]["department"]
	assert.False(t, hasDept, "empty reference omitted from JSON")
}

// countingCreator records create calls and can fail with a scripted error
// sequence per student id.
type countingCreator struct {
	calls   map[string]int
	scripts map[string][]error
	created []registry.CreateStudentRequest
}

func newCountingCreator() *countingCreator {
	return &countingCreator{
		calls:   map[string]int{},
		scripts: map[string][]error{},
	}
}

func (c *countingCreator) Create(ctx context.Context, req registry.CreateStudentRequest) (*student.Projection, error) {
	n := c.calls[req.StudentID]
	c.calls[req.StudentID] = n + 1
	if seq := c.scripts[req.StudentID]; n < len(seq) && seq[n] != nil {
		return nil, seq[n]
	}
	c.created = append(c.created, req)
	return &student.Projection{StudentID: req.StudentID, FullName: req.FullName}, nil
}

const importFixture = `ID,StudentID,FullName,Email,Department,Status
1,SV001,Nguyen Van An,an@example.edu.vn,Computer Science,Active
2,SV002,Tran Thi Binh,binh@example.edu.vn,,
`

func TestImporter_CSV(t *testing.T) {
	creator := newCountingCreator()
	importer := NewImporter(creator, logger.Nop())

	report, err := importer.ImportCSV(context.Background(), strings.NewReader(importFixture))
	require.NoError(t, err)

	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 2, report.Imported)
	assert.Empty(t, report.Failed)

	require.Len(t, creator.created, 2)
	assert.Equal(t, "SV001", creator.created[0].StudentID)
	assert.Equal(t, "Computer Science", creator.created[0].Department)
	assert.Empty(t, creator.created[1].Department)
}

func TestImporter_RetriesLockContention(t *testing.T) {
	creator := newCountingCreator()
	busy := shared.NewDomainError("lock", "AcquireWrite", shared.ErrLockUnavailable, "lock busy")
	creator.scripts["SV001"] = []error{busy, busy} // third attempt succeeds

	importer := NewImporter(creator, logger.Nop())
	importer.retryCfg.InitialDelay = 1
	importer.retryCfg.MaxDelay = 1

	report, err := importer.ImportCSV(context.Background(), strings.NewReader(importFixture))
	require.NoError(t, err)

	assert.Equal(t, 2, report.Imported)
	assert.Equal(t, 3, creator.calls["SV001"], "lock contention retried with backoff")
}

func TestImporter_PermanentErrorNotRetried(t *testing.T) {
	creator := newCountingCreator()
	creator.scripts["SV001"] = []error{shared.ErrStudentIDExists}

	importer := NewImporter(creator, logger.Nop())

	report, err := importer.ImportCSV(context.Background(), strings.NewReader(importFixture))
	require.NoError(t, err)

	assert.Equal(t, 1, creator.calls["SV001"], "conflicts are permanent, one attempt only")
	assert.Equal(t, 1, report.Imported)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, 2, report.Failed[0].Line)
}

func TestImporter_BadHeader(t *testing.T) {
	importer := NewImporter(newCountingCreator(), logger.Nop())

	_, err := importer.ImportCSV(context.Background(), strings.NewReader("foo,bar\n1,2\n"))
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestImporter_MalformedRowReported(t *testing.T) {
	creator := newCountingCreator()
	importer := NewImporter(creator, logger.Nop())

	fixture := "ID,StudentID,FullName,Email,Department,Status\n1,SV001,Nguyen Van An,an@example.edu.vn,Computer Science,Active\nonly,two\n"
	report, err := importer.ImportCSV(context.Background(), strings.NewReader(fixture))
	require.NoError(t, err)

	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.Imported)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, 3, report.Failed[0].Line)
}
