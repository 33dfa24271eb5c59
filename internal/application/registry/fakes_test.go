package registry

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sixt-edu/student-registry/internal/domain/lookup"
	"github.com/sixt-edu/student-registry/internal/domain/shared"
	"github.com/sixt-edu/student-registry/internal/domain/student"
)

// fakeLocks is an in-process LockCoordinator that tracks acquire/release
// pairing so tests can assert no path leaks a lock.
type fakeLocks struct {
	mu       sync.Mutex
	writers  map[string]bool
	readers  map[string]int
	acquired int
	released int
	denyAll  bool
}

func newFakeLocks() *fakeLocks {
	return &fakeLocks{
		writers: map[string]bool{},
		readers: map[string]int{},
	}
}

type fakeHandle struct {
	release func()
	once    sync.Once
}

func (h *fakeHandle) Release(ctx context.Context) {
	h.once.Do(h.release)
}

func (f *fakeLocks) AcquireWrite(ctx context.Context, key string, wait, hold time.Duration) (LockHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.denyAll || f.writers[key] || f.readers[key] > 0 {
		return nil, shared.NewDomainError("lock", "AcquireWrite", shared.ErrLockUnavailable, "lock busy")
	}
	f.writers[key] = true
	f.acquired++
	return &fakeHandle{release: func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.writers, key)
		f.released++
	}}, nil
}

func (f *fakeLocks) AcquireRead(ctx context.Context, key string, wait, hold time.Duration) (LockHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.denyAll || f.writers[key] {
		return nil, shared.NewDomainError("lock", "AcquireRead", shared.ErrLockUnavailable, "lock busy")
	}
	f.readers[key]++
	f.acquired++
	return &fakeHandle{release: func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.readers[key]--
		f.released++
	}}, nil
}

func (f *fakeLocks) balanced() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.acquired == f.released
}

// fakeStore is an in-memory student.Store.
type fakeStore struct {
	mu        sync.Mutex
	nextID    int64
	records   map[string]*student.Record
	addresses map[string][]student.Address
	identity  map[string]*student.IdentityDocument

	failAll error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		nextID:    1,
		records:   map[string]*student.Record{},
		addresses: map[string][]student.Address{},
		identity:  map[string]*student.IdentityDocument{},
	}
}

func (f *fakeStore) FindByStudentID(ctx context.Context, studentID string) (*student.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return nil, f.failAll
	}
	rec, ok := f.records[studentID]
	if !ok {
		return nil, shared.ErrStudentNotFound
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeStore) FindByEmail(ctx context.Context, email string) (*student.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return nil, f.failAll
	}
	for _, rec := range f.records {
		if rec.Email == email {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, shared.ErrStudentNotFound
}

func (f *fakeStore) LoadChildren(ctx context.Context, studentID string) ([]student.Address, *student.IdentityDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return nil, nil, f.failAll
	}
	addrs := append([]student.Address(nil), f.addresses[studentID]...)
	var doc *student.IdentityDocument
	if d, ok := f.identity[studentID]; ok {
		cp := *d
		doc = &cp
	}
	return addrs, doc, nil
}

func (f *fakeStore) CreateAggregate(ctx context.Context, rec *student.Record, addresses []student.Address, identity *student.IdentityDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return f.failAll
	}
	if _, ok := f.records[rec.StudentID]; ok {
		return shared.ErrStudentIDExists
	}
	rec.ID = f.nextID
	f.nextID++
	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	cp := *rec
	f.records[rec.StudentID] = &cp
	f.addresses[rec.StudentID] = append([]student.Address(nil), addresses...)
	if identity != nil {
		d := *identity
		f.identity[rec.StudentID] = &d
	}
	return nil
}

func (f *fakeStore) UpdateAggregate(ctx context.Context, upd student.AggregateUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return f.failAll
	}
	cur, ok := f.records[upd.Student.StudentID]
	if !ok {
		return shared.ErrStudentNotFound
	}
	cp := *upd.Student
	cp.ID = cur.ID
	cp.UpdatedAt = time.Now()
	f.records[cp.StudentID] = &cp
	if upd.Addresses.Replace {
		f.addresses[cp.StudentID] = append([]student.Address(nil), upd.Addresses.Records...)
	}
	if upd.Identity.Replace {
		delete(f.identity, cp.StudentID)
		if len(upd.Identity.Records) > 0 {
			d := upd.Identity.Records[0]
			f.identity[cp.StudentID] = &d
		}
	}
	return nil
}

func (f *fakeStore) DeleteAggregate(ctx context.Context, studentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return f.failAll
	}
	if _, ok := f.records[studentID]; !ok {
		return shared.ErrStudentNotFound
	}
	delete(f.records, studentID)
	delete(f.addresses, studentID)
	delete(f.identity, studentID)
	return nil
}

func (f *fakeStore) SearchBySubstring(ctx context.Context, keyword string) ([]student.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return nil, f.failAll
	}
	needle := strings.ToLower(keyword)
	var out []student.Record
	for _, rec := range f.records {
		if strings.Contains(strings.ToLower(rec.StudentID), needle) ||
			strings.Contains(strings.ToLower(rec.FullName), needle) {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (f *fakeStore) FindByDepartment(ctx context.Context, departmentID int64, nameFilter string) ([]student.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return nil, f.failAll
	}
	needle := strings.ToLower(nameFilter)
	var out []student.Record
	for _, rec := range f.records {
		if rec.Department == nil || *rec.Department != departmentID {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(rec.FullName), needle) {
			continue
		}
		out = append(out, *rec)
	}
	return out, nil
}

func (f *fakeStore) ListAll(ctx context.Context) ([]student.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return nil, f.failAll
	}
	var out []student.Record
	for _, rec := range f.records {
		out = append(out, *rec)
	}
	return out, nil
}

// fakeCache is an in-memory student.ProjectionCache.
type fakeCache struct {
	mu       sync.Mutex
	entries  map[string]*student.Projection
	failSet  error
	failGet  error
	failScan error
	sets     int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]*student.Projection{}}
}

func (f *fakeCache) Get(ctx context.Context, studentID string) (*student.Projection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet != nil {
		return nil, f.failGet
	}
	p, ok := f.entries[studentID]
	if !ok {
		return nil, shared.WrapError("cache", "Get", shared.ErrNotFound, "projection not cached", errors.New("miss"))
	}
	cp := *p
	return &cp, nil
}

func (f *fakeCache) Set(ctx context.Context, p *student.Projection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSet != nil {
		return f.failSet
	}
	cp := *p
	f.entries[p.StudentID] = &cp
	f.sets++
	return nil
}

func (f *fakeCache) Invalidate(ctx context.Context, studentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, studentID)
	return nil
}

func (f *fakeCache) Scan(ctx context.Context, fn func(p *student.Projection) bool) error {
	f.mu.Lock()
	snapshot := make([]*student.Projection, 0, len(f.entries))
	for _, p := range f.entries {
		cp := *p
		snapshot = append(snapshot, &cp)
	}
	failScan := f.failScan
	f.mu.Unlock()

	if failScan != nil {
		return failScan
	}
	for _, p := range snapshot {
		if !fn(p) {
			return nil
		}
	}
	return nil
}

func (f *fakeCache) has(studentID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.entries[studentID]
	return ok
}

// fakeLookups is an in-memory lookup.Repository preloaded with one row per
// kind.
type fakeLookups struct {
	mu     sync.Mutex
	nextID int64
	rows   map[lookup.Kind][]lookup.Record
}

func newFakeLookups() *fakeLookups {
	f := &fakeLookups{nextID: 1, rows: map[lookup.Kind][]lookup.Record{}}
	_ = f.Create(context.Background(), lookup.KindDepartment, &lookup.Record{Name: "Computer Science"})
	_ = f.Create(context.Background(), lookup.KindProgram, &lookup.Record{Name: "Bachelor"})
	_ = f.Create(context.Background(), lookup.KindStatus, &lookup.Record{Name: "Active"})
	return f
}

func (f *fakeLookups) FindByName(ctx context.Context, kind lookup.Kind, name string) (*lookup.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows[kind] {
		if r.Name == name {
			cp := r
			return &cp, nil
		}
	}
	return nil, kind.NotFoundError()
}

func (f *fakeLookups) FindByID(ctx context.Context, kind lookup.Kind, id int64) (*lookup.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows[kind] {
		if r.ID == id {
			cp := r
			return &cp, nil
		}
	}
	return nil, shared.ErrLookupNotFound
}

func (f *fakeLookups) List(ctx context.Context, kind lookup.Kind) ([]lookup.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]lookup.Record(nil), f.rows[kind]...), nil
}

func (f *fakeLookups) Create(ctx context.Context, kind lookup.Kind, rec *lookup.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows[kind] {
		if r.Name == rec.Name {
			return shared.ErrLookupNameExists
		}
	}
	rec.ID = f.nextID
	f.nextID++
	f.rows[kind] = append(f.rows[kind], *rec)
	return nil
}

func (f *fakeLookups) Rename(ctx context.Context, kind lookup.Kind, id int64, name string) (*lookup.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.rows[kind] {
		if r.ID == id {
			f.rows[kind][i].Name = name
			cp := f.rows[kind][i]
			return &cp, nil
		}
	}
	return nil, shared.ErrLookupNotFound
}

func (f *fakeLookups) Delete(ctx context.Context, kind lookup.Kind, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.rows[kind] {
		if r.ID == id {
			f.rows[kind] = append(f.rows[kind][:i], f.rows[kind][i+1:]...)
			return nil
		}
	}
	return shared.ErrLookupNotFound
}
