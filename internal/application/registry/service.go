package registry

import (
	"context"
	"errors"

	"github.com/sixt-edu/student-registry/internal/domain/lookup"
	"github.com/sixt-edu/student-registry/internal/domain/shared"
	"github.com/sixt-edu/student-registry/internal/domain/student"
	"github.com/sixt-edu/student-registry/pkg/circuitbreaker"
	"github.com/sixt-edu/student-registry/pkg/logger"
)

// Service orchestrates the student aggregate write path. Every mutation runs
// under the business key's write lock, writes parent and children in one
// store transaction, then refreshes the cache. Locks are always released via
// defer so no exit path can leak one.
type Service struct {
	store    student.Store
	cache    student.ProjectionCache
	locks    LockCoordinator
	resolver *Resolver
	breaker  *circuitbreaker.Breaker
	log      *logger.Logger
	cfg      Config
}

// NewService wires the aggregate service. All collaborators are explicit;
// there is no ambient state.
func NewService(store student.Store, cache student.ProjectionCache, locks LockCoordinator, resolver *Resolver, log *logger.Logger, cfg Config) *Service {
	if cfg.LockWait <= 0 || cfg.LockHold <= 0 {
		cfg = DefaultConfig()
	}
	return &Service{
		store:    store,
		cache:    cache,
		locks:    locks,
		resolver: resolver,
		breaker:  circuitbreaker.New(circuitbreaker.DefaultConfig("projection-cache")),
		log:      log,
		cfg:      cfg,
	}
}

// internalErr wraps an unexpected store/cache failure into the taxonomy,
// passing through errors that already carry a kind.
func internalErr(op, msg string, err error) error {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	return shared.WrapError("student", op, shared.ErrInternal, msg, err)
}

// Create inserts a new aggregate and returns its projection.
func (s *Service) Create(ctx context.Context, req CreateStudentRequest) (*student.Projection, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	lock, err := s.locks.AcquireWrite(ctx, req.StudentID, s.cfg.LockWait, s.cfg.LockHold)
	if err != nil {
		return nil, err
	}
	defer lock.Release(ctx)

	// Duplicate checks happen under the lock so two racing creates on the
	// same key cannot both pass; the store's unique constraints remain the
	// final word for races on email across different keys.
	if _, err := s.store.FindByStudentID(ctx, req.StudentID); err == nil {
		return nil, shared.ErrStudentIDExists
	} else if !shared.IsNotFound(err) {
		return nil, internalErr("Create", "duplicate check failed", err)
	}
	if req.Email != "" {
		if _, err := s.store.FindByEmail(ctx, req.Email); err == nil {
			return nil, shared.ErrStudentEmailExists
		} else if !shared.IsNotFound(err) {
			return nil, internalErr("Create", "duplicate check failed", err)
		}
	}

	rec := recordFromCreate(req)
	if err := s.resolveReferences(ctx, rec, req.Department, req.Program, req.Status); err != nil {
		return nil, err
	}

	addresses := addressesFromInputs(req.StudentID, req.Addresses)
	identity := identityFromInput(req.StudentID, req.Identity)

	if err := s.store.CreateAggregate(ctx, rec, addresses, identity); err != nil {
		return nil, internalErr("Create", "aggregate write failed", err)
	}

	proj, err := projectRecord(ctx, s.resolver, rec, addresses, identity)
	if err != nil {
		return nil, err
	}

	// Best-effort: a failed cache write degrades the next read to a store
	// round-trip, it does not fail the creation.
	s.refreshCache(ctx, proj)

	s.log.Info("student created",
		logger.String("student_id", rec.StudentID),
		logger.Int64("id", rec.ID))

	return proj, nil
}

// resolveReferences resolves the present lookup names onto the record. An
// empty name means no reference and is never passed to the resolver.
func (s *Service) resolveReferences(ctx context.Context, rec *student.Record, department, program, status string) error {
	if department != "" {
		id, err := s.resolver.Resolve(ctx, lookup.KindDepartment, department)
		if err != nil {
			return err
		}
		rec.Department = &id
	}
	if program != "" {
		id, err := s.resolver.Resolve(ctx, lookup.KindProgram, program)
		if err != nil {
			return err
		}
		rec.Program = &id
	}
	if status != "" {
		id, err := s.resolver.Resolve(ctx, lookup.KindStatus, status)
		if err != nil {
			return err
		}
		rec.Status = &id
	}
	return nil
}

// Update applies a partial update and returns the refreshed projection.
// Present scalar fields overwrite; absent ones are left alone. A present
// child set replaces the stored set wholesale. An unresolvable lookup name
// fails the whole update, so the store's FK invariant stays airtight.
func (s *Service) Update(ctx context.Context, studentID string, req UpdateStudentRequest) (*student.Projection, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	lock, err := s.locks.AcquireWrite(ctx, studentID, s.cfg.LockWait, s.cfg.LockHold)
	if err != nil {
		return nil, err
	}
	defer lock.Release(ctx)

	rec, err := s.store.FindByStudentID(ctx, studentID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.ErrStudentNotFound
		}
		return nil, internalErr("Update", "load failed", err)
	}

	req.FullName.Apply(&rec.FullName)
	if b, ok := req.Birthday.Value(); ok {
		rec.Birthday = &b
	}
	req.Gender.Apply(&rec.Gender)
	req.Course.Apply(&rec.Course)
	req.Nationality.Apply(&rec.Nationality)
	req.Email.Apply(&rec.Email)
	req.PhoneNumber.Apply(&rec.PhoneNumber)

	if name, ok := req.Department.Value(); ok {
		id, err := s.resolver.Resolve(ctx, lookup.KindDepartment, name)
		if err != nil {
			return nil, err
		}
		rec.Department = &id
	}
	if name, ok := req.Program.Value(); ok {
		id, err := s.resolver.Resolve(ctx, lookup.KindProgram, name)
		if err != nil {
			return nil, err
		}
		rec.Program = &id
	}
	if name, ok := req.Status.Value(); ok {
		id, err := s.resolver.Resolve(ctx, lookup.KindStatus, name)
		if err != nil {
			return nil, err
		}
		rec.Status = &id
	}

	upd := student.AggregateUpdate{
		Student:   rec,
		Addresses: student.Keep[student.Address](),
		Identity:  student.Keep[student.IdentityDocument](),
	}
	if ins, ok := req.Addresses.Value(); ok {
		upd.Addresses = student.ReplaceWith(addressesFromInputs(studentID, ins))
	}
	if in, ok := req.Identity.Value(); ok {
		var docs []student.IdentityDocument
		if doc := identityFromInput(studentID, in); doc != nil {
			docs = []student.IdentityDocument{*doc}
		}
		upd.Identity = student.ReplaceWith(docs)
	}

	if err := s.store.UpdateAggregate(ctx, upd); err != nil {
		if shared.IsNotFound(err) || shared.IsConflict(err) {
			return nil, err
		}
		return nil, internalErr("Update", "aggregate write failed", err)
	}

	addresses, identity, err := s.store.LoadChildren(ctx, studentID)
	if err != nil {
		return nil, internalErr("Update", "child load failed", err)
	}

	proj, err := projectRecord(ctx, s.resolver, rec, addresses, identity)
	if err != nil {
		return nil, err
	}

	s.refreshCache(ctx, proj)

	s.log.Info("student updated", logger.String("student_id", studentID))

	return proj, nil
}

// Delete removes the aggregate and drops its cache entry.
func (s *Service) Delete(ctx context.Context, studentID string) error {
	lock, err := s.locks.AcquireWrite(ctx, studentID, s.cfg.LockWait, s.cfg.LockHold)
	if err != nil {
		return err
	}
	defer lock.Release(ctx)

	if err := s.store.DeleteAggregate(ctx, studentID); err != nil {
		if shared.IsNotFound(err) {
			return shared.ErrStudentNotFound
		}
		return internalErr("Delete", "aggregate delete failed", err)
	}

	// The entry has no TTL to fall back on, so a failed invalidation is
	// worth an error-level log even though the delete itself stands.
	if err := s.cache.Invalidate(ctx, studentID); err != nil {
		s.log.Error("cache invalidation failed after delete",
			logger.String("student_id", studentID),
			logger.Err(err))
	}

	s.log.Info("student deleted", logger.String("student_id", studentID))

	return nil
}

// refreshCache writes the projection through the circuit breaker. Failures
// are logged and swallowed; when Redis is down the breaker keeps the write
// path from paying the timeout on every mutation.
func (s *Service) refreshCache(ctx context.Context, proj *student.Projection) {
	err := s.breaker.Do(func() error {
		return s.cache.Set(ctx, proj)
	})
	if err != nil {
		s.log.Warn("cache refresh failed",
			logger.String("student_id", proj.StudentID),
			logger.Err(err))
	}
}
