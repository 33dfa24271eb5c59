package registry

import (
	"context"
	"strings"

	"github.com/sixt-edu/student-registry/internal/domain/lookup"
	"github.com/sixt-edu/student-registry/internal/domain/shared"
	"github.com/sixt-edu/student-registry/pkg/logger"
)

// LookupService administers the reference tables students point at:
// departments, programs and statuses. Lookup writes are rare and never
// contend with the aggregate path, so they run without distributed locks;
// the store's unique name constraint is the only arbiter needed.
type LookupService struct {
	repo lookup.Repository
	log  *logger.Logger
}

// NewLookupService wires the lookup administration service.
func NewLookupService(repo lookup.Repository, log *logger.Logger) *LookupService {
	return &LookupService{repo: repo, log: log}
}

// List returns every record of the kind, ordered by name.
func (s *LookupService) List(ctx context.Context, kind lookup.Kind) ([]lookup.Record, error) {
	if !kind.Valid() {
		return nil, shared.NewDomainError("lookup", "List", shared.ErrValidation, "unknown lookup kind")
	}
	recs, err := s.repo.List(ctx, kind)
	if err != nil {
		return nil, internalErr("List", "lookup list failed", err)
	}
	return recs, nil
}

// Get returns one record by id.
func (s *LookupService) Get(ctx context.Context, kind lookup.Kind, id int64) (*lookup.Record, error) {
	if !kind.Valid() {
		return nil, shared.NewDomainError("lookup", "Get", shared.ErrValidation, "unknown lookup kind")
	}
	rec, err := s.repo.FindByID(ctx, kind, id)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, err
		}
		return nil, internalErr("Get", "lookup load failed", err)
	}
	return rec, nil
}

// Create inserts a new record. Names are unique per kind.
func (s *LookupService) Create(ctx context.Context, kind lookup.Kind, name string) (*lookup.Record, error) {
	if !kind.Valid() {
		return nil, shared.NewDomainError("lookup", "Create", shared.ErrValidation, "unknown lookup kind")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("lookup", "Create", shared.ErrValidation, "name must not be blank")
	}
	rec := &lookup.Record{Name: name}
	if err := s.repo.Create(ctx, kind, rec); err != nil {
		if shared.IsConflict(err) {
			return nil, err
		}
		return nil, internalErr("Create", "lookup insert failed", err)
	}
	s.log.Info("lookup created",
		logger.String("kind", string(kind)),
		logger.String("name", name))
	return rec, nil
}

// Rename changes a record's name. Students referencing it by id see the new
// name on their next projection; cached projections keep the old one until a
// write refreshes them.
func (s *LookupService) Rename(ctx context.Context, kind lookup.Kind, id int64, name string) (*lookup.Record, error) {
	if !kind.Valid() {
		return nil, shared.NewDomainError("lookup", "Rename", shared.ErrValidation, "unknown lookup kind")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("lookup", "Rename", shared.ErrValidation, "name must not be blank")
	}
	rec, err := s.repo.Rename(ctx, kind, id, name)
	if err != nil {
		if shared.IsNotFound(err) || shared.IsConflict(err) {
			return nil, err
		}
		return nil, internalErr("Rename", "lookup rename failed", err)
	}
	s.log.Info("lookup renamed",
		logger.String("kind", string(kind)),
		logger.Int64("id", id),
		logger.String("name", name))
	return rec, nil
}

// Delete removes a record. A record still referenced by students fails with
// a conflict from the store's foreign key.
func (s *LookupService) Delete(ctx context.Context, kind lookup.Kind, id int64) error {
	if !kind.Valid() {
		return shared.NewDomainError("lookup", "Delete", shared.ErrValidation, "unknown lookup kind")
	}
	if err := s.repo.Delete(ctx, kind, id); err != nil {
		if shared.IsNotFound(err) || shared.IsConflict(err) {
			return err
		}
		return internalErr("Delete", "lookup delete failed", err)
	}
	s.log.Info("lookup deleted",
		logger.String("kind", string(kind)),
		logger.Int64("id", id))
	return nil
}
