package registry

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/sixt-edu/student-registry/internal/domain/lookup"
	"github.com/sixt-edu/student-registry/internal/domain/shared"
	"github.com/sixt-edu/student-registry/internal/domain/student"
	"github.com/sixt-edu/student-registry/pkg/logger"
)

// searchScanKey is the shared read-lock key for free-text scans. Scans cover
// the whole projection keyspace, so they contend with every writer through
// this one key rather than each student's own.
const searchScanKey = "search:scan"

var numericQuery = regexp.MustCompile(`^[0-9]+$`)

// SearchService serves the read side. A purely numeric query is treated as
// an exact student-id lookup; anything else is a case-insensitive substring
// match over full names.
type SearchService struct {
	store    student.Store
	cache    student.ProjectionCache
	locks    LockCoordinator
	resolver *Resolver
	log      *logger.Logger
	cfg      Config
}

// NewSearchService wires the search service.
func NewSearchService(store student.Store, cache student.ProjectionCache, locks LockCoordinator, resolver *Resolver, log *logger.Logger, cfg Config) *SearchService {
	if cfg.LockWait <= 0 || cfg.LockHold <= 0 {
		cfg = DefaultConfig()
	}
	return &SearchService{
		store:    store,
		cache:    cache,
		locks:    locks,
		resolver: resolver,
		log:      log,
		cfg:      cfg,
	}
}

// Search runs one query and returns matching projections. The result of an
// exact lookup is a singleton or empty slice, never an error for a miss.
func (s *SearchService) Search(ctx context.Context, query string) ([]*student.Projection, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*student.Projection{}, nil
	}
	if numericQuery.MatchString(query) {
		return s.searchExact(ctx, query)
	}
	return s.searchSubstring(ctx, query)
}

// Lookup fetches one student by its exact business key. Unlike Search it
// never routes through the substring path, so ids that are not purely
// numeric still resolve against the key itself rather than full names.
func (s *SearchService) Lookup(ctx context.Context, studentID string) (*student.Projection, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, shared.ErrStudentNotFound
	}
	results, err := s.searchExact(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, shared.ErrStudentNotFound
	}
	return results[0], nil
}

// searchExact looks up one student by id: cache first, store on a miss, and
// the store result is written back so the next lookup stays in Redis.
func (s *SearchService) searchExact(ctx context.Context, studentID string) ([]*student.Projection, error) {
	lock, err := s.locks.AcquireRead(ctx, studentID, s.cfg.LockWait, s.cfg.LockHold)
	if err != nil {
		return nil, err
	}
	defer lock.Release(ctx)

	if proj, err := s.cache.Get(ctx, studentID); err == nil {
		return []*student.Projection{proj}, nil
	} else if !shared.IsNotFound(err) {
		s.log.Warn("cache read failed, falling back to store",
			logger.String("student_id", studentID),
			logger.Err(err))
	}

	proj, err := s.loadProjection(ctx, studentID)
	if err != nil {
		if shared.IsNotFound(err) {
			return []*student.Projection{}, nil
		}
		return nil, err
	}

	// Read-through: populate the cache so the entry is warm again after an
	// eviction or a cold start.
	if err := s.cache.Set(ctx, proj); err != nil {
		s.log.Warn("cache populate failed",
			logger.String("student_id", studentID),
			logger.Err(err))
	}

	return []*student.Projection{proj}, nil
}

// searchSubstring scans cached projections for a full-name substring match.
// Only when the cache yields nothing does it fall through to the store; the
// two result sets are never merged, so a partially warm cache can shadow
// store-only rows until their next write refreshes them.
func (s *SearchService) searchSubstring(ctx context.Context, query string) ([]*student.Projection, error) {
	lock, err := s.locks.AcquireRead(ctx, searchScanKey, s.cfg.LockWait, s.cfg.LockHold)
	if err != nil {
		return nil, err
	}
	defer lock.Release(ctx)

	needle := strings.ToLower(query)
	var matches []*student.Projection
	err = s.cache.Scan(ctx, func(proj *student.Projection) bool {
		if strings.Contains(strings.ToLower(proj.FullName), needle) {
			matches = append(matches, proj)
		}
		return true
	})
	if err != nil {
		s.log.Warn("cache scan failed, falling back to store", logger.Err(err))
		matches = nil
	}

	if len(matches) == 0 {
		recs, err := s.store.SearchBySubstring(ctx, query)
		if err != nil {
			return nil, internalErr("Search", "substring search failed", err)
		}
		matches, err = s.projectAll(ctx, recs)
		if err != nil {
			return nil, err
		}
		// Opportunistic warm-up so the next scan is served from cache.
		for _, proj := range matches {
			if err := s.cache.Set(ctx, proj); err != nil {
				s.log.Warn("cache populate failed",
					logger.String("student_id", proj.StudentID),
					logger.Err(err))
				break
			}
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].StudentID < matches[j].StudentID
	})
	if matches == nil {
		matches = []*student.Projection{}
	}
	return matches, nil
}

// SearchByDepartment returns every student in the named department whose
// full name contains the optional query. The cache stores department names
// denormalized, so a lookup rename would make scans stale; this path goes
// straight to the store instead.
func (s *SearchService) SearchByDepartment(ctx context.Context, department, query string) ([]*student.Projection, error) {
	department = strings.TrimSpace(department)
	if department == "" {
		return nil, shared.NewDomainError("student", "SearchByDepartment", shared.ErrValidation, "department must not be blank")
	}

	deptID, err := s.resolver.Resolve(ctx, lookup.KindDepartment, department)
	if err != nil {
		return nil, err
	}

	recs, err := s.store.FindByDepartment(ctx, deptID, strings.TrimSpace(query))
	if err != nil {
		return nil, internalErr("SearchByDepartment", "department search failed", err)
	}
	return s.projectAll(ctx, recs)
}

// loadProjection assembles a projection straight from the store.
func (s *SearchService) loadProjection(ctx context.Context, studentID string) (*student.Projection, error) {
	rec, err := s.store.FindByStudentID(ctx, studentID)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, err
		}
		return nil, internalErr("Search", "load failed", err)
	}
	addresses, identity, err := s.store.LoadChildren(ctx, studentID)
	if err != nil {
		return nil, internalErr("Search", "child load failed", err)
	}
	return projectRecord(ctx, s.resolver, rec, addresses, identity)
}

func (s *SearchService) projectAll(ctx context.Context, recs []student.Record) ([]*student.Projection, error) {
	projections := make([]*student.Projection, 0, len(recs))
	for i := range recs {
		rec := &recs[i]
		addresses, identity, err := s.store.LoadChildren(ctx, rec.StudentID)
		if err != nil {
			return nil, internalErr("Search", "child load failed", err)
		}
		proj, err := projectRecord(ctx, s.resolver, rec, addresses, identity)
		if err != nil {
			return nil, err
		}
		projections = append(projections, proj)
	}
	return projections, nil
}
