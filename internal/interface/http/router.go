package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sixt-edu/student-registry/internal/domain/lookup"
	"github.com/sixt-edu/student-registry/pkg/logger"
)

// Router assembles the API surface.
type Router struct {
	students *StudentHandler
	lookups  *LookupHandler
	transfer *TransferHandler
	health   *HealthHandler
	log      *logger.Logger

	allowedOrigins []string
}

// NewRouter wires the router with every handler group.
func NewRouter(students *StudentHandler, lookups *LookupHandler, transfer *TransferHandler, health *HealthHandler, log *logger.Logger, allowedOrigins []string) *Router {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return &Router{
		students:       students,
		lookups:        lookups,
		transfer:       transfer,
		health:         health,
		log:            log,
		allowedOrigins: allowedOrigins,
	}
}

// Setup returns the fully routed handler.
func (ro *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(ro.log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   ro.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", ro.health.Check)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/students", func(r chi.Router) {
			r.Post("/", ro.students.Create)
			r.Get("/search", ro.students.Search)
			r.Get("/search/department", ro.students.SearchByDepartment)

			r.Get("/export/csv", ro.transfer.ExportCSV)
			r.Get("/export/json", ro.transfer.ExportJSON)
			r.Post("/import/csv", ro.transfer.ImportCSV)

			r.Route("/{studentId}", func(r chi.Router) {
				r.Get("/", ro.students.Get)
				r.Patch("/", ro.students.Update)
				r.Delete("/", ro.students.Delete)
			})
		})

		ro.mountLookup(r, "/departments", lookup.KindDepartment)
		ro.mountLookup(r, "/programs", lookup.KindProgram)
		ro.mountLookup(r, "/statuses", lookup.KindStatus)
	})

	return r
}

func (ro *Router) mountLookup(r chi.Router, path string, kind lookup.Kind) {
	r.Route(path, func(r chi.Router) {
		r.Get("/", ro.lookups.List(kind))
		r.Post("/", ro.lookups.Create(kind))
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", ro.lookups.Get(kind))
			r.Put("/", ro.lookups.Rename(kind))
			r.Delete("/", ro.lookups.Delete(kind))
		})
	})
}
