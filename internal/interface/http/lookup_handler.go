package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sixt-edu/student-registry/internal/application/registry"
	"github.com/sixt-edu/student-registry/internal/domain/lookup"
	"github.com/sixt-edu/student-registry/internal/domain/shared"
	"github.com/sixt-edu/student-registry/pkg/logger"
)

// LookupHandler serves the reference-table admin endpoints. One handler
// covers departments, programs and statuses; the kind is fixed per route.
type LookupHandler struct {
	service *registry.LookupService
	log     *logger.Logger
}

// NewLookupHandler wires the lookup endpoints.
func NewLookupHandler(service *registry.LookupService, log *logger.Logger) *LookupHandler {
	return &LookupHandler{service: service, log: log}
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, shared.NewDomainError("http", "parseID", shared.ErrValidation, "id must be an integer")
	}
	return id, nil
}

// List handles GET /api/v1/{kind}.
func (h *LookupHandler) List(kind lookup.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recs, err := h.service.List(r.Context(), kind)
		if err != nil {
			fail(w, h.log, err)
			return
		}
		ok(w, "list complete", recs)
	}
}

// Get handles GET /api/v1/{kind}/{id}.
func (h *LookupHandler) Get(kind lookup.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r)
		if err != nil {
			fail(w, h.log, err)
			return
		}
		rec, err := h.service.Get(r.Context(), kind, id)
		if err != nil {
			fail(w, h.log, err)
			return
		}
		ok(w, "record found", rec)
	}
}

// Create handles POST /api/v1/{kind}.
func (h *LookupHandler) Create(kind lookup.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var dto lookupDTO
		if err := decodeJSON(r, &dto); err != nil {
			fail(w, h.log, err)
			return
		}
		if err := validate.Struct(dto); err != nil {
			fail(w, h.log, validationError(err))
			return
		}
		rec, err := h.service.Create(r.Context(), kind, dto.Name)
		if err != nil {
			fail(w, h.log, err)
			return
		}
		created(w, "record created", rec)
	}
}

// Rename handles PUT /api/v1/{kind}/{id}.
func (h *LookupHandler) Rename(kind lookup.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r)
		if err != nil {
			fail(w, h.log, err)
			return
		}
		var dto lookupDTO
		if err := decodeJSON(r, &dto); err != nil {
			fail(w, h.log, err)
			return
		}
		if err := validate.Struct(dto); err != nil {
			fail(w, h.log, validationError(err))
			return
		}
		rec, err := h.service.Rename(r.Context(), kind, id, dto.Name)
		if err != nil {
			fail(w, h.log, err)
			return
		}
		ok(w, "record renamed", rec)
	}
}

// Delete handles DELETE /api/v1/{kind}/{id}.
func (h *LookupHandler) Delete(kind lookup.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r)
		if err != nil {
			fail(w, h.log, err)
			return
		}
		if err := h.service.Delete(r.Context(), kind, id); err != nil {
			fail(w, h.log, err)
			return
		}
		ok(w, "record deleted", nil)
	}
}
