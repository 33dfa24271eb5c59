package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sixt-edu/student-registry/internal/application/registry"
	"github.com/sixt-edu/student-registry/internal/domain/shared"
	"github.com/sixt-edu/student-registry/pkg/logger"
)

// StudentHandler serves the aggregate write path and the search read path.
type StudentHandler struct {
	service *registry.Service
	search  *registry.SearchService
	log     *logger.Logger
}

// NewStudentHandler wires the student endpoints.
func NewStudentHandler(service *registry.Service, search *registry.SearchService, log *logger.Logger) *StudentHandler {
	return &StudentHandler{service: service, search: search, log: log}
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return shared.WrapError("http", "decode", shared.ErrValidation, "malformed request body", err)
	}
	return nil
}

// decodeUpdate reads a PATCH body. The identity key needs a raw pre-pass to
// tell "absent" (keep the stored document) from "identity": null (remove it);
// the second pass is strict, so unknown keys are rejected just as on create.
func decodeUpdate(body io.Reader) (updateStudentDTO, error) {
	var dto updateStudentDTO

	buf, err := io.ReadAll(body)
	if err != nil {
		return dto, shared.WrapError("http", "decode", shared.ErrValidation, "malformed request body", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(buf, &raw); err != nil {
		return dto, shared.WrapError("http", "decode", shared.ErrValidation, "malformed request body", err)
	}

	dec := json.NewDecoder(bytes.NewReader(buf))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&dto); err != nil {
		return dto, shared.WrapError("http", "decode", shared.ErrValidation, "malformed request body", err)
	}
	_, dto.identityPresent = raw["identity"]
	return dto, nil
}

// validationError flattens validator output into one message; clients get
// the first offending field rather than a wall of struct paths.
func validationError(err error) error {
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		f := verrs[0]
		return shared.NewDomainError("http", "validate", shared.ErrValidation,
			"invalid field "+f.Field()+" ("+f.Tag()+")")
	}
	return shared.WrapError("http", "validate", shared.ErrValidation, "invalid request", err)
}

// Create handles POST /api/v1/students.
func (h *StudentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var dto createStudentDTO
	if err := decodeJSON(r, &dto); err != nil {
		fail(w, h.log, err)
		return
	}
	if err := validate.Struct(dto); err != nil {
		fail(w, h.log, validationError(err))
		return
	}

	req, err := dto.toRequest()
	if err != nil {
		fail(w, h.log, err)
		return
	}

	proj, err := h.service.Create(r.Context(), req)
	if err != nil {
		fail(w, h.log, err)
		return
	}
	created(w, "student created", proj)
}

// Update handles PATCH /api/v1/students/{studentId}.
func (h *StudentHandler) Update(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentId")

	dto, err := decodeUpdate(r.Body)
	if err != nil {
		fail(w, h.log, err)
		return
	}

	if err := validate.Struct(dto); err != nil {
		fail(w, h.log, validationError(err))
		return
	}

	req, err := dto.toRequest()
	if err != nil {
		fail(w, h.log, err)
		return
	}

	proj, err := h.service.Update(r.Context(), studentID, req)
	if err != nil {
		fail(w, h.log, err)
		return
	}
	ok(w, "student updated", proj)
}

// Delete handles DELETE /api/v1/students/{studentId}.
func (h *StudentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentId")

	if err := h.service.Delete(r.Context(), studentID); err != nil {
		fail(w, h.log, err)
		return
	}
	ok(w, "student deleted", nil)
}

// Get handles GET /api/v1/students/{studentId}. The path parameter is the
// business key, so this is always an exact lookup; a warm cache answers
// without touching the store.
func (h *StudentHandler) Get(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentId")

	proj, err := h.search.Lookup(r.Context(), studentID)
	if err != nil {
		fail(w, h.log, err)
		return
	}
	ok(w, "student found", proj)
}

// Search handles GET /api/v1/students/search?q=...
func (h *StudentHandler) Search(w http.ResponseWriter, r *http.Request) {
	results, err := h.search.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		fail(w, h.log, err)
		return
	}
	ok(w, "search complete", results)
}

// SearchByDepartment handles GET /api/v1/students/search/department?name=...&q=...
func (h *StudentHandler) SearchByDepartment(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	results, err := h.search.SearchByDepartment(r.Context(), q.Get("name"), q.Get("q"))
	if err != nil {
		fail(w, h.log, err)
		return
	}
	ok(w, "search complete", results)
}
