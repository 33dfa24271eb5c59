package http

import (
	"net/http"

	"github.com/sixt-edu/student-registry/internal/application/transfer"
	"github.com/sixt-edu/student-registry/pkg/logger"
)

// maxImportBytes caps the import payload; a bulk load beyond this belongs in
// a batch pipeline, not an HTTP request.
const maxImportBytes = 32 << 20

// TransferHandler serves the bulk export and import endpoints.
type TransferHandler struct {
	exporter *transfer.Exporter
	importer *transfer.Importer
	log      *logger.Logger
}

// NewTransferHandler wires the transfer endpoints.
func NewTransferHandler(exporter *transfer.Exporter, importer *transfer.Importer, log *logger.Logger) *TransferHandler {
	return &TransferHandler{exporter: exporter, importer: importer, log: log}
}

// ExportCSV handles GET /api/v1/students/export/csv. The dump streams
// straight into the response; by the time a mid-stream error could occur the
// status line is already gone, so it is only logged.
func (h *TransferHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="students.csv"`)

	if err := h.exporter.ExportCSV(r.Context(), w); err != nil {
		h.log.Error("csv export failed", logger.Err(err))
	}
}

// ExportJSON handles GET /api/v1/students/export/json.
func (h *TransferHandler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="students.json"`)

	if err := h.exporter.ExportJSON(r.Context(), w); err != nil {
		h.log.Error("json export failed", logger.Err(err))
	}
}

// ImportCSV handles POST /api/v1/students/import/csv with the file as the
// raw request body.
func (h *TransferHandler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)

	report, err := h.importer.ImportCSV(r.Context(), r.Body)
	if err != nil {
		fail(w, h.log, err)
		return
	}

	// Per-row failures are part of the report, not a request failure; the
	// caller inspects the report to retry or fix rejected rows.
	ok(w, "import complete", report)
}
