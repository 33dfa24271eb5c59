package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sixt-edu/student-registry/internal/domain/shared"
	"github.com/sixt-edu/student-registry/pkg/logger"
)

// Response is the uniform envelope every endpoint answers with.
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{
		Status:  status,
		Message: message,
		Data:    data,
	})
}

func ok(w http.ResponseWriter, message string, data interface{}) {
	writeJSON(w, http.StatusOK, message, data)
}

func created(w http.ResponseWriter, message string, data interface{}) {
	writeJSON(w, http.StatusCreated, message, data)
}

// statusFor maps the domain error taxonomy onto HTTP statuses. Lock
// exhaustion is 503 with the expectation that the client retries; it is
// contention, not failure.
func statusFor(err error) int {
	switch {
	case shared.IsConflict(err):
		return http.StatusConflict
	case shared.IsReferenceNotFound(err):
		return http.StatusUnprocessableEntity
	case shared.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrLockUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, shared.ErrCancelled):
		return 499 // client closed request
	default:
		return http.StatusInternalServerError
	}
}

// fail renders a domain error. Internal details are logged, never echoed.
func fail(w http.ResponseWriter, log *logger.Logger, err error) {
	status := statusFor(err)
	message := err.Error()

	if status == http.StatusInternalServerError {
		log.Error("request failed", logger.Err(err))
		message = "internal server error"
	}

	writeJSON(w, status, message, nil)
}
