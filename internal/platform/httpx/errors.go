package httpx

import (
	"errors"
	"net/http"

	"github.com/nectar-erp/nectar-erp/internal/shared"
	"github.com/nectar-erp/nectar-erp/internal/workflow"
)

// ErrValidation wraps request validation failures for status mapping.
var ErrValidation = errors.New("validation failed")

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, shared.ErrVersionConflict):
		Problem(w, http.StatusConflict, "Version Conflict", err.Error())
	case errors.Is(err, shared.ErrIdempotencyConflict):
		Problem(w, http.StatusConflict, "Already Processed", err.Error())
	case errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrInvalidAcknowledgement):
		Problem(w, http.StatusConflict, "Invalid Transition", err.Error())
	case errors.Is(err, workflow.ErrUnknownStep),
		errors.Is(err, workflow.ErrUnknownOrderType),
		errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
