package httpx

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/meridian-grc/meridian-grc/internal/shared"
)

// RespondError maps domain errors to HTTP problem responses.
//
// NotFound -> 404, InvalidState and duplicate titles -> 409, unmet external
// preconditions -> 422, malformed stored titles -> 500 (data integrity, not a
// caller mistake), validation -> 400.
func RespondError(w http.ResponseWriter, err error) {
	var verr validator.ValidationErrors
	switch {
	case shared.IsNotFound(err):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case shared.IsInvalidState(err):
		Problem(w, http.StatusConflict, "Invalid State", err.Error())
	case errors.Is(err, shared.ErrDuplicateTitle):
		Problem(w, http.StatusConflict, "Duplicate Title", err.Error())
	case shared.IsPrecondition(err):
		Problem(w, http.StatusUnprocessableEntity, "Precondition Failed", err.Error())
	case shared.IsMalformedTitle(err):
		Problem(w, http.StatusInternalServerError, "Data Integrity", err.Error())
	case errors.As(err, &verr):
		Problem(w, http.StatusBadRequest, "Validation Failed", verr.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
