// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors shared across domain layers.
var (
	ErrNotFound   = errors.New("resource not found")
	ErrDuplicate  = errors.New("duplicate entry")
	ErrValidation = errors.New("validation failed")
)

// RespondError maps shared sentinel errors to HTTP responses using RFC7807.
// Domain-specific rejections (insufficient stock, degraded marketplace
// results) are mapped by their own handlers before falling through here.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
