// Package httputil centralizes JSON response writing so every handler emits
// the same envelope. Errors are translated from the domain taxonomy; anything
// unrecognized degrades to a generic 500 without leaking internals.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "countryatlas/pkg/domain-errors"
)

// ErrorEnvelope is the wire shape for all error responses.
type ErrorEnvelope struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WriteJSON serializes v with the given status. Encoding failures are not
// recoverable at this point; the status line has already been written.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteError translates a domain error into status code + JSON envelope.
// Internal errors omit details so infrastructure messages stay out of
// responses.
func WriteError(w http.ResponseWriter, err error) {
	de, ok := dErrors.As(err)
	if !ok {
		WriteJSON(w, http.StatusInternalServerError, ErrorEnvelope{Error: "Internal server error"})
		return
	}
	env := ErrorEnvelope{Error: de.Message}
	if de.Code != dErrors.CodeInternal {
		env.Details = de.Details
	}
	WriteJSON(w, dErrors.ToHTTPStatus(de.Code), env)
}
