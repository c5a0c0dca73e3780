package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"countryatlas/pkg/requestcontext"
)

const requestIDHeader = "X-Request-ID"

// RequestID assigns every request a UUID (or adopts the caller-supplied one)
// and exposes it via requestcontext and the response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(requestcontext.WithRequestID(r.Context(), id)))
	})
}
