package middleware

import (
	"log/slog"
	"net/http"

	"countryatlas/pkg/platform/httputil"
	"countryatlas/pkg/requestcontext"
)

// Recoverer converts panics into generic 500 JSON responses so an unexpected
// failure never takes down the process mid-request.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.ErrorContext(r.Context(), "panic recovered",
						"request_id", requestcontext.RequestID(r.Context()),
						"path", r.URL.Path,
						"panic", rec,
					)
					httputil.WriteJSON(w, http.StatusInternalServerError,
						httputil.ErrorEnvelope{Error: "Internal server error"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
