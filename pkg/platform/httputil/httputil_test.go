package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	dErrors "countryatlas/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits details", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.Wrap(dErrors.CodeInternal, "Internal server error", errors.New("db failed")))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "Internal server error" {
			t.Fatalf("expected generic internal message, got %q", body["error"])
		}
		if _, ok := body["details"]; ok {
			t.Fatalf("expected details to be omitted for internal errors")
		}
	})

	t.Run("unavailable includes details", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.Wrap(dErrors.CodeUnavailable, "External data source unavailable", errors.New("fetch countries: timeout")))

		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "External data source unavailable" {
			t.Fatalf("unexpected error message %q", body["error"])
		}
		if body["details"] != "fetch countries: timeout" {
			t.Fatalf("expected details to carry the cause, got %q", body["details"])
		}
	})

	t.Run("plain error degrades to generic 500", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, errors.New("surprise"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "Internal server error" {
			t.Fatalf("expected generic message, got %q", body["error"])
		}
	})
}
