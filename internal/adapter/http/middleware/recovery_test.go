package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestRecovery_ConvertsPanicTo500(t *testing.T) {
	var logs bytes.Buffer
	logger := zerolog.New(&logs)

	handler := Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/accounts/1", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(logs.String(), "panic recovered") {
		t.Fatalf("expected panic to be logged, got %q", logs.String())
	}
}

func TestLoggingMiddleware_LogsStatus(t *testing.T) {
	var logs bytes.Buffer
	handler := NewLoggingMiddleware(zerolog.New(&logs)).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/accounts", nil))

	if !strings.Contains(logs.String(), `"status":201`) {
		t.Fatalf("expected status in log line, got %q", logs.String())
	}
}
