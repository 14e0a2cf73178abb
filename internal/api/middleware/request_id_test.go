package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/edly-io/nodebb-sync/internal/observability"
)

func TestRequestID_GeneratesWhenAbsent(t *testing.T) {
	var ctxID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID, _ = r.Context().Value(observability.RequestIDKey).(string)
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	RequestID(next).ServeHTTP(rec, req)

	headerID := rec.Header().Get("X-Request-ID")
	if headerID == "" {
		t.Fatal("X-Request-ID header not set")
	}
	if ctxID != headerID {
		t.Errorf("context id %q != header id %q", ctxID, headerID)
	}
	if _, err := uuid.Parse(headerID); err != nil {
		t.Errorf("generated id %q is not a uuid: %v", headerID, err)
	}
}

func TestRequestID_PropagatesClientID(t *testing.T) {
	var ctxID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID, _ = r.Context().Value(observability.RequestIDKey).(string)
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "client-supplied-id")
	rec := httptest.NewRecorder()
	RequestID(next).ServeHTTP(rec, req)

	if ctxID != "client-supplied-id" {
		t.Errorf("context id = %q, want client-supplied-id", ctxID)
	}
	if got := rec.Header().Get("X-Request-ID"); got != "client-supplied-id" {
		t.Errorf("header id = %q, want client-supplied-id", got)
	}
}

func TestRequestID_ReplacesOversizedClientID(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("x", 200))
	rec := httptest.NewRecorder()
	RequestID(next).ServeHTTP(rec, req)

	got := rec.Header().Get("X-Request-ID")
	if _, err := uuid.Parse(got); err != nil {
		t.Errorf("header id = %q, want generated uuid replacing oversized client id", got)
	}
}
