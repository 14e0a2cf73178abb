package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	standardwebhooks "github.com/standard-webhooks/standard-webhooks/libraries/go"
)

const testSecret = "dGVzdHNlY3JldHRlc3RzZWNyZXQ="

// signedRequest builds a request carrying valid Standard Webhooks headers for body.
func signedRequest(t *testing.T, body string) *http.Request {
	t.Helper()

	wh, err := standardwebhooks.NewWebhook(testSecret)
	if err != nil {
		t.Fatalf("NewWebhook() error = %v", err)
	}

	msgID := "msg_test"
	now := time.Now()

	signature, err := wh.Sign(msgID, now, []byte(body))
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/events", strings.NewReader(body))
	req.Header.Set("webhook-id", msgID)
	req.Header.Set("webhook-timestamp", strconv.FormatInt(now.Unix(), 10))
	req.Header.Set("webhook-signature", signature)

	return req
}

func TestVerifySignature_ValidSignaturePassesThrough(t *testing.T) {
	verify, err := VerifySignature(testSecret)
	if err != nil {
		t.Fatalf("VerifySignature() error = %v", err)
	}

	var gotBody string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusAccepted)
	})

	body := `{"type":"account.created"}`
	rec := httptest.NewRecorder()
	verify(next).ServeHTTP(rec, signedRequest(t, body))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202 (body: %s)", rec.Code, rec.Body.String())
	}
	if gotBody != body {
		t.Errorf("handler body = %q, want %q (body must be restored after verification)", gotBody, body)
	}
}

func TestVerifySignature_MissingHeaders(t *testing.T) {
	verify, err := VerifySignature(testSecret)
	if err != nil {
		t.Fatalf("VerifySignature() error = %v", err)
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached without signature headers")
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/events", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	verify(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestVerifySignature_TamperedBody(t *testing.T) {
	verify, err := VerifySignature(testSecret)
	if err != nil {
		t.Fatalf("VerifySignature() error = %v", err)
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached with tampered body")
	})

	req := signedRequest(t, `{"type":"account.created"}`)
	req.Body = io.NopCloser(strings.NewReader(`{"type":"account.delete_pending"}`))

	rec := httptest.NewRecorder()
	verify(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestVerifySignature_OversizedBody(t *testing.T) {
	verify, err := VerifySignature(testSecret)
	if err != nil {
		t.Fatalf("VerifySignature() error = %v", err)
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached with oversized body")
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/events", strings.NewReader(strings.Repeat("x", maxNotificationBytes+1)))
	rec := httptest.NewRecorder()
	verify(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
}
