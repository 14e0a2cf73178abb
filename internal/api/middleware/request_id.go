// Package middleware provides HTTP middleware for the lifecycle receiver API.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/edly-io/nodebb-sync/internal/observability"
)

const requestIDHeader = "X-Request-ID"

// maxRequestIDLength caps client-supplied ids so arbitrary header content
// cannot bloat log records.
const maxRequestIDLength = 64

// RequestID runs first in the chain: it ensures every request carries a
// request id in context and in the response header. A well-formed client
// X-Request-ID is propagated; anything else is replaced with a fresh UUID v7.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.Must(uuid.NewV7()).String()
		}

		ctx := context.WithValue(r.Context(), observability.RequestIDKey, id)
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
