package middleware

import (
	"bytes"
	"io"
	"net/http"

	standardwebhooks "github.com/standard-webhooks/standard-webhooks/libraries/go"

	"github.com/edly-io/nodebb-sync/internal/api/handlers"
)

// maxNotificationBytes caps the inbound notification body size. Lifecycle
// payloads are a handful of record fields; anything larger is rejected.
const maxNotificationBytes = 64 * 1024

// VerifySignature returns a middleware that verifies the Standard Webhooks
// signature headers (webhook-id, webhook-timestamp, webhook-signature) on
// every request before the body reaches the handler. The body is buffered for
// verification and restored for downstream reads.
func VerifySignature(secret string) (func(http.Handler) http.Handler, error) {
	wh, err := standardwebhooks.NewWebhook(secret)
	if err != nil {
		return nil, err
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxNotificationBytes))
			if err != nil {
				handlers.RespondError(w, http.StatusRequestEntityTooLarge,
					"Request Entity Too Large", "request body exceeds maximum allowed size")
				return
			}

			if err := wh.Verify(body, r.Header); err != nil {
				handlers.RespondUnauthorized(w, "invalid webhook signature")
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}, nil
}
