package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/halcyon-ai/relaygw/internal/httputil"
)

// APIKeyAuth creates a chi middleware that checks the caller's shared secret
// against apiKey. Accepted forms, checked in order: "Authorization: Bearer
// <key>", "X-API-Key: <key>", "?api_key=<key>". An empty apiKey disables
// the check entirely — only intended for local development.
func APIKeyAuth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			supplied := extractKey(r)
			if supplied == "" {
				httputil.Unauthorized(w, "missing API key")
				return
			}
			if subtle.ConstantTimeCompare([]byte(supplied), []byte(apiKey)) != 1 {
				httputil.Unauthorized(w, "invalid API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func extractKey(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	return r.URL.Query().Get("api_key")
}
