package middleware

import "net/http"

// MaxBodySize wraps the request body in http.MaxBytesReader so handlers
// that decode JSON fail fast instead of buffering an unbounded payload.
func MaxBodySize(max int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, max)
			next.ServeHTTP(w, r)
		})
	}
}
