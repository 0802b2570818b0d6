package middleware

import "net/http"

// DefaultMaxBodyBytes caps form submissions; a full lead form is a few KB.
const DefaultMaxBodyBytes int64 = 64 << 10

// MaxBodyBytes limits request bodies. Reads past the limit fail, which the
// JSON handlers surface as 400 "Invalid request body".
func MaxBodyBytes(limit int64) func(http.Handler) http.Handler {
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
