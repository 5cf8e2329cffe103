package middleware

import "net/http"

// NoStore marks responses as uncacheable. View state changes on every
// refetch, so intermediaries must not serve a stale snapshot.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
