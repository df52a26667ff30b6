// Package middleware provides HTTP middleware for the StudyToolsGPT proxy.
package middleware

import "net/http"

// CORS returns middleware that handles CORS headers. An entry of "*" in
// allowedOrigins echoes any origin but never grants credentials.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			for _, o := range allowedOrigins {
				if o != "*" && o != origin {
					continue
				}
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
				if o == origin {
					// Credentials only for explicitly listed origins; a
					// wildcard-echoed origin with credentials enables CSRF.
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
				break
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
