package middleware

import "net/http"

// APIKey guards an endpoint with a pre-shared secret. The key is taken from
// the x-api-key header or, for callers that cannot set headers, the `key`
// query parameter. A mismatch rejects the request before any handler work,
// so a bad key never triggers a partial fan-out.
func APIKey(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("x-api-key")
			if key == "" {
				key = r.URL.Query().Get("key")
			}

			if secret == "" || key != secret {
				writeError(w, r, http.StatusUnauthorized, "Unauthorized")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
