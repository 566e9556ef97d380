package middleware

import (
	"net/http"

	"taxonomy/pkg/common"
)

// APIKeyHeader carries the caller's classification service credential
const APIKeyHeader = "X-API-Key"

// APIKey copies the credential header into the request context. A missing
// header is not an error; the classification service decides.
func APIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if key := r.Header.Get(APIKeyHeader); key != "" {
			r = r.WithContext(common.WithAPIKey(r.Context(), key))
		}
		next.ServeHTTP(w, r)
	})
}
