// Package middleware holds the HTTP middleware chain: request IDs and
// operator authentication.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"aurum/pkg/requestcontext"
)

const requestIDHeader = "X-Request-Id"

// RequestID propagates the caller's request ID or mints one, stamping it
// into the context and the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := requestcontext.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
