// Package request assigns a correlation ID to every incoming request so logs
// and audit events from one scan can be stitched together.
package request

import (
	"net/http"

	"github.com/google/uuid"

	"scangate/pkg/requestcontext"
)

// HeaderRequestID is honored when an upstream proxy already assigned an ID.
const HeaderRequestID = "X-Request-Id"

// Middleware stamps the request context with a correlation ID and echoes it
// on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
