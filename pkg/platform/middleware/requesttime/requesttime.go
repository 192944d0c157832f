// Package requesttime provides middleware for request-scoped time.
// All operations within a single HTTP request use the same "now" timestamp,
// ensuring consistency in audit events, domain timestamps, and window
// classification.
package requesttime

import (
	"net/http"

	"scangate/pkg/clock"
	"scangate/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request and stores
// it in the context. The clock is injected so tests can pin window boundaries.
func Middleware(clk clock.Clock) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithTime(r.Context(), clk.Now())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
