// Package deviceauth gates scan endpoints behind scanner device tokens.
package deviceauth

import (
	"log/slog"
	"net/http"
	"strings"

	"scangate/internal/jwtdevice"
	id "scangate/pkg/domain"
	dErrors "scangate/pkg/domain-errors"
	"scangate/pkg/platform/httputil"
	"scangate/pkg/requestcontext"
)

// TokenValidator defines the interface for validating device tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*jwtdevice.Claims, error)
}

// RequireDevice rejects requests without a valid device bearer token and
// stores the device identity in the request context.
func RequireDevice(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
			if !ok || token == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "device token required"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized scanner - invalid device token",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				httputil.WriteError(w, err)
				return
			}

			deviceID, err := id.ParseDeviceID(claims.DeviceID)
			if err != nil {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid device token claims"))
				return
			}

			ctx = requestcontext.WithDeviceID(ctx, deviceID)
			ctx = requestcontext.WithStation(ctx, claims.Station)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
