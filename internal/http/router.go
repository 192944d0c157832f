// Package httpapi assembles the HTTP surface: the middleware chain, the scan
// endpoints behind device authentication, and the operational endpoints.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"scangate/internal/attendance/handler"
	"scangate/pkg/clock"
	"scangate/pkg/platform/httputil"
	"scangate/pkg/platform/middleware/deviceauth"
	"scangate/pkg/platform/middleware/metadata"
	"scangate/pkg/platform/middleware/request"
	"scangate/pkg/platform/middleware/requesttime"
)

// HealthCheck probes one dependency. Checks run with a short deadline so a
// wedged dependency cannot hang the probe.
type HealthCheck func(ctx context.Context) error

// Deps carries everything the router mounts.
type Deps struct {
	Scan      *handler.Handler
	Validator deviceauth.TokenValidator
	Clock     clock.Clock
	Logger    *slog.Logger
	Health    map[string]HealthCheck
}

// New builds the chi router. Request ID, request time, and client metadata
// run for every route; device auth guards only the /v1 API.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(request.Middleware)
	r.Use(requesttime.Middleware(deps.Clock))
	r.Use(metadata.ClientMetadata)

	r.Get("/healthz", handleHealth(deps.Health))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(deviceauth.RequireDevice(deps.Validator, deps.Logger))
		deps.Scan.Register(r)
	})
	return r
}

type healthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

func handleHealth(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok", Components: make(map[string]string, len(checks))}
		status := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				resp.Status = "degraded"
				resp.Components[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Components[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
