package testutil

import (
	"net/http"

	id "scangate/pkg/domain"
	"scangate/pkg/requestcontext"
)

// WithDevice stamps a device identity on the request context. This simulates
// what the deviceauth middleware does for authenticated scanner requests.
// An invalid device ID is silently ignored.
func WithDevice(req *http.Request, deviceID, station string) *http.Request {
	ctx := req.Context()
	if parsed, err := id.ParseDeviceID(deviceID); err == nil {
		ctx = requestcontext.WithDeviceID(ctx, parsed)
	}
	if station != "" {
		ctx = requestcontext.WithStation(ctx, station)
	}
	return req.WithContext(ctx)
}

// WithRequestID stamps a request ID on the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
