package request_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"scangate/pkg/platform/middleware/request"
	"scangate/pkg/requestcontext"
	"scangate/pkg/testutil"
)

func TestMiddleware_GeneratesRequestID(t *testing.T) {
	var seen string
	handler := request.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.RequestID(r.Context())
	}))

	rr := testutil.DoRequest(handler, testutil.NewRequest(t, http.MethodGet, "/v1/scan"))

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rr.Header().Get(request.HeaderRequestID))
}

func TestMiddleware_HonorsUpstreamRequestID(t *testing.T) {
	var seen string
	handler := request.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.RequestID(r.Context())
	}))

	req := testutil.NewRequest(t, http.MethodGet, "/v1/scan")
	req.Header.Set(request.HeaderRequestID, "proxy-assigned-42")
	rr := testutil.DoRequest(handler, req)

	assert.Equal(t, "proxy-assigned-42", seen)
	assert.Equal(t, "proxy-assigned-42", rr.Header().Get(request.HeaderRequestID))
}
