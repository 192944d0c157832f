package requesttime_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"scangate/pkg/clock"
	"scangate/pkg/platform/middleware/requesttime"
	"scangate/pkg/requestcontext"
	"scangate/pkg/testutil"
)

func TestMiddleware_StampsRequestTime(t *testing.T) {
	pinned := time.Date(2026, 1, 12, 7, 45, 0, 0, time.UTC)
	clk := clock.NewFake(pinned)

	var seen time.Time
	handler := requesttime.Middleware(clk)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.Now(r.Context())
	}))

	testutil.DoRequest(handler, testutil.NewRequest(t, http.MethodPost, "/v1/scan"))

	assert.True(t, seen.Equal(pinned))
}
