package requestcontext_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	id "scangate/pkg/domain"
	"scangate/pkg/requestcontext"
	"scangate/pkg/testutil"
)

func TestDeviceIdentityRoundTrip(t *testing.T) {
	req := testutil.NewRequest(t, http.MethodPost, "/v1/scan")
	req = testutil.WithDevice(req, "gate-1", "main gate")

	ctx := req.Context()
	assert.Equal(t, id.DeviceID("gate-1"), requestcontext.DeviceID(ctx))
	assert.Equal(t, "main gate", requestcontext.Station(ctx))
}

func TestMissingValuesReturnZero(t *testing.T) {
	ctx := context.Background()
	assert.True(t, requestcontext.DeviceID(ctx).IsNil())
	assert.Empty(t, requestcontext.Station(ctx))
	assert.Empty(t, requestcontext.RequestID(ctx))
	assert.Empty(t, requestcontext.ClientIP(ctx))
}

func TestRequestIDRoundTrip(t *testing.T) {
	req := testutil.NewRequest(t, http.MethodGet, "/v1/scan")
	req = testutil.WithRequestID(req, "req-7")
	assert.Equal(t, "req-7", requestcontext.RequestID(req.Context()))
}

func TestNowFallsBackToWallClock(t *testing.T) {
	assert.False(t, requestcontext.Now(context.Background()).IsZero())
}
