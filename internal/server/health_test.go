package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChecker struct {
	err error
}

func (f *fakeChecker) Health(ctx context.Context) error { return f.err }

func probeHealth(t *testing.T, store, web HealthChecker) (int, HealthResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	NewHealthHandler(store, web)(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var body HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return rec.Code, body
}

func TestHealthEndpointHealthy(t *testing.T) {
	code, body := probeHealth(t, &fakeChecker{}, nil)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "connected", body.Storage)
	assert.Empty(t, body.WebSearch, "web field omitted when search is disabled")
	assert.NotEmpty(t, body.Timestamp)
}

func TestHealthEndpointStorageDown(t *testing.T) {
	code, body := probeHealth(t, &fakeChecker{err: errors.New("qdrant unreachable")}, nil)

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "disconnected", body.Storage)
}

func TestHealthEndpointReportsWebProbe(t *testing.T) {
	code, body := probeHealth(t, &fakeChecker{}, &fakeChecker{})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "connected", body.WebSearch)

	// A failing web probe is reported without failing the endpoint.
	code, body = probeHealth(t, &fakeChecker{}, &fakeChecker{err: errors.New("provider down")})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "disconnected", body.WebSearch)
}
