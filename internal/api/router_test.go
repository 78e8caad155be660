package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kiranshivaraju/recruitai/internal/api"
	mw "github.com/kiranshivaraju/recruitai/internal/api/middleware"
	"github.com/kiranshivaraju/recruitai/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- counting cache ---

type stubCache struct {
	cache.NopCache
	count int64
}

func (c *stubCache) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	c.count++
	return c.count, nil
}

// --- router tests ---

func okJSON(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func newTestRouter(limit int) http.Handler {
	return api.NewRouter(api.Dependencies{
		RateLimit:     mw.NewRateLimit(&stubCache{}, limit),
		HealthHandler: okJSON,
		ListBatches:   okJSON,
	})
}

func errCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"].(map[string]any)["code"].(string)
}

func TestRouter_HealthEndpoint(t *testing.T) {
	router := newTestRouter(60)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(mw.RequestIDHeader))
}

func TestRouter_UnwiredEndpointsReturnNotImplemented(t *testing.T) {
	router := newTestRouter(60)

	endpoints := []struct {
		method string
		path   string
	}{
		{"POST", "/api/v1/job-descriptions/generate"},
		{"POST", "/api/v1/job-descriptions/file"},
		{"POST", "/api/v1/resumes/analyze"},
		{"POST", "/api/v1/resumes/analyze/stream"},
		{"POST", "/api/v1/jobs/analyze"},
		{"POST", "/api/v1/jobs/analyze/stream"},
		{"GET", "/api/v1/batches/0b7e6f3c-6f1a-4c59-9d53-0d3f5f3f0a11"},
		{"GET", "/api/v1/batches/0b7e6f3c-6f1a-4c59-9d53-0d3f5f3f0a11/export"},
		{"GET", "/api/v1/keys"},
		{"POST", "/api/v1/keys/reload"},
	}

	for _, ep := range endpoints {
		t.Run(ep.method+" "+ep.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(ep.method, ep.path, nil))

			assert.Equal(t, http.StatusNotImplemented, w.Code)
			assert.Equal(t, "NOT_IMPLEMENTED", errCode(t, w))
		})
	}
}

func TestRouter_RateLimitAppliesToAPIOnly(t *testing.T) {
	router := newTestRouter(1)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/batches", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/batches", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRouter_NoRateLimit(t *testing.T) {
	router := api.NewRouter(api.Dependencies{ListBatches: okJSON})
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/batches", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRouter_NotFound(t *testing.T) {
	router := newTestRouter(60)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/nonexistent", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "RESOURCE_NOT_FOUND", errCode(t, w))
}

var _ cache.Cache = (*stubCache)(nil)
