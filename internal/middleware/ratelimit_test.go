package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rateLimitedHandler(cfg RateLimitConfig) http.Handler {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return RateLimiter(cfg)(next)
}

func doFrom(handler http.Handler, addr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = addr
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_EnforcesBurst(t *testing.T) {
	handler := rateLimitedHandler(RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2})

	require.Equal(t, http.StatusOK, doFrom(handler, "10.0.0.1:1234").Code)
	require.Equal(t, http.StatusOK, doFrom(handler, "10.0.0.1:1234").Code)

	rec := doFrom(handler, "10.0.0.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRateLimiter_ClientsAreIndependent(t *testing.T) {
	handler := rateLimitedHandler(RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1})

	require.Equal(t, http.StatusOK, doFrom(handler, "10.0.0.1:1234").Code)
	require.Equal(t, http.StatusTooManyRequests, doFrom(handler, "10.0.0.1:5678").Code,
		"same host on a different port shares one bucket")

	assert.Equal(t, http.StatusOK, doFrom(handler, "10.0.0.2:1234").Code)
}

func TestRateLimiter_SetsRateHeaders(t *testing.T) {
	handler := rateLimitedHandler(RateLimitConfig{RequestsPerSecond: 100, Burst: 50})

	rec := doFrom(handler, "10.0.0.3:1234")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "50", rec.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Remaining"))
}
