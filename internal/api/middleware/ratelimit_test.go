package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/homepanel/homepanel/internal/api/middleware"
)

func limitedHandler(cfg middleware.RateLimitConfig) http.Handler {
	return middleware.RateLimitByIP(cfg)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func requestFrom(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/status", http.NoBody)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitByIP_AllowsWithinLimit(t *testing.T) {
	handler := limitedHandler(middleware.RateLimitConfig{RequestLimit: 5, WindowLength: time.Minute})

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, requestFrom(handler, "192.168.1.1:12345").Code, "request %d", i+1)
	}
}

func TestRateLimitByIP_BlocksOverLimit(t *testing.T) {
	handler := limitedHandler(middleware.RateLimitConfig{RequestLimit: 3, WindowLength: time.Minute})

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, requestFrom(handler, "10.0.0.1:12345").Code)
	}

	rec := requestFrom(handler, "10.0.0.1:12345")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "rate limit exceeded")
}

func TestRateLimitByIP_SeparateLimitsPerIP(t *testing.T) {
	handler := limitedHandler(middleware.RateLimitConfig{RequestLimit: 1, WindowLength: time.Minute})

	assert.Equal(t, http.StatusOK, requestFrom(handler, "172.16.0.1:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, requestFrom(handler, "172.16.0.1:1").Code)
	assert.Equal(t, http.StatusOK, requestFrom(handler, "172.16.0.2:1").Code)
}

func TestStatusRateLimit(t *testing.T) {
	assert.Equal(t, 60, middleware.StatusRateLimit.RequestLimit)
	assert.Equal(t, time.Minute, middleware.StatusRateLimit.WindowLength)
}
