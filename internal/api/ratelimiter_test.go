package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

type staticLimiter struct {
	allow bool
}

func (s *staticLimiter) Allow() bool {
	return s.allow
}

func TestNewTokenBucketLimiterDisabledWhenZero(t *testing.T) {
	if limiter := newTokenBucketLimiter(0, 50); limiter != nil {
		t.Fatalf("expected zero rps to disable limiting")
	}
	if limiter := newTokenBucketLimiter(25, 0); limiter != nil {
		t.Fatalf("expected zero burst to disable limiting")
	}
}

func TestTokenBucketLimiterEnforcesBurst(t *testing.T) {
	limiter := newTokenBucketLimiter(0.001, 2)
	if limiter == nil {
		t.Fatalf("expected limiter instance")
	}
	if !limiter.Allow() || !limiter.Allow() {
		t.Fatalf("expected requests within burst to be allowed")
	}
	if limiter.Allow() {
		t.Fatalf("expected request beyond burst to be denied")
	}
}

func TestRateLimitMiddlewareBlocksWhenLimiterDenies(t *testing.T) {
	middleware := rateLimitMiddleware(&staticLimiter{allow: false}, http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatalf("handler should not execute when rate limited")
	}))

	rec := httptest.NewRecorder()
	middleware.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/data", nil))

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}

func TestRateLimitMiddlewarePassesWhenLimiterAllows(t *testing.T) {
	var called bool
	middleware := rateLimitMiddleware(&staticLimiter{allow: true}, http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	middleware.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/data", nil))

	if !called {
		t.Fatalf("expected handler to execute when limiter allows")
	}
}

func TestRateLimitMiddlewarePassesThroughWhenDisabled(t *testing.T) {
	var called bool
	middleware := rateLimitMiddleware(nil, http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	middleware.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/data", nil))

	if !called {
		t.Fatalf("expected handler to execute when limiting is disabled")
	}
}
