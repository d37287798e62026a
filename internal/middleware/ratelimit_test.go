// AngelaMos | 2026
// ratelimit_test.go

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_FallsBackToLocalLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	rl := NewRateLimiter(rdb, RateLimitConfig{Limit: PerMinute(2, 2)})
	h := rl.Handler(okHandler)

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/products", nil)
		req.RemoteAddr = "203.0.113.7:5555"
		rec := serve(h, req)
		codes = append(codes, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimiter_Bypass(t *testing.T) {
	rl := NewRateLimiter(nil, RateLimitConfig{
		Limit:      PerMinute(1, 1),
		BypassFunc: func(r *http.Request) bool { return r.URL.Path == "/healthz" },
	})
	h := rl.Handler(okHandler)

	for range 3 {
		rec := serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestKeyFuncs(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/products/42/reviews", nil)
	req.RemoteAddr = "198.51.100.1:1234"
	assert.Equal(t, "ratelimit:ip:198.51.100.1", KeyByIP(req))

	req.Header.Set("X-Forwarded-For", "10.0.0.1, 192.0.2.9")
	assert.Equal(t, "ratelimit:ip:192.0.2.9", KeyByIP(req))

	assert.Equal(t, "/products/{id}/reviews", normalizeEndpoint(req.URL.Path))
	assert.Equal(t, "/products/{id}", normalizeEndpoint("/products/6f1c2a3b-1111-2222-3333-444455556666"))
}

func TestWriteLimiter_TiersByMembership(t *testing.T) {
	verifier := stubVerifier{
		"free":   {Email: "free@example.com", Role: "none", Membership: "free"},
		"member": {Email: "member@example.com", Role: "none", Membership: "active"},
	}
	limiter := WriteLimiter(nil, MembershipTiers{
		"free":   PerMinute(1, 1),
		"active": PerMinute(3, 3),
	})
	h := OptionalAuth(verifier)(limiter(okHandler))

	post := func(token, path string) int {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return serve(h, req).Code
	}

	assert.Equal(t, http.StatusOK, post("free", "/products/11111111-2222-3333-4444-555555555555/upvote"))
	assert.Equal(t, http.StatusTooManyRequests, post("free", "/products/66666666-7777-8888-9999-000000000000/upvote"))
	assert.Equal(t, http.StatusOK, post("free", "/products/11111111-2222-3333-4444-555555555555/reports"))

	for range 3 {
		assert.Equal(t, http.StatusOK, post("member", "/products/11111111-2222-3333-4444-555555555555/upvote"))
	}
	assert.Equal(t, http.StatusTooManyRequests, post("member", "/products/11111111-2222-3333-4444-555555555555/upvote"))

	for range 3 {
		assert.Equal(t, http.StatusOK, post("", "/products/11111111-2222-3333-4444-555555555555/upvote"))
	}

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/products/11111111-2222-3333-4444-555555555555/reviews", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
