// AngelaMos | 2026
// middleware_test.go

package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/launchpad/internal/config"
	"github.com/carterperez-dev/launchpad/internal/core"
)

type stubVerifier map[string]*AccessTokenClaims

func (v stubVerifier) VerifyAccessToken(_ context.Context, token string) (*AccessTokenClaims, error) {
	if c, ok := v[token]; ok {
		return c, nil
	}
	if token == "expired" {
		return nil, core.ErrTokenExpired
	}
	return nil, core.ErrTokenInvalid
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = serve(h, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", maxRequestIDLen+1))
	serve(h, req)
	assert.Len(t, seen, 36)
}

func TestCORS(t *testing.T) {
	h := CORS(config.CORSConfig{
		AllowedOrigins:   []string{"https://app.example.com/"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           600,
	})(okHandler)

	t.Run("preflight from allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/products", nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rec := serve(h, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
		assert.Equal(t, "GET, POST", rec.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("preflight from unknown origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/products", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rec := serve(h, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("simple request without origin", func(t *testing.T) {
		rec := serve(h, httptest.NewRequest(http.MethodGet, "/products", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestSecurityHeaders(t *testing.T) {
	rec := serve(SecurityHeaders(false)(okHandler), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))

	rec = serve(SecurityHeaders(true)(okHandler), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestAuthenticator(t *testing.T) {
	verifier := stubVerifier{
		"good": {Email: "ada@example.com", Role: "moderator", Membership: "active", SessionID: "s1"},
	}

	var email, membership string
	h := Authenticator(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email = GetUserEmail(r.Context())
		membership = GetUserMembership(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"invalid", "Bearer nope", http.StatusUnauthorized},
		{"expired", "Bearer expired", http.StatusUnauthorized},
		{"valid", "bearer good", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := serve(h, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	assert.Equal(t, "ada@example.com", email)
	assert.Equal(t, "active", membership)
}

func TestOptionalAuth(t *testing.T) {
	verifier := stubVerifier{"good": {Email: "ada@example.com", Role: "none"}}

	var authed bool
	h := OptionalAuth(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authed = IsAuthenticated(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec := serve(h, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, authed)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	serve(h, req)
	assert.True(t, authed)
}

func TestRequireRole(t *testing.T) {
	verifier := stubVerifier{
		"admin": {Email: "a@example.com", Role: "admin"},
		"mod":   {Email: "m@example.com", Role: "moderator"},
		"user":  {Email: "u@example.com", Role: "none"},
	}

	tests := []struct {
		guard func(http.Handler) http.Handler
		token string
		want  int
	}{
		{RequireAdmin, "admin", http.StatusOK},
		{RequireAdmin, "mod", http.StatusForbidden},
		{RequireModerator, "mod", http.StatusOK},
		{RequireModerator, "admin", http.StatusOK},
		{RequireModerator, "user", http.StatusForbidden},
	}

	for _, tt := range tests {
		h := Authenticator(verifier)(tt.guard(okHandler))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tt.token)
		assert.Equal(t, tt.want, serve(h, req).Code, tt.token)
	}

	rec := serve(RequireAdmin(okHandler), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoggerAndRecoverer(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := RequestID(Logger(logger)(Recoverer(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))))

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/explode", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	out := buf.String()
	assert.Contains(t, out, "panic recovered")
	assert.Contains(t, out, `"path":"/explode"`)
	assert.Contains(t, out, `"status":500`)
}

func TestRecoverer_RepanicsOnAbort(t *testing.T) {
	h := Recoverer(slog.Default())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	require.PanicsWithValue(t, http.ErrAbortHandler, func() {
		serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	})
}
