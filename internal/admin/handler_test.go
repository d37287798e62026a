// AngelaMos | 2026
// handler_test.go

package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/launchpad/internal/core"
	"github.com/carterperez-dev/launchpad/internal/ledger"
	"github.com/carterperez-dev/launchpad/internal/middleware"
	"github.com/carterperez-dev/launchpad/internal/upvote"
)

type staticVerifier map[string]*middleware.AccessTokenClaims

func (v staticVerifier) VerifyAccessToken(_ context.Context, token string) (*middleware.AccessTokenClaims, error) {
	if c, ok := v[token]; ok {
		return c, nil
	}
	return nil, core.ErrTokenInvalid
}

type fakeRecounter struct {
	drifts []upvote.Drift
	calls  int
}

func (f *fakeRecounter) RecountAll(context.Context) ([]upvote.Drift, error) {
	f.calls++
	return f.drifts, nil
}

type fakeJobs map[string]int

func (f fakeJobs) RunNow(name string) error {
	if _, ok := f[name]; !ok {
		return core.ErrNotFound
	}
	f[name]++
	return nil
}

func newAdminRouter(t *testing.T, cfg HandlerConfig) http.Handler {
	t.Helper()

	ctx := context.Background()
	store := ledger.NewMemoryStore()
	err := store.InTx(ctx, func(tx ledger.Tx) error {
		for _, u := range []ledger.User{
			{Email: "root@example.com", Role: ledger.RoleAdmin, Membership: ledger.MembershipFree},
			{Email: "demoted@example.com", Role: ledger.RoleNone, Membership: ledger.MembershipFree},
		} {
			if err := tx.CreateUser(ctx, &u); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	cfg.Store = store

	verifier := staticVerifier{
		"root":     {Email: "root@example.com", Role: "admin"},
		"demoted":  {Email: "demoted@example.com", Role: "admin"},
		"visitor":  {Email: "visitor@example.com", Role: "none"},
		"stranger": {Email: "stranger@example.com", Role: "admin"},
	}

	r := chi.NewRouter()
	NewHandler(cfg).RegisterRoutes(r, middleware.Authenticator(verifier), middleware.RequireAdmin)
	return r
}

func do(h http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Recount(t *testing.T) {
	rc := &fakeRecounter{drifts: []upvote.Drift{{ProductID: "p1", Stored: 3, Actual: 2}}}
	h := newAdminRouter(t, HandlerConfig{Recounter: rc})

	rec := do(h, http.MethodPost, "/admin/ledger/recount", "root")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data RecountResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Data.Corrected)
	assert.Equal(t, "p1", body.Data.Drifts[0].ProductID)
	assert.Equal(t, 1, rc.calls)
}

func TestHandler_RecountRechecksStoredRole(t *testing.T) {
	rc := &fakeRecounter{}
	h := newAdminRouter(t, HandlerConfig{Recounter: rc})

	tests := []struct {
		token string
		want  int
	}{
		{"", http.StatusUnauthorized},
		{"visitor", http.StatusForbidden},
		{"demoted", http.StatusForbidden},
		{"stranger", http.StatusForbidden},
	}

	for _, tt := range tests {
		rec := do(h, http.MethodPost, "/admin/ledger/recount", tt.token)
		assert.Equal(t, tt.want, rec.Code, tt.token)
	}
	assert.Zero(t, rc.calls)
}

func TestHandler_RunJob(t *testing.T) {
	jobs := fakeJobs{"upvote-recount": 0}
	h := newAdminRouter(t, HandlerConfig{Jobs: jobs})

	rec := do(h, http.MethodPost, "/admin/jobs/upvote-recount/run", "root")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1, jobs["upvote-recount"])

	rec = do(h, http.MethodPost, "/admin/jobs/nope/run", "root")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_SystemStats(t *testing.T) {
	h := newAdminRouter(t, HandlerConfig{
		DBPing:      func(context.Context) error { return nil },
		RedisPing:   func(context.Context) error { return errors.New("down") },
		StoragePing: func(context.Context) error { return nil },
	})

	rec := do(h, http.MethodGet, "/admin/stats", "root")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data SystemStatsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Data.Database.Healthy)
	assert.False(t, body.Data.Redis.Healthy)
	assert.True(t, body.Data.Storage.Healthy)
	assert.NotEmpty(t, body.Data.Runtime.GoVersion)
}
