// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/launchpad/internal/core"
	"github.com/carterperez-dev/launchpad/internal/ledger"
	"github.com/carterperez-dev/launchpad/internal/middleware"
	"github.com/carterperez-dev/launchpad/internal/upvote"
)

type Recounter interface {
	RecountAll(ctx context.Context) ([]upvote.Drift, error)
}

type JobRunner interface {
	RunNow(name string) error
}

type Handler struct {
	store       ledger.Store
	dbStats     func() sql.DBStats
	redisStats  func() *redis.PoolStats
	redisPing   func(ctx context.Context) error
	dbPing      func(ctx context.Context) error
	storagePing func(ctx context.Context) error
	recounter   Recounter
	jobs        JobRunner
}

type HandlerConfig struct {
	Store       ledger.Store
	DBStats     func() sql.DBStats
	RedisStats  func() *redis.PoolStats
	RedisPing   func(ctx context.Context) error
	DBPing      func(ctx context.Context) error
	StoragePing func(ctx context.Context) error
	Recounter   Recounter
	Jobs        JobRunner
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		store:       cfg.Store,
		dbStats:     cfg.DBStats,
		redisStats:  cfg.RedisStats,
		redisPing:   cfg.RedisPing,
		dbPing:      cfg.DBPing,
		storagePing: cfg.StoragePing,
		recounter:   cfg.Recounter,
		jobs:        cfg.Jobs,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/admin/stats", h.GetSystemStats)
		r.Get("/admin/stats/db", h.GetDatabaseStats)
		r.Get("/admin/stats/redis", h.GetRedisStats)
		r.Get("/admin/stats/runtime", h.GetRuntimeStats)

		r.Post("/admin/ledger/recount", h.Recount)
		r.Post("/admin/jobs/{name}/run", h.RunJob)
	})
}

func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	response := SystemStatsResponse{
		Database: DatabaseStatus{
			Healthy: healthy(ctx, h.dbPing),
			Stats:   h.getDBStats(),
		},
		Redis: RedisStatus{
			Healthy: healthy(ctx, h.redisPing),
			Stats:   h.getRedisStats(),
		},
		Storage: StorageStatus{
			Healthy: healthy(ctx, h.storagePing),
		},
		Runtime: readRuntimeStats(),
	}

	core.OK(w, response)
}

func (h *Handler) GetDatabaseStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.getDBStats())
}

func (h *Handler) GetRedisStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, h.getRedisStats())
}

func (h *Handler) GetRuntimeStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, readRuntimeStats())
}

// Recount rebuilds every product's upvote counter from its rows and reports
// the products whose counter had drifted.
func (h *Handler) Recount(w http.ResponseWriter, r *http.Request) {
	if err := h.requireAdmin(r); err != nil {
		core.HandleError(w, err)
		return
	}

	if h.recounter == nil {
		core.JSONError(w, core.NewAppError(nil, "recount unavailable", http.StatusServiceUnavailable, "UNAVAILABLE"))
		return
	}

	drifts, err := h.recounter.RecountAll(r.Context())
	if err != nil {
		core.HandleError(w, err)
		return
	}

	core.OK(w, ToRecountResponse(drifts))
}

func (h *Handler) RunJob(w http.ResponseWriter, r *http.Request) {
	if err := h.requireAdmin(r); err != nil {
		core.HandleError(w, err)
		return
	}

	if h.jobs == nil {
		core.NotFound(w, "job")
		return
	}

	name := chi.URLParam(r, "name")
	if err := h.jobs.RunNow(name); err != nil {
		core.HandleError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) requireAdmin(r *http.Request) error {
	if h.store == nil {
		return nil
	}

	ctx := r.Context()
	email := middleware.GetUserEmail(ctx)
	return h.store.View(ctx, func(tx ledger.Tx) error {
		_, err := ledger.RequireAdmin(ctx, tx, email)
		return err
	})
}

func healthy(ctx context.Context, ping func(ctx context.Context) error) bool {
	if ping == nil {
		return true
	}
	return ping(ctx) == nil
}

func readRuntimeStats() RuntimeStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     memStats.Alloc,
		MemSys:       memStats.Sys,
		NumGC:        memStats.NumGC,
	}
}

func (h *Handler) getDBStats() *DBPoolStats {
	if h.dbStats == nil {
		return nil
	}

	stats := h.dbStats()
	return &DBPoolStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration.String(),
		MaxIdleClosed:      stats.MaxIdleClosed,
		MaxIdleTimeClosed:  stats.MaxIdleTimeClosed,
		MaxLifetimeClosed:  stats.MaxLifetimeClosed,
	}
}

func (h *Handler) getRedisStats() *RedisPoolStats {
	if h.redisStats == nil {
		return nil
	}

	stats := h.redisStats()
	return &RedisPoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
		StaleConns: stats.StaleConns,
	}
}
