// AngelaMos | 2026
// dto.go

package admin

import "github.com/carterperez-dev/launchpad/internal/upvote"

type SystemStatsResponse struct {
	Database DatabaseStatus `json:"database"`
	Redis    RedisStatus    `json:"redis"`
	Storage  StorageStatus  `json:"storage"`
	Runtime  RuntimeStats   `json:"runtime"`
}

type DatabaseStatus struct {
	Healthy bool         `json:"healthy"`
	Stats   *DBPoolStats `json:"stats,omitempty"`
}

type RedisStatus struct {
	Healthy bool            `json:"healthy"`
	Stats   *RedisPoolStats `json:"stats,omitempty"`
}

type StorageStatus struct {
	Healthy bool `json:"healthy"`
}

type DBPoolStats struct {
	MaxOpenConnections int    `json:"max_open_connections"`
	OpenConnections    int    `json:"open_connections"`
	InUse              int    `json:"in_use"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"wait_count"`
	WaitDuration       string `json:"wait_duration"`
	MaxIdleClosed      int64  `json:"max_idle_closed"`
	MaxIdleTimeClosed  int64  `json:"max_idle_time_closed"`
	MaxLifetimeClosed  int64  `json:"max_lifetime_closed"`
}

type RedisPoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
	StaleConns uint32 `json:"stale_conns"`
}

type RuntimeStats struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	MemAlloc     uint64 `json:"mem_alloc_bytes"`
	MemSys       uint64 `json:"mem_sys_bytes"`
	NumGC        uint32 `json:"num_gc"`
}

type DriftResponse struct {
	ProductID string `json:"product_id"`
	Stored    int    `json:"stored"`
	Actual    int    `json:"actual"`
}

type RecountResponse struct {
	Corrected int             `json:"corrected"`
	Drifts    []DriftResponse `json:"drifts"`
}

func ToRecountResponse(drifts []upvote.Drift) RecountResponse {
	out := make([]DriftResponse, len(drifts))
	for i, d := range drifts {
		out[i] = DriftResponse{
			ProductID: d.ProductID,
			Stored:    d.Stored,
			Actual:    d.Actual,
		}
	}
	return RecountResponse{Corrected: len(out), Drifts: out}
}
