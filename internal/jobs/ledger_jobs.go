// AngelaMos | 2026
// ledger_jobs.go

package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/carterperez-dev/launchpad/internal/upvote"
)

const (
	RecountJob = "upvote-recount"
	TokenGCJob = "refresh-token-gc"
)

type Recounter interface {
	RecountAll(ctx context.Context) ([]upvote.Drift, error)
}

type TokenPruner interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

func NewRecountJob(spec string, recounter Recounter) Job {
	return Job{
		Name:    RecountJob,
		Spec:    spec,
		Timeout: 5 * time.Minute,
		Run: func(ctx context.Context) error {
			drifts, err := recounter.RecountAll(ctx)
			if err != nil {
				return err
			}
			if len(drifts) > 0 {
				slog.Warn("upvote counters corrected", "products", len(drifts))
			}
			return nil
		},
	}
}

func NewTokenGCJob(spec string, pruner TokenPruner) Job {
	return Job{
		Name:    TokenGCJob,
		Spec:    spec,
		Timeout: time.Minute,
		Run: func(ctx context.Context) error {
			n, err := pruner.DeleteExpired(ctx)
			if err != nil {
				return err
			}
			slog.Info("expired refresh tokens pruned", "count", n)
			return nil
		},
	}
}
