// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/carterperez-dev/launchpad/internal/auth"
	"github.com/carterperez-dev/launchpad/internal/config"
	"github.com/carterperez-dev/launchpad/internal/core"
	"github.com/carterperez-dev/launchpad/internal/ledger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	genKeys := flag.Bool("gen-keys", false, "write a new ES256 signing key pair to the configured paths")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(*configPath, *genKeys); err != nil {
		slog.Error("migrate failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, genKeys bool) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if genKeys {
		if err := auth.GenerateKeyPair(cfg.JWT.PrivateKeyPath, cfg.JWT.PublicKeyPath); err != nil {
			return err
		}
		slog.Info("signing keys written",
			"private", cfg.JWT.PrivateKeyPath,
			"public", cfg.JWT.PublicKeyPath,
		)
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}()

	applied, err := ledger.Migrate(ctx, db.DB)
	if err != nil {
		return err
	}

	slog.Info("migrations complete", "applied", applied)
	return nil
}
