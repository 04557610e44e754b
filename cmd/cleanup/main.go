package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/sulthanfragrance/storefront/internal/cleanup"
	"github.com/sulthanfragrance/storefront/internal/config"
	"github.com/sulthanfragrance/storefront/internal/db"
	"github.com/sulthanfragrance/storefront/internal/logging"
	"github.com/sulthanfragrance/storefront/internal/repo"
)

func main() {
	var (
		hours  = flag.Int("hours", 0, "delete unpaid orders older than this many hours (default from CLEANUP_AFTER_HOURS)")
		dryRun = flag.Bool("dry-run", false, "log what would be deleted without deleting")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")

	if *hours <= 0 {
		*hours = cfg.CleanupAfterHours
	}

	logger := logging.New(cfg.LogLevel).With("job", "cleanup")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	defer func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	svc := &cleanup.Service{Repo: repo.New(gdb), Log: logger}

	runCtx, cancelRun := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancelRun()

	res, err := svc.Run(runCtx, time.Duration(*hours)*time.Hour, *dryRun)
	if err != nil {
		log.Fatalf("cleanup: %v", err)
	}
	logger.Info("done", "examined", res.Examined, "deleted", res.Deleted, "dry_run", *dryRun)
}
