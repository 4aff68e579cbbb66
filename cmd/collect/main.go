package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/guezito-dev/gigachads/internal/config"
	"github.com/guezito-dev/gigachads/internal/ethos"
	"github.com/guezito-dev/gigachads/internal/logger"
	"github.com/guezito-dev/gigachads/internal/roster"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	logger.Setup(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := ethos.NewClient(cfg.EthosAPIURL, cfg.HTTPTimeout)
	collector := roster.NewCollector(client, cfg.CategoryID, cfg.PageSize, cfg.PageDelay)
	collector.OnPage = func(total int) {
		log.Printf("  %d users fetched", total)
	}

	log.Printf("Fetching category %d from %s...", cfg.CategoryID, cfg.EthosAPIURL)
	users, err := collector.Collect(ctx)
	if err != nil {
		log.Fatalf("Collection failed, nothing written: %v", err)
	}

	snap := roster.NewSnapshot(users, time.Now().UTC())
	if err := roster.Save(cfg.SnapshotPath, snap); err != nil {
		log.Fatalf("Failed to write snapshot: %v", err)
	}

	with, without := snap.ProfileCounts()
	log.Printf("Saved %d users to %s", snap.TotalCount, cfg.SnapshotPath)
	log.Printf("  with profileId:    %d", with)
	log.Printf("  without profileId: %d (excluded from ranking)", without)
}
