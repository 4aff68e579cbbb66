package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/guezito-dev/gigachads/internal/config"
	"github.com/guezito-dev/gigachads/internal/db"
	"github.com/guezito-dev/gigachads/internal/ethos"
	"github.com/guezito-dev/gigachads/internal/id"
	"github.com/guezito-dev/gigachads/internal/logger"
	"github.com/guezito-dev/gigachads/internal/ranking"
	"github.com/guezito-dev/gigachads/internal/roster"
)

const leaderboardSize = 20

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	logger.Setup(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	snap, err := roster.Load(cfg.SnapshotPath)
	if err != nil {
		log.Fatalf("Cannot read snapshot (run collect first): %v", err)
	}
	log.Printf("Loaded %d users from %s", snap.TotalCount, cfg.SnapshotPath)

	client := ethos.NewClient(cfg.EthosAPIURL, cfg.HTTPTimeout)
	aggregator := ranking.NewAggregator(client, cfg.FeedLimit, cfg.BatchSize, cfg.AggregateDelay)

	start := time.Now()
	var gate progressGate
	aggregator.OnProgress = func(done, total int) {
		if !gate.due(done, total) {
			return
		}
		elapsed := time.Since(start)
		eta := time.Duration(float64(elapsed) / float64(done) * float64(total-done))
		log.Printf("  %d/%d members analyzed (elapsed %s, eta %s)",
			done, total, elapsed.Round(time.Second), eta.Round(time.Second))
	}

	tally, err := aggregator.Aggregate(ctx, snap)
	if err != nil {
		log.Fatalf("Aggregation interrupted, nothing written: %v", err)
	}
	if tally.Excluded > 0 {
		log.Printf("Excluded %d users without a profileId", tally.Excluded)
	}
	if tally.FailedFeeds > 0 {
		log.Printf("Warning: %d activity feeds could not be fetched and were scored as empty", tally.FailedFeeds)
	}

	ranker := ranking.Ranker{
		Weights:        ranking.DefaultWeights,
		ProfileBaseURL: cfg.ProfileBaseURL,
		TwitterBaseURL: cfg.TwitterBaseURL,
	}
	art := ranker.Rank(tally, time.Now())

	if err := ranking.Save(cfg.RankingPath, art); err != nil {
		log.Fatalf("Failed to write ranking: %v", err)
	}
	log.Printf("Ranking written to %s in %s", cfg.RankingPath, time.Since(start).Round(time.Second))

	if cfg.DatabaseURL != "" {
		archive(ctx, cfg, art)
	}

	printLeaderboard(art)
}

// archive stores the run in Postgres. Failures are reported but the ranking
// file is already written, so the run still succeeds.
func archive(ctx context.Context, cfg *config.Config, art *ranking.Artifact) {
	ids, err := id.NewGenerator(cfg.NodeID)
	if err != nil {
		log.Printf("Archive skipped: %v", err)
		return
	}

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Printf("Archive skipped: %v", err)
		return
	}
	defer database.Close()

	runID := ids.Next()
	if err := ranking.NewStore(database.Pool()).SaveRun(ctx, runID, art); err != nil {
		log.Printf("Archive failed: %v", err)
		return
	}
	log.Printf("Archived run %d", runID)
}

func printLeaderboard(art *ranking.Artifact) {
	meta := art.Metadata
	fmt.Printf("\nTop %d Giga Chads\n\n", min(leaderboardSize, len(art.Ranking)))

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Rank\tUser\tScore\tVouches G/R\tReviews G/R\t")
	for _, e := range art.Top(leaderboardSize) {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d/%d\t%d/%d\t\n",
			e.Rank, e.User.Username, e.Stats.TotalScore,
			e.Stats.VouchesGiven, e.Stats.VouchesReceived,
			e.Stats.ReviewsGiven, e.Stats.ReviewsReceived)
	}
	_ = tw.Flush()

	fmt.Printf("\nMembers: %d  scored: %d  excluded: %d  with activity: %d  interactions: %d\n",
		meta.TotalGigachads, meta.ActiveUsers, meta.ExcludedUsers, meta.UsersWithActivity, meta.TotalInteractions)
}
