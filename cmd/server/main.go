package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/guezito-dev/gigachads/internal/api"
	"github.com/guezito-dev/gigachads/internal/config"
	"github.com/guezito-dev/gigachads/internal/db"
	"github.com/guezito-dev/gigachads/internal/ethos"
	"github.com/guezito-dev/gigachads/internal/logger"
	"github.com/guezito-dev/gigachads/internal/ranking"
	"github.com/guezito-dev/gigachads/internal/widget"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	logger.Setup(cfg)

	ctx := context.Background()
	services := make(map[string]api.HealthChecker)

	// Feed cache: Redis when configured, otherwise per-process memory
	var cache ethos.FeedCache = ethos.NewMemoryCache(cfg.WidgetCacheTTL)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Invalid REDIS_URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		redisCache := ethos.NewRedisCache(redisClient, cfg.WidgetCacheTTL)
		if err := redisCache.Health(ctx); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		cache = redisCache
		services["redis"] = redisCache
		log.Println("Feed cache backed by Redis")
	}

	// Archive is optional; without it the runs endpoints are not mounted
	var (
		database *db.Postgres
		runs     api.RunStore
	)
	if cfg.DatabaseURL != "" {
		database, err = db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		runs = ranking.NewStore(database.Pool())
		services["database"] = database
	}

	client := ethos.NewClient(cfg.EthosAPIURL, cfg.HTTPTimeout)
	renderer, err := widget.NewRenderer(cfg.ActivityBaseURL)
	if err != nil {
		log.Fatalf("Failed to load templates: %v", err)
	}

	routerResult := api.NewRouter(&api.RouterConfig{
		Loader:      widget.NewLoader(cfg.RankingURL, cfg.RankingPath, cfg.HTTPTimeout, cfg.WidgetCacheTTL),
		Feeds:       widget.NewPipeline(ethos.NewCachedFetcher(client, cache), cfg.WidgetFeedLimit),
		Renderer:    renderer,
		Runs:        runs,
		Services:    services,
		CORSOrigins: cfg.AllowedOrigins(),
		Development: !cfg.IsProduction(),
		Limits: api.RateLimits{
			Global:  cfg.RateLimit,
			Widgets: cfg.WidgetRateLimit,
			Window:  cfg.RateLimitWindow,
		},
	})

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     routerResult.Router,
		ReadTimeout: 15 * time.Second,
		// a cold activity widget waits on several member feeds
		WriteTimeout: 2*cfg.HTTPTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	routerResult.RateLimiters.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if database != nil {
		log.Println("Closing database connection...")
		database.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	log.Println("Server exited")
}
