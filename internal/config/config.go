package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string
	NodeID   int64

	// Ethos API
	EthosAPIURL     string
	CategoryID      int
	PageSize        int
	PageDelay       time.Duration
	HTTPTimeout     time.Duration
	ProfileBaseURL  string
	TwitterBaseURL  string
	ActivityBaseURL string

	// Artifacts
	SnapshotPath string
	RankingPath  string
	RankingURL   string

	// Aggregation
	FeedLimit      int
	BatchSize      int
	AggregateDelay time.Duration

	// Widgets
	WidgetFeedLimit int
	WidgetCacheTTL  time.Duration
	CORSOrigins     string

	// Per-client request budgets. Widget routes may fan out upstream, so
	// they get their own tighter limit.
	RateLimit       int
	WidgetRateLimit int
	RateLimitWindow time.Duration

	// Optional backends. Empty disables them.
	DatabaseURL string
	RedisURL    string
}

// Load reads configuration from environment variables.
// Returns an error if a value is out of range.
func Load() (*Config, error) {
	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", ""),
		NodeID:   int64(getInt("NODE_ID", 1)),

		EthosAPIURL:    getEnv("ETHOS_API_URL", "https://api.ethos.network/api/v2"),
		CategoryID:     getInt("ETHOS_CATEGORY_ID", 26),
		PageSize:       getInt("ETHOS_PAGE_SIZE", 50),
		PageDelay:      getDuration("ETHOS_PAGE_DELAY", 100*time.Millisecond),
		HTTPTimeout:    getDuration("HTTP_TIMEOUT", 30*time.Second),
		ProfileBaseURL: getEnv("PROFILE_BASE_URL", "https://app.ethos.network/profile/x"),
		TwitterBaseURL: getEnv("TWITTER_BASE_URL", "https://x.com"),

		ActivityBaseURL: getEnv("ACTIVITY_BASE_URL", "https://app.ethos.network/activity"),

		SnapshotPath: getEnv("SNAPSHOT_PATH", "gigachads-data.json"),
		RankingPath:  getEnv("RANKING_PATH", "gigachads-ranking.json"),
		RankingURL:   getEnv("RANKING_URL", "https://raw.githubusercontent.com/guezito-dev/gigachads/main/Ethos/gigachads-ranking.json"),

		FeedLimit:      getInt("AGGREGATE_FEED_LIMIT", 500),
		BatchSize:      getInt("AGGREGATE_BATCH_SIZE", 1),
		AggregateDelay: getDuration("AGGREGATE_DELAY", 200*time.Millisecond),

		WidgetFeedLimit: getInt("WIDGET_FEED_LIMIT", 50),
		WidgetCacheTTL:  getDuration("WIDGET_CACHE_TTL", 5*time.Minute),
		CORSOrigins:     getEnv("CORS_ORIGINS", ""),

		RateLimit:       getInt("RATE_LIMIT", 120),
		WidgetRateLimit: getInt("WIDGET_RATE_LIMIT", 20),
		RateLimitWindow: getDuration("RATE_LIMIT_WINDOW", time.Minute),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
	}

	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("ETHOS_PAGE_SIZE must be positive, got %d", cfg.PageSize)
	}
	if cfg.FeedLimit <= 0 {
		return nil, fmt.Errorf("AGGREGATE_FEED_LIMIT must be positive, got %d", cfg.FeedLimit)
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("AGGREGATE_BATCH_SIZE must be positive, got %d", cfg.BatchSize)
	}
	if cfg.WidgetFeedLimit <= 0 {
		return nil, fmt.Errorf("WIDGET_FEED_LIMIT must be positive, got %d", cfg.WidgetFeedLimit)
	}
	if cfg.RateLimit <= 0 || cfg.WidgetRateLimit <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT and WIDGET_RATE_LIMIT must be positive, got %d and %d", cfg.RateLimit, cfg.WidgetRateLimit)
	}
	if cfg.RateLimitWindow < time.Second {
		return nil, fmt.Errorf("RATE_LIMIT_WINDOW must be at least 1s, got %s", cfg.RateLimitWindow)
	}
	if cfg.NodeID < 0 || cfg.NodeID > 1023 {
		return nil, fmt.Errorf("NODE_ID must be in [0, 1023], got %d", cfg.NodeID)
	}

	return cfg, nil
}

// AllowedOrigins splits CORS_ORIGINS on commas.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// IsProduction reports whether ENV is "production".
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
