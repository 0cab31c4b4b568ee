package config

import (
	"github.com/hyperjump/kioku/internal/embedding"
	"github.com/hyperjump/kioku/internal/ranking"
	"github.com/hyperjump/kioku/internal/resilience"
	"github.com/hyperjump/kioku/internal/retrieval"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.SearchRateLimit > 0 && cfg.Server.SearchRateBurst == 0 {
		cfg.Server.SearchRateBurst = int(cfg.Server.SearchRateLimit) + 1
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "~/.kioku/data/memories.db"
	}
	if cfg.Storage.VectorIndexPath == "" {
		cfg.Storage.VectorIndexPath = "~/.kioku/data/vectors.idx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = embedding.DefaultDimensions
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}

	engine := ranking.DefaultRankingConfig()
	if cfg.Ranking.InitialCandidates == 0 {
		cfg.Ranking.InitialCandidates = engine.InitialCandidates
	}
	if cfg.Ranking.RecencyDecayDays == 0 {
		cfg.Ranking.RecencyDecayDays = engine.RecencyDecayDays
	}
	if cfg.Ranking.CacheSize == 0 {
		cfg.Ranking.CacheSize = retrieval.DefaultCacheSize
	}

	defaults := resilience.DefaultConfig()
	if cfg.Resilience.Timeout == 0 {
		cfg.Resilience.Timeout = defaults.Timeout
	}
	if cfg.Resilience.RetryMaxAttempts == 0 {
		cfg.Resilience.RetryMaxAttempts = defaults.RetryMaxAttempts
	}
	if cfg.Resilience.BreakerMinRequests == 0 {
		cfg.Resilience.BreakerMinRequests = defaults.BreakerMinRequests
	}
	if cfg.Resilience.BreakerOpenTimeout == 0 {
		cfg.Resilience.BreakerOpenTimeout = defaults.BreakerOpenTimeout
	}
}
