// Package config provides configuration loading and structs for the kioku server.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/kioku/internal/dimensions"
	"github.com/hyperjump/kioku/internal/ranking"
	"github.com/hyperjump/kioku/internal/resilience"
	"github.com/hyperjump/kioku/internal/retrieval"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool              `yaml:"debug"`
	Server     ServerConfig      `yaml:"server"`
	Storage    StorageConfig     `yaml:"storage"`
	Embedding  EmbeddingConfig   `yaml:"embedding"`
	Ranking    RankingConfig     `yaml:"ranking"`
	Resilience resilience.Config `yaml:"resilience"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// SearchRateLimit is the sustained searches per second; 0 disables limiting.
	SearchRateLimit float64 `yaml:"search_rate_limit"`
	SearchRateBurst int     `yaml:"search_rate_burst"`
}

// StorageConfig holds paths for the memory database and the vector index.
type StorageConfig struct {
	DatabasePath    string `yaml:"database_path"`
	VectorIndexPath string `yaml:"vector_index_path"`
}

// EmbeddingConfig holds embedder settings.
type EmbeddingConfig struct {
	Dimensions int `yaml:"dimensions"`
	CacheSize  int `yaml:"cache_size"`
}

// RankingConfig holds ranking, dimension weighting and result cache settings.
// Pointer fields distinguish "unset" from an explicit zero.
type RankingConfig struct {
	Weights                *ranking.RankingWeights `yaml:"weights,omitempty"`
	InitialCandidates      int                     `yaml:"initial_candidates"`
	RecencyDecayDays       float64                 `yaml:"recency_decay_days"`
	MinConfidenceThreshold *float64                `yaml:"min_confidence_threshold,omitempty"`
	EnableHybridRanking    *bool                   `yaml:"enable_hybrid_ranking,omitempty"`
	DimensionBlendRatio    *float64                `yaml:"dimension_blend_ratio,omitempty"`
	FilterPenalty          *float64                `yaml:"filter_penalty,omitempty"`
	ProfilesFile           string                  `yaml:"profiles_file,omitempty"`
	// CacheSize is the number of cached search responses; negative disables the cache.
	CacheSize int `yaml:"cache_size"`
}

// EngineConfig returns the ranking engine tunables.
func (r RankingConfig) EngineConfig() *ranking.RankingConfig {
	c := ranking.DefaultRankingConfig()
	if r.InitialCandidates != 0 {
		c.InitialCandidates = r.InitialCandidates
	}
	if r.RecencyDecayDays != 0 {
		c.RecencyDecayDays = r.RecencyDecayDays
	}
	if r.MinConfidenceThreshold != nil {
		c.MinConfidenceThreshold = *r.MinConfidenceThreshold
	}
	if r.EnableHybridRanking != nil {
		c.EnableHybridRanking = *r.EnableHybridRanking
	}
	return c
}

// RankingWeights returns the configured weights or the defaults.
func (r RankingConfig) RankingWeights() ranking.RankingWeights {
	if r.Weights == nil {
		return ranking.DefaultRankingWeights()
	}
	return *r.Weights
}

// BlendRatio returns the dimension blend ratio or dimensions.DefaultBlendRatio.
func (r RankingConfig) BlendRatio() float64 {
	if r.DimensionBlendRatio == nil {
		return dimensions.DefaultBlendRatio
	}
	return *r.DimensionBlendRatio
}

// Penalty returns the soft filter penalty or retrieval.DefaultFilterPenalty.
func (r RankingConfig) Penalty() float64 {
	if r.FilterPenalty == nil {
		return retrieval.DefaultFilterPenalty
	}
	return *r.FilterPenalty
}

// Load reads and parses the config file at path, applies defaults, validates and expands paths.
// A missing file is created with defaults and created is true.
func Load(path string) (cfg *Config, created bool, err error) {
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		cfg = &Config{}
		ApplyDefaults(cfg)
		if err := Save(path, cfg); err != nil {
			return nil, false, err
		}
		created = true
	case err != nil:
		return nil, false, fmt.Errorf("failed to read config: %w", err)
	default:
		cfg = &Config{}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, false, fmt.Errorf("failed to parse config: %w", err)
		}
		ApplyDefaults(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, created, err
	}

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.VectorIndexPath = expandPath(cfg.Storage.VectorIndexPath, configDir)
	if cfg.Ranking.ProfilesFile != "" {
		cfg.Ranking.ProfilesFile = expandPath(cfg.Ranking.ProfilesFile, configDir)
	}
	return cfg, created, nil
}

// Validate reports settings the server cannot start with. Ranking errors wrap ranking.ErrConfiguration.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [0,65535], got %d", c.Server.Port)
	}
	if c.Server.SearchRateLimit < 0 || c.Server.SearchRateBurst < 0 {
		return fmt.Errorf("server.search_rate_limit and search_rate_burst must be >= 0")
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be > 0, got %d", c.Embedding.Dimensions)
	}

	if err := c.Ranking.RankingWeights().Validate(); err != nil {
		return fmt.Errorf("ranking.weights: %w", err)
	}
	if err := c.Ranking.EngineConfig().Validate(); err != nil {
		return fmt.Errorf("ranking: %w", err)
	}
	if err := dimensions.ValidateBlendRatio(c.Ranking.BlendRatio()); err != nil {
		return fmt.Errorf("ranking: %w: %v", ranking.ErrConfiguration, err)
	}
	if p := c.Ranking.Penalty(); math.IsNaN(p) || p < 0 || p > 1 {
		return fmt.Errorf("ranking: %w: filter_penalty must be in [0,1], got %v", ranking.ErrConfiguration, p)
	}
	return nil
}

// Save writes the config to path, creating the parent directory.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// "~/" and other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	path = strings.TrimPrefix(path, "~/")
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
