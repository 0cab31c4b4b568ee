package ranking

import "math"

// RankingConfig holds the engine tunables.
type RankingConfig struct {
	InitialCandidates      int     `yaml:"initial_candidates"`       // default: 50
	RecencyDecayDays       float64 `yaml:"recency_decay_days"`       // default: 30 (half-life)
	MinConfidenceThreshold float64 `yaml:"min_confidence_threshold"` // default: 0.1
	EnableHybridRanking    bool    `yaml:"enable_hybrid_ranking"`    // default: true
}

// DefaultRankingConfig returns the default ranking configuration.
func DefaultRankingConfig() *RankingConfig {
	return &RankingConfig{
		InitialCandidates:      50,
		RecencyDecayDays:       30,
		MinConfidenceThreshold: 0.1,
		EnableHybridRanking:    true,
	}
}

// ApplyDefaults fills zero-valued numeric fields. EnableHybridRanking is left as given.
func (c *RankingConfig) ApplyDefaults() {
	defaults := DefaultRankingConfig()
	if c.InitialCandidates == 0 {
		c.InitialCandidates = defaults.InitialCandidates
	}
	if c.RecencyDecayDays == 0 {
		c.RecencyDecayDays = defaults.RecencyDecayDays
	}
}

// Validate reports values the engine cannot run with.
func (c *RankingConfig) Validate() error {
	if c.InitialCandidates <= 0 {
		return configErrorf("initial_candidates must be > 0, got %d", c.InitialCandidates)
	}
	if !(c.RecencyDecayDays > 0) || math.IsInf(c.RecencyDecayDays, 0) {
		return configErrorf("recency_decay_days must be > 0, got %v", c.RecencyDecayDays)
	}
	if !(c.MinConfidenceThreshold >= 0 && c.MinConfidenceThreshold <= 1) {
		return configErrorf("min_confidence_threshold must be in [0,1], got %v", c.MinConfidenceThreshold)
	}
	return nil
}
