package ranking

import (
	"errors"
	"math"
	"testing"
)

func TestRankingWeights_Normalize(t *testing.T) {
	tests := []struct {
		name    string
		weights RankingWeights
	}{
		{"defaults", DefaultRankingWeights()},
		{"unnormalized", RankingWeights{Semantic: 2, Recency: 1, Confidence: 1, Priority: 4}},
		{"single non-zero", RankingWeights{Priority: 0.001}},
		{"large", RankingWeights{Semantic: 1e6, Recency: 3e5, Confidence: 7, Priority: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.weights.Normalize()
			if err != nil {
				t.Fatalf("Normalize() error: %v", err)
			}
			if math.Abs(got.Sum()-1.0) > 1e-6 {
				t.Errorf("sum = %v, want 1.0", got.Sum())
			}
		})
	}
}

func TestRankingWeights_NormalizeKeepsProportions(t *testing.T) {
	got, err := RankingWeights{Semantic: 2, Recency: 1, Confidence: 1, Priority: 0}.Normalize()
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got.Semantic-0.5) > 1e-9 || math.Abs(got.Recency-0.25) > 1e-9 {
		t.Errorf("unexpected normalized weights: %+v", got)
	}
}

func TestRankingWeights_NormalizeErrors(t *testing.T) {
	tests := []struct {
		name    string
		weights RankingWeights
	}{
		{"all zero", RankingWeights{}},
		{"negative", RankingWeights{Semantic: 1, Recency: -0.5}},
		{"nan", RankingWeights{Semantic: math.NaN(), Recency: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.weights.Normalize()
			if !errors.Is(err, ErrConfiguration) {
				t.Errorf("Normalize() error = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestRankingConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *RankingConfig)
		wantErr bool
	}{
		{"defaults", func(c *RankingConfig) {}, false},
		{"zero candidates", func(c *RankingConfig) { c.InitialCandidates = 0 }, true},
		{"negative candidates", func(c *RankingConfig) { c.InitialCandidates = -1 }, true},
		{"zero decay", func(c *RankingConfig) { c.RecencyDecayDays = 0 }, true},
		{"negative decay", func(c *RankingConfig) { c.RecencyDecayDays = -3 }, true},
		{"threshold above one", func(c *RankingConfig) { c.MinConfidenceThreshold = 1.2 }, true},
		{"threshold zero", func(c *RankingConfig) { c.MinConfidenceThreshold = 0 }, false},
		{"hybrid off", func(c *RankingConfig) { c.EnableHybridRanking = false }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultRankingConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrConfiguration) {
				t.Errorf("error should wrap ErrConfiguration: %v", err)
			}
		})
	}
}

func TestRankingConfig_ApplyDefaults(t *testing.T) {
	cfg := &RankingConfig{MinConfidenceThreshold: 0.2}
	cfg.ApplyDefaults()
	if cfg.InitialCandidates != 50 || cfg.RecencyDecayDays != 30 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.MinConfidenceThreshold != 0.2 {
		t.Errorf("explicit threshold overwritten: %v", cfg.MinConfidenceThreshold)
	}
}
