package config

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/dimensions"
	"github.com/hyperjump/kioku/internal/ranking"
	"github.com/hyperjump/kioku/internal/retrieval"
)

// BuildSnapshot turns the ranking section into the immutable state a Retriever searches with.
// The profiles file, when set, is merged over the built-in dimension profiles.
func BuildSnapshot(cfg *Config, logger *zap.Logger) (*retrieval.Snapshot, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	engine, err := ranking.NewEngine(cfg.Ranking.RankingWeights(), cfg.Ranking.EngineConfig(), ranking.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	registry, err := dimensions.LoadRegistry(cfg.Ranking.ProfilesFile, logger)
	if err != nil {
		return nil, fmt.Errorf("load dimension profiles: %w", err)
	}
	return retrieval.NewSnapshot(engine, registry, cfg.Ranking.BlendRatio(), cfg.Ranking.Penalty())
}
