package retrieval

import (
	"fmt"
	"math"

	"github.com/hyperjump/kioku/internal/dimensions"
	"github.com/hyperjump/kioku/internal/query"
	"github.com/hyperjump/kioku/internal/ranking"
)

// DefaultFilterPenalty multiplies the score of a result that fails a dimension filter.
const DefaultFilterPenalty = 0.5

// FilterThreshold splits a dimension score into high (>= threshold) and low.
const FilterThreshold = 0.5

// Snapshot is the immutable ranking state one search runs against. Config reloads replace it whole.
type Snapshot struct {
	Engine        *ranking.Engine
	Registry      *dimensions.Registry
	BlendRatio    float64
	FilterPenalty float64
	// Parser recognizes the built-in dimensions plus every dimension the registry weights.
	Parser *query.Parser
	// Version distinguishes snapshots in cache keys. Retriever.SetSnapshot assigns it.
	Version uint64
}

// NewSnapshot validates blend ratio and filter penalty and bundles them with engine and registry.
// A nil registry means the built-in profiles.
func NewSnapshot(engine *ranking.Engine, registry *dimensions.Registry, blendRatio, filterPenalty float64) (*Snapshot, error) {
	if engine == nil {
		return nil, fmt.Errorf("%w: ranking engine is required", ranking.ErrConfiguration)
	}
	if registry == nil {
		registry = dimensions.NewRegistry()
	}
	if err := dimensions.ValidateBlendRatio(blendRatio); err != nil {
		return nil, fmt.Errorf("%w: %v", ranking.ErrConfiguration, err)
	}
	if math.IsNaN(filterPenalty) || filterPenalty < 0 || filterPenalty > 1 {
		return nil, fmt.Errorf("%w: filter penalty must be in [0,1], got %v", ranking.ErrConfiguration, filterPenalty)
	}
	return &Snapshot{
		Engine:        engine,
		Registry:      registry,
		BlendRatio:    blendRatio,
		FilterPenalty: filterPenalty,
		Parser:        query.NewParser(query.WithDimensions(registry.Dimensions()...)),
	}, nil
}

// DefaultSnapshot returns a snapshot built entirely from defaults.
func DefaultSnapshot() *Snapshot {
	engine, err := ranking.NewEngine(ranking.DefaultRankingWeights(), nil)
	if err != nil {
		panic(err)
	}
	s, err := NewSnapshot(engine, dimensions.NewRegistry(), dimensions.DefaultBlendRatio, DefaultFilterPenalty)
	if err != nil {
		panic(err)
	}
	return s
}
