package ranking

import (
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kioku/pkg/utils"
)

// CandidateMultiplier is how many candidates are requested per wanted result so the
// ranker has material to reorder beyond naive similarity.
const CandidateMultiplier = 3

// Engine converts raw candidates into sorted, scored results. It is immutable after
// construction and safe for concurrent use.
type Engine struct {
	weights RankingWeights
	config  RankingConfig
	now     func() time.Time
	logger  *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock overrides the time source used for recency.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets a logger for ranking diagnostics.
func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine validates config and weights and returns an engine holding the normalized weights.
// A nil config uses DefaultRankingConfig. Errors wrap ErrConfiguration.
func NewEngine(weights RankingWeights, config *RankingConfig, opts ...EngineOption) (*Engine, error) {
	if config == nil {
		config = DefaultRankingConfig()
	}
	cfg := *config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	normalized, err := weights.Normalize()
	if err != nil {
		return nil, err
	}
	e := &Engine{
		weights: normalized,
		config:  cfg,
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Weights returns the normalized weights.
func (e *Engine) Weights() RankingWeights {
	return e.weights
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() RankingConfig {
	return e.config
}

// Rank scores every candidate and returns them sorted by descending final score.
// Ties keep input order. When hybrid ranking is disabled the final score is the semantic score.
func (e *Engine) Rank(candidates []Candidate) []RankedResult {
	if len(candidates) == 0 {
		return []RankedResult{}
	}
	now := e.now()
	results := make([]RankedResult, len(candidates))
	degraded := 0
	for i, c := range candidates {
		results[i] = e.score(c, now, e.config.EnableHybridRanking)
		if len(results[i].Degraded) > 0 {
			degraded++
		}
	}
	SortResults(results)
	e.logger.Debug("ranked candidates",
		zap.Int("candidates", len(candidates)),
		zap.Int("degraded", degraded),
		zap.Bool("hybrid", e.config.EnableHybridRanking))
	return results
}

// RankBySimilarity scores candidates but orders them by semantic score alone.
// The full breakdown is still reported.
func (e *Engine) RankBySimilarity(candidates []Candidate) []RankedResult {
	if len(candidates) == 0 {
		return []RankedResult{}
	}
	now := e.now()
	results := make([]RankedResult, len(candidates))
	for i, c := range candidates {
		results[i] = e.score(c, now, false)
	}
	SortResults(results)
	return results
}

func (e *Engine) score(c Candidate, now time.Time, hybrid bool) RankedResult {
	meta := ParseMetadata(c.Metadata)
	r := RankedResult{
		ChunkID:  c.ID,
		Content:  c.Content,
		Metadata: c.Metadata,
	}

	if math.IsNaN(c.Distance) {
		r.Degraded = appendUnique(r.Degraded, FactorSemantic.String())
	}
	r.Breakdown.Semantic = SemanticScore(c.Distance)

	if meta.Timestamp != nil {
		r.Breakdown.Recency = recencyFromTime(*meta.Timestamp, now, e.config.RecencyDecayDays)
	} else {
		r.Breakdown.Recency = 1
		r.Degraded = appendUnique(r.Degraded, FactorRecency.String())
	}

	r.Breakdown.Confidence = ConfidenceScore(meta)
	if meta.ConfidenceScore == nil && meta.ImportanceScore == nil {
		r.Degraded = appendUnique(r.Degraded, FactorConfidence.String())
	}

	r.Breakdown.Priority = PriorityScore(meta)
	for _, key := range meta.Malformed {
		if key == KeyPinned || key == KeyPriority {
			r.Degraded = appendUnique(r.Degraded, FactorPriority.String())
		}
	}

	if !hybrid {
		r.Breakdown.Final = r.Breakdown.Semantic
		r.FinalScore = r.Breakdown.Final
		return r
	}

	var final float64
	for _, f := range Factors {
		final += e.weights.Get(f) * r.Breakdown.Get(f)
	}
	if floor := e.config.MinConfidenceThreshold; floor > 0 && r.Breakdown.Confidence < floor {
		final *= r.Breakdown.Confidence / floor
		r.BelowConfidenceFloor = true
	}
	r.Breakdown.Final = utils.Clamp01(final)
	r.FinalScore = r.Breakdown.Final
	return r
}

// AdaptiveCandidateCount returns how many candidates to request from the vector index:
// min(InitialCandidates, total). That covers CandidateMultiplier*requested whenever the
// corpus and InitialCandidates allow; the cap always wins over the multiplier.
func (e *Engine) AdaptiveCandidateCount(total, requested int) int {
	if total <= 0 || requested <= 0 {
		return 0
	}
	return min(e.config.InitialCandidates, total)
}

// SortResults orders results by descending final score, keeping input order on ties.
func SortResults(results []RankedResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].FinalScore > results[j].FinalScore
	})
}

func appendUnique(list []string, v string) []string {
	for _, s := range list {
		if s == v {
			return list
		}
	}
	return append(list, v)
}
