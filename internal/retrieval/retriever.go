// Package retrieval orchestrates dimension-aware search: query parsing, candidate fetch,
// hybrid ranking, profile weighting, soft filters and explanations.
package retrieval

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/kioku/internal/dimensions"
	"github.com/hyperjump/kioku/internal/embedding"
	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/query"
	"github.com/hyperjump/kioku/internal/ranking"
	"github.com/hyperjump/kioku/internal/resilience"
)

// MemoryCounter reports the corpus size.
type MemoryCounter interface {
	CountMemories(ctx context.Context) (int64, error)
}

// CandidateFetcher returns up to k candidates nearest to an embedding.
type CandidateFetcher interface {
	Fetch(ctx context.Context, embedding []float32, k int) ([]ranking.Candidate, error)
}

// Retriever runs searches against the current Snapshot. It is safe for concurrent use.
type Retriever struct {
	counter    MemoryCounter
	embedder   embedding.Embedder
	candidates CandidateFetcher

	snapshot atomic.Pointer[Snapshot]
	cache    *ResultCache
	metrics  *Metrics
	executor *resilience.Executor
	logger   *zap.Logger
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Retriever) { r.logger = l }
}

// WithMetrics records searches in m.
func WithMetrics(m *Metrics) Option {
	return func(r *Retriever) { r.metrics = m }
}

// WithCache enables result caching.
func WithCache(c *ResultCache) Option {
	return func(r *Retriever) { r.cache = c }
}

// WithExecutor routes count, embed and vector search calls through e.
func WithExecutor(e *resilience.Executor) Option {
	return func(r *Retriever) { r.executor = e }
}

// NewRetriever creates a retriever. A nil snapshot means DefaultSnapshot.
func NewRetriever(
	counter MemoryCounter,
	embedder embedding.Embedder,
	candidates CandidateFetcher,
	snapshot *Snapshot,
	opts ...Option,
) *Retriever {
	r := &Retriever{
		counter:    counter,
		embedder:   embedder,
		candidates: candidates,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if snapshot == nil {
		snapshot = DefaultSnapshot()
	}
	r.snapshot.Store(snapshot)
	return r
}

// Snapshot returns the snapshot searches currently use.
func (r *Retriever) Snapshot() *Snapshot {
	return r.snapshot.Load()
}

// SetSnapshot atomically replaces the ranking state and invalidates cached results.
// s.Version is overwritten with the next version number.
func (r *Retriever) SetSnapshot(s *Snapshot) {
	if s == nil {
		return
	}
	next := *s
	next.Version = r.snapshot.Load().Version + 1
	r.snapshot.Store(&next)
	r.logger.Info("ranking configuration swapped", zap.Uint64("version", next.Version))
	r.Invalidate()
}

// Invalidate drops cached results. Wire it to every memory store change.
func (r *Retriever) Invalidate() {
	if r.cache == nil {
		return
	}
	r.cache.Invalidate()
	r.metrics.cacheInvalidated()
	r.logger.Debug("result cache invalidated")
}

// Search returns ranked, explained results for req. It never fails: invalid requests, upstream
// failures and panics in collaborators all yield an empty slice.
func (r *Retriever) Search(ctx context.Context, req models.SearchRequest) []models.RankedMemory {
	return r.SearchWithStatus(ctx, req).Results
}

// SearchWithStatus is Search plus a status describing how the request was served.
func (r *Retriever) SearchWithStatus(ctx context.Context, req models.SearchRequest) (resp models.SearchResponse) {
	start := time.Now()
	snap := r.snapshot.Load()
	resp = models.SearchResponse{Results: []models.RankedMemory{}, Query: req.Query}

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("search panicked", zap.Any("panic", p), zap.String("query", req.Query))
			resp.Results = []models.RankedMemory{}
			resp.Status.Degraded = true
			resp.Status.Reason = fmt.Sprintf("internal error: %v", p)
			r.metrics.observeSearch(string(req.Strategy), OutcomePanic, time.Since(start).Seconds())
		}
		resp.QueryTime = time.Since(start).Milliseconds()
	}()

	if err := req.Validate(); err != nil {
		resp.Status = models.SearchStatus{Strategy: req.Strategy, Reason: err.Error()}
		r.metrics.observeSearch(string(req.Strategy), OutcomeInvalid, time.Since(start).Seconds())
		return resp
	}
	resp.Query = req.Query

	parsed, searchText := parse(snap.Parser, req)
	profile := r.resolveProfile(req.Profile, parsed.ProfileHint)
	resp.CleanQuery = searchText

	var key string
	var generation uint64
	if r.cache != nil {
		key = cacheKey(req, parsed, profile.String(), snap.Version)
		generation = r.cache.Generation()
		if hit, ok := r.cache.get(key); ok {
			r.metrics.cacheHit()
			resp.Results = hit.results
			resp.Status = hit.status
			resp.Status.Cached = true
			r.metrics.observeSearch(string(req.Strategy), outcomeOf(hit.results), time.Since(start).Seconds())
			return resp
		}
		r.metrics.cacheMiss()
	}

	results, status, err := r.search(ctx, snap, req, parsed, searchText, profile)
	resp.Status = status
	if err != nil {
		resp.Status.Degraded = true
		resp.Status.Reason = err.Error()
		r.metrics.observeSearch(string(req.Strategy), OutcomeUpstream, time.Since(start).Seconds())
		return resp
	}
	resp.Results = results

	for _, res := range results {
		for _, signal := range res.Degraded {
			r.metrics.incDegraded(signal)
		}
	}
	if r.cache != nil {
		r.cache.put(key, generation, cachedResponse{results: results, status: status})
	}
	r.metrics.observeSearch(string(req.Strategy), outcomeOf(results), time.Since(start).Seconds())
	r.logger.Debug("search complete",
		zap.String("profile", status.Profile),
		zap.String("strategy", string(status.Strategy)),
		zap.Int("candidates", status.Candidates),
		zap.Int("results", len(results)),
		zap.Int("degraded_items", status.DegradedItems))
	return resp
}

func outcomeOf(results []models.RankedMemory) string {
	if len(results) == 0 {
		return OutcomeEmpty
	}
	return OutcomeOK
}

// parse extracts filters from NaturalLanguageFilters when given, else from Query.
// With separate filters the query text is embedded as is.
func parse(parser *query.Parser, req models.SearchRequest) (query.ParsedQuery, string) {
	if req.NaturalLanguageFilters != "" {
		return parser.Parse(req.NaturalLanguageFilters), req.Query
	}
	parsed := parser.Parse(req.Query)
	return parsed, parsed.SearchText()
}

// resolveProfile picks the explicit profile, else the parsed hint, else general.
func (r *Retriever) resolveProfile(explicit, hint string) dimensions.Profile {
	if explicit != "" {
		if p, ok := dimensions.ParseProfile(explicit); ok {
			return p
		}
		r.logger.Warn("unknown profile requested", zap.String("profile", explicit))
	}
	if p, ok := dimensions.ParseProfile(hint); ok {
		return p
	}
	return dimensions.General
}

func (r *Retriever) guard(ctx context.Context, op string, fn func(context.Context) error) error {
	call := func(ctx context.Context) (err error) {
		defer func() {
			if p := recover(); p != nil {
				err = resilience.Permanent(fmt.Errorf("%s panicked: %v", op, p))
			}
		}()
		return fn(ctx)
	}
	if r.executor == nil {
		return call(ctx)
	}
	return r.executor.Execute(ctx, op, call)
}

func (r *Retriever) search(
	ctx context.Context,
	snap *Snapshot,
	req models.SearchRequest,
	parsed query.ParsedQuery,
	searchText string,
	profile dimensions.Profile,
) ([]models.RankedMemory, models.SearchStatus, error) {
	status := models.SearchStatus{Profile: profile.String(), Strategy: req.Strategy}

	var total int64
	var emb []float32
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.guard(gctx, "count", func(ctx context.Context) error {
			n, err := r.counter.CountMemories(ctx)
			if err != nil {
				return fmt.Errorf("count memories: %w", err)
			}
			total = n
			return nil
		})
	})
	g.Go(func() error {
		return r.guard(gctx, "embed", func(ctx context.Context) error {
			v, err := r.embedder.Embed(ctx, searchText)
			if err != nil {
				return fmt.Errorf("embed query: %w", err)
			}
			emb = v
			return nil
		})
	})
	if err := g.Wait(); err != nil {
		r.logger.Warn("search upstream failed",
			zap.String("stage", "prepare"),
			zap.Int64("total_memories", total),
			zap.Error(err))
		return nil, status, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	k := snap.Engine.AdaptiveCandidateCount(int(total), req.MaxResults)
	if k == 0 {
		status.Reason = "no memories"
		return []models.RankedMemory{}, status, nil
	}

	var candidates []ranking.Candidate
	err := r.guard(ctx, "vector_search", func(ctx context.Context) error {
		c, err := r.candidates.Fetch(ctx, emb, k)
		if err != nil {
			return err
		}
		candidates = c
		return nil
	})
	if err != nil {
		r.logger.Warn("search upstream failed",
			zap.String("stage", "vector_search"),
			zap.Int64("total_memories", total),
			zap.Int("requested_candidates", k),
			zap.Error(err))
		return nil, status, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	status.Candidates = len(candidates)
	r.metrics.observeCandidates(len(candidates))

	var results []models.RankedMemory
	if req.Strategy == models.StrategyVectorOnly {
		results = vectorOnly(snap, candidates)
	} else {
		results = hybrid(snap, profile, parsed.DimensionFilters, candidates)
	}

	if len(results) > req.MaxResults {
		results = results[:req.MaxResults]
	}
	for i := range results {
		results[i].Rank = i + 1
		if len(results[i].Degraded) > 0 {
			status.DegradedItems++
		}
	}
	return results, status, nil
}

func vectorOnly(snap *Snapshot, candidates []ranking.Candidate) []models.RankedMemory {
	ranked := snap.Engine.RankBySimilarity(candidates)
	out := make([]models.RankedMemory, len(ranked))
	for i, r := range ranked {
		m := toModel(r)
		m.FinalScore = r.Breakdown.Semantic
		m.Breakdown.Hybrid = r.Breakdown.Semantic
		m.Breakdown.Final = r.Breakdown.Semantic
		m.DimensionExplanation = explainVectorOnly(r)
		out[i] = m
	}
	return out
}

func hybrid(snap *Snapshot, profile dimensions.Profile, filters map[string]query.Level, candidates []ranking.Candidate) []models.RankedMemory {
	ranked := snap.Engine.Rank(candidates)
	weights := snap.Registry.WeightsFor(profile)
	engineWeights := snap.Engine.Weights()

	out := make([]models.RankedMemory, len(ranked))
	for i, r := range ranked {
		dims := dimensions.FromMetadata(r.Metadata)
		bonus := dimensions.Bonus(weights, dims)
		score := dimensions.Blend(r.FinalScore, bonus, snap.BlendRatio)
		outcomes, multiplier := applyFilters(filters, dims, snap.FilterPenalty)
		score *= multiplier

		m := toModel(r)
		m.FinalScore = score
		m.Breakdown.Final = score
		m.DimensionBonus = bonus.Bonus
		m.MatchedDimensions = bonus.Matched
		m.DimensionExplanation = explainHybrid(profile.String(), engineWeights, r, bonus, outcomes, snap.FilterPenalty)
		out[i] = m
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].FinalScore > out[j].FinalScore })
	return out
}

func toModel(r ranking.RankedResult) models.RankedMemory {
	return models.RankedMemory{
		ChunkID:  r.ChunkID,
		Content:  r.Content,
		Metadata: r.Metadata,
		Breakdown: models.ScoreBreakdown{
			Semantic:   r.Breakdown.Semantic,
			Recency:    r.Breakdown.Recency,
			Confidence: r.Breakdown.Confidence,
			Priority:   r.Breakdown.Priority,
			Hybrid:     r.FinalScore,
		},
		Degraded: r.Degraded,
	}
}
