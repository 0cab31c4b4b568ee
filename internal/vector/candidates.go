package vector

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/ranking"
	"github.com/hyperjump/kioku/internal/storage"
)

// CandidateSource joins vector hits with stored memories to build ranking candidates.
type CandidateSource struct {
	index  VectorIndex
	store  storage.Storage
	logger *zap.Logger
}

// CandidateSourceOption configures a CandidateSource.
type CandidateSourceOption func(*CandidateSource)

// WithLogger sets the logger used for index/store drift warnings.
func WithLogger(l *zap.Logger) CandidateSourceOption {
	return func(c *CandidateSource) {
		c.logger = l
	}
}

// NewCandidateSource creates a candidate source over index and store.
func NewCandidateSource(index VectorIndex, store storage.Storage, opts ...CandidateSourceOption) *CandidateSource {
	c := &CandidateSource{index: index, store: store, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns up to k candidates nearest to embedding, in index order.
// Hits whose memory is no longer in the store are skipped.
func (c *CandidateSource) Fetch(ctx context.Context, embedding []float32, k int) ([]ranking.Candidate, error) {
	if k <= 0 {
		return nil, nil
	}
	hits, err := c.index.Search(ctx, embedding, k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	if len(hits) == 0 {
		return nil, nil
	}
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	memories, err := c.store.GetMemories(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate memories: %w", err)
	}

	candidates := make([]ranking.Candidate, 0, len(hits))
	missing := 0
	for _, h := range hits {
		m, ok := memories[h.ID]
		if !ok {
			missing++
			continue
		}
		candidates = append(candidates, ranking.Candidate{
			ID:       m.ID,
			Content:  m.Content,
			Metadata: m.RankingMetadata(),
			Distance: h.Distance,
		})
	}
	if missing > 0 {
		c.logger.Warn("vector index references missing memories",
			zap.Int("missing", missing),
			zap.Int("hits", len(hits)))
	}
	return candidates, nil
}
