package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/config"
	"github.com/hyperjump/kioku/internal/embedding"
	"github.com/hyperjump/kioku/internal/indexer"
	"github.com/hyperjump/kioku/internal/resilience"
	"github.com/hyperjump/kioku/internal/retrieval"
	"github.com/hyperjump/kioku/internal/storage"
	"github.com/hyperjump/kioku/internal/vector"
)

// Components holds initialized services.
type Components struct {
	Storage     storage.Storage
	Embedder    embedding.Embedder
	VectorIndex *vector.MemoryIndex
	Executor    *resilience.Executor
	Retriever   *retrieval.Retriever
	Indexer     *indexer.Indexer
	Registry    *prometheus.Registry

	indexPath string
	logger    *zap.Logger
}

// Close saves the vector index and releases resources.
func (c *Components) Close() {
	if c.VectorIndex != nil && c.indexPath != "" {
		if err := c.VectorIndex.Save(c.indexPath); err != nil {
			c.logger.Warn("vector index save failed", zap.String("path", c.indexPath), zap.Error(err))
		}
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.VectorIndex != nil {
		_ = c.VectorIndex.Close()
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c := &Components{Storage: store, logger: logger}

	c.Embedder = embedding.NewCachedEmbedder(embedding.NewHashEmbedder(cfg.Embedding.Dimensions), cfg.Embedding.CacheSize)

	c.VectorIndex, err = vector.NewMemoryIndex(cfg.Embedding.Dimensions)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}
	if err := c.VectorIndex.Load(cfg.Storage.VectorIndexPath); err != nil {
		logger.Warn("vector index load skipped; rebuilding", zap.String("path", cfg.Storage.VectorIndexPath), zap.Error(err))
	}

	c.Executor = resilience.NewExecutor(cfg.Resilience, resilience.WithLogger(logger))

	c.Registry = prometheus.NewRegistry()
	c.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := retrieval.NewMetrics(c.Registry)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	snapshot, err := config.BuildSnapshot(cfg, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	opts := []retrieval.Option{
		retrieval.WithLogger(logger),
		retrieval.WithMetrics(metrics),
		retrieval.WithExecutor(c.Executor),
	}
	if cfg.Ranking.CacheSize > 0 {
		opts = append(opts, retrieval.WithCache(retrieval.NewResultCache(cfg.Ranking.CacheSize)))
	}
	candidates := vector.NewCandidateSource(c.VectorIndex, store, vector.WithLogger(logger))
	c.Retriever = retrieval.NewRetriever(store, c.Embedder, candidates, snapshot, opts...)

	c.Indexer = indexer.NewIndexer(store, c.Embedder, c.VectorIndex,
		indexer.WithLogger(logger), indexer.WithExecutor(c.Executor))
	c.Indexer.OnChange(func(ch indexer.Change) {
		logger.Debug("memory store changed", zap.String("kind", ch.Kind.String()), zap.String("id", ch.ID))
		c.Retriever.Invalidate()
	})

	if err := c.syncIndex(ctx); err != nil {
		c.Close()
		return nil, err
	}
	// Only a fully initialized index is saved on Close.
	c.indexPath = cfg.Storage.VectorIndexPath
	return c, nil
}

// syncIndex rebuilds the vector index when it disagrees with the store.
func (c *Components) syncIndex(ctx context.Context) error {
	count, err := c.Storage.CountMemories(ctx)
	if err != nil {
		return fmt.Errorf("failed to count memories: %w", err)
	}
	if int64(c.VectorIndex.Size()) == count {
		return nil
	}
	c.logger.Info("vector index out of date; rebuilding",
		zap.Int("index_size", c.VectorIndex.Size()),
		zap.Int64("memories", count))
	if _, err := c.Indexer.Rebuild(ctx); err != nil {
		return fmt.Errorf("failed to rebuild vector index: %w", err)
	}
	return nil
}
