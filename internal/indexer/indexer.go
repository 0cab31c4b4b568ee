// Package indexer writes memories into storage and the vector index and notifies listeners of changes.
package indexer

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/embedding"
	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/resilience"
	"github.com/hyperjump/kioku/internal/storage"
	"github.com/hyperjump/kioku/internal/vector"
)

// rebuildPageSize is how many memories Rebuild embeds per batch.
const rebuildPageSize = 200

// ChangeKind identifies a memory mutation.
type ChangeKind int

const (
	ChangeCreated ChangeKind = iota
	ChangePinned
	ChangeUnpinned
	ChangeMetadata
	ChangeRebuilt
)

// String returns a string representation of the change kind.
func (k ChangeKind) String() string {
	switch k {
	case ChangeCreated:
		return "created"
	case ChangePinned:
		return "pinned"
	case ChangeUnpinned:
		return "unpinned"
	case ChangeMetadata:
		return "metadata"
	case ChangeRebuilt:
		return "rebuilt"
	default:
		return "unknown"
	}
}

// Change describes one mutation. ID is empty for ChangeRebuilt.
type Change struct {
	Kind ChangeKind
	ID   string
}

// ChangeHook is called synchronously after every successful mutation.
type ChangeHook func(Change)

// Indexer stores memories, embeds them and keeps the vector index in sync.
type Indexer struct {
	storage     storage.Storage
	embedder    embedding.Embedder
	vectorIndex vector.VectorIndex
	executor    *resilience.Executor
	logger      *zap.Logger

	mu    sync.RWMutex
	hooks []ChangeHook
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// WithExecutor routes embedder and vector index calls through e.
func WithExecutor(e *resilience.Executor) IndexerOption {
	return func(idx *Indexer) { idx.executor = e }
}

// NewIndexer creates an indexer with the given dependencies.
func NewIndexer(
	storage storage.Storage,
	embedder embedding.Embedder,
	vectorIndex vector.VectorIndex,
	opts ...IndexerOption,
) *Indexer {
	idx := &Indexer{
		storage:     storage,
		embedder:    embedder,
		vectorIndex: vectorIndex,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// OnChange registers h to run after each mutation.
func (idx *Indexer) OnChange(h ChangeHook) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.hooks = append(idx.hooks, h)
}

func (idx *Indexer) notify(c Change) {
	idx.mu.RLock()
	hooks := make([]ChangeHook, len(idx.hooks))
	copy(hooks, idx.hooks)
	idx.mu.RUnlock()
	for _, h := range hooks {
		h(c)
	}
}

func (idx *Indexer) guard(ctx context.Context, op string, fn func(context.Context) error) error {
	if idx.executor == nil {
		return fn(ctx)
	}
	return idx.executor.Execute(ctx, op, fn)
}

// AddMemory validates input, embeds the content, stores the memory and adds its vector.
func (idx *Indexer) AddMemory(ctx context.Context, input models.MemoryInput) (*models.MemoryChunk, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	m := &models.MemoryChunk{
		ID:              strings.TrimSpace(input.ID),
		Content:         Preprocess(input.Content),
		Source:          strings.TrimSpace(input.Source),
		Tags:            models.NormalizeTags(input.Tags),
		ImportanceScore: models.DefaultImportance,
		Pinned:          input.Pinned,
		Metadata:        input.Metadata,
		CreatedAt:       input.CreatedAt.UTC(),
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if input.ImportanceScore != nil {
		m.ImportanceScore = *input.ImportanceScore
	}

	var emb []float32
	err := idx.guard(ctx, "embed", func(ctx context.Context) error {
		var err error
		emb, err = idx.embedder.Embed(ctx, m.Content)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	if err := idx.storage.CreateMemory(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to store memory: %w", err)
	}
	err = idx.guard(ctx, "vector_add", func(ctx context.Context) error {
		return idx.vectorIndex.Add(ctx, []string{m.ID}, [][]float32{emb})
	})
	if err != nil {
		// Drop the row so a retry with the same ID is not rejected as a duplicate.
		if delErr := idx.storage.DeleteMemory(context.WithoutCancel(ctx), m.ID); delErr != nil {
			idx.logger.Warn("indexer rollback failed", zap.String("id", m.ID), zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to index vector: %w", err)
	}
	m.Embedding = emb

	idx.logger.Debug("indexer memory added", zap.String("id", m.ID), zap.Int("content_len", len(m.Content)))
	idx.notify(Change{Kind: ChangeCreated, ID: m.ID})
	return m, nil
}

// GetMemory returns a stored memory.
func (idx *Indexer) GetMemory(ctx context.Context, id string) (*models.MemoryChunk, error) {
	return idx.storage.GetMemory(ctx, id)
}

// Pin marks a memory as pinned.
func (idx *Indexer) Pin(ctx context.Context, id string) error {
	return idx.setPinned(ctx, id, true)
}

// Unpin clears a memory's pin.
func (idx *Indexer) Unpin(ctx context.Context, id string) error {
	return idx.setPinned(ctx, id, false)
}

func (idx *Indexer) setPinned(ctx context.Context, id string, pinned bool) error {
	if err := idx.storage.SetPinned(ctx, id, pinned); err != nil {
		return fmt.Errorf("failed to update pin: %w", err)
	}
	kind := ChangeUnpinned
	if pinned {
		kind = ChangePinned
	}
	idx.logger.Debug("indexer pin changed", zap.String("id", id), zap.Bool("pinned", pinned))
	idx.notify(Change{Kind: kind, ID: id})
	return nil
}

// UpdateMetadata merges patch into the memory's metadata. Nil values delete keys.
func (idx *Indexer) UpdateMetadata(ctx context.Context, id string, patch map[string]interface{}) (*models.MemoryChunk, error) {
	if len(patch) == 0 {
		return nil, &models.ValidationError{Field: "metadata", Message: "metadata patch cannot be empty"}
	}
	m, err := idx.storage.UpdateMetadata(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update metadata: %w", err)
	}
	idx.logger.Debug("indexer metadata updated", zap.String("id", id), zap.Int("keys", len(patch)))
	idx.notify(Change{Kind: ChangeMetadata, ID: id})
	return m, nil
}

// Rebuild clears the vector index, re-embeds every stored memory into it and returns how many
// were indexed.
func (idx *Indexer) Rebuild(ctx context.Context) (int, error) {
	idx.vectorIndex.Reset()
	n := 0
	for offset := 0; ; offset += rebuildPageSize {
		page, err := idx.storage.ListMemories(ctx, offset, rebuildPageSize)
		if err != nil {
			return n, fmt.Errorf("failed to list memories: %w", err)
		}
		if len(page) == 0 {
			break
		}
		ids := make([]string, len(page))
		texts := make([]string, len(page))
		for i, m := range page {
			ids[i] = m.ID
			texts[i] = m.Content
		}
		var embeddings [][]float32
		err = idx.guard(ctx, "embed", func(ctx context.Context) error {
			var err error
			embeddings, err = idx.embedder.EmbedBatch(ctx, texts)
			return err
		})
		if err != nil {
			return n, fmt.Errorf("failed to generate embeddings: %w", err)
		}
		if err := idx.vectorIndex.Add(ctx, ids, embeddings); err != nil {
			return n, fmt.Errorf("failed to index vectors: %w", err)
		}
		n += len(page)
		if len(page) < rebuildPageSize {
			break
		}
	}
	idx.logger.Info("vector index rebuilt", zap.Int("memories", n))
	idx.notify(Change{Kind: ChangeRebuilt})
	return n, nil
}
