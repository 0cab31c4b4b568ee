// Package vector provides the nearest-neighbour index that supplies ranking candidates.
package vector

import "context"

// VectorIndex defines vector storage and similarity search.
type VectorIndex interface {
	// Add inserts vectors. An ID already in the index has its vector replaced.
	Add(ctx context.Context, ids []string, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]SearchResult, error)
	Remove(ctx context.Context, ids []string) error
	Save(path string) error
	Load(path string) error
	// Reset removes every vector.
	Reset()
	Size() int
	Close() error
}

// SearchResult is a single vector search hit.
type SearchResult struct {
	ID string
	// Distance is cosine distance in [0,2]; 0 means identical direction.
	Distance float64
}
