// Package storage defines the persistence interface for memory chunks.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/kioku/internal/models"
)

// ErrNotFound is returned when a memory does not exist.
var ErrNotFound = errors.New("memory not found")

// ErrAlreadyExists is returned when creating a memory whose ID is taken.
var ErrAlreadyExists = errors.New("memory already exists")

// Storage defines memory persistence operations. Memories are never deleted by ranking.
type Storage interface {
	CreateMemory(ctx context.Context, m *models.MemoryChunk) error
	GetMemory(ctx context.Context, id string) (*models.MemoryChunk, error)
	// GetMemories returns the memories found for ids keyed by ID; missing IDs are omitted.
	GetMemories(ctx context.Context, ids []string) (map[string]*models.MemoryChunk, error)
	ListMemories(ctx context.Context, offset, limit int) ([]*models.MemoryChunk, error)

	// Mutations available to the memory editor.
	SetPinned(ctx context.Context, id string, pinned bool) error
	// UpdateMetadata merges patch into the stored metadata; nil values delete keys.
	UpdateMetadata(ctx context.Context, id string, patch map[string]interface{}) (*models.MemoryChunk, error)
	// DeleteMemory removes a memory; the indexer uses it to undo a create whose vector add failed.
	DeleteMemory(ctx context.Context, id string) error

	CountMemories(ctx context.Context) (int64, error)

	Close() error
}
