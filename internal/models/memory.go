// Package models defines core data structures for memories, search requests and ranked results.
package models

import (
	"sort"
	"strings"
	"time"
)

// DefaultImportance is the importance assigned to memories created without one.
const DefaultImportance = 0.5

// MemoryChunk is a stored memory fragment. Only Pinned and Metadata change after creation.
type MemoryChunk struct {
	ID              string                 `json:"id" db:"id"`
	Content         string                 `json:"content" db:"content"`
	Source          string                 `json:"source,omitempty" db:"source"`
	Tags            []string               `json:"tags,omitempty" db:"tags"`
	ImportanceScore float64                `json:"importance_score" db:"importance_score"`
	Pinned          bool                   `json:"pinned" db:"pinned"`
	Metadata        map[string]interface{} `json:"metadata,omitempty" db:"metadata"`
	Embedding       []float32              `json:"-" db:"-"`
	CreatedAt       time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at" db:"updated_at"`
}

// RankingMetadata returns the metadata map seen by the ranker: the stored metadata overlaid
// with the chunk's own columns (pinned, importance, source, created_at) unless metadata already sets them.
func (m *MemoryChunk) RankingMetadata() map[string]interface{} {
	out := make(map[string]interface{}, len(m.Metadata)+4)
	for k, v := range m.Metadata {
		out[k] = v
	}
	out["pinned"] = m.Pinned
	if _, ok := out["importance_score"]; !ok {
		out["importance_score"] = m.ImportanceScore
	}
	if _, ok := out["created_at"]; !ok && !m.CreatedAt.IsZero() {
		out["created_at"] = m.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	if _, ok := out["source"]; !ok && m.Source != "" {
		out["source"] = m.Source
	}
	if _, ok := out["tags"]; !ok && len(m.Tags) > 0 {
		out["tags"] = m.Tags
	}
	return out
}

// MemoryInput is the input for creating a memory.
type MemoryInput struct {
	ID              string                 `json:"id,omitempty"`
	Content         string                 `json:"content"`
	Source          string                 `json:"source,omitempty"`
	Tags            []string               `json:"tags,omitempty"`
	ImportanceScore *float64               `json:"importance_score,omitempty"`
	Pinned          bool                   `json:"pinned,omitempty"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
	// CreatedAt backdates the memory; zero means now.
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Validate checks required fields.
func (in *MemoryInput) Validate() error {
	if strings.TrimSpace(in.Content) == "" {
		return &ValidationError{Field: "content", Message: "content cannot be empty"}
	}
	if in.ImportanceScore != nil && (*in.ImportanceScore < 0 || *in.ImportanceScore > 1) {
		return &ValidationError{Field: "importance_score", Message: "importance_score must be in [0,1]"}
	}
	return nil
}

// NormalizeTags trims, lowercases and de-duplicates tags, returning them sorted.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// ValidationError reports an invalid request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
