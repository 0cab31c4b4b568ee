package embedding

import (
	"context"
	"errors"
	"testing"
)

func TestEmbeddingCache_GetSet(t *testing.T) {
	c := NewEmbeddingCache(2)
	if v, ok := c.Get("a"); ok || v != nil {
		t.Fatal("expected miss")
	}
	c.Set("a", []float32{1, 2, 3})
	v, ok := c.Get("a")
	if !ok || len(v) != 3 || v[0] != 1 {
		t.Errorf("Get: got %v, %v", v, ok)
	}
	c.Set("b", []float32{4, 5})
	c.Set("c", []float32{6}) // evicts a
	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be evicted")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("expected b to remain")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("expected c to be present")
	}
	if c.Len() != 2 {
		t.Errorf("Len=%d", c.Len())
	}
}

type countingEmbedder struct {
	*HashEmbedder
	calls int
	err   error
}

func (e *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return e.HashEmbedder.Embed(ctx, text)
}

func TestCachedEmbedder(t *testing.T) {
	ctx := context.Background()
	inner := &countingEmbedder{HashEmbedder: NewHashEmbedder(8)}
	c := NewCachedEmbedder(inner, 4)

	if _, err := c.Embed(ctx, "hello"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Embed(ctx, "hello"); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 1 {
		t.Errorf("inner called %d times, want 1", inner.calls)
	}
	batch, err := c.EmbedBatch(ctx, []string{"hello", "world"})
	if err != nil || len(batch) != 2 {
		t.Fatalf("EmbedBatch = %v, %v", batch, err)
	}
	if inner.calls != 2 {
		t.Errorf("inner called %d times, want 2", inner.calls)
	}
	if c.Dimensions() != 8 {
		t.Errorf("Dimensions=%d", c.Dimensions())
	}

	inner.err = errors.New("model offline")
	if _, err := c.Embed(ctx, "new text"); err == nil {
		t.Error("errors should not be cached or swallowed")
	}
}
