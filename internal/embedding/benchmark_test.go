package embedding

import (
	"context"
	"testing"
)

func BenchmarkHashEmbedder_Embed(b *testing.B) {
	e := NewHashEmbedder(DefaultDimensions)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.Embed(ctx, "benchmark query text for low-risk vendor contracts")
	}
}

func BenchmarkCachedEmbedder_Embed(b *testing.B) {
	e := NewCachedEmbedder(NewHashEmbedder(DefaultDimensions), 128)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.Embed(ctx, "benchmark query text for low-risk vendor contracts")
	}
}
