package ranking

import (
	"fmt"
	"testing"
	"time"
)

func benchCandidates(n int) []Candidate {
	out := make([]Candidate, n)
	for i := range out {
		out[i] = Candidate{
			ID:       fmt.Sprintf("m%d", i),
			Distance: float64(i%20) / 10,
			Metadata: map[string]interface{}{
				KeyTimestamp:       testNow.Add(-time.Duration(i) * time.Hour).Format(time.RFC3339),
				KeyConfidenceScore: float64(i%10) / 10,
				KeyImportanceScore: 0.5,
				KeyPinned:          i%7 == 0,
			},
		}
	}
	return out
}

func BenchmarkEngine_Rank(b *testing.B) {
	e, err := NewEngine(DefaultRankingWeights(), nil, WithClock(func() time.Time { return testNow }))
	if err != nil {
		b.Fatal(err)
	}
	candidates := benchCandidates(DefaultRankingConfig().InitialCandidates)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = e.Rank(candidates)
	}
}

func BenchmarkEngine_RankBySimilarity(b *testing.B) {
	e, err := NewEngine(DefaultRankingWeights(), nil)
	if err != nil {
		b.Fatal(err)
	}
	candidates := benchCandidates(DefaultRankingConfig().InitialCandidates)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = e.RankBySimilarity(candidates)
	}
}
