package ranking

import (
	"errors"
	"math"
	"testing"
	"time"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T, cfg *RankingConfig) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultRankingWeights(), cfg, WithClock(func() time.Time { return testNow }))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func daysAgo(d int) int64 {
	return testNow.Add(-time.Duration(d) * 24 * time.Hour).Unix()
}

func TestNewEngine(t *testing.T) {
	e, err := NewEngine(RankingWeights{Semantic: 2, Recency: 2}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(e.Weights().Sum()-1) > 1e-9 {
		t.Errorf("engine weights not normalized: %+v", e.Weights())
	}
	if e.Config().InitialCandidates != DefaultRankingConfig().InitialCandidates {
		t.Errorf("nil config should use defaults, got %+v", e.Config())
	}
}

func TestNewEngine_configurationErrors(t *testing.T) {
	tests := []struct {
		name    string
		weights RankingWeights
		cfg     *RankingConfig
	}{
		{"zero weights", RankingWeights{}, nil},
		{"zero candidates", DefaultRankingWeights(), &RankingConfig{InitialCandidates: 0, RecencyDecayDays: 30}},
		{"zero decay", DefaultRankingWeights(), &RankingConfig{InitialCandidates: 10, RecencyDecayDays: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewEngine(tt.weights, tt.cfg)
			if e != nil || !errors.Is(err, ErrConfiguration) {
				t.Errorf("NewEngine() = %v, %v; want nil, ErrConfiguration", e, err)
			}
		})
	}
}

func TestEngine_RankPinnedScenario(t *testing.T) {
	e := newTestEngine(t, nil)
	candidates := []Candidate{
		{ID: "recent-confident", Distance: 0.1, Metadata: map[string]interface{}{
			"timestamp": daysAgo(1), "confidence_score": 0.9,
		}},
		{ID: "old-weak", Distance: 0.05, Metadata: map[string]interface{}{
			"timestamp": daysAgo(400), "confidence_score": 0.2,
		}},
		{ID: "recent-pinned", Distance: 0.3, Metadata: map[string]interface{}{
			"timestamp": daysAgo(1), "pinned": true,
		}},
	}
	results := e.Rank(candidates)
	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].FinalScore > results[i-1].FinalScore {
			t.Errorf("results not sorted descending at %d: %v > %v", i, results[i].FinalScore, results[i-1].FinalScore)
		}
	}
	if results[2].ChunkID == "recent-pinned" {
		t.Errorf("pinned item ranked last: %+v", results)
	}
	for _, r := range results {
		if r.FinalScore < 0 || r.FinalScore > 1 {
			t.Errorf("%s: final score %v out of range", r.ChunkID, r.FinalScore)
		}
		if r.Breakdown.Final != r.FinalScore {
			t.Errorf("%s: breakdown final %v != %v", r.ChunkID, r.Breakdown.Final, r.FinalScore)
		}
	}
}

func TestEngine_RankTiesKeepInputOrder(t *testing.T) {
	e := newTestEngine(t, nil)
	meta := map[string]interface{}{"timestamp": daysAgo(3), "confidence_score": 0.6}
	candidates := []Candidate{
		{ID: "a", Distance: 0.2, Metadata: meta},
		{ID: "b", Distance: 0.2, Metadata: meta},
		{ID: "c", Distance: 0.2, Metadata: meta},
	}
	for run := 0; run < 5; run++ {
		results := e.Rank(candidates)
		for i, want := range []string{"a", "b", "c"} {
			if results[i].ChunkID != want {
				t.Fatalf("run %d: position %d = %s, want %s", run, i, results[i].ChunkID, want)
			}
		}
	}
}

func TestEngine_RankEmpty(t *testing.T) {
	e := newTestEngine(t, nil)
	results := e.Rank(nil)
	if results == nil || len(results) != 0 {
		t.Errorf("Rank(nil) = %v, want empty slice", results)
	}
}

func TestEngine_RankHybridDisabled(t *testing.T) {
	cfg := DefaultRankingConfig()
	cfg.EnableHybridRanking = false
	e := newTestEngine(t, cfg)
	results := e.Rank([]Candidate{
		{ID: "pinned", Distance: 0.4, Metadata: map[string]interface{}{"pinned": true}},
		{ID: "close", Distance: 0.1},
	})
	if results[0].ChunkID != "close" {
		t.Errorf("hybrid disabled should order by similarity, got %s first", results[0].ChunkID)
	}
	if math.Abs(results[0].FinalScore-0.9) > 1e-9 {
		t.Errorf("final = %v, want semantic 0.9", results[0].FinalScore)
	}
	if results[1].Breakdown.Priority != 1.0 {
		t.Errorf("breakdown should still report priority, got %v", results[1].Breakdown.Priority)
	}
}

func TestEngine_RankMalformedMetadataDegrades(t *testing.T) {
	e := newTestEngine(t, nil)
	results := e.Rank([]Candidate{{
		ID:       "bad",
		Distance: 0.2,
		Metadata: map[string]interface{}{"timestamp": "yesterday-ish", "pinned": "maybe"},
	}})
	r := results[0]
	if r.Breakdown.Recency != 1.0 || r.Breakdown.Confidence != DefaultConfidence || r.Breakdown.Priority != 0 {
		t.Errorf("unexpected defaults: %+v", r.Breakdown)
	}
	want := map[string]bool{"recency": true, "confidence": true, "priority": true}
	for _, d := range r.Degraded {
		delete(want, d)
	}
	if len(want) != 0 {
		t.Errorf("degraded = %v, missing %v", r.Degraded, want)
	}
}

func TestEngine_MinConfidenceThreshold(t *testing.T) {
	cfg := DefaultRankingConfig()
	cfg.MinConfidenceThreshold = 0.5
	e := newTestEngine(t, cfg)
	results := e.Rank([]Candidate{
		{ID: "low", Distance: 0.1, Metadata: map[string]interface{}{"timestamp": daysAgo(1), "confidence_score": 0.1}},
		{ID: "ok", Distance: 0.1, Metadata: map[string]interface{}{"timestamp": daysAgo(1), "confidence_score": 0.5}},
	})
	if len(results) != 2 {
		t.Fatalf("floor must not drop candidates, got %d", len(results))
	}
	if results[0].ChunkID != "ok" || !results[1].BelowConfidenceFloor {
		t.Errorf("low-confidence candidate should be down-ranked: %+v", results)
	}
}

func TestEngine_RankBySimilarity(t *testing.T) {
	e := newTestEngine(t, nil)
	results := e.RankBySimilarity([]Candidate{
		{ID: "far-pinned", Distance: 0.6, Metadata: map[string]interface{}{"pinned": true}},
		{ID: "near", Distance: 0.05},
		{ID: "mid", Distance: 0.3},
	})
	got := []string{results[0].ChunkID, results[1].ChunkID, results[2].ChunkID}
	want := []string{"near", "mid", "far-pinned"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestEngine_AdaptiveCandidateCount(t *testing.T) {
	e := newTestEngine(t, &RankingConfig{InitialCandidates: 50, RecencyDecayDays: 30})
	tests := []struct {
		name      string
		total     int
		requested int
		check     func(n int) bool
	}{
		{"large corpus", 1000, 5, func(n int) bool { return n >= 15 && n <= 50 }},
		{"corpus smaller than floor", 3, 5, func(n int) bool { return n == 3 }},
		{"corpus between floor and cap", 30, 5, func(n int) bool { return n == 30 }},
		{"corpus below floor but above cap", 55, 20, func(n int) bool { return n == 50 }},
		{"request larger than cap", 200, 100, func(n int) bool { return n == 50 }},
		{"empty corpus", 0, 5, func(n int) bool { return n == 0 }},
		{"zero requested", 100, 0, func(n int) bool { return n == 0 }},
		{"floor above cap is capped", 1000, 40, func(n int) bool { return n == 50 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.AdaptiveCandidateCount(tt.total, tt.requested)
			if !tt.check(got) {
				t.Errorf("AdaptiveCandidateCount(%d, %d) = %d", tt.total, tt.requested, got)
			}
		})
	}
}
