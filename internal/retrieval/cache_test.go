package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/query"
)

func response(ids ...string) cachedResponse {
	results := make([]models.RankedMemory, len(ids))
	for i, id := range ids {
		results[i] = models.RankedMemory{ChunkID: id, Rank: i + 1}
	}
	return cachedResponse{results: results}
}

func TestResultCache_evictsLeastRecentlyUsed(t *testing.T) {
	c := NewResultCache(2)
	gen := c.Generation()
	require.True(t, c.put("a", gen, response("1")))
	require.True(t, c.put("b", gen, response("2")))

	_, ok := c.get("a")
	require.True(t, ok)
	c.put("c", gen, response("3"))

	_, ok = c.get("b")
	assert.False(t, ok, "b was least recently used")
	_, ok = c.get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestResultCache_staleGenerationDropped(t *testing.T) {
	c := NewResultCache(4)
	gen := c.Generation()
	c.Invalidate()
	assert.False(t, c.put("k", gen, response("1")), "results computed before an invalidation must not be stored")
	assert.Equal(t, 0, c.Len())
	assert.True(t, c.put("k", c.Generation(), response("1")))
}

func TestResultCache_copiesResults(t *testing.T) {
	c := NewResultCache(0)
	in := response("1", "2")
	c.put("k", c.Generation(), in)
	in.results[0].ChunkID = "mutated"

	got, ok := c.get("k")
	require.True(t, ok)
	assert.Equal(t, "1", got.results[0].ChunkID)
	got.results[1].ChunkID = "mutated"

	again, _ := c.get("k")
	assert.Equal(t, "2", again.results[1].ChunkID)
}

func TestCacheKey(t *testing.T) {
	parsed := query.ParsedQuery{DimensionFilters: map[string]query.Level{"danger": query.Low, "utility": query.High}}
	reordered := query.ParsedQuery{DimensionFilters: map[string]query.Level{"utility": query.High, "danger": query.Low}}
	req := models.SearchRequest{Query: "vendors", MaxResults: 10, Strategy: models.StrategyHybrid}

	base := cacheKey(req, parsed, "general", 0)
	assert.Equal(t, base, cacheKey(req, reordered, "general", 0))
	assert.NotEqual(t, base, cacheKey(req, parsed, "legal", 0))
	assert.NotEqual(t, base, cacheKey(req, parsed, "general", 1))

	other := req
	other.MaxResults = 5
	assert.NotEqual(t, base, cacheKey(other, parsed, "general", 0))
	other = req
	other.Strategy = models.StrategyVectorOnly
	assert.NotEqual(t, base, cacheKey(other, parsed, "general", 0))
}
