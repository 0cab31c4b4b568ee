package retrieval

import (
	"container/list"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/query"
)

// DefaultCacheSize is the number of search responses kept when caching is enabled.
const DefaultCacheSize = 256

type cachedResponse struct {
	results []models.RankedMemory
	status  models.SearchStatus
}

// ResultCache is an LRU of search responses. Invalidate drops everything and advances the
// generation; put ignores entries computed under an older generation so a search racing an
// invalidation cannot repopulate stale results.
type ResultCache struct {
	capacity   int
	entries    map[string]*list.Element
	lru        *list.List
	generation uint64
	mu         sync.Mutex
}

type resultEntry struct {
	key   string
	value cachedResponse
}

// NewResultCache creates a cache holding up to capacity responses.
func NewResultCache(capacity int) *ResultCache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	return &ResultCache{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Generation returns the current generation. Capture it before computing a response to Put.
func (c *ResultCache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

func (c *ResultCache) get(key string) (cachedResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.entries[key]
	if !ok {
		return cachedResponse{}, false
	}
	c.lru.MoveToFront(elem)
	v := elem.Value.(*resultEntry).value
	v.results = append([]models.RankedMemory(nil), v.results...)
	return v, true
}

func (c *ResultCache) put(key string, generation uint64, value cachedResponse) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation != c.generation {
		return false
	}
	value.results = append([]models.RankedMemory(nil), value.results...)
	if elem, ok := c.entries[key]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*resultEntry).value = value
		return true
	}
	c.entries[key] = c.lru.PushFront(&resultEntry{key: key, value: value})
	if c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		c.lru.Remove(oldest)
		delete(c.entries, oldest.Value.(*resultEntry).key)
	}
	return true
}

// Invalidate removes every entry and advances the generation.
func (c *ResultCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.entries = make(map[string]*list.Element)
	c.lru.Init()
}

// Len returns the number of cached responses.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// cacheKey identifies a search by everything that affects its result.
func cacheKey(req models.SearchRequest, parsed query.ParsedQuery, profile string, version uint64) string {
	dims := make([]string, 0, len(parsed.DimensionFilters))
	for d := range parsed.DimensionFilters {
		dims = append(dims, d)
	}
	sort.Strings(dims)

	var b strings.Builder
	b.WriteString(strconv.FormatUint(version, 10))
	b.WriteByte('|')
	b.WriteString(string(req.Strategy))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(req.MaxResults))
	b.WriteByte('|')
	b.WriteString(profile)
	b.WriteByte('|')
	for _, d := range dims {
		b.WriteString(d)
		b.WriteByte('=')
		b.WriteString(parsed.DimensionFilters[d].String())
		b.WriteByte(',')
	}
	b.WriteByte('|')
	b.WriteString(req.Query)
	b.WriteByte('|')
	b.WriteString(req.NaturalLanguageFilters)
	return b.String()
}
