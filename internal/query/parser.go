package query

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hyperjump/kioku/internal/dimensions"
)

// dimensionAliases maps words that may follow "high"/"low" to dimension names.
var dimensionAliases = map[string]string{
	"utility":         dimensions.Utility,
	"usefulness":      dimensions.Utility,
	"credibility":     dimensions.Credibility,
	"trust":           dimensions.Credibility,
	"novelty":         dimensions.Novelty,
	"depth":           dimensions.TechnicalDepth,
	"technical_depth": dimensions.TechnicalDepth,
	"complexity":      dimensions.Complexity,
	"impact":          dimensions.MarketImpact,
	"market_impact":   dimensions.MarketImpact,
	"roi":             dimensions.ROIPotential,
	"roi_potential":   dimensions.ROIPotential,
	"risk":            dimensions.Danger,
	"danger":          dimensions.Danger,
	"compliance":      dimensions.ComplianceRisk,
	"compliance_risk": dimensions.ComplianceRisk,
	"liability":       dimensions.Liability,
}

type filterRule struct {
	re *regexp.Regexp
	// dimension and level are fixed for keyword rules; level rules read them from submatches.
	dimension string
	level     Level
	leveled   bool
	// generic rules accept only words that resolve to a dimension.
	generic bool
}

var filterRules = buildFilterRules()

func buildFilterRules() []filterRule {
	aliases := make([]string, 0, len(dimensionAliases))
	for a := range dimensionAliases {
		aliases = append(aliases, regexp.QuoteMeta(a))
	}
	// Longest first so "technical_depth" wins over "depth".
	sort.Slice(aliases, func(i, j int) bool { return len(aliases[i]) > len(aliases[j]) })

	keyword := func(pattern, dim string, level Level) filterRule {
		return filterRule{re: regexp.MustCompile(`(?i)\b(?:` + pattern + `)\b`), dimension: dim, level: level}
	}
	return []filterRule{
		// "high risk", "low-utility": known dimension after a space or hyphen.
		{re: regexp.MustCompile(`(?i)\b(high|low)[- ](` + strings.Join(aliases, "|") + `)\b`), leveled: true},
		// "high-<word>": hyphenated form for dimensions outside the space-separated alias rule.
		{re: regexp.MustCompile(`(?i)\b(high|low)-([a-z][a-z_]*)\b`), leveled: true, generic: true},
		keyword(`useful`, dimensions.Utility, High),
		keyword(`safe`, dimensions.Danger, Low),
		keyword(`risky|dangerous`, dimensions.Danger, High),
		keyword(`simple|easy|straightforward`, dimensions.Complexity, Low),
		keyword(`complex|advanced`, dimensions.Complexity, High),
		keyword(`innovative|novel|cutting[- ]edge`, dimensions.Novelty, High),
		keyword(`credible|reliable|trustworthy`, dimensions.Credibility, High),
	}
}

// intentTriggers maps trigger words to intents. Multi-word triggers are matched on adjacent tokens.
var intentTriggers = map[string]Intent{
	"find":       IntentSearch,
	"search":     IntentSearch,
	"show":       IntentSearch,
	"lookup":     IntentSearch,
	"look for":   IntentSearch,
	"filter":     IntentFilter,
	"by":         IntentFilter,
	"only":       IntentFilter,
	"compare":    IntentCompare,
	"comparison": IntentCompare,
	"versus":     IntentCompare,
	"vs":         IntentCompare,
	"analyze":    IntentAnalyze,
	"analyse":    IntentAnalyze,
	"analysis":   IntentAnalyze,
	"evaluate":   IntentAnalyze,
	"assess":     IntentAnalyze,
	"summarize":  IntentSummarize,
	"summarise":  IntentSummarize,
	"summary":    IntentSummarize,
	"overview":   IntentSummarize,
	"recap":      IntentSummarize,
}

var profileKeywords = map[string]dimensions.Profile{
	"research":      dimensions.Researcher,
	"researcher":    dimensions.Researcher,
	"methodology":   dimensions.Researcher,
	"methodologies": dimensions.Researcher,
	"study":         dimensions.Researcher,
	"studies":       dimensions.Researcher,
	"paper":         dimensions.Researcher,
	"papers":        dimensions.Researcher,
	"academic":      dimensions.Researcher,
	"scientific":    dimensions.Researcher,
	"market":        dimensions.Business,
	"markets":       dimensions.Business,
	"roi":           dimensions.Business,
	"revenue":       dimensions.Business,
	"business":      dimensions.Business,
	"sales":         dimensions.Business,
	"legal":         dimensions.Legal,
	"compliance":    dimensions.Legal,
	"contract":      dimensions.Legal,
	"contracts":     dimensions.Legal,
	"regulation":    dimensions.Legal,
	"regulations":   dimensions.Legal,
	"regulatory":    dimensions.Legal,
}

var connectorWords = map[string]bool{"and": true, "or": true, "&": true, "but": true}

// Confidence contributed by each recognized signal.
const (
	filterSignalWeight  = 0.2
	intentSignalWeight  = 0.2
	profileSignalWeight = 0.1
)

// Parser turns free text into a ParsedQuery. It is read-only after construction and safe for concurrent use.
type Parser struct {
	dimensions map[string]bool
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithDimensions lets the hyphenated form name these dimensions in addition to the built-in ones,
// e.g. custom dimensions from a profiles file.
func WithDimensions(names ...string) ParserOption {
	return func(p *Parser) {
		for _, n := range names {
			if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
				p.dimensions[n] = true
			}
		}
	}
}

// NewParser creates a new Parser.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{dimensions: map[string]bool{}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type span struct {
	start, end int
	dimension  string
	level      Level
}

// Parse extracts filters, intent and profile hint from query and strips filter phrases.
func (p *Parser) Parse(query string) ParsedQuery {
	result := ParsedQuery{
		OriginalQuery:    query,
		Intent:           IntentSearch,
		DimensionFilters: map[string]Level{},
	}

	spans := p.extractFilters(query)
	for _, s := range spans {
		// Spans are in query order, so later phrases override earlier ones.
		result.DimensionFilters[s.dimension] = s.level
	}
	result.CleanQuery = cleanQuery(query, spans)

	tokens := tokenize(result.CleanQuery)
	intent, intentHits := classifyIntent(tokens)
	result.Intent = intent
	hint := detectProfile(tokens)
	result.ProfileHint = hint

	confidence := filterSignalWeight*float64(len(result.DimensionFilters)) +
		intentSignalWeight*float64(intentHits)
	if hint != "" {
		confidence += profileSignalWeight
	}
	if confidence > 1 {
		confidence = 1
	}
	result.Confidence = confidence
	return result
}

// extractFilters returns non-overlapping filter matches ordered by position.
// Overlaps resolve to the earlier, then longer, match. Matches joined to a neighbouring word
// ("thread-safe", "low-risk-adjusted") are not filters.
func (p *Parser) extractFilters(query string) []span {
	var all []span
	for _, rule := range filterRules {
		for _, m := range rule.re.FindAllStringSubmatchIndex(query, -1) {
			if !standalone(query, m[0], m[1]) {
				continue
			}
			s := span{start: m[0], end: m[1], dimension: rule.dimension, level: rule.level}
			if rule.leveled {
				levelWord := strings.ToLower(query[m[2]:m[3]])
				dimWord := strings.ToLower(query[m[4]:m[5]])
				s.level = Low
				if levelWord == "high" {
					s.level = High
				}
				dim, ok := p.resolveDimension(dimWord)
				if !ok && rule.generic {
					continue
				}
				s.dimension = dim
			}
			all = append(all, s)
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].start != all[j].start {
			return all[i].start < all[j].start
		}
		return all[i].end-all[i].start > all[j].end-all[j].start
	})
	accepted := make([]span, 0, len(all))
	lastEnd := -1
	for _, s := range all {
		if s.start < lastEnd {
			continue
		}
		accepted = append(accepted, s)
		lastEnd = s.end
	}
	return accepted
}

// standalone reports whether query[start:end] is not glued to a neighbour by a hyphen or word character.
func standalone(query string, start, end int) bool {
	if start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(query[:start]); isWordRune(r) {
			return false
		}
	}
	if end < len(query) {
		if r, _ := utf8.DecodeRuneInString(query[end:]); isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '-' || r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// resolveDimension maps the word after "high"/"low" to a dimension: a known alias, a dimension
// registered with WithDimensions, or a near miss of an alias ("utilty"). Anything else is not a dimension.
func (p *Parser) resolveDimension(word string) (string, bool) {
	if dim, ok := dimensionAliases[word]; ok {
		return dim, true
	}
	if p.dimensions[word] {
		return word, true
	}
	return nearestAlias(word)
}

// cleanQuery removes filter spans. Connector words left alone between two filters and
// punctuation-only tokens are dropped; every other word is kept.
func cleanQuery(query string, spans []span) string {
	if len(spans) == 0 {
		return strings.Join(strings.Fields(query), " ")
	}
	parts := make([]string, 0, len(spans)+1)
	prev := 0
	for i, s := range spans {
		seg := query[prev:s.start]
		if i > 0 && onlyConnectors(seg) {
			seg = ""
		}
		parts = append(parts, seg)
		prev = s.end
	}
	parts = append(parts, query[prev:])

	var out []string
	for _, field := range strings.Fields(strings.Join(parts, " ")) {
		if strings.TrimFunc(field, isPunct) == "" {
			continue
		}
		out = append(out, field)
	}
	return strings.Join(out, " ")
}

func onlyConnectors(seg string) bool {
	for _, field := range strings.Fields(seg) {
		word := strings.ToLower(strings.TrimFunc(field, isPunct))
		if word != "" && !connectorWords[word] {
			return false
		}
	}
	return true
}

func isPunct(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

// tokenize lowercases words and trims edge punctuation.
func tokenize(text string) []string {
	fields := strings.Fields(text)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		t := strings.ToLower(strings.TrimFunc(f, func(r rune) bool {
			return isPunct(r) && r != '-' && r != '_'
		}))
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// classifyIntent returns the intent of the first trigger in query order and the number of distinct trigger words.
func classifyIntent(tokens []string) (Intent, int) {
	intent := IntentSearch
	found := false
	seen := map[string]bool{}
	for i := 0; i < len(tokens); i++ {
		word := tokens[i]
		if i+1 < len(tokens) {
			if in, ok := intentTriggers[word+" "+tokens[i+1]]; ok {
				word = word + " " + tokens[i+1]
				if !found {
					intent, found = in, true
				}
				seen[word] = true
				i++
				continue
			}
		}
		if in, ok := intentTriggers[word]; ok {
			if !found {
				intent, found = in, true
			}
			seen[word] = true
		}
	}
	return intent, len(seen)
}

// detectProfile returns the profile with the most keyword hits; ties go to the earliest hit.
func detectProfile(tokens []string) string {
	counts := map[dimensions.Profile]int{}
	first := map[dimensions.Profile]int{}
	for i, tok := range tokens {
		p, ok := profileKeywords[tok]
		if !ok {
			continue
		}
		if counts[p] == 0 {
			first[p] = i
		}
		counts[p]++
	}
	best, bestCount := dimensions.General, 0
	for p, c := range counts {
		if c > bestCount || (c == bestCount && first[p] < first[best]) {
			best, bestCount = p, c
		}
	}
	if bestCount == 0 {
		return ""
	}
	return best.String()
}
