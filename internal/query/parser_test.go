package query

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParser_ParseFilters(t *testing.T) {
	p := NewParser()

	tests := []struct {
		name        string
		query       string
		wantFilters map[string]Level
	}{
		{
			name:        "hyphenated pair",
			query:       "find high-utility, low-risk research papers",
			wantFilters: map[string]Level{"utility": High, "danger": Low},
		},
		{
			name:        "single keywords",
			query:       "simple innovative designs",
			wantFilters: map[string]Level{"complexity": Low, "novelty": High},
		},
		{
			name:        "novel maps to novelty",
			query:       "novel approaches to caching",
			wantFilters: map[string]Level{"novelty": High},
		},
		{
			name:        "space separated known dimension",
			query:       "high risk investments",
			wantFilters: map[string]Level{"danger": High},
		},
		{
			name:        "later phrase overrides earlier",
			query:       "low-risk or risky bets",
			wantFilters: map[string]Level{"danger": High},
		},
		{
			name:        "generic hyphenated dimension",
			query:       "high-novelty and low-liability contracts",
			wantFilters: map[string]Level{"novelty": High, "liability": Low},
		},
		{
			name:        "case insensitive",
			query:       "HIGH-UTILITY notes",
			wantFilters: map[string]Level{"utility": High},
		},
		{
			name:        "no filters",
			query:       "papers",
			wantFilters: map[string]Level{},
		},
		{
			name:        "keyword inside hyphenated word",
			query:       "find thread-safe queues",
			wantFilters: map[string]Level{},
		},
		{
			name:        "keyword ending a compound",
			query:       "fail-safe defaults",
			wantFilters: map[string]Level{},
		},
		{
			name:        "compound adjective is not a dimension",
			query:       "find low-level memory allocators",
			wantFilters: map[string]Level{},
		},
		{
			name:        "high-quality is content",
			query:       "high-quality sources",
			wantFilters: map[string]Level{},
		},
		{
			name:        "filter glued to a longer compound",
			query:       "low-risk-adjusted returns",
			wantFilters: map[string]Level{},
		},
		{
			name:        "filter next to punctuation",
			query:       "(safe) options",
			wantFilters: map[string]Level{"danger": Low},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Parse(tt.query)
			if len(got.DimensionFilters) != len(tt.wantFilters) {
				t.Fatalf("filters = %v, want %v", got.DimensionFilters, tt.wantFilters)
			}
			for dim, level := range tt.wantFilters {
				if got.DimensionFilters[dim] != level {
					t.Errorf("filter %s = %v, want %v", dim, got.DimensionFilters[dim], level)
				}
			}
		})
	}
}

func TestParser_CleanQuery(t *testing.T) {
	p := NewParser()

	tests := []struct {
		query string
		want  string
	}{
		{"find high-utility, low-risk research papers", "find research papers"},
		{"high-novelty and low-liability contracts", "contracts"},
		{"papers", "papers"},
		{"  spaced   out   words ", "spaced out words"},
		{"high school notes", "high school notes"},
		{"find thread-safe queues", "find thread-safe queues"},
		{"fail-safe defaults", "fail-safe defaults"},
		{"find low-level memory allocators", "find low-level memory allocators"},
		{"high-quality sources", "high-quality sources"},
		{"easy-going teams", "easy-going teams"},
		{"simple", ""},
	}
	for _, tt := range tests {
		got := p.Parse(tt.query).CleanQuery
		if got != tt.want {
			t.Errorf("Parse(%q).CleanQuery = %q, want %q", tt.query, got, tt.want)
		}
	}

	parsed := p.Parse("find high-utility, low-risk research papers")
	for _, word := range []string{"find", "papers"} {
		if !strings.Contains(parsed.CleanQuery, word) {
			t.Errorf("clean query %q lost %q", parsed.CleanQuery, word)
		}
	}
	for _, phrase := range []string{"high-utility", "low-risk"} {
		if strings.Contains(parsed.CleanQuery, phrase) {
			t.Errorf("clean query %q still has %q", parsed.CleanQuery, phrase)
		}
	}
}

func TestParser_Intent(t *testing.T) {
	p := NewParser()

	tests := []struct {
		query string
		want  Intent
	}{
		{"find notes about go", IntentSearch},
		{"notes about go", IntentSearch},
		{"filter memories by source", IntentFilter},
		{"compare postgres and sqlite", IntentCompare},
		{"postgres vs sqlite", IntentCompare},
		{"analyze last quarter", IntentAnalyze},
		{"summarize the meeting", IntentSummarize},
		{"look for travel plans", IntentSearch},
		{"summarize then compare", IntentSummarize},
	}
	for _, tt := range tests {
		if got := p.Parse(tt.query).Intent; got != tt.want {
			t.Errorf("Parse(%q).Intent = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestParser_ProfileHint(t *testing.T) {
	p := NewParser()

	tests := []struct {
		query string
		want  string
	}{
		{"research methodology notes", "researcher"},
		{"market sizing and ROI", "business"},
		{"compliance checklist", "legal"},
		{"legal review of the market study", "legal"},
		{"recent papers on caching", "researcher"},
		{"paper", "researcher"},
		{"grocery list", ""},
	}
	for _, tt := range tests {
		if got := p.Parse(tt.query).ProfileHint; got != tt.want {
			t.Errorf("Parse(%q).ProfileHint = %q, want %q", tt.query, got, tt.want)
		}
	}
}

func TestParser_Confidence(t *testing.T) {
	p := NewParser()

	bare := p.Parse("papers")
	rich := p.Parse("find high-utility, low-risk research papers for analysis")
	if !(bare.Confidence < rich.Confidence) {
		t.Errorf("confidence ordering: bare %v, rich %v", bare.Confidence, rich.Confidence)
	}
	for _, q := range []string{
		"",
		"papers",
		"find search show compare analyze summarize high-utility low-risk simple novel credible risky research market legal",
	} {
		c := p.Parse(q).Confidence
		if c < 0 || c > 1 {
			t.Errorf("Parse(%q).Confidence = %v out of [0,1]", q, c)
		}
	}
}

func TestParsedQuery_SearchText(t *testing.T) {
	p := NewParser()
	if got := p.Parse("simple").SearchText(); got != "simple" {
		t.Errorf("all-filter query should fall back to original, got %q", got)
	}
	if got := p.Parse("simple recipes").SearchText(); got != "recipes" {
		t.Errorf("SearchText = %q, want recipes", got)
	}
}

func TestParsedQuery_JSON(t *testing.T) {
	data, err := json.Marshal(NewParser().Parse("compare low-risk funds"))
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	if !strings.Contains(s, `"intent":"COMPARE"`) || !strings.Contains(s, `"danger":"LOW"`) {
		t.Errorf("unexpected JSON: %s", s)
	}
}

func TestParser_WithDimensions(t *testing.T) {
	plain := NewParser().Parse("low-sustainability plans")
	if len(plain.DimensionFilters) != 0 || plain.CleanQuery != "low-sustainability plans" {
		t.Errorf("unknown dimension should stay content, got filters %v clean %q",
			plain.DimensionFilters, plain.CleanQuery)
	}

	custom := NewParser(WithDimensions("Sustainability", " ")).Parse("low-sustainability plans")
	if custom.DimensionFilters["sustainability"] != Low || len(custom.DimensionFilters) != 1 {
		t.Errorf("filters = %v, want sustainability LOW", custom.DimensionFilters)
	}
	if custom.CleanQuery != "plans" {
		t.Errorf("CleanQuery = %q, want plans", custom.CleanQuery)
	}
}
