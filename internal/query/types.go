// Package query parses free-text retrieval queries into dimension filters, an intent and a profile hint.
package query

import (
	"fmt"
	"strings"
)

// Intent is the single-label classification of what the user wants done with results.
type Intent int

const (
	// IntentSearch is the default when no trigger word matches.
	IntentSearch Intent = iota
	IntentFilter
	IntentCompare
	IntentAnalyze
	IntentSummarize
)

// String returns a string representation of the intent.
func (i Intent) String() string {
	switch i {
	case IntentSearch:
		return "SEARCH"
	case IntentFilter:
		return "FILTER"
	case IntentCompare:
		return "COMPARE"
	case IntentAnalyze:
		return "ANALYZE"
	case IntentSummarize:
		return "SUMMARIZE"
	default:
		return "SEARCH"
	}
}

// MarshalText encodes the intent by name.
func (i Intent) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// Level is the requested direction of a dimension filter.
type Level int

const (
	Low Level = iota
	High
)

// String returns a string representation of the level.
func (l Level) String() string {
	if l == High {
		return "HIGH"
	}
	return "LOW"
}

// MarshalText encodes the level by name.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText decodes HIGH or LOW, case-insensitively.
func (l *Level) UnmarshalText(text []byte) error {
	switch strings.ToUpper(string(text)) {
	case "HIGH":
		*l = High
	case "LOW":
		*l = Low
	default:
		return fmt.Errorf("unknown filter level %q", string(text))
	}
	return nil
}

// ParsedQuery is the structured form of a query. It is recomputed per query.
type ParsedQuery struct {
	OriginalQuery string `json:"original_query"`
	// CleanQuery is OriginalQuery with recognized filter phrases removed.
	CleanQuery       string           `json:"clean_query"`
	Intent           Intent           `json:"intent"`
	DimensionFilters map[string]Level `json:"dimension_filters"`
	// ProfileHint is a profile name, or empty when no profile keywords matched.
	ProfileHint string `json:"profile_hint,omitempty"`
	// Confidence reflects how much structured filter language was recognized, in [0,1].
	Confidence float64 `json:"confidence"`
}

// SearchText returns the text to embed: the clean query, or the original when every word was a filter.
func (p ParsedQuery) SearchText() string {
	if p.CleanQuery != "" {
		return p.CleanQuery
	}
	return p.OriginalQuery
}
