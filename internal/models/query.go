package models

import "strings"

// Strategy selects how candidates are ordered.
type Strategy string

const (
	// StrategyHybrid applies hybrid ranking, dimension weighting and filters.
	StrategyHybrid Strategy = "HYBRID"
	// StrategyVectorOnly orders candidates by semantic similarity alone.
	StrategyVectorOnly Strategy = "VECTOR_ONLY"
)

// Search request limits.
const (
	DefaultMaxResults = 10
	MaxMaxResults     = 100
)

// SearchRequest is a retrieval request.
type SearchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"`
	// Profile overrides the parsed profile hint when set.
	Profile string `json:"profile,omitempty"`
	// NaturalLanguageFilters is parsed instead of Query when set.
	NaturalLanguageFilters string   `json:"natural_language_filters,omitempty"`
	Strategy               Strategy `json:"strategy,omitempty"`
}

// Validate ensures the request has a query and normalizes limits and strategy.
func (r *SearchRequest) Validate() error {
	r.Query = strings.TrimSpace(r.Query)
	if r.Query == "" {
		return &ValidationError{Field: "query", Message: "query cannot be empty"}
	}
	if r.MaxResults <= 0 {
		r.MaxResults = DefaultMaxResults
	}
	if r.MaxResults > MaxMaxResults {
		r.MaxResults = MaxMaxResults
	}
	switch Strategy(strings.ToUpper(string(r.Strategy))) {
	case "", StrategyHybrid:
		r.Strategy = StrategyHybrid
	case StrategyVectorOnly:
		r.Strategy = StrategyVectorOnly
	default:
		return &ValidationError{Field: "strategy", Message: "strategy must be HYBRID or VECTOR_ONLY"}
	}
	return nil
}
