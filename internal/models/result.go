package models

// ScoreBreakdown reports the factors behind a final score, each in [0,1].
type ScoreBreakdown struct {
	Semantic   float64 `json:"semantic"`
	Recency    float64 `json:"recency"`
	Confidence float64 `json:"confidence"`
	Priority   float64 `json:"priority"`
	// Hybrid is the weighted blend before dimension adjustment and filters.
	Hybrid float64 `json:"hybrid"`
	Final  float64 `json:"final"`
}

// RankedMemory is one ranked, explained search hit.
type RankedMemory struct {
	ChunkID           string                 `json:"chunk_id"`
	Content           string                 `json:"content"`
	Metadata          map[string]interface{} `json:"metadata,omitempty"`
	FinalScore        float64                `json:"final_score"`
	Breakdown         ScoreBreakdown         `json:"factor_breakdown"`
	DimensionBonus    float64                `json:"dimension_bonus"`
	MatchedDimensions []string               `json:"matched_dimensions,omitempty"`
	// Degraded names signals that fell back to defaults.
	Degraded             []string `json:"degraded,omitempty"`
	DimensionExplanation string   `json:"dimension_explanation"`
	Rank                 int      `json:"rank"`
}

// SearchStatus describes how a search was served.
type SearchStatus struct {
	Profile  string   `json:"profile"`
	Strategy Strategy `json:"strategy"`
	// Candidates is how many candidates were fetched from the vector index.
	Candidates    int    `json:"candidates"`
	DegradedItems int    `json:"degraded_items"`
	Degraded      bool   `json:"degraded"`
	Reason        string `json:"reason,omitempty"`
	Cached        bool   `json:"cached,omitempty"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Results    []RankedMemory `json:"results"`
	Status     SearchStatus   `json:"status"`
	Query      string         `json:"query"`
	CleanQuery string         `json:"clean_query"`
	QueryTime  int64          `json:"query_time_ms"`
}
