// Package ranking scores memory candidates by a weighted blend of similarity,
// recency, confidence and priority.
package ranking

// Factor identifies one of the four signals the engine combines.
type Factor int

const (
	// FactorSemantic is similarity to the query derived from vector distance.
	FactorSemantic Factor = iota
	// FactorRecency is exponential age decay.
	FactorRecency
	// FactorConfidence is stated source trustworthiness.
	FactorConfidence
	// FactorPriority is user-assigned priority (pinning, explicit priority).
	FactorPriority
)

// String returns a string representation of the factor.
func (f Factor) String() string {
	switch f {
	case FactorSemantic:
		return "semantic"
	case FactorRecency:
		return "recency"
	case FactorConfidence:
		return "confidence"
	case FactorPriority:
		return "priority"
	default:
		return "unknown"
	}
}

// Factors lists every factor in breakdown order.
var Factors = []Factor{FactorSemantic, FactorRecency, FactorConfidence, FactorPriority}

// Candidate is a memory returned by the vector index before ranking.
type Candidate struct {
	ID       string
	Content  string
	Metadata map[string]interface{}
	// Distance is the index metric; 0 means identical.
	Distance float64
}

// Breakdown holds the per-factor scores behind a final score. All values are in [0,1].
type Breakdown struct {
	Semantic   float64 `json:"semantic"`
	Recency    float64 `json:"recency"`
	Confidence float64 `json:"confidence"`
	Priority   float64 `json:"priority"`
	Final      float64 `json:"final"`
}

// Get returns the score recorded for f.
func (b Breakdown) Get(f Factor) float64 {
	switch f {
	case FactorSemantic:
		return b.Semantic
	case FactorRecency:
		return b.Recency
	case FactorConfidence:
		return b.Confidence
	case FactorPriority:
		return b.Priority
	default:
		return 0
	}
}

// Map returns the breakdown keyed by factor name plus "final".
func (b Breakdown) Map() map[string]float64 {
	m := make(map[string]float64, len(Factors)+1)
	for _, f := range Factors {
		m[f.String()] = b.Get(f)
	}
	m["final"] = b.Final
	return m
}

// RankedResult is a scored candidate. It is built per query and never persisted.
type RankedResult struct {
	ChunkID    string
	Content    string
	Metadata   map[string]interface{}
	FinalScore float64
	Breakdown  Breakdown
	// Degraded names the signals that fell back to a default because metadata was missing or malformed.
	Degraded []string
	// BelowConfidenceFloor is set when the confidence score fell under MinConfidenceThreshold.
	BelowConfidenceFloor bool
}
