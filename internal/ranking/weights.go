package ranking

import "math"

// RankingWeights sets the relative importance of the four factors.
type RankingWeights struct {
	Semantic   float64 `yaml:"semantic" json:"semantic"`
	Recency    float64 `yaml:"recency" json:"recency"`
	Confidence float64 `yaml:"confidence" json:"confidence"`
	Priority   float64 `yaml:"priority" json:"priority"`
}

// DefaultRankingWeights returns the default weights. They already sum to 1.
func DefaultRankingWeights() RankingWeights {
	return RankingWeights{
		Semantic:   0.5,
		Recency:    0.2,
		Confidence: 0.15,
		Priority:   0.15,
	}
}

// Sum returns the total of the four weights.
func (w RankingWeights) Sum() float64 {
	return w.Semantic + w.Recency + w.Confidence + w.Priority
}

// Get returns the weight for f.
func (w RankingWeights) Get(f Factor) float64 {
	switch f {
	case FactorSemantic:
		return w.Semantic
	case FactorRecency:
		return w.Recency
	case FactorConfidence:
		return w.Confidence
	case FactorPriority:
		return w.Priority
	default:
		return 0
	}
}

// Validate reports negative, NaN or all-zero weights.
func (w RankingWeights) Validate() error {
	for _, f := range Factors {
		v := w.Get(f)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return configErrorf("%s weight is not a finite number", f)
		}
		if v < 0 {
			return configErrorf("%s weight must be >= 0, got %v", f, v)
		}
	}
	if w.Sum() == 0 {
		return configErrorf("all ranking weights are zero")
	}
	return nil
}

// Normalize returns a copy scaled so the four weights sum to 1.
func (w RankingWeights) Normalize() (RankingWeights, error) {
	if err := w.Validate(); err != nil {
		return RankingWeights{}, err
	}
	sum := w.Sum()
	return RankingWeights{
		Semantic:   w.Semantic / sum,
		Recency:    w.Recency / sum,
		Confidence: w.Confidence / sum,
		Priority:   w.Priority / sum,
	}, nil
}
