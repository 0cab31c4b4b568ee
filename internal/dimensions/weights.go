package dimensions

import "sort"

// Dimension names used by the built-in profiles and the query parser.
const (
	Utility        = "utility"
	Credibility    = "credibility"
	Novelty        = "novelty"
	TechnicalDepth = "technical_depth"
	Complexity     = "complexity"
	MarketImpact   = "market_impact"
	ROIPotential   = "roi_potential"
	Danger         = "danger"
	ComplianceRisk = "compliance_risk"
	Liability      = "liability"
)

// DimensionWeights maps a dimension name to its weight for one profile.
// Weights are additive emphasis and need not sum to 1.
type DimensionWeights map[string]float64

// Names returns the dimension names in sorted order.
func (w DimensionWeights) Names() []string {
	names := make([]string, 0, len(w))
	for name := range w {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (w DimensionWeights) clone() DimensionWeights {
	out := make(DimensionWeights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// DefaultProfileWeights returns the built-in dimension sets.
func DefaultProfileWeights() map[Profile]DimensionWeights {
	return map[Profile]DimensionWeights{
		General: {
			Utility:     1.0,
			Credibility: 1.0,
		},
		Researcher: {
			Novelty:        1.0,
			TechnicalDepth: 0.9,
			Credibility:    0.7,
			Complexity:     0.3,
		},
		Business: {
			MarketImpact: 1.0,
			ROIPotential: 0.9,
			Utility:      0.6,
			Danger:       0.3,
		},
		Legal: {
			ComplianceRisk: 1.0,
			Liability:      0.9,
			Credibility:    0.6,
			Danger:         0.4,
		},
	}
}
