package retrieval

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hyperjump/kioku/internal/dimensions"
	"github.com/hyperjump/kioku/internal/query"
	"github.com/hyperjump/kioku/internal/ranking"
)

// dominantFactors is how many weighted factors an explanation names.
const dominantFactors = 2

type filterOutcome struct {
	Dimension string
	Level     query.Level
	Score     float64
	// Present is false when the memory has no score for Dimension; absent dimensions are neutral.
	Present bool
	Passed  bool
}

// applyFilters evaluates each filter against dims in dimension-name order and returns the outcomes
// and the combined multiplier.
func applyFilters(filters map[string]query.Level, dims dimensions.ChunkDimensions, penalty float64) ([]filterOutcome, float64) {
	if len(filters) == 0 {
		return nil, 1
	}
	names := make([]string, 0, len(filters))
	for d := range filters {
		names = append(names, d)
	}
	sort.Strings(names)

	multiplier := 1.0
	outcomes := make([]filterOutcome, 0, len(names))
	for _, d := range names {
		o := filterOutcome{Dimension: d, Level: filters[d]}
		score, ok := dims.Scores[d]
		if !ok {
			o.Passed = true
			outcomes = append(outcomes, o)
			continue
		}
		o.Present = true
		o.Score = score
		if o.Level == query.High {
			o.Passed = score >= FilterThreshold
		} else {
			o.Passed = score < FilterThreshold
		}
		if !o.Passed {
			multiplier *= penalty
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, multiplier
}

type factorShare struct {
	name  string
	value float64
}

func topFactors(weights ranking.RankingWeights, b ranking.Breakdown) []factorShare {
	shares := make([]factorShare, 0, len(ranking.Factors))
	for _, f := range ranking.Factors {
		if v := weights.Get(f) * b.Get(f); v > 0 {
			shares = append(shares, factorShare{name: f.String(), value: v})
		}
	}
	sort.SliceStable(shares, func(i, j int) bool { return shares[i].value > shares[j].value })
	if len(shares) > dominantFactors {
		shares = shares[:dominantFactors]
	}
	return shares
}

func explainHybrid(
	profile string,
	weights ranking.RankingWeights,
	r ranking.RankedResult,
	bonus dimensions.BonusResult,
	filters []filterOutcome,
	penalty float64,
) string {
	parts := []string{"profile " + profile}

	if shares := topFactors(weights, r.Breakdown); len(shares) > 0 {
		named := make([]string, len(shares))
		for i, s := range shares {
			named[i] = fmt.Sprintf("%s %.2f", s.name, s.value)
		}
		parts = append(parts, "driven by "+strings.Join(named, " and "))
	}

	if len(bonus.Matched) > 0 {
		named := make([]string, len(bonus.Matched))
		for i, d := range bonus.Matched {
			named[i] = fmt.Sprintf("%s %.2f", d, bonus.Contributions[d])
		}
		parts = append(parts, fmt.Sprintf("dimensions %s (bonus %.2f)", strings.Join(named, ", "), bonus.Bonus))
	} else {
		parts = append(parts, "no matching dimension scores")
	}

	for _, f := range filters {
		switch {
		case !f.Present:
			parts = append(parts, fmt.Sprintf("filter %s %s not scored", f.Dimension, f.Level))
		case f.Passed:
			parts = append(parts, fmt.Sprintf("filter %s %s passed (%.2f)", f.Dimension, f.Level, f.Score))
		default:
			parts = append(parts, fmt.Sprintf("filter %s %s failed (%.2f, x%.2f)", f.Dimension, f.Level, f.Score, penalty))
		}
	}

	if r.BelowConfidenceFloor {
		parts = append(parts, fmt.Sprintf("below confidence floor (%.2f)", r.Breakdown.Confidence))
	}
	if len(r.Degraded) > 0 {
		parts = append(parts, "defaulted "+strings.Join(r.Degraded, ", "))
	}
	return strings.Join(parts, "; ")
}

func explainVectorOnly(r ranking.RankedResult) string {
	s := fmt.Sprintf("vector only; semantic similarity %.2f", r.Breakdown.Semantic)
	if len(r.Degraded) > 0 {
		s += "; defaulted " + strings.Join(r.Degraded, ", ")
	}
	return s
}
