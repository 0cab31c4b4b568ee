package dimensions

import (
	"fmt"
	"math"
	"sort"

	"github.com/hyperjump/kioku/pkg/utils"
)

// DefaultBlendRatio is the share of the final score contributed by the dimension bonus.
// The remaining share comes from the hybrid score.
const DefaultBlendRatio = 0.3

// Metadata keys carrying dimension data.
const (
	KeyDimensionScores     = "dimension_scores"
	KeyDimensionConfidence = "dimension_confidence"
	KeyDimensionProfile    = "dimension_profile"
)

// ChunkDimensions is the typed view of a chunk's dimension metadata.
type ChunkDimensions struct {
	Scores     map[string]float64
	Confidence map[string]float64
	// Profile is the profile the scores were produced for, if recorded.
	Profile string
}

// Present reports whether the chunk carries any dimension scores.
func (d ChunkDimensions) Present() bool {
	return len(d.Scores) > 0
}

// Has reports whether the chunk carries a score for dim.
func (d ChunkDimensions) Has(dim string) bool {
	_, ok := d.Scores[dim]
	return ok
}

// FromMetadata extracts dimension data from an open metadata map. Unusable entries are skipped.
func FromMetadata(meta map[string]interface{}) ChunkDimensions {
	var d ChunkDimensions
	if meta == nil {
		return d
	}
	d.Scores = floatMap(meta[KeyDimensionScores])
	d.Confidence = floatMap(meta[KeyDimensionConfidence])
	if p, ok := meta[KeyDimensionProfile].(string); ok {
		d.Profile = p
	}
	return d
}

func floatMap(v interface{}) map[string]float64 {
	out := map[string]float64{}
	switch m := v.(type) {
	case map[string]float64:
		for k, f := range m {
			if !math.IsNaN(f) {
				out[k] = utils.Clamp01(f)
			}
		}
	case map[string]interface{}:
		for k, raw := range m {
			if f, ok := utils.ToFloat(raw); ok {
				out[k] = utils.Clamp01(f)
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// BonusResult is the outcome of weighing a chunk's dimensions for one profile.
type BonusResult struct {
	// Bonus is in [0,1]; 0 when no dimension matched.
	Bonus float64
	// Matched lists dimensions present in both the profile and the chunk, heaviest contribution first.
	Matched []string
	// Contributions maps each matched dimension to its share of Bonus.
	Contributions map[string]float64
}

// Bonus computes Σ w[d]·s[d] / Σ w[d] over dimensions present in both weights and the chunk.
// Dimension confidence, when recorded, scales the weight of that dimension.
// Normalizing by matched weights keeps sparse metadata from being penalized.
func Bonus(weights DimensionWeights, dims ChunkDimensions) BonusResult {
	var res BonusResult
	if !dims.Present() || len(weights) == 0 {
		return res
	}
	var weighted, total float64
	raw := map[string]float64{}
	for dim, w := range weights {
		score, ok := dims.Scores[dim]
		if !ok || w <= 0 {
			continue
		}
		if c, ok := dims.Confidence[dim]; ok {
			w *= c
		}
		if w <= 0 {
			continue
		}
		weighted += w * score
		total += w
		raw[dim] = w * score
		res.Matched = append(res.Matched, dim)
	}
	if total == 0 {
		return BonusResult{}
	}
	res.Bonus = utils.Clamp01(weighted / total)
	res.Contributions = make(map[string]float64, len(raw))
	for dim, v := range raw {
		res.Contributions[dim] = v / total
	}
	sort.SliceStable(res.Matched, func(i, j int) bool {
		ci, cj := res.Contributions[res.Matched[i]], res.Contributions[res.Matched[j]]
		if ci != cj {
			return ci > cj
		}
		return res.Matched[i] < res.Matched[j]
	})
	return res
}

// Blend mixes the hybrid score with a dimension bonus: (1-ratio)·hybrid + ratio·bonus.
// When nothing matched, the hybrid score is returned unchanged.
func Blend(hybrid float64, res BonusResult, ratio float64) float64 {
	if len(res.Matched) == 0 {
		return hybrid
	}
	ratio = utils.Clamp01(ratio)
	return utils.Clamp01((1-ratio)*hybrid + ratio*res.Bonus)
}

// ValidateBlendRatio reports a ratio outside [0,1].
func ValidateBlendRatio(ratio float64) error {
	if math.IsNaN(ratio) || ratio < 0 || ratio > 1 {
		return fmt.Errorf("dimension blend ratio must be in [0,1], got %v", ratio)
	}
	return nil
}
