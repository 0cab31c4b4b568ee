package ranking

import (
	"math"
	"time"

	"github.com/hyperjump/kioku/pkg/utils"
)

const (
	// DefaultConfidence is used when neither confidence_score nor importance_score is present.
	DefaultConfidence = 0.5
	// ImplicitPriority is granted to unpinned chunks whose stated confidence reaches ImplicitPriorityConfidence.
	ImplicitPriority           = 0.3
	ImplicitPriorityConfidence = 0.85
)

// SemanticScore converts a vector distance to a similarity in [0,1].
func SemanticScore(distance float64) float64 {
	return utils.Clamp01(1 - distance)
}

// RecencyScore applies exponential half-life decay to the age of timestamp relative to now.
// An unparseable timestamp is treated as now and scores 1.
func RecencyScore(timestamp interface{}, now time.Time, halfLifeDays float64) float64 {
	ts, ok := ParseTimestamp(timestamp)
	if !ok {
		return 1
	}
	return recencyFromTime(ts, now, halfLifeDays)
}

func recencyFromTime(ts, now time.Time, halfLifeDays float64) float64 {
	if !(halfLifeDays > 0) {
		return 1
	}
	ageDays := now.Sub(ts).Hours() / 24
	if ageDays <= 0 {
		return 1
	}
	return utils.Clamp01(math.Pow(0.5, ageDays/halfLifeDays))
}

// ConfidenceScore returns confidence_score, else importance_score, else DefaultConfidence, clamped to [0,1].
func ConfidenceScore(meta ChunkMetadata) float64 {
	switch {
	case meta.ConfidenceScore != nil:
		return utils.Clamp01(*meta.ConfidenceScore)
	case meta.ImportanceScore != nil:
		return utils.Clamp01(*meta.ImportanceScore)
	default:
		return DefaultConfidence
	}
}

// PriorityScore applies the first matching rule: pinned, explicit priority, implicit high-confidence priority, zero.
func PriorityScore(meta ChunkMetadata) float64 {
	switch {
	case meta.Pinned:
		return 1
	case meta.Priority != nil:
		return utils.Clamp01(*meta.Priority)
	case meta.ConfidenceScore != nil && *meta.ConfidenceScore >= ImplicitPriorityConfidence:
		return ImplicitPriority
	default:
		return 0
	}
}
