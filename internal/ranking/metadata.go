package ranking

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/hyperjump/kioku/pkg/utils"
)

// Metadata keys read by the score functions.
const (
	KeyConfidenceScore = "confidence_score"
	KeyImportanceScore = "importance_score"
	KeyPriority        = "priority"
	KeyPinned          = "pinned"
	KeyTimestamp       = "timestamp"
	KeyCreatedAt       = "created_at"
)

// ChunkMetadata is the typed view of the open metadata map. A nil pointer means the key was absent
// or could not be interpreted.
type ChunkMetadata struct {
	ConfidenceScore *float64
	ImportanceScore *float64
	Priority        *float64
	Pinned          bool
	Timestamp       *time.Time
	// Malformed lists keys that were present but unusable.
	Malformed []string
}

// ParseMetadata reads the ranking-relevant keys from m. It never fails.
func ParseMetadata(m map[string]interface{}) ChunkMetadata {
	var meta ChunkMetadata
	if m == nil {
		return meta
	}
	meta.ConfidenceScore = meta.float(m, KeyConfidenceScore)
	meta.ImportanceScore = meta.float(m, KeyImportanceScore)
	meta.Priority = meta.float(m, KeyPriority)
	if v, ok := m[KeyPinned]; ok {
		pinned, ok := toBool(v)
		if !ok {
			meta.Malformed = append(meta.Malformed, KeyPinned)
		}
		meta.Pinned = pinned
	}
	for _, key := range []string{KeyTimestamp, KeyCreatedAt} {
		v, ok := m[key]
		if !ok || v == nil {
			continue
		}
		if ts, ok := ParseTimestamp(v); ok {
			meta.Timestamp = &ts
			break
		}
		meta.Malformed = append(meta.Malformed, key)
	}
	return meta
}

func (meta *ChunkMetadata) float(m map[string]interface{}, key string) *float64 {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	f, ok := utils.ToFloat(v)
	if !ok {
		meta.Malformed = append(meta.Malformed, key)
		return nil
	}
	return &f
}

func toBool(v interface{}) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return parsed, err == nil
	default:
		if f, ok := utils.ToFloat(v); ok {
			return f != 0, true
		}
		return false, false
	}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp accepts epoch seconds (numeric or numeric string), an ISO-8601 string or a time.Time.
// Naive datetimes are read as UTC.
func ParseTimestamp(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil || t.IsZero() {
			return time.Time{}, false
		}
		return *t, true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts, true
			}
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return fromEpoch(f)
		}
		return time.Time{}, false
	default:
		if f, ok := utils.ToFloat(v); ok {
			return fromEpoch(f)
		}
		return time.Time{}, false
	}
}

func fromEpoch(sec float64) (time.Time, bool) {
	if math.IsNaN(sec) || sec < -1e12 || sec > 1e12 {
		return time.Time{}, false
	}
	whole := int64(sec)
	nanos := int64((sec - float64(whole)) * 1e9)
	return time.Unix(whole, nanos).UTC(), true
}
