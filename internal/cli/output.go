// Package cli provides output formatting and an HTTP client for the kioku command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/pkg/utils"
)

// OutputFormat is the format for search result output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact is one result per line.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

const contentPreviewLen = 200

// ParseFormat maps a flag value to an OutputFormat.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", OutputText:
		return OutputText, nil
	case OutputCompact:
		return OutputCompact, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
	}
}

// WriteResults writes a search response to w in the given format.
func WriteResults(w io.Writer, resp *models.SearchResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	case OutputCompact:
		for _, r := range resp.Results {
			if _, err := fmt.Fprintf(w, "%d\t%.4f\t%s\t%s\n", r.Rank, r.FinalScore, r.ChunkID,
				utils.Truncate(utils.OneLine(r.Content), 80)); err != nil {
				return err
			}
		}
		return nil
	default:
		return writeText(w, resp)
	}
}

func writeText(w io.Writer, resp *models.SearchResponse) error {
	st := resp.Status
	fmt.Fprintf(w, "\nFound %d results in %dms (profile %s, %s, %d candidates", len(resp.Results), resp.QueryTime,
		st.Profile, st.Strategy, st.Candidates)
	if st.Cached {
		fmt.Fprint(w, ", cached")
	}
	fmt.Fprintln(w, ")")
	if resp.CleanQuery != "" && resp.CleanQuery != resp.Query {
		fmt.Fprintf(w, "Searched for: %s\n", resp.CleanQuery)
	}
	if st.Reason != "" {
		fmt.Fprintf(w, "Note: %s\n", st.Reason)
	}
	fmt.Fprintln(w)
	for _, r := range resp.Results {
		writeOneResult(w, r)
	}
	return nil
}

func writeOneResult(w io.Writer, r models.RankedMemory) {
	b := r.Breakdown
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Rank: %d | Score: %.4f (semantic %.2f, recency %.2f, confidence %.2f, priority %.2f)\n",
		r.Rank, r.FinalScore, b.Semantic, b.Recency, b.Confidence, b.Priority)
	fmt.Fprintf(w, "ID: %s\n", r.ChunkID)
	if tags := metadataTags(r.Metadata); len(tags) > 0 {
		fmt.Fprintf(w, "Tags: %s\n", strings.Join(tags, ", "))
	}
	if r.DimensionExplanation != "" {
		fmt.Fprintf(w, "Why: %s\n", r.DimensionExplanation)
	}
	fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(r.Content, contentPreviewLen))
}

func metadataTags(meta map[string]interface{}) []string {
	var tags []string
	switch v := meta["tags"].(type) {
	case []string:
		tags = append(tags, v...)
	case []interface{}:
		for _, t := range v {
			if s, ok := t.(string); ok {
				tags = append(tags, s)
			}
		}
	}
	sort.Strings(tags)
	return tags
}
