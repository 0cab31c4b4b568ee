package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/kioku/internal/models"
)

func sampleResponse() *models.SearchResponse {
	return &models.SearchResponse{
		Query:      "low-risk vendors",
		CleanQuery: "vendors",
		QueryTime:  42,
		Status:     models.SearchStatus{Profile: "general", Strategy: models.StrategyHybrid, Candidates: 3},
		Results: []models.RankedMemory{
			{
				ChunkID:              "m-1",
				Content:              "Vendor A passed the security review\nwith no findings",
				Metadata:             map[string]interface{}{"tags": []interface{}{"vendors", "security"}},
				FinalScore:           0.8123,
				Breakdown:            models.ScoreBreakdown{Semantic: 0.9, Recency: 1, Confidence: 0.5},
				DimensionExplanation: "profile general; filter danger LOW passed (0.10)",
				Rank:                 1,
			},
		},
	}
}

func TestWriteResults_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResults(&buf, sampleResponse(), OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded models.SearchResponse
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if decoded.Query != "low-risk vendors" || len(decoded.Results) != 1 || decoded.Results[0].ChunkID != "m-1" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestWriteResults_text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResults(&buf, sampleResponse(), OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"Found 1 results in 42ms (profile general, HYBRID, 3 candidates)",
		"Searched for: vendors",
		"Rank: 1 | Score: 0.8123",
		"ID: m-1",
		"Tags: security, vendors",
		"Why: profile general; filter danger LOW passed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteResults_compact(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResults(&buf, sampleResponse(), OutputCompact); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("want one line per result, got %q", buf.String())
	}
	if lines[0] != "1\t0.8123\tm-1\tVendor A passed the security review with no findings" {
		t.Errorf("line = %q", lines[0])
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"TEXT", OutputText, false},
		{"compact", OutputCompact, false},
		{"json", OutputJSON, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}
