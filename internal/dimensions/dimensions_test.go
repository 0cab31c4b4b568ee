package dimensions

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestParseProfile(t *testing.T) {
	tests := []struct {
		name   string
		want   Profile
		wantOK bool
	}{
		{"general", General, true},
		{"Researcher", Researcher, true},
		{" business ", Business, true},
		{"legal", Legal, true},
		{"astronaut", General, false},
		{"", General, false},
	}
	for _, tt := range tests {
		got, ok := ParseProfile(tt.name)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseProfile(%q) = %v, %v; want %v, %v", tt.name, got, ok, tt.want, tt.wantOK)
		}
	}
	for _, p := range Profiles {
		if back, ok := ParseProfile(p.String()); !ok || back != p {
			t.Errorf("%v does not survive String/ParseProfile", p)
		}
	}
}

func TestRegistry_GetWeights(t *testing.T) {
	r := NewRegistry()

	general := r.GetWeights("general")
	if len(general) != 2 || general[Utility] == 0 || general[Credibility] == 0 {
		t.Errorf("general weights = %v", general)
	}
	unknown := r.GetWeights("astronaut")
	if len(unknown) != len(general) {
		t.Errorf("unknown profile should fall back to general, got %v", unknown)
	}
	if r.GetWeights("researcher")[Novelty] == 0 {
		t.Error("researcher should emphasize novelty")
	}
	if r.GetWeights("business")[ROIPotential] == 0 {
		t.Error("business should emphasize roi_potential")
	}
	if r.GetWeights("legal")[ComplianceRisk] == 0 {
		t.Error("legal should emphasize compliance_risk")
	}

	w := r.GetWeights("general")
	w[Utility] = 99
	if r.GetWeights("general")[Utility] == 99 {
		t.Error("GetWeights must return a copy")
	}
}

func TestLoadRegistry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.yaml")
	content := `
profiles:
  researcher:
    novelty: 2.0
    reproducibility: 0.5
    complexity: 0
  astronaut:
    gravity: 1.0
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	r, err := LoadRegistry(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	w := r.GetWeights("researcher")
	if w[Novelty] != 2.0 || w["reproducibility"] != 0.5 {
		t.Errorf("overrides not applied: %v", w)
	}
	if _, ok := w[Complexity]; ok {
		t.Error("zero weight should remove the dimension")
	}
	if w[TechnicalDepth] == 0 {
		t.Error("unmentioned dimensions keep their defaults")
	}
	if len(r.GetWeights("general")) != 2 {
		t.Error("untouched profiles keep defaults")
	}
	dims := r.Dimensions()
	if !sort.StringsAreSorted(dims) {
		t.Errorf("Dimensions() not sorted: %v", dims)
	}
	found := false
	for _, d := range dims {
		if d == "reproducibility" {
			found = true
		}
	}
	if !found {
		t.Errorf("Dimensions() = %v, want custom dimension reproducibility", dims)
	}
}

func TestLoadRegistry_errors(t *testing.T) {
	dir := t.TempDir()
	neg := filepath.Join(dir, "neg.yaml")
	if err := os.WriteFile(neg, []byte("profiles:\n  legal:\n    liability: -1\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRegistry(neg, nil); !errors.Is(err, ErrInvalidProfiles) {
		t.Errorf("negative weight: err = %v", err)
	}
	empty := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(empty, []byte("profiles:\n  general:\n    utility: 0\n    credibility: 0\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRegistry(empty, nil); !errors.Is(err, ErrInvalidProfiles) {
		t.Errorf("emptied profile: err = %v", err)
	}
	if _, err := LoadRegistry(filepath.Join(dir, "missing.yaml"), nil); err == nil {
		t.Error("missing file should error")
	}
	if r, err := LoadRegistry("", nil); err != nil || r == nil {
		t.Errorf("empty path should return defaults, got %v, %v", r, err)
	}
}

func TestFromMetadata(t *testing.T) {
	meta := map[string]interface{}{
		"dimension_scores":     map[string]interface{}{"utility": 0.8, "novelty": 1.4, "bogus": "x"},
		"dimension_confidence": map[string]interface{}{"utility": 0.5},
		"dimension_profile":    "researcher",
	}
	d := FromMetadata(meta)
	if !d.Present() || d.Scores["utility"] != 0.8 || d.Scores["novelty"] != 1.0 {
		t.Errorf("scores = %v", d.Scores)
	}
	if d.Has("bogus") {
		t.Error("non-numeric score should be skipped")
	}
	if d.Confidence["utility"] != 0.5 || d.Profile != "researcher" {
		t.Errorf("unexpected dimensions: %+v", d)
	}
	if FromMetadata(nil).Present() || FromMetadata(map[string]interface{}{}).Present() {
		t.Error("missing dimension_scores should not be present")
	}
}

func TestFromMetadata_decodedNumbers(t *testing.T) {
	meta := map[string]interface{}{
		"dimension_scores": map[string]interface{}{
			"utility":     json.Number("0.7"),
			"credibility": "0.4",
			"novelty":     int64(1),
		},
	}
	d := FromMetadata(meta)
	want := map[string]float64{"utility": 0.7, "credibility": 0.4, "novelty": 1}
	for dim, score := range want {
		if d.Scores[dim] != score {
			t.Errorf("score[%s] = %v, want %v", dim, d.Scores[dim], score)
		}
	}
}

func TestBonus(t *testing.T) {
	weights := DimensionWeights{Utility: 1.0, Credibility: 3.0}
	tests := []struct {
		name        string
		dims        ChunkDimensions
		wantBonus   float64
		wantMatched int
	}{
		{"no dimensions", ChunkDimensions{}, 0, 0},
		{"no overlap", ChunkDimensions{Scores: map[string]float64{"novelty": 1}}, 0, 0},
		{"sparse metadata not penalized", ChunkDimensions{Scores: map[string]float64{Utility: 0.9}}, 0.9, 1},
		{"weighted mean", ChunkDimensions{Scores: map[string]float64{Utility: 1.0, Credibility: 0.0}}, 0.25, 2},
		{"confidence scales weight", ChunkDimensions{
			Scores:     map[string]float64{Utility: 1.0, Credibility: 0.0},
			Confidence: map[string]float64{Credibility: 1.0 / 3.0},
		}, 0.5, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Bonus(weights, tt.dims)
			if math.Abs(res.Bonus-tt.wantBonus) > 1e-9 || len(res.Matched) != tt.wantMatched {
				t.Errorf("Bonus() = %v matched %v; want %v, %d", res.Bonus, res.Matched, tt.wantBonus, tt.wantMatched)
			}
		})
	}
}

func TestBlend(t *testing.T) {
	matched := BonusResult{Bonus: 1.0, Matched: []string{Utility}}
	if got := Blend(0.5, matched, DefaultBlendRatio); math.Abs(got-0.65) > 1e-9 {
		t.Errorf("Blend = %v, want 0.65", got)
	}
	if got := Blend(0.5, BonusResult{}, DefaultBlendRatio); got != 0.5 {
		t.Errorf("dimensionless chunk should keep hybrid score, got %v", got)
	}
	if got := Blend(0.5, matched, 0); got != 0.5 {
		t.Errorf("ratio 0 should ignore bonus, got %v", got)
	}
	if err := ValidateBlendRatio(1.5); err == nil {
		t.Error("ratio above 1 should be rejected")
	}
	if err := ValidateBlendRatio(DefaultBlendRatio); err != nil {
		t.Error(err)
	}
}
