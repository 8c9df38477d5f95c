package safetyprofile

import (
	"errors"
	"strings"
	"testing"

	"github.com/kerlann/pharmatools/pipeline"
)

func aeRecords(terms ...string) []pipeline.Record {
	records := make([]pipeline.Record, 0, len(terms))
	for i, term := range terms {
		records = append(records, pipeline.Record{
			ID:     "r" + string(rune('a'+i)),
			Schema: "adverse-event",
			Fields: map[string]string{"term": term},
		})
	}
	return records
}

func aeSet(label string, terms ...string) pipeline.RecordSet {
	return pipeline.RecordSet{
		Label:   label,
		Schema:  "adverse-event",
		Records: aeRecords(terms...),
	}
}

func TestClassifyTerm(t *testing.T) {
	tests := []struct {
		term     string
		expected string
	}{
		{"Headache", "Nervous system disorders"},
		{"severe headache", "Nervous system disorders"},
		{"Nausea", "Gastrointestinal disorders"},
		{"Skin rash", "Skin and subcutaneous tissue disorders"},
		{"Hair loss", "Skin and subcutaneous tissue disorders"},
		{"Difficulty breathing", "Respiratory, thoracic and mediastinal disorders"},
		{"Anaphylaxis", "Immune system disorders"},
		{"completely unknown reaction", "General disorders and administration site conditions"},
		{"", "General disorders and administration site conditions"},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			if got := ClassifyTerm(tt.term); got != tt.expected {
				t.Errorf("ClassifyTerm(%q) = %q, want %q", tt.term, got, tt.expected)
			}
		})
	}
}

func TestSOCLabelsComplete(t *testing.T) {
	labels := SOCLabels()
	if len(labels) != 27 {
		t.Errorf("expected 27 System Organ Classes, got %d", len(labels))
	}

	seen := make(map[string]bool)
	for _, label := range labels {
		if seen[label] {
			t.Errorf("duplicate SOC label %q", label)
		}
		seen[label] = true
	}
	if !seen[generalSOC] {
		t.Errorf("lexicon is missing the fallback class %q", generalSOC)
	}
}

func TestBuildProfile(t *testing.T) {
	profile, err := BuildProfile("US", aeRecords("Headache", "Dizziness", "Nausea", "headache"))
	if err != nil {
		t.Fatalf("BuildProfile failed: %v", err)
	}

	if profile.TermCount() != 3 {
		t.Errorf("expected 3 distinct terms (case-insensitive dedup), got %d", profile.TermCount())
	}

	nervous := profile.Buckets["Nervous system disorders"]
	if len(nervous) != 2 {
		t.Errorf("expected 2 nervous-system terms, got %v", nervous)
	}

	// Largest bucket normalizes to 1, the rest proportionally
	if got := profile.Scores["Nervous system disorders"]; got != 1.0 {
		t.Errorf("expected score 1.0 for largest bucket, got %f", got)
	}
	if got := profile.Scores["Gastrointestinal disorders"]; got != 0.5 {
		t.Errorf("expected score 0.5, got %f", got)
	}
}

func TestBuildProfileRejectsWrongSchema(t *testing.T) {
	records := []pipeline.Record{{ID: "x", Schema: "drug-name", Fields: map[string]string{"name": "Aspirin"}}}

	_, err := BuildProfile("US", records)
	if !errors.Is(err, pipeline.ErrIncompatibleSchema) {
		t.Errorf("expected ErrIncompatibleSchema, got %v", err)
	}
}

func TestCompareProfilesIdentical(t *testing.T) {
	left, _ := BuildProfile("US", aeRecords("Headache", "Nausea"))
	right, _ := BuildProfile("EU", aeRecords("Headache", "Nausea"))

	diff, err := CompareProfiles(left, right)
	if err != nil {
		t.Fatalf("CompareProfiles failed: %v", err)
	}
	if diff.Similarity != 1.0 {
		t.Errorf("identical profiles should score 1.0, got %f", diff.Similarity)
	}
	if len(diff.UniqueLeft) != 0 || len(diff.UniqueRight) != 0 {
		t.Errorf("identical profiles should have no unique terms: %v / %v", diff.UniqueLeft, diff.UniqueRight)
	}
}

func TestCompareProfilesDisjoint(t *testing.T) {
	left, _ := BuildProfile("US", aeRecords("Headache"))
	right, _ := BuildProfile("EU", aeRecords("Nausea"))

	diff, err := CompareProfiles(left, right)
	if err != nil {
		t.Fatalf("CompareProfiles failed: %v", err)
	}
	if diff.Similarity != 0.0 {
		t.Errorf("disjoint profiles should score 0.0, got %f", diff.Similarity)
	}
	if len(diff.UniqueLeft["Nervous system disorders"]) != 1 {
		t.Errorf("expected Headache unique to left, got %v", diff.UniqueLeft)
	}
	if len(diff.UniqueRight["Gastrointestinal disorders"]) != 1 {
		t.Errorf("expected Nausea unique to right, got %v", diff.UniqueRight)
	}
}

func TestCompareProfilesSymmetry(t *testing.T) {
	left, _ := BuildProfile("US", aeRecords("Headache", "Nausea", "Rash"))
	right, _ := BuildProfile("EU", aeRecords("Headache", "Vomiting"))

	ab, err := CompareProfiles(left, right)
	if err != nil {
		t.Fatalf("CompareProfiles failed: %v", err)
	}
	ba, err := CompareProfiles(right, left)
	if err != nil {
		t.Fatalf("CompareProfiles failed: %v", err)
	}

	if ab.Similarity != ba.Similarity {
		t.Errorf("similarity not symmetric: %f vs %f", ab.Similarity, ba.Similarity)
	}
	if ab.Similarity < 0 || ab.Similarity > 1 {
		t.Errorf("similarity %f out of [0,1]", ab.Similarity)
	}
}

func TestCompareProfilesEmptyBothSides(t *testing.T) {
	left, _ := BuildProfile("US", nil)
	right, _ := BuildProfile("EU", nil)

	diff, err := CompareProfiles(left, right)
	if err != nil {
		t.Fatalf("CompareProfiles failed: %v", err)
	}
	if diff.Similarity != 1.0 {
		t.Errorf("two empty profiles should be trivially identical, got %f", diff.Similarity)
	}
}

func TestCompareProfilesTaxonomyMismatch(t *testing.T) {
	left, _ := BuildProfile("US", aeRecords("Headache"))
	right, _ := BuildProfile("EU", aeRecords("Headache"))
	right.Taxonomy = "who-art"

	_, err := CompareProfiles(left, right)
	if !errors.Is(err, pipeline.ErrIncompatibleSchema) {
		t.Errorf("expected ErrIncompatibleSchema for taxonomy mismatch, got %v", err)
	}
}

func TestComparatorEndToEnd(t *testing.T) {
	result, err := Comparator{}.Compare(
		aeSet("US", "Headache", "Nausea"),
		aeSet("EU", "Headache", "Rash"),
	)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if result.Score < 0 || result.Score > 1 {
		t.Errorf("score %f out of [0,1]", result.Score)
	}

	if terms := result.Details["US only: Gastrointestinal disorders"]; len(terms) != 1 || terms[0] != "Nausea" {
		t.Errorf("expected Nausea unique to US, got %v", result.Details)
	}
	if terms := result.Details["EU only: Skin and subcutaneous tissue disorders"]; len(terms) != 1 || terms[0] != "Rash" {
		t.Errorf("expected Rash unique to EU, got %v", result.Details)
	}
}

func TestRenderReport(t *testing.T) {
	left, _ := BuildProfile("US", aeRecords("Headache", "Nausea"))
	right, _ := BuildProfile("EU", aeRecords("Headache"))

	diff, err := CompareProfiles(left, right)
	if err != nil {
		t.Fatalf("CompareProfiles failed: %v", err)
	}

	report := RenderReport(diff)

	for _, want := range []string{
		"# Safety profile comparison: US vs EU",
		"Similarity:",
		"| System Organ Class",
		"Nervous system disorders",
		"## Only in US",
		"Nausea",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report is missing %q:\n%s", want, report)
		}
	}
	if strings.Contains(report, "## Only in EU") {
		t.Error("report should not list an empty unique-terms section")
	}
}
