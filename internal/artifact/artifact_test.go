// File path: internal/artifact/artifact_test.go
package artifact

import "testing"

func TestSourceLabel(t *testing.T) {
	cases := []struct {
		name     string
		metadata map[string]interface{}
		want     string
	}{
		{"doc name wins", map[string]interface{}{"doc_name": "RFP-2026.pdf", "source": "/tmp/upload/raw.pdf"}, "RFP-2026.pdf"},
		{"source basename", map[string]interface{}{"source": "/tmp/upload/raw.pdf"}, "raw.pdf"},
		{"nothing known", map[string]interface{}{}, "Unknown"},
		{"blank doc name ignored", map[string]interface{}{"doc_name": "  ", "source": "a/b.docx"}, "b.docx"},
	}
	for _, tc := range cases {
		if got := SourceLabel(tc.metadata); got != tc.want {
			t.Errorf("%s: got %q want %q", tc.name, got, tc.want)
		}
	}
}

func TestGuideSectionsAndSummary(t *testing.T) {
	guide := Guide{
		"submission_structure": []interface{}{
			map[string]interface{}{"section": "Technical Approach", "description": "How the work gets done"},
			map[string]interface{}{"section": "Pricing"},
			map[string]interface{}{"description": "unnamed entry skipped"},
		},
		"evaluation_criteria": map[string]interface{}{"technical": "50 points"},
	}
	sections := guide.Sections()
	if len(sections) != 2 || sections[0] != "Technical Approach" || sections[1] != "Pricing" {
		t.Fatalf("unexpected sections: %v", sections)
	}
	lines := guide.SummaryLines()
	if len(lines) == 0 {
		t.Fatal("expected summary lines")
	}
	found := false
	for _, line := range lines {
		if line == "- technical: 50 points" {
			found = true
		}
	}
	if !found {
		t.Fatalf("evaluation criteria missing from summary: %v", lines)
	}
}

func TestRequirementDisplayText(t *testing.T) {
	r := Requirement{Text: "normalized", OriginalText: "original wording", SearchQuery: "search form"}
	if got := r.DisplayText(); got != "search form" {
		t.Fatalf("DisplayText = %q", got)
	}
	r.SearchQuery = ""
	if got := r.DisplayText(); got != "original wording" {
		t.Fatalf("DisplayText fallback = %q", got)
	}
	if got := r.DedupeText(); got != "original wording" {
		t.Fatalf("DedupeText = %q", got)
	}
}
