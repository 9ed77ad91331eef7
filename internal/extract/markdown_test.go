// File path: internal/extract/markdown_test.go
package extract

import (
	"strings"
	"testing"

	"github.com/bidsmith/rfpcopilot/internal/artifact"
)

func TestQuestionsMarkdownGroupsBySection(t *testing.T) {
	questions := []artifact.Requirement{
		{ID: "q1", Text: "First?", Section: "Scope", Priority: "High"},
		{ID: "q2", Text: "Second?", Section: "Pricing"},
		{ID: "q3", Text: "Third?", Section: "Scope"},
	}
	md := QuestionsMarkdown(questions)
	scopeIdx := strings.Index(md, "## Scope")
	pricingIdx := strings.Index(md, "## Pricing")
	if scopeIdx == -1 || pricingIdx == -1 {
		t.Fatalf("missing section headings:\n%s", md)
	}
	if scopeIdx > pricingIdx {
		t.Fatal("sections should appear in first-seen order")
	}
	if strings.Count(md, "## Scope") != 1 {
		t.Fatal("section heading should appear once")
	}
	if !strings.Contains(md, "### q1: First?") {
		t.Fatalf("question heading missing:\n%s", md)
	}
	if !strings.Contains(md, "- **Priority:** Medium") {
		t.Fatal("missing priority should default to Medium")
	}
}

func TestQuestionsMarkdownEmpty(t *testing.T) {
	md := QuestionsMarkdown(nil)
	if !strings.Contains(md, "*No questions or requirements were extracted.*") {
		t.Fatalf("unexpected empty rendering:\n%s", md)
	}
}

func TestMetadataMarkdownKnownFieldsFirst(t *testing.T) {
	metadata := artifact.Metadata{
		"zzz_extra":            "tail field",
		"document":             map[string]interface{}{"title": "Modernization RFP"},
		"issuing_organization": "County of Example",
		"key_dates":            map[string]interface{}{"due_date": "2026-10-01"},
	}
	md := MetadataMarkdown(metadata)
	docIdx := strings.Index(md, "## Document Information")
	orgIdx := strings.Index(md, "## Issuing Organization")
	datesIdx := strings.Index(md, "## Key Dates")
	extraIdx := strings.Index(md, "## Zzz Extra")
	if docIdx == -1 || orgIdx == -1 || datesIdx == -1 || extraIdx == -1 {
		t.Fatalf("missing headings:\n%s", md)
	}
	if !(docIdx < orgIdx && orgIdx < datesIdx && datesIdx < extraIdx) {
		t.Fatalf("headings out of order:\n%s", md)
	}
	if !strings.Contains(md, "- **Due Date:** 2026-10-01") {
		t.Fatalf("nested date not rendered:\n%s", md)
	}
}

func TestGuideMarkdownRendersStructure(t *testing.T) {
	guide := artifact.Guide{
		"submission_structure": []interface{}{
			map[string]interface{}{
				"section":      "Technical Approach",
				"description":  "Approach details",
				"requirements": []interface{}{"Describe methodology"},
			},
		},
		"response_format": "30 pages maximum",
	}
	md := GuideMarkdown(guide)
	if !strings.Contains(md, "### Technical Approach") {
		t.Fatalf("section missing:\n%s", md)
	}
	if !strings.Contains(md, "- Describe methodology") {
		t.Fatalf("requirements missing:\n%s", md)
	}
	if !strings.Contains(md, "30 pages maximum") {
		t.Fatalf("format missing:\n%s", md)
	}
}
