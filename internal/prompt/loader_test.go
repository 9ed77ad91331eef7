// File path: internal/prompt/loader_test.go
package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmbeddedTemplatesPresent(t *testing.T) {
	loader, err := NewLoader("")
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	for _, id := range []string{
		"question_extraction",
		"metadata_extraction",
		"response_guide",
		"response_generation",
		"knowledge_chat",
		"final_response",
		"summarize",
	} {
		if _, err := loader.Get(id, nil); err != nil {
			t.Errorf("missing embedded template %q: %v", id, err)
		}
	}
}

func TestGetFillsPlaceholders(t *testing.T) {
	loader, err := NewLoader("")
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	p, err := loader.Get("response_generation", map[string]string{
		"question":          "What is your staffing plan?",
		"knowledge_content": "--- staffing.pdf ---\nWe employ forty engineers.",
	})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !strings.Contains(p.User, "What is your staffing plan?") {
		t.Fatalf("question not substituted: %q", p.User)
	}
	if strings.Contains(p.User, "{{question}}") || strings.Contains(p.User, "{{knowledge_content}}") {
		t.Fatalf("placeholders left behind: %q", p.User)
	}
	if p.System == "" {
		t.Fatal("expected a system prompt")
	}
}

func TestUnknownVariableLeftIntact(t *testing.T) {
	filled := Fill("Hello {{name}}, re {{topic}}", map[string]string{"name": "Ada"})
	if filled != "Hello Ada, re {{topic}}" {
		t.Fatalf("Fill = %q", filled)
	}
}

func TestOverrideDirectoryWins(t *testing.T) {
	dir := t.TempDir()
	override := "knowledge_chat:\n  system: Custom system.\n  user: \"Q: {{question}}\"\n"
	if err := os.WriteFile(filepath.Join(dir, "override.yaml"), []byte(override), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}
	loader, err := NewLoader(dir)
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	p, err := loader.Get("knowledge_chat", map[string]string{"question": "ping"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.System != "Custom system." || p.User != "Q: ping" {
		t.Fatalf("override not applied: %+v", p)
	}
	// Non-overridden templates remain available.
	if _, err := loader.Get("final_response", nil); err != nil {
		t.Fatalf("embedded template lost after overlay: %v", err)
	}
}

func TestMalformedOverrideSkipped(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("{not yaml: ["), 0o644); err != nil {
		t.Fatalf("write bad file: %v", err)
	}
	loader, err := NewLoader(dir)
	if err != nil {
		t.Fatalf("NewLoader should tolerate malformed overrides: %v", err)
	}
	if _, err := loader.Get("summarize", map[string]string{"text": "body"}); err != nil {
		t.Fatalf("embedded templates unavailable: %v", err)
	}
}
