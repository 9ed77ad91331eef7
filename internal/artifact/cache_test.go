// File path: internal/artifact/cache_test.go
package artifact

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetOrComputeRunsOncePerContent(t *testing.T) {
	cache, err := NewCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	calls := 0
	compute := func() ([]Requirement, error) {
		calls++
		return []Requirement{{ID: "q1", Text: "Describe your approach."}}, nil
	}

	first, err := GetOrCompute(cache, "document body", KindQuestions, compute)
	if err != nil {
		t.Fatalf("first compute: %v", err)
	}
	second, err := GetOrCompute(cache, "document body", KindQuestions, compute)
	if err != nil {
		t.Fatalf("second compute: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one compute call, got %d", calls)
	}
	if len(second) != 1 || second[0].ID != first[0].ID || second[0].Text != first[0].Text {
		t.Fatalf("cached result mismatch: %+v vs %+v", second, first)
	}
}

func TestGetOrComputeRecomputesAfterFileRemoved(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewCache(dir)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	calls := 0
	compute := func() (Metadata, error) {
		calls++
		return Metadata{"title": "Network Modernization RFP"}, nil
	}

	if _, err := GetOrCompute(cache, "document body", KindMetadata, compute); err != nil {
		t.Fatalf("first compute: %v", err)
	}
	path := filepath.Join(dir, Key("document body", KindMetadata)+".json")
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove cache file: %v", err)
	}
	if _, err := GetOrCompute(cache, "document body", KindMetadata, compute); err != nil {
		t.Fatalf("second compute: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected recompute after removal, got %d calls", calls)
	}
}

func TestKeySeparatesKindsAndContent(t *testing.T) {
	if Key("text", KindQuestions) == Key("text", KindMetadata) {
		t.Fatal("expected distinct keys per artifact kind")
	}
	if Key("text", KindQuestions) == Key("text ", KindQuestions) {
		t.Fatal("expected whitespace change to alter the key")
	}
}

func TestCorruptEntryTreatedAsMiss(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewCache(dir)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	key := Key("body", KindQuestions)
	if err := os.WriteFile(filepath.Join(dir, key+".json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed corrupt entry: %v", err)
	}
	calls := 0
	result, err := GetOrCompute(cache, "body", KindQuestions, func() ([]Requirement, error) {
		calls++
		return []Requirement{{ID: "q1", Text: "Recovered"}}, nil
	})
	if err != nil {
		t.Fatalf("GetOrCompute: %v", err)
	}
	if calls != 1 || len(result) != 1 {
		t.Fatalf("expected recompute over corrupt entry, calls=%d result=%+v", calls, result)
	}
}
