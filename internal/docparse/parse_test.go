// File path: internal/docparse/parse_test.go
package docparse

import (
	"errors"
	"testing"
)

func TestExtractTextPlain(t *testing.T) {
	for _, name := range []string{"notes.txt", "README.md", "UPPER.TXT"} {
		text, err := ExtractText(name, []byte("hello world"))
		if err != nil {
			t.Fatalf("ExtractText(%q): %v", name, err)
		}
		if text != "hello world" {
			t.Fatalf("ExtractText(%q) = %q", name, text)
		}
	}
}

func TestExtractTextUnsupported(t *testing.T) {
	if _, err := ExtractText("image.png", []byte{1, 2, 3}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := ExtractText("noext", nil); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestSupported(t *testing.T) {
	cases := map[string]bool{
		"rfp.pdf":   true,
		"rfp.docx":  true,
		"notes.txt": true,
		"notes.md":  true,
		"image.png": false,
		"archive":   false,
	}
	for name, want := range cases {
		if got := Supported(name); got != want {
			t.Fatalf("Supported(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestExtractPDFRejectsGarbage(t *testing.T) {
	if _, err := ExtractPDF([]byte("not a pdf")); err == nil {
		t.Fatal("expected error for invalid pdf bytes")
	}
}

func TestExtractDOCXRejectsGarbage(t *testing.T) {
	if _, err := ExtractDOCX([]byte("not a docx")); err == nil {
		t.Fatal("expected error for invalid docx bytes")
	}
}
