// File path: internal/docparse/parse.go
package docparse

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv/v2"
	"github.com/ledongthuc/pdf"

	"github.com/bidsmith/rfpcopilot/internal/common"
)

const docxMimeType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// ErrUnsupportedFormat is returned for file types the pipeline cannot read.
var ErrUnsupportedFormat = fmt.Errorf("docparse: unsupported format")

// ExtractText pulls plain text out of an uploaded document, routing on the
// file extension. PDF and DOCX are parsed; plain text and markdown pass
// through unchanged.
func ExtractText(name string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return ExtractPDF(data)
	case ".docx":
		return ExtractDOCX(data)
	case ".txt", ".md":
		return string(data), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// Supported reports whether ExtractText can handle the named file.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf", ".docx", ".txt", ".md":
		return true
	}
	return false
}

// ExtractPDF extracts text page by page. Pages that cannot be read are
// skipped so one damaged page does not lose the document.
func ExtractPDF(data []byte) (string, error) {
	logger := common.Logger()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("docparse: open pdf: %w", err)
	}

	totalPages := reader.NumPage()
	var b strings.Builder
	for pageIndex := 1; pageIndex <= totalPages; pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			logger.Warn("docparse: null pdf page", "page", pageIndex)
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.Warn("docparse: unreadable pdf page", "page", pageIndex, "error", err)
			continue
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	}

	text := b.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("docparse: no text content in pdf (%d pages)", totalPages)
	}
	logger.Info("docparse: extracted pdf text", "pages", totalPages, "length", len(text))
	return text, nil
}

// ExtractDOCX converts a Word document to plain text.
func ExtractDOCX(data []byte) (string, error) {
	result, err := docconv.Convert(bytes.NewReader(data), docxMimeType, false)
	if err != nil {
		return "", fmt.Errorf("docparse: convert docx: %w", err)
	}
	if strings.TrimSpace(result.Body) == "" {
		return "", fmt.Errorf("docparse: no text content in docx")
	}
	common.Logger().Info("docparse: extracted docx text", "length", len(result.Body))
	return result.Body, nil
}
