// File path: internal/respond/outline.go
package respond

import (
	"regexp"
	"strings"
)

// defaultSections is the last-resort proposal outline used when no sections
// can be recovered from the generated outline or the submission structure.
var defaultSections = []string{
	"Technical Approach",
	"Management Approach",
	"Past Performance",
	"Pricing",
	"Implementation Plan",
}

// skippedSections are structural headings that never become content
// sections.
var skippedSections = map[string]struct{}{
	"table of contents": {},
	"contents":          {},
	"appendix":          {},
	"appendices":        {},
}

var sectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^\d+\.\s+([A-Z][^\n]+)$`),
	regexp.MustCompile(`(?m)^-\s+([A-Z][^\n]+)$`),
	regexp.MustCompile(`(?m)^\*\s+([A-Z][^\n]+)$`),
	regexp.MustCompile(`(?m)^([A-Z][a-zA-Z\s]+):`),
	regexp.MustCompile(`(?m)^VOLUME\s+[\dIVX]+[\s:]+(.+)$`),
}

// ExtractSections recovers the major section names from a generated outline,
// trying progressively looser formats: markdown level-one headings, then
// numbered or bulleted list patterns, then a direct parse of the submission
// structure, and finally a fixed default outline.
func ExtractSections(outline, structure string) []string {
	if sections := markdownHeadings(outline); len(sections) > 0 {
		return sections
	}
	for _, pattern := range sectionPatterns {
		var sections []string
		for _, match := range pattern.FindAllStringSubmatch(outline, -1) {
			if name := strings.TrimSpace(match[1]); keepSection(name) {
				sections = append(sections, name)
			}
		}
		if len(sections) > 0 {
			return sections
		}
	}
	if sections := structureSections(structure); len(sections) > 0 {
		return sections
	}
	return append([]string(nil), defaultSections...)
}

func markdownHeadings(outline string) []string {
	var sections []string
	for _, line := range strings.Split(outline, "\n") {
		if !strings.HasPrefix(line, "# ") {
			continue
		}
		name := strings.TrimSpace(strings.TrimPrefix(line, "# "))
		if keepSection(name) {
			sections = append(sections, name)
		}
	}
	return sections
}

func structureSections(structure string) []string {
	var sections []string
	for _, line := range strings.Split(structure, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)
		if !strings.HasPrefix(trimmed, "-") &&
			!strings.Contains(lower, "volume") &&
			!strings.Contains(trimmed, ":") &&
			!strings.Contains(lower, "section") {
			continue
		}
		name := strings.TrimSpace(strings.TrimPrefix(trimmed, "-"))
		if keepSection(name) {
			sections = append(sections, name)
		}
	}
	return sections
}

func keepSection(name string) bool {
	if name == "" {
		return false
	}
	_, skipped := skippedSections[strings.ToLower(name)]
	return !skipped
}
