// File path: internal/extract/markdown.go
package extract

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/bidsmith/rfpcopilot/internal/artifact"
)

// QuestionsMarkdown renders extracted requirements grouped by document
// section, in first-seen section order.
func QuestionsMarkdown(questions []artifact.Requirement) string {
	var b strings.Builder
	b.WriteString("# Extracted Questions and Requirements\n\n")
	if len(questions) == 0 {
		b.WriteString("*No questions or requirements were extracted.*\n")
		return b.String()
	}

	var order []string
	grouped := make(map[string][]artifact.Requirement)
	for _, q := range questions {
		section := q.Section
		if strings.TrimSpace(section) == "" {
			section = "General"
		}
		if _, ok := grouped[section]; !ok {
			order = append(order, section)
		}
		grouped[section] = append(grouped[section], q)
	}

	for _, section := range order {
		fmt.Fprintf(&b, "## %s\n\n", section)
		for _, q := range grouped[section] {
			id := q.ID
			if id == "" {
				id = "unknown"
			}
			display := q.DisplayText()
			if display == "" {
				display = "No text provided"
			}
			fmt.Fprintf(&b, "### %s: %s\n\n", id, display)
			if q.OriginalText != "" && q.SearchQuery != "" && q.OriginalText != q.SearchQuery {
				fmt.Fprintf(&b, "**Original Text:** %s\n\n", q.OriginalText)
			}
			qType := q.Type
			if qType == "" {
				qType = "question"
			}
			priority := q.Priority
			if priority == "" {
				priority = "Medium"
			}
			fmt.Fprintf(&b, "- **Type:** %s\n", qType)
			fmt.Fprintf(&b, "- **Priority:** %s\n", priority)
			if q.Reference != "" {
				fmt.Fprintf(&b, "- **Reference:** %s\n", q.Reference)
			}
			if q.ResponseSection != "" {
				fmt.Fprintf(&b, "- **Response Section:** %s\n", q.ResponseSection)
			}
			if len(q.SearchAlternatives) > 0 {
				b.WriteString("\n**Search Alternatives:**\n")
				for _, alt := range q.SearchAlternatives {
					fmt.Fprintf(&b, "- %s\n", alt)
				}
			}
			if len(q.Tags) > 0 {
				b.WriteString("\n**Tags:** " + strings.Join(q.Tags, ", ") + "\n")
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// MetadataMarkdown renders document metadata with the well-known fields
// first and the remainder in stable alphabetical order.
func MetadataMarkdown(metadata artifact.Metadata) string {
	var b strings.Builder
	b.WriteString("# RFP Document Metadata\n\n")
	if len(metadata) == 0 {
		b.WriteString("*No metadata was extracted.*\n")
		return b.String()
	}

	known := []struct {
		key   string
		title string
	}{
		{"document", "Document Information"},
		{"issuing_organization", "Issuing Organization"},
		{"key_dates", "Key Dates"},
	}
	handled := make(map[string]bool, len(known))
	for _, field := range known {
		value, ok := metadata[field.key]
		if !ok {
			continue
		}
		handled[field.key] = true
		fmt.Fprintf(&b, "## %s\n\n", field.title)
		writeValueMarkdown(&b, value)
		b.WriteString("\n")
	}

	rest := make([]string, 0, len(metadata))
	for key := range metadata {
		if !handled[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		fmt.Fprintf(&b, "## %s\n\n", titleCase(key))
		writeValueMarkdown(&b, metadata[key])
		b.WriteString("\n")
	}
	return b.String()
}

// GuideMarkdown renders the response guide artifact.
func GuideMarkdown(guide artifact.Guide) string {
	var b strings.Builder
	b.WriteString("# RFP Response Guide\n\n")
	if len(guide) == 0 {
		b.WriteString("*No response guide was generated.*\n")
		return b.String()
	}

	if structure, ok := guide["submission_structure"]; ok {
		b.WriteString("## Submission Structure\n\n")
		if sections, ok := structure.([]interface{}); ok {
			for _, item := range sections {
				entry, ok := item.(map[string]interface{})
				if !ok {
					fmt.Fprintf(&b, "- %s\n", formatScalar(item))
					continue
				}
				name, _ := entry["section"].(string)
				if name == "" {
					name = "Unnamed Section"
				}
				fmt.Fprintf(&b, "### %s\n\n", name)
				if desc, ok := entry["description"].(string); ok && desc != "" {
					b.WriteString(desc + "\n\n")
				}
				if reqs, ok := entry["requirements"].([]interface{}); ok && len(reqs) > 0 {
					b.WriteString("**Content Requirements:**\n\n")
					for _, req := range reqs {
						fmt.Fprintf(&b, "- %s\n", formatScalar(req))
					}
					b.WriteString("\n")
				}
			}
		} else {
			fmt.Fprintf(&b, "%s\n\n", formatScalar(structure))
		}
	}

	if format, ok := guide["response_format"]; ok {
		b.WriteString("## Response Format\n\n")
		writeValueMarkdown(&b, format)
		b.WriteString("\n")
	}

	rest := make([]string, 0, len(guide))
	for key := range guide {
		if key != "submission_structure" && key != "response_format" {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		fmt.Fprintf(&b, "## %s\n\n", titleCase(key))
		writeValueMarkdown(&b, guide[key])
		b.WriteString("\n")
	}
	return b.String()
}

func writeValueMarkdown(b *strings.Builder, value interface{}) {
	switch v := value.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(b, "- **%s:** %s\n", titleCase(key), formatScalar(v[key]))
		}
	case []interface{}:
		for _, item := range v {
			if entry, ok := item.(map[string]interface{}); ok {
				if name, ok := entry["name"].(string); ok {
					fmt.Fprintf(b, "- **%s:** %s\n", name, formatScalar(entry["description"]))
					continue
				}
			}
			fmt.Fprintf(b, "- %s\n", formatScalar(item))
		}
	default:
		fmt.Fprintf(b, "%s\n", formatScalar(v))
	}
}

func formatScalar(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	case bool:
		return fmt.Sprintf("%t", v)
	case map[string]interface{}, []interface{}:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	default:
		return fmt.Sprint(v)
	}
}

func titleCase(key string) string {
	words := strings.Split(strings.ReplaceAll(key, "_", " "), " ")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
