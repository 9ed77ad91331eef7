// File path: internal/artifact/artifact.go
package artifact

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Kind identifies one of the derived artifacts the pipeline extracts from a
// source document. The kind participates in the cache key, so two artifact
// kinds derived from the same text never collide.
type Kind string

const (
	KindQuestions     Kind = "questions"
	KindMetadata      Kind = "metadata"
	KindResponseGuide Kind = "response_guide"
	KindFinalResponse Kind = "final_response"

	// Markdown renditions of the extraction artifacts, persisted alongside
	// the structured forms.
	KindQuestionsMarkdown Kind = "questions_markdown"
	KindMetadataMarkdown  Kind = "metadata_markdown"
	KindGuideMarkdown     Kind = "response_guide_markdown"
)

// Requirement is one normalized unit of extracted obligation or query from a
// source document. Field names mirror the structured output requested from
// the generative service.
type Requirement struct {
	ID                 string   `json:"id"`
	Text               string   `json:"text"`
	OriginalText       string   `json:"original_text,omitempty"`
	SearchQuery        string   `json:"search_query,omitempty"`
	SearchAlternatives []string `json:"search_alternatives,omitempty"`
	Type               string   `json:"type,omitempty"`
	Section            string   `json:"section,omitempty"`
	Priority           string   `json:"priority,omitempty"`
	Reference          string   `json:"reference,omitempty"`
	ResponseSection    string   `json:"response_section,omitempty"`
	Tags               []string `json:"tags,omitempty"`
}

// DisplayText is the text shown for the requirement: the search query when
// present, otherwise the original wording, otherwise the normalized text.
func (r Requirement) DisplayText() string {
	if q := strings.TrimSpace(r.SearchQuery); q != "" {
		return q
	}
	if o := strings.TrimSpace(r.OriginalText); o != "" {
		return o
	}
	return strings.TrimSpace(r.Text)
}

// DedupeText is the text used for uniqueness within one extraction: the
// original wording is preferred over the normalized text.
func (r Requirement) DedupeText() string {
	if o := strings.TrimSpace(r.OriginalText); o != "" {
		return o
	}
	return strings.TrimSpace(r.Text)
}

// Metadata holds the dynamically shaped document metadata returned by the
// generative service (issuing organization, key dates, and whatever else the
// model surfaced).
type Metadata map[string]interface{}

// Guide is the response-guide artifact: submission structure, evaluation
// criteria, compliance checklist, and related advisory fields. The service
// output is dynamically shaped, so the guide stays a map with typed
// accessors.
type Guide map[string]interface{}

// Sections returns the section names listed under submission_structure, in
// order.
func (g Guide) Sections() []string {
	raw, ok := g["submission_structure"].([]interface{})
	if !ok {
		return nil
	}
	var sections []string
	for _, item := range raw {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if name, ok := entry["section"].(string); ok && strings.TrimSpace(name) != "" {
			sections = append(sections, strings.TrimSpace(name))
		}
	}
	return sections
}

// EvaluationCriteria renders the evaluation_criteria field to text, whatever
// shape the service produced.
func (g Guide) EvaluationCriteria() string {
	raw, ok := g["evaluation_criteria"]
	if !ok {
		return ""
	}
	return renderValue(raw)
}

// ResponseFormat renders the response_format field to text.
func (g Guide) ResponseFormat() string {
	raw, ok := g["response_format"]
	if !ok {
		return ""
	}
	return renderValue(raw)
}

// ExecutiveSummary returns the executive_summary field when the service
// produced one.
func (g Guide) ExecutiveSummary() string {
	if summary, ok := g["executive_summary"].(string); ok {
		return strings.TrimSpace(summary)
	}
	return ""
}

// SummaryLines flattens the guide into prompt-ready lines covering the
// submission structure, evaluation criteria, compliance checklist, and
// content mapping. Fields the service omitted are skipped.
func (g Guide) SummaryLines() []string {
	var lines []string

	if structure, ok := g["submission_structure"].([]interface{}); ok {
		for _, item := range structure {
			entry, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			name, _ := entry["section"].(string)
			if strings.TrimSpace(name) == "" {
				continue
			}
			line := "Section: " + strings.TrimSpace(name)
			if desc, ok := entry["description"].(string); ok && desc != "" {
				line += " - " + desc
			}
			if reqs, ok := entry["requirements"].([]interface{}); ok && len(reqs) > 0 {
				line += "\nRequirements:"
				for _, req := range reqs {
					line += "\n- " + renderValue(req)
				}
			}
			lines = append(lines, line)
		}
	}

	if criteria, ok := g["evaluation_criteria"]; ok {
		switch val := criteria.(type) {
		case map[string]interface{}:
			lines = append(lines, "Evaluation Criteria:")
			for _, key := range sortedKeys(val) {
				lines = append(lines, fmt.Sprintf("- %s: %s", key, renderValue(val[key])))
			}
		case []interface{}:
			lines = append(lines, "Evaluation Criteria:")
			for _, item := range val {
				if entry, ok := item.(map[string]interface{}); ok {
					if criterion, ok := entry["criterion"].(string); ok {
						line := "- " + criterion
						if weight, ok := entry["weight"]; ok {
							line += fmt.Sprintf(" (Weight: %s)", renderValue(weight))
						}
						lines = append(lines, line)
						continue
					}
				}
				lines = append(lines, "- "+renderValue(item))
			}
		default:
			lines = append(lines, "Evaluation Criteria: "+renderValue(val))
		}
	}

	if checklist, ok := g["compliance_checklist"].([]interface{}); ok && len(checklist) > 0 {
		lines = append(lines, "Compliance Requirements:")
		for _, item := range checklist {
			if entry, ok := item.(map[string]interface{}); ok {
				if req, ok := entry["requirement"].(string); ok {
					lines = append(lines, "- "+req)
					continue
				}
			}
			lines = append(lines, "- "+renderValue(item))
		}
	}

	if mapping, ok := g["content_mapping"].(map[string]interface{}); ok && len(mapping) > 0 {
		lines = append(lines, "Content Mapping:")
		for _, key := range sortedKeys(mapping) {
			lines = append(lines, fmt.Sprintf("- %s: %s", key, renderValue(mapping[key])))
		}
	}

	return lines
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func renderValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	case bool:
		return fmt.Sprintf("%t", val)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

// SourceLabel resolves the display label for a retrieved passage: the
// doc_name metadata field when present, the basename of the source path as a
// fallback, and "Unknown" when neither exists.
func SourceLabel(metadata map[string]interface{}) string {
	if name, ok := metadata["doc_name"].(string); ok && strings.TrimSpace(name) != "" {
		return strings.TrimSpace(name)
	}
	if source, ok := metadata["source"].(string); ok && strings.TrimSpace(source) != "" {
		return filepath.Base(strings.TrimSpace(source))
	}
	return "Unknown"
}
