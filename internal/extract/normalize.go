// File path: internal/extract/normalize.go
package extract

import (
	"encoding/json"

	"github.com/bidsmith/rfpcopilot/internal/artifact"
)

// Shape classifies the structure of a model's extraction payload. The
// generative service is asked for {"questions": [...]} but in practice
// returns several layouts; each one is recognized explicitly and anything
// else is ShapeUnparseable.
type Shape int

const (
	// ShapeList is a bare JSON array of requirement records.
	ShapeList Shape = iota
	// ShapeKeyedList is an object holding the records under a "questions"
	// or "requirements" key.
	ShapeKeyedList
	// ShapeSingle is one requirement record returned as a bare object.
	ShapeSingle
	// ShapeUnparseable is anything that matched none of the layouts.
	ShapeUnparseable
)

func (s Shape) String() string {
	switch s {
	case ShapeList:
		return "list"
	case ShapeKeyedList:
		return "keyed_list"
	case ShapeSingle:
		return "single"
	default:
		return "unparseable"
	}
}

// recordKeys are the fields whose presence marks a bare object as a single
// requirement record.
var recordKeys = []string{"id", "text", "type", "original_text", "search_query"}

// ParseRequirements decodes a raw model payload into requirement records,
// reporting which layout matched. ShapeUnparseable yields no records; the
// caller decides whether to substitute a fallback.
func ParseRequirements(raw string) ([]artifact.Requirement, Shape) {
	data := []byte(raw)

	var list []artifact.Requirement
	if err := json.Unmarshal(data, &list); err == nil {
		return list, ShapeList
	}

	var keyed map[string]json.RawMessage
	if err := json.Unmarshal(data, &keyed); err != nil {
		return nil, ShapeUnparseable
	}
	for _, key := range []string{"questions", "requirements"} {
		rawList, ok := keyed[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(rawList, &list); err == nil {
			return list, ShapeKeyedList
		}
	}
	for _, key := range recordKeys {
		if _, ok := keyed[key]; !ok {
			continue
		}
		var single artifact.Requirement
		if err := json.Unmarshal(data, &single); err == nil {
			return []artifact.Requirement{single}, ShapeSingle
		}
		break
	}
	return nil, ShapeUnparseable
}

// Dedupe drops records whose wording was already seen, preferring the
// original document text over the normalized text for comparison. Records
// with no usable text are dropped outright.
func Dedupe(reqs []artifact.Requirement) []artifact.Requirement {
	seen := make(map[string]struct{}, len(reqs))
	unique := make([]artifact.Requirement, 0, len(reqs))
	for _, req := range reqs {
		text := req.DedupeText()
		if text == "" {
			continue
		}
		if _, ok := seen[text]; ok {
			continue
		}
		seen[text] = struct{}{}
		unique = append(unique, req)
	}
	return unique
}

// FallbackRequirements is the single generic record substituted when a
// whole-document extraction returns an unparseable payload.
func FallbackRequirements() []artifact.Requirement {
	return []artifact.Requirement{{
		ID:       "q1",
		Text:     "What are the key requirements in this RFP?",
		Type:     "general",
		Section:  "General",
		Priority: "High",
	}}
}
