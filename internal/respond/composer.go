// File path: internal/respond/composer.go
package respond

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/bidsmith/rfpcopilot/internal/artifact"
	"github.com/bidsmith/rfpcopilot/internal/common"
	"github.com/bidsmith/rfpcopilot/internal/llm"
)

const (
	stageTemperature = 0.3
	stageMaxTokens   = 4000
	finalTemperature = 0.3
	finalMaxTokens   = 12000

	composerSystemPrompt = "You are an expert proposal writer who creates winning RFP responses."
)

// GenerateFinalDocument assembles the complete response document. It works
// through three strategies in order: multi-stage generation (outline, then
// executive summary, each major section, and a conclusion), a single
// full-document model call, and finally a mechanical assembly of whatever
// material is on hand. Each strategy is only attempted when the previous
// one fails, so a document always comes back.
func (s *Service) GenerateFinalDocument(ctx context.Context, guide artifact.Guide, responses []*Response, metadata artifact.Metadata, responsesText string) string {
	logger := common.Logger()
	logger.Info("respond: generating final document", "responses", len(responses))

	sections := guide.Sections()
	if _, ok := guide["evaluation_criteria"]; ok {
		sections = append(sections, "Evaluation Criteria")
	}
	if _, ok := guide["compliance_checklist"]; ok {
		sections = append(sections, "Compliance Checklist")
	}

	sectionResponses := groupBySection(responses)
	structure := formatStructure(guide, sections)
	sectionAnswers := formatSectionAnswers(sectionResponses, responsesText)
	rfpSummary := summarizeRFP(guide, metadata)

	var evaluationCriteria, formatRequirements string
	if criteria, ok := guide["evaluation_criteria"]; ok {
		evaluationCriteria = fmt.Sprint(criteria)
	}
	if format, ok := guide["response_format"]; ok {
		formatRequirements = fmt.Sprint(format)
	}

	content, err := s.multiStageDocument(ctx, structure, rfpSummary, evaluationCriteria, sectionResponses)
	if err == nil {
		return content
	}
	logger.Error("respond: multi-stage generation failed, trying single call", "error", err)

	content, err = s.singleCallDocument(ctx, rfpSummary, structure, sectionAnswers, evaluationCriteria, formatRequirements)
	if err == nil {
		return content
	}
	logger.Error("respond: single-call generation failed, using fallback assembly", "error", err)

	return fallbackDocument(guide, responses, responsesText)
}

// multiStageDocument generates the document outline first, then produces
// each major section separately so every section gets the model's full
// attention. An outline failure aborts the strategy; a failed section is
// replaced with a placeholder rather than losing the whole document.
func (s *Service) multiStageDocument(ctx context.Context, structure, rfpSummary, evaluationCriteria string, sectionResponses map[string][]*Response) (string, error) {
	logger := common.Logger()

	outlinePrompt := fmt.Sprintf("Based on the following submission structure, create a detailed document outline with all major sections and subsections:\n\n%s\n\nCreate ONLY the outline with headings and subheadings (no content). Format each major heading with '# ' prefix (e.g., '# Technical Approach') and each subheading with '## ' prefix.", structure)
	outline, err := s.generateStage(ctx, outlinePrompt)
	if err != nil {
		return "", fmt.Errorf("outline generation: %w", err)
	}

	majorSections := ExtractSections(outline, structure)
	logger.Info("respond: extracted major sections", "count", len(majorSections))

	var b strings.Builder

	execPrompt := fmt.Sprintf("Create a compelling executive summary (2-3 pages) for the RFP response with the following requirements:\n\n%s\n\nRFP Overview:\n%s\n\nCreate a comprehensive executive summary that introduces your solution, highlights key differentiators, addresses critical client needs, and outlines the major benefits and value propositions. Focus on strategic positioning, strong value statements, and business outcomes. Format using professional markdown with appropriate headings.", structure, rfpSummary)
	b.WriteString(s.stageOrPlaceholder(ctx, "Executive Summary", execPrompt))
	b.WriteString("\n\n")

	for _, section := range majorSections {
		var p strings.Builder
		fmt.Fprintf(&p, "Create detailed content for the '%s' section of an RFP response.\n\n", section)
		fmt.Fprintf(&p, "RFP Overview:\n%s\n\n", rfpSummary)
		fmt.Fprintf(&p, "Full Submission Structure:\n%s\n\n", structure)
		if answers, ok := sectionResponses[section]; ok {
			fmt.Fprintf(&p, "Relevant section answers for %s:\n", section)
			for _, answer := range answers {
				fmt.Fprintf(&p, "Q: %s\nA: %s\n\n", answer.QuestionText, answer.ResponseText)
			}
		}
		if evaluationCriteria != "" {
			fmt.Fprintf(&p, "Evaluation Criteria to address:\n%s\n\n", evaluationCriteria)
		}
		fmt.Fprintf(&p, "Generate EXTREMELY DETAILED AND COMPREHENSIVE content (4-5 pages minimum) for the %s section with the following structure:\n\n", section)
		p.WriteString("1. Begin with a strategic overview paragraph positioning your solution\n")
		p.WriteString("2. Create 4-5 detailed subsections with specific headings relevant to this section\n")
		p.WriteString("3. Include concrete examples, case studies, methodologies, and metrics\n")
		p.WriteString("4. Address explicit requirements from the RFP and also unstated needs\n")
		p.WriteString("5. Connect capabilities to measurable business value and outcomes\n\n")
		p.WriteString("Format as professional markdown with proper heading hierarchy. Do not use placeholder text - generate substantive, detailed content even with limited source material.")

		content := s.stageOrPlaceholder(ctx, section, p.String())
		if !strings.HasPrefix(content, "#") {
			content = fmt.Sprintf("## %s\n\n%s", section, content)
		}
		b.WriteString(content)
		b.WriteString("\n\n")
	}

	conclusionPrompt := fmt.Sprintf("Create a comprehensive conclusion (1-2 pages) for the RFP response based on:\n\n%s\n\n%s\n\nThe conclusion should:\n1. Summarize the key value propositions and differentiators\n2. Reaffirm commitments to client success and outcomes\n3. Address the business impact of your complete solution\n4. Include confidence statements about meeting or exceeding requirements\n5. Provide a strong, compelling call to action\n\nFormat as professional markdown with appropriate headings and structure. Create substantive content (1-2 pages) rather than a brief summary.", rfpSummary, structure)
	conclusion := s.stageOrPlaceholder(ctx, "Conclusion", conclusionPrompt)
	if !strings.HasPrefix(conclusion, "#") {
		conclusion = "## Conclusion\n\n" + conclusion
	}
	b.WriteString(conclusion)

	return b.String(), nil
}

func (s *Service) generateStage(ctx context.Context, userPrompt string) (string, error) {
	cleaned := cleanPrompt(userPrompt)
	return s.invoker.Chat(ctx, llm.ChatRequest{
		Messages:    llm.SystemUser(composerSystemPrompt, cleaned),
		Temperature: stageTemperature,
		MaxTokens:   stageMaxTokens,
	})
}

func (s *Service) stageOrPlaceholder(ctx context.Context, name, userPrompt string) string {
	content, err := s.generateStage(ctx, userPrompt)
	if err != nil {
		common.Logger().Warn("respond: section generation failed", "section", name, "error", err)
		return fmt.Sprintf("# %s\n\n*Note: Content generation for this section failed. Please try regenerating the document.*\n\n", name)
	}
	return content
}

// singleCallDocument asks for the entire document in one model call.
func (s *Service) singleCallDocument(ctx context.Context, rfpSummary, structure, sectionAnswers, evaluationCriteria, formatRequirements string) (string, error) {
	p, err := s.prompts.Get("final_response", map[string]string{
		"rfp_summary":         rfpSummary,
		"response_structure":  structure,
		"section_answers":     sectionAnswers,
		"evaluation_criteria": evaluationCriteria,
		"format_requirements": formatRequirements,
	})
	if err != nil {
		return "", err
	}
	return s.invoker.Chat(ctx, llm.ChatRequest{
		Messages:    llm.SystemUser(p.System, p.User),
		Temperature: finalTemperature,
		MaxTokens:   finalMaxTokens,
	})
}

// fallbackDocument mechanically assembles the available material when every
// model-backed strategy has failed.
func fallbackDocument(guide artifact.Guide, responses []*Response, responsesText string) string {
	var b strings.Builder
	b.WriteString("# Final RFP Response\n\n")
	b.WriteString("*Note: This is an automatically generated fallback response.*\n\n")

	if content, ok := guide["content"].(string); ok && content != "" {
		fmt.Fprintf(&b, "## Response Structure\n%s\n\n", content)
	}

	if responsesText != "" {
		fmt.Fprintf(&b, "## Generated Responses\n%s", responsesText)
	} else if len(responses) > 0 {
		b.WriteString("## Generated Responses\n\n")
		for _, response := range responses {
			question := response.QuestionText
			if question == "" {
				question = "Unknown Question"
			}
			answer := response.ResponseText
			if answer == "" {
				answer = "No response"
			}
			fmt.Fprintf(&b, "### %s\n\n%s\n\n---\n\n", question, answer)
		}
	}
	return b.String()
}

func groupBySection(responses []*Response) map[string][]*Response {
	grouped := make(map[string][]*Response)
	for _, response := range responses {
		section := response.Section
		if section == "" {
			section = "Other"
		}
		grouped[section] = append(grouped[section], response)
	}
	return grouped
}

func formatStructure(guide artifact.Guide, sections []string) string {
	var b strings.Builder
	if _, ok := guide["executive_summary"]; ok {
		b.WriteString("Executive Summary\n\n")
	}
	for _, section := range sections {
		b.WriteString(section)
		b.WriteString("\n")
	}
	return b.String()
}

func formatSectionAnswers(sectionResponses map[string][]*Response, responsesText string) string {
	if responsesText != "" {
		return responsesText
	}
	var b strings.Builder
	for _, section := range sortedSections(sectionResponses) {
		fmt.Fprintf(&b, "SECTION: %s\n\n", section)
		for _, response := range sectionResponses[section] {
			question := response.QuestionText
			if question == "" {
				question = "Unknown Question"
			}
			answer := response.ResponseText
			if answer == "" {
				answer = "No response generated"
			}
			fmt.Fprintf(&b, "QUESTION: %s\n\nANSWER: %s\n\n", question, answer)
		}
		b.WriteString("---\n\n")
	}
	return b.String()
}

func summarizeRFP(guide artifact.Guide, metadata artifact.Metadata) string {
	if summary, ok := metadata["summary"].(string); ok && summary != "" {
		return summary
	}
	if summary, ok := guide["executive_summary"].(string); ok && summary != "" {
		return summary
	}
	return "No summary available"
}

func sortedSections(sectionResponses map[string][]*Response) []string {
	sections := make([]string, 0, len(sectionResponses))
	for section := range sectionResponses {
		sections = append(sections, section)
	}
	sort.Strings(sections)
	return sections
}

func cleanPrompt(p string) string {
	lines := strings.Split(p, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.Join(lines, "\n")
}
