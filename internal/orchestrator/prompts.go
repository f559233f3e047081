package orchestrator

import (
	"encoding/json"
	"fmt"
	"strings"

	"rfq-workers/internal/models"
)

// User prompts, one per stage.
const (
	stepUserPrompt       = "Based on the conversation history, what is the next step? Either ask another relevant question or generate the final %s document."
	synthesizeUserPrompt = "Generate the %s document now."
	auditUserPrompt      = "Perform the audit and return your assessment."
	refineUserPrompt     = "Implement the requested changes and generate the updated %s JSON."
)

const rfqShape = `{
    "project_title": string,
    "rfq_number": string,
    "date_issued": string,
    "executive_summary": string,
    "scope_of_work": [{ "title": string, "description": string, "deliverable": string }],
    "technical_requirements": string[],
    "project_timeline": string,
    "budget_range": string,
    "submission_deadline": string,
    "contact_info": string
}`

const quoteShape = `{
    "project_name": string,
    "client_name": string,
    "date": string,
    "items": [{ "name": string, "qty": string, "price": string, "total": string }],
    "total_cost": string
}`

func documentShape(kind models.DocumentKind) string {
	if kind == models.KindQuote {
		return quoteShape
	}
	return rfqShape
}

func documentNoun(kind models.DocumentKind) string {
	if kind == models.KindQuote {
		return "Quote"
	}
	return "RFQ"
}

func documentLongName(kind models.DocumentKind) string {
	if kind == models.KindQuote {
		return "PRICE QUOTE"
	}
	return "REQUEST FOR QUOTATION (RFQ)"
}

func transcriptOrPlaceholder(h models.History) string {
	if h.Len() == 0 {
		return "No questions asked yet."
	}
	return h.Transcript()
}

func documentJSON(doc models.Document) string {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", doc)
	}
	return string(b)
}

func (e *Engine) stepPrompt(history models.History, category models.Category, budget int) string {
	kind := e.cfg.Kind
	noun := documentNoun(kind)
	var b strings.Builder

	fmt.Fprintf(&b, "You are an expert Procurement Specialist for %q.\n", e.cfg.Organization)
	fmt.Fprintf(&b, "Your goal is to gather COMPREHENSIVE information from the user to generate a PROFESSIONAL %s document.\n", documentLongName(kind))
	if kind == models.KindRFQ {
		b.WriteString("This document will be sent to vendors so they can bid on the user's project.\n")
	}

	fmt.Fprintf(&b, "\n## Context\n- Category: %q\n- Questions asked so far: %d\n- Minimum questions required: %d\n- Maximum questions allowed: %d\n",
		string(category), history.Len(), e.cfg.MinQuestions, budget)
	fmt.Fprintf(&b, "\n## Conversation History\n%s\n", transcriptOrPlaceholder(history))

	fmt.Fprintf(&b, "\n## CRITICAL INSTRUCTIONS\n\n### When to Generate the %s:\n", noun)
	fmt.Fprintf(&b, "- Only generate the %s after asking AT LEAST %d questions.\n", noun, e.cfg.MinQuestions)
	fmt.Fprintf(&b, "- You MUST generate the %s after %d questions.\n", noun, budget)
	fmt.Fprintf(&b, "- Generate the %s when you have gathered clear details on: scope, tech specs, timeline, location, and budget constraints.\n", noun)

	b.WriteString("\n### When to Ask a QUESTION:\n")
	fmt.Fprintf(&b, "- If fewer than %d questions have been asked, you MUST ask another question.\n", e.cfg.MinQuestions)
	b.WriteString("- Ask targeted questions to clarify the scope of work and technical requirements.\n")
	b.WriteString("- Use inputType \"select\" with a non-empty options list for multiple-choice questions; otherwise set options to null.\n")

	fmt.Fprintf(&b, "\n### %s GENERATION RULES (CRITICAL):\n", noun)
	b.WriteString("1. **Professional Tone:** The output must be a formal business document.\n")
	if kind == models.KindRFQ {
		b.WriteString("2. **Detailed Scope:** Break down the work into clear, actionable phases or tasks in 'scope_of_work'.\n")
		b.WriteString("3. **Specific Requirements:** In 'technical_requirements', list specific constraints (e.g., \"Work hours 9am-5pm only\").\n")
	} else {
		b.WriteString("2. **Itemized Pricing:** List every cost line in 'items' with quantity, unit price and line total.\n")
		b.WriteString("3. **Consistent Totals:** 'total_cost' must equal the sum of the item totals.\n")
	}
	b.WriteString("4. **Accurate Reflection:** The document must strictly reflect the user's answers.\n")
	fmt.Fprintf(&b, "5. **Currency:** All amounts must be in %s.\n", e.cfg.Currency)
	if kind == models.KindRFQ {
		fmt.Fprintf(&b, "6. **Contact:** Use %q as 'contact_info'.\n", e.cfg.ContactEmail)
	}

	b.WriteString("\n### JSON SCHEMA RULES:\n")
	fmt.Fprintf(&b, "- Set 'question' to null when type is '%s'.\n", kind)
	fmt.Fprintf(&b, "- Set '%s' to null when type is 'question'.\n", kind)

	fmt.Fprintf(&b, "\nRespond with valid JSON:\n{\n    \"type\": \"question\" | %q,\n", string(kind))
	b.WriteString("    \"question\": { \"text\": string, \"inputType\": \"text\" | \"number\" | \"select\", \"options\": string[] | null } | null,\n")
	fmt.Fprintf(&b, "    %q: %s | null\n}", string(kind), documentShape(kind))
	return b.String()
}

func (e *Engine) synthesizePrompt(history models.History, category models.Category) string {
	kind := e.cfg.Kind
	var b strings.Builder

	fmt.Fprintf(&b, "You are an expert Procurement Specialist for %q.\n", e.cfg.Organization)
	fmt.Fprintf(&b, "Generate a PROFESSIONAL %s document based on the conversation below.\n", documentLongName(kind))
	fmt.Fprintf(&b, "\n## Category: %q\n", string(category))
	fmt.Fprintf(&b, "\n## Conversation History\n%s\n", transcriptOrPlaceholder(history))

	b.WriteString("\n## CRITICAL RULES:\n")
	fmt.Fprintf(&b, "1. The %s MUST accurately reflect ALL information from the conversation\n", documentNoun(kind))
	b.WriteString("2. Do NOT add scope items that weren't discussed\n")
	b.WriteString("3. Budget MUST align with what the user indicated\n")
	fmt.Fprintf(&b, "4. All prices in %s\n", e.cfg.Currency)
	b.WriteString("5. Be specific - use exact details from the conversation\n")

	fmt.Fprintf(&b, "\nRespond with ONLY the %s JSON (no \"type\" wrapper):\n%s", documentNoun(kind), documentShape(kind))
	return b.String()
}

func (e *Engine) auditPrompt(history models.History, doc models.Document) string {
	noun := documentNoun(doc.Kind())
	var b strings.Builder

	fmt.Fprintf(&b, "You are a Quality Assurance Auditor for %s documents.\n", noun)
	fmt.Fprintf(&b, "Your job is to compare the generated %s against the original Q&A conversation and identify any:\n\n", noun)
	fmt.Fprintf(&b, "1. **Missing Information**: Details the user provided that are NOT reflected in the %s\n", noun)
	fmt.Fprintf(&b, "2. **Contradictions**: %s content that contradicts what the user said\n", noun)
	fmt.Fprintf(&b, "3. **Hallucinations**: Information in the %s that was never mentioned by the user\n", noun)
	b.WriteString("4. **Incomplete Scope**: Important aspects that should be added based on the conversation\n")

	fmt.Fprintf(&b, "\n## Q&A Conversation History\n%s\n", transcriptOrPlaceholder(history))
	fmt.Fprintf(&b, "\n## Generated %s\n%s\n", noun, documentJSON(doc))

	b.WriteString("\n### PASS Criteria (ALL must be true):\n")
	fmt.Fprintf(&b, "- All user requirements are reflected in the %s\n", noun)
	b.WriteString("- No contradictions between user answers and document content\n")
	b.WriteString("- Budget reflects what user stated or is reasonable\n")
	b.WriteString("- Timeline aligns with user expectations\n")
	b.WriteString("- Scope of work covers all mentioned tasks\n")

	b.WriteString("\n### FAIL Criteria (ANY triggers fail):\n")
	b.WriteString("- Missing critical requirements from user answers\n")
	b.WriteString("- Contradicting user's stated preferences\n")
	b.WriteString("- Adding scope items user didn't request\n")
	b.WriteString("- Wrong budget range vs what user indicated\n")

	b.WriteString("\nRespond with JSON:\n{\n    \"passed\": boolean,\n    \"issues\": string[],\n    \"refinement_instructions\": string | null\n}\n")
	b.WriteString("When passed is true, issues must be empty and refinement_instructions must be null.")
	return b.String()
}

func (e *Engine) refinePrompt(doc models.Document, feedback string) string {
	noun := documentNoun(doc.Kind())
	var b strings.Builder

	fmt.Fprintf(&b, "You are an expert Procurement Specialist for %q.\n", e.cfg.Organization)
	fmt.Fprintf(&b, "Your goal is to MODIFY an existing %s based on user feedback.\n", noun)
	fmt.Fprintf(&b, "\n## Current %s Data\n%s\n", noun, documentJSON(doc))
	fmt.Fprintf(&b, "\n## User Feedback (Instructions for Change)\n%s\n", feedback)

	b.WriteString("\n## CRITICAL INSTRUCTIONS\n")
	b.WriteString("1. **Apply Changes:** Carefully interpret the feedback and update the affected fields accordingly.\n")
	b.WriteString("2. **Maintain Professionalism:** The updated content keeps a formal business tone.\n")
	b.WriteString("3. **Consistency:** Update every related field, e.g. added work changes scope and budget.\n")
	b.WriteString("4. **Preserve Good Data:** Do not remove existing high-quality details unless asked to change them.\n")
	fmt.Fprintf(&b, "5. **Currency:** All amounts remain in %s.\n", e.cfg.Currency)

	fmt.Fprintf(&b, "\nRespond with valid JSON matching the %s schema:\n%s", noun, documentShape(doc.Kind()))
	return b.String()
}

// RefinementFeedback turns a failed verdict into the feedback passed to refinement.
func RefinementFeedback(history models.History, verdict *models.AuditVerdict) string {
	var b strings.Builder
	b.WriteString("AUDIT ISSUES FOUND:\n")
	for i, issue := range verdict.Issues {
		fmt.Fprintf(&b, "%d. %s\n", i+1, issue)
	}
	instructions := verdict.Instructions()
	if instructions == "" {
		instructions = "Fix all the issues listed above."
	}
	fmt.Fprintf(&b, "\nREFINEMENT INSTRUCTIONS:\n%s\n", instructions)
	fmt.Fprintf(&b, "\nORIGINAL Q&A HISTORY FOR REFERENCE:\n%s", history.Transcript())
	return b.String()
}
