// Package fallback produces deterministic questions and documents without calling
// the generation service. Everything here is pure; only date fields read now.
package fallback

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rfq-workers/internal/models"
)

// Config controls the fallback flow.
type Config struct {
	Kind            models.DocumentKind
	FirstPhaseLimit int
	Currency        string
	ContactEmail    string
}

// DefaultConfig matches the stock deployment: three canned questions, then an RFQ in AED.
func DefaultConfig() Config {
	return Config{
		Kind:            models.KindRFQ,
		FirstPhaseLimit: 3,
		Currency:        "AED",
		ContactEmail:    "procurement@3quotes.ae",
	}
}

// rfqNamespace seeds the name-based UUIDs behind fallback RFQ numbers.
var rfqNamespace = uuid.MustParse("6f1c2a8e-4b7d-5e3a-9c10-3a2b4c5d6e7f")

func cannedQuestions(category models.Category) []models.Question {
	return []models.Question{
		models.TextQuestion(fmt.Sprintf("What specific type of %s project are you looking for?", category)),
		models.SelectQuestion("What is your approximate budget range?",
			"Under $1,000", "$1,000 - $5,000", "$5,000 - $10,000", "Over $10,000"),
		models.SelectQuestion("What is your preferred timeline?",
			"Urgent (within 1 week)", "Soon (1-2 weeks)", "Flexible (1 month+)"),
	}
}

// Step returns the canned question for the current position while the history is
// shorter than the first-phase limit, and a placeholder document afterwards.
func Step(history models.History, category models.Category, cfg Config, now time.Time) models.NextStep {
	questions := cannedQuestions(category)
	limit := cfg.FirstPhaseLimit
	if limit > len(questions) {
		limit = len(questions)
	}
	if n := history.Len(); n < limit {
		return models.QuestionStep{Question: questions[n]}
	}
	return models.DocumentStep{Document: Document(history, category, cfg, now)}
}

// Document returns the placeholder document of the configured kind.
func Document(history models.History, category models.Category, cfg Config, now time.Time) models.Document {
	if cfg.Kind == models.KindQuote {
		return quote(category, now)
	}
	return rfq(history, category, cfg, now)
}

func projectName(category models.Category) string {
	return category.Title() + " Project"
}

func quote(category models.Category, now time.Time) *models.Quote {
	return &models.Quote{
		ProjectName: projectName(category),
		ClientName:  "John Doe",
		Date:        now.Format("Jan 2, 2006"),
		Items: []models.QuoteItem{
			{Name: "Consultation & Planning", Qty: "1", Price: "$500", Total: "$500"},
			{Name: "Materials & Equipment", Qty: "1", Price: "$1,500", Total: "$1,500"},
			{Name: "Labor (estimated)", Qty: "8 hours", Price: "$75/hr", Total: "$600"},
			{Name: "Project Management", Qty: "1", Price: "$400", Total: "$400"},
		},
		TotalCost: "$3,000",
	}
}

func rfq(history models.History, category models.Category, cfg Config, now time.Time) *models.RFQ {
	currency := cfg.Currency
	if currency == "" {
		currency = "AED"
	}
	budget := fmt.Sprintf("%s 5,000 - %s 15,000", currency, currency)
	if answer, ok := history.FindAnswer("budget"); ok && answer != "" {
		budget = answer
	}
	contact := cfg.ContactEmail
	if contact == "" {
		contact = DefaultConfig().ContactEmail
	}

	return &models.RFQ{
		ProjectTitle: "RFQ for " + projectName(category),
		RFQNumber:    RFQNumber(history, category, now),
		DateIssued:   now.Format("January 2, 2006"),
		ExecutiveSummary: fmt.Sprintf("This Request for Quotation (RFQ) outlines the requirements for a %s project. "+
			"The goal is to select a qualified vendor who can deliver high-quality results within the specified timeline and budget.", category),
		ScopeOfWork: []models.ScopeItem{
			{
				Title:       "Phase 1: Planning & Design",
				Description: "Initial consultation, site assessment, and detailed planning.",
				Deliverable: "Project plan and design approval.",
			},
			{
				Title:       "Phase 2: Execution",
				Description: "Implementation of the main project tasks as per specifications.",
				Deliverable: "Completed project work.",
			},
			{
				Title:       "Phase 3: Review & Handover",
				Description: "Final quality checks and project handover.",
				Deliverable: "Signed off completion certificate.",
			},
		},
		TechnicalRequirements: []string{
			"All work must comply with local UAE regulations.",
			"Vendor must provide all necessary tools and equipment.",
			"Quality of materials must meet industry standards.",
		},
		ProjectTimeline:    "Estimated 2-4 weeks",
		BudgetRange:        budget,
		SubmissionDeadline: now.AddDate(0, 0, 7).Format("1/2/2006"),
		ContactInfo:        contact,
	}
}

// RFQNumber derives RFQ-YYYY-NNNN from the conversation. Equal inputs give equal numbers.
func RFQNumber(history models.History, category models.Category, now time.Time) string {
	id := uuid.NewSHA1(rfqNamespace, []byte(string(category)+"\x00"+history.Transcript()))
	n := 1000 + binary.BigEndian.Uint32(id[:4])%9000
	return fmt.Sprintf("RFQ-%d-%04d", now.Year(), n)
}
