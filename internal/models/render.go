package models

import (
	"fmt"
	"strings"
)

// Render produces a plain-text rendering of a document, used for email bodies.
func Render(doc Document) string {
	var b strings.Builder
	switch d := doc.(type) {
	case *Quote:
		fmt.Fprintf(&b, "QUOTE: %s\n", d.ProjectName)
		fmt.Fprintf(&b, "Client: %s\nDate: %s\n\n", d.ClientName, d.Date)
		for _, it := range d.Items {
			fmt.Fprintf(&b, "- %s | %s x %s = %s\n", it.Name, it.Qty, it.Price, it.Total)
		}
		fmt.Fprintf(&b, "\nTotal: %s\n", d.TotalCost)
	case *RFQ:
		fmt.Fprintf(&b, "REQUEST FOR QUOTATION %s\n%s\n", d.RFQNumber, d.ProjectTitle)
		fmt.Fprintf(&b, "Issued: %s\n\n", d.DateIssued)
		fmt.Fprintf(&b, "Executive summary\n%s\n\n", d.ExecutiveSummary)
		b.WriteString("Scope of work\n")
		for i, s := range d.ScopeOfWork {
			fmt.Fprintf(&b, "%d. %s: %s (deliverable: %s)\n", i+1, s.Title, s.Description, s.Deliverable)
		}
		b.WriteString("\nTechnical requirements\n")
		for _, r := range d.TechnicalRequirements {
			fmt.Fprintf(&b, "- %s\n", r)
		}
		fmt.Fprintf(&b, "\nTimeline: %s\nBudget: %s\n", d.ProjectTimeline, d.BudgetRange)
		fmt.Fprintf(&b, "Submission deadline: %s\nContact: %s\n", d.SubmissionDeadline, d.ContactInfo)
	}
	return b.String()
}

// Summary is a one-line description suitable for SMS.
func Summary(doc Document) string {
	return fmt.Sprintf("%s ready: %s (%s)", strings.ToUpper(string(doc.Kind())), doc.Title(), doc.Budget())
}
