package models

import "fmt"

// DocumentKind selects which document shape a deployment produces.
type DocumentKind string

const (
	KindQuote DocumentKind = "quote"
	KindRFQ   DocumentKind = "rfq"
)

// Valid reports whether k names a supported document shape.
func (k DocumentKind) Valid() bool {
	return k == KindQuote || k == KindRFQ
}

// ParseDocumentKind converts a configuration string to a DocumentKind.
func ParseDocumentKind(s string) (DocumentKind, error) {
	k := DocumentKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown document kind %q (want quote or rfq)", s)
	}
	return k, nil
}

// Document is the synthesized output artifact. It is implemented by *Quote and *RFQ only.
type Document interface {
	Kind() DocumentKind
	// Title is the human-facing name of the project.
	Title() string
	// Budget is the presentation string carrying the document's money figure.
	Budget() string
	sealed()
}

// QuoteItem is one priced line of a quote. All values are presentation strings.
type QuoteItem struct {
	Name  string `json:"name"`
	Qty   string `json:"qty"`
	Price string `json:"price"`
	Total string `json:"total"`
}

// Quote is a priced estimate for the client.
type Quote struct {
	ProjectName string      `json:"project_name"`
	ClientName  string      `json:"client_name"`
	Date        string      `json:"date"`
	Items       []QuoteItem `json:"items"`
	TotalCost   string      `json:"total_cost"`
}

func (q *Quote) Kind() DocumentKind { return KindQuote }
func (q *Quote) Title() string      { return q.ProjectName }
func (q *Quote) Budget() string     { return q.TotalCost }
func (q *Quote) sealed()            {}

// ScopeItem is one phase or task of an RFQ's scope of work.
type ScopeItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Deliverable string `json:"deliverable"`
}

// RFQ is a Request for Quotation sent to vendors.
type RFQ struct {
	ProjectTitle          string      `json:"project_title"`
	RFQNumber             string      `json:"rfq_number"`
	DateIssued            string      `json:"date_issued"`
	ExecutiveSummary      string      `json:"executive_summary"`
	ScopeOfWork           []ScopeItem `json:"scope_of_work"`
	TechnicalRequirements []string    `json:"technical_requirements"`
	ProjectTimeline       string      `json:"project_timeline"`
	BudgetRange           string      `json:"budget_range"`
	SubmissionDeadline    string      `json:"submission_deadline"`
	ContactInfo           string      `json:"contact_info"`
}

func (r *RFQ) Kind() DocumentKind { return KindRFQ }
func (r *RFQ) Title() string      { return r.ProjectTitle }
func (r *RFQ) Budget() string     { return r.BudgetRange }
func (r *RFQ) sealed()            {}
