package fallback

import (
	"regexp"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfq-workers/internal/models"
)

var fixedNow = time.Date(2025, time.May, 1, 10, 0, 0, 0, time.UTC)

func TestStep_CannedQuestions(t *testing.T) {
	cfg := DefaultConfig()

	qs, ok := Step(nil, "residential", cfg, fixedNow).(models.QuestionStep)
	require.True(t, ok)
	assert.Equal(t, "What specific type of residential project are you looking for?", qs.Question.Text)
	assert.Equal(t, models.InputText, qs.Question.InputType)
	assert.Nil(t, qs.Question.Options)

	h := models.History{{Question: qs.Question.Text, Answer: "Villa repaint"}}
	qs, ok = Step(h, "residential", cfg, fixedNow).(models.QuestionStep)
	require.True(t, ok)
	assert.Equal(t, "What is your approximate budget range?", qs.Question.Text)
	assert.Equal(t, models.InputSelect, qs.Question.InputType)
	assert.Len(t, qs.Question.Options, 4)

	h = h.Append(models.Turn{Question: qs.Question.Text, Answer: "$5,000 - $10,000"})
	qs, ok = Step(h, "residential", cfg, fixedNow).(models.QuestionStep)
	require.True(t, ok)
	assert.Equal(t, "What is your preferred timeline?", qs.Question.Text)
	assert.Len(t, qs.Question.Options, 3)

	h = h.Append(models.Turn{Question: qs.Question.Text, Answer: "Soon (1-2 weeks)"})
	ds, ok := Step(h, "residential", cfg, fixedNow).(models.DocumentStep)
	require.True(t, ok)
	assert.Equal(t, models.KindRFQ, ds.Document.Kind())
}

func TestStep_QuestionsSatisfyInvariants(t *testing.T) {
	var h models.History
	for i := 0; i < 3; i++ {
		qs := Step(h, "commercial", DefaultConfig(), fixedNow).(models.QuestionStep)
		assert.NoError(t, qs.Question.Check())
		h = h.Append(models.Turn{Question: qs.Question.Text, Answer: "x"})
	}
}

func TestStep_LimitAboveCannedCountStillTerminates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FirstPhaseLimit = 8
	h := models.History{{Question: "a", Answer: "1"}, {Question: "b", Answer: "2"}, {Question: "c", Answer: "3"}}
	_, ok := Step(h, "residential", cfg, fixedNow).(models.DocumentStep)
	assert.True(t, ok)
}

func TestStep_Pure(t *testing.T) {
	h := models.History{
		{Question: "What specific type of residential project are you looking for?", Answer: "Kitchen"},
		{Question: "What is your approximate budget range?", Answer: "AED 10,000"},
		{Question: "What is your preferred timeline?", Answer: "Flexible"},
	}
	a := Step(h, "residential", DefaultConfig(), fixedNow)
	b := Step(h, "residential", DefaultConfig(), fixedNow.Add(3*time.Hour))
	assert.Equal(t, a, b)

	cfg := DefaultConfig()
	cfg.Kind = models.KindQuote
	assert.Equal(t, Step(h, "residential", cfg, fixedNow), Step(h, "residential", cfg, fixedNow))
}

func TestDocument_RFQ(t *testing.T) {
	h := models.History{{Question: "What is your approximate budget range?", Answer: "AED 10,000 - AED 12,000"}}
	doc := Document(h, "residential", DefaultConfig(), fixedNow)

	r, ok := doc.(*models.RFQ)
	require.True(t, ok)
	assert.Equal(t, "RFQ for Residential Project", r.ProjectTitle)
	assert.Equal(t, "AED 10,000 - AED 12,000", r.BudgetRange)
	assert.Equal(t, "May 1, 2025", r.DateIssued)
	assert.Equal(t, "5/8/2025", r.SubmissionDeadline)
	assert.Equal(t, "procurement@3quotes.ae", r.ContactInfo)
	assert.Len(t, r.ScopeOfWork, 3)
	assert.Len(t, r.TechnicalRequirements, 3)
	assert.Regexp(t, regexp.MustCompile(`^RFQ-2025-\d{4}$`), r.RFQNumber)

	noBudget := Document(nil, "residential", DefaultConfig(), fixedNow).(*models.RFQ)
	assert.Equal(t, "AED 5,000 - AED 15,000", noBudget.BudgetRange)
}

func TestDocument_Quote(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Kind = models.KindQuote
	q, ok := Document(nil, "landscaping", cfg, fixedNow).(*models.Quote)
	require.True(t, ok)
	assert.Equal(t, "Landscaping Project", q.ProjectName)
	assert.Equal(t, "John Doe", q.ClientName)
	assert.Equal(t, "May 1, 2025", q.Date)
	assert.Len(t, q.Items, 4)
	assert.Equal(t, "$3,000", q.TotalCost)
}

func TestRFQNumber(t *testing.T) {
	h := models.History{{Question: "q", Answer: "a"}}
	assert.Equal(t, RFQNumber(h, "residential", fixedNow), RFQNumber(h, "residential", fixedNow))
	assert.Regexp(t, `^RFQ-2026-\d{4}$`, RFQNumber(h, "commercial", fixedNow.AddDate(1, 0, 0)))
}

func TestDocument_NonASCIICategory(t *testing.T) {
	r := Document(nil, "éco-rénovation", DefaultConfig(), fixedNow).(*models.RFQ)
	assert.Equal(t, "RFQ for Éco-rénovation Project", r.ProjectTitle)
	assert.True(t, utf8.ValidString(r.ProjectTitle))
}
