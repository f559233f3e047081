package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "rfq-workers/internal/common/errors"
	"rfq-workers/internal/common/logger"
	"rfq-workers/internal/models"
	"rfq-workers/internal/orchestrator"
	"rfq-workers/internal/repository"
	"rfq-workers/internal/search"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubEngine struct {
	step     models.NextStep
	result   *orchestrator.AuditedResult
	refined  models.Document
	err      error
	gotStep  orchestrator.StepRequest
	feedback string
}

func (s *stubEngine) NextStep(_ context.Context, req orchestrator.StepRequest) (models.NextStep, error) {
	s.gotStep = req
	return s.step, s.err
}

func (s *stubEngine) GenerateAudited(context.Context, models.History, models.Category, models.Credentials) (*orchestrator.AuditedResult, error) {
	return s.result, s.err
}

func (s *stubEngine) Refine(_ context.Context, _ models.Document, feedback string, _ models.Credentials) (models.Document, error) {
	s.feedback = feedback
	return s.refined, s.err
}

type stubStore struct {
	records map[string]*repository.Record
}

func (s *stubStore) Get(_ context.Context, id string) (*repository.Record, error) {
	rec, ok := s.records[id]
	if !ok {
		return nil, apperrors.NewDocumentNotFoundError(id)
	}
	return rec, nil
}

func (s *stubStore) ListByCategory(_ context.Context, category models.Category, limit int) ([]repository.Record, error) {
	var out []repository.Record
	for _, r := range s.records {
		if r.Category == category && len(out) < limit {
			out = append(out, *r)
		}
	}
	return out, nil
}

type stubSearch struct {
	got search.Query
}

func (s *stubSearch) Search(_ context.Context, q search.Query) (*search.Result, error) {
	s.got = q
	return &search.Result{Total: 1, Hits: []search.Hit{{ID: "doc-1", Score: 1.5, Entry: search.Entry{Title: "Villa Repaint"}}}}, nil
}

func sampleRFQ() *models.RFQ {
	return &models.RFQ{ProjectTitle: "Villa Repaint", BudgetRange: "AED 10,000", RFQNumber: "RFQ-2025-0042"}
}

func newTestRouter(t *testing.T, s *Server) *gin.Engine {
	s.Logger = logger.NewTestLogger(t)
	return NewRouter("rfq-test", s)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func TestListModels(t *testing.T) {
	router := newTestRouter(t, &Server{Engine: &stubEngine{}})

	w := doJSON(t, router, http.MethodGet, "/api/v1/models", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Models  []map[string]interface{} `json:"models"`
		Default string                   `json:"default"`
	}
	decode(t, w, &body)
	assert.NotEmpty(t, body.Models)
	assert.Equal(t, "o4-mini", body.Default)
}

func TestNextStep_Question(t *testing.T) {
	engine := &stubEngine{step: models.QuestionStep{Question: models.Question{
		Text:      "What is your approximate budget range?",
		InputType: models.InputText,
	}}}
	router := newTestRouter(t, &Server{Engine: engine})

	w := doJSON(t, router, http.MethodPost, "/api/v1/steps/next", NextStepRequest{
		History:        models.History{{Question: "Type?", Answer: "Villa repaint"}},
		Category:       "residential",
		Credentials:    models.Credentials{APIKey: "sk-test"},
		QuestionBudget: 6,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp NextStepResponse
	decode(t, w, &resp)
	assert.Equal(t, models.StepQuestion, resp.Step.Type)
	assert.False(t, resp.Terminal)
	assert.Equal(t, 1, resp.QuestionCount)
	assert.Equal(t, 6, engine.gotStep.QuestionBudget)
	assert.Equal(t, "sk-test", engine.gotStep.Credentials.APIKey)
}

func TestNextStep_Document(t *testing.T) {
	router := newTestRouter(t, &Server{Engine: &stubEngine{step: models.DocumentStep{Document: sampleRFQ()}}})

	w := doJSON(t, router, http.MethodPost, "/api/v1/steps/next", NextStepRequest{Category: "residential"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp NextStepResponse
	decode(t, w, &resp)
	assert.True(t, resp.Terminal)
	require.NotNil(t, resp.Step.RFQ)
	assert.Equal(t, "Villa Repaint", resp.Step.RFQ.ProjectTitle)
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"no credential", apperrors.NewNoCredentialError(), http.StatusUnauthorized, "NO_CREDENTIAL"},
		{"service error", apperrors.NewServiceError("step", errors.New("upstream 500")), http.StatusBadGateway, "SERVICE_ERROR"},
		{"invalid input", apperrors.NewInvalidInputError("category is required"), http.StatusBadRequest, "INVALID_INPUT"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, &Server{Engine: &stubEngine{err: tt.err}})

			w := doJSON(t, router, http.MethodPost, "/api/v1/steps/next", NextStepRequest{Category: "residential"})
			assert.Equal(t, tt.status, w.Code)

			var resp errorResponse
			decode(t, w, &resp)
			assert.Equal(t, tt.code, resp.Error)
		})
	}
}

func TestNextStep_BadBody(t *testing.T) {
	router := newTestRouter(t, &Server{Engine: &stubEngine{}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/steps/next", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateAudited(t *testing.T) {
	engine := &stubEngine{result: &orchestrator.AuditedResult{
		Document: sampleRFQ(),
		Verdict:  &models.AuditVerdict{Passed: true, Issues: []string{}},
		Audited:  true,
	}}
	router := newTestRouter(t, &Server{Engine: engine})

	w := doJSON(t, router, http.MethodPost, "/api/v1/documents/audited", GenerateRequest{Category: "residential"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp DocumentResponse
	decode(t, w, &resp)
	assert.Equal(t, models.KindRFQ, resp.Document.Kind)
	assert.Equal(t, "RFQ ready: Villa Repaint (AED 10,000)", resp.Summary)
	assert.Equal(t, orchestrator.OutcomePassed, resp.Outcome)
	assert.True(t, resp.Audited)

	w = doJSON(t, router, http.MethodPost, "/api/v1/documents/audited", GenerateRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefine(t *testing.T) {
	refined := sampleRFQ()
	refined.BudgetRange = "AED 8,000"
	engine := &stubEngine{refined: refined}
	router := newTestRouter(t, &Server{Engine: engine})

	w := doJSON(t, router, http.MethodPost, "/api/v1/documents/refine", RefineRequest{
		Document: models.Wrap(sampleRFQ()),
		Feedback: "Budget must stay under AED 9,000",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp DocumentResponse
	decode(t, w, &resp)
	assert.Equal(t, "AED 8,000", resp.Document.RFQ.BudgetRange)
	assert.Equal(t, "Budget must stay under AED 9,000", engine.feedback)

	w = doJSON(t, router, http.MethodPost, "/api/v1/documents/refine", RefineRequest{Feedback: "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDocumentRoutes(t *testing.T) {
	store := &stubStore{records: map[string]*repository.Record{
		"doc-1": {ID: "doc-1", Category: "residential", Document: models.Wrap(sampleRFQ()), CreatedAt: time.Now().UTC()},
	}}
	index := &stubSearch{}
	router := newTestRouter(t, &Server{Engine: &stubEngine{}, Store: store, Search: index})

	w := doJSON(t, router, http.MethodGet, "/api/v1/documents/doc-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rec repository.Record
	decode(t, w, &rec)
	assert.Equal(t, "doc-1", rec.ID)

	w = doJSON(t, router, http.MethodGet, "/api/v1/documents/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/documents?category=residential", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Count int `json:"count"`
	}
	decode(t, w, &list)
	assert.Equal(t, 1, list.Count)

	w = doJSON(t, router, http.MethodGet, "/api/v1/documents", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/documents/search?q=repaint&kind=rfq&limit=5&from=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "repaint", index.got.Text)
	assert.Equal(t, "rfq", index.got.Kind)
	assert.Equal(t, 5, index.got.Size)
	assert.Equal(t, 10, index.got.From)

	w = doJSON(t, router, http.MethodGet, "/api/v1/documents/search?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDocumentRoutes_NotRegisteredWithoutStore(t *testing.T) {
	router := newTestRouter(t, &Server{Engine: &stubEngine{}})

	w := doJSON(t, router, http.MethodGet, "/api/v1/documents/doc-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNextStep_RejectsInvalidRequests(t *testing.T) {
	tests := []struct {
		name string
		body NextStepRequest
	}{
		{"missing category", NextStepRequest{Credentials: models.Credentials{APIKey: "sk"}}},
		{"turn without question", NextStepRequest{
			Category: "residential",
			History:  models.History{{Question: "", Answer: "Villa repaint"}},
		}},
		{"negative budget", NextStepRequest{Category: "residential", QuestionBudget: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &stubEngine{step: models.QuestionStep{Question: models.TextQuestion("Where?")}}
			router := newTestRouter(t, &Server{Engine: engine})

			w := doJSON(t, router, http.MethodPost, "/api/v1/steps/next", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Empty(t, engine.gotStep.Category)
		})
	}
}

type stubDocuments struct {
	result *orchestrator.AuditedResult
	calls  int
}

func (s *stubDocuments) GenerateAudited(context.Context, models.History, models.Category, models.Credentials) (*orchestrator.AuditedResult, error) {
	s.calls++
	return s.result, nil
}

func TestGenerateAudited_UsesDocuments(t *testing.T) {
	docs := &stubDocuments{result: &orchestrator.AuditedResult{
		Document: sampleRFQ(),
		Verdict:  &models.AuditVerdict{Passed: true, Issues: []string{}},
		Audited:  true,
		Cached:   true,
	}}
	engine := &stubEngine{err: errors.New("engine must not be called")}
	router := newTestRouter(t, &Server{Engine: engine, Documents: docs})

	w := doJSON(t, router, http.MethodPost, "/api/v1/documents/audited", GenerateRequest{
		History:     models.History{{Question: "Budget?", Answer: "AED 10,000"}},
		Category:    "residential",
		Credentials: models.Credentials{APIKey: "sk"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp DocumentResponse
	decode(t, w, &resp)
	assert.True(t, resp.Cached)
	assert.Equal(t, orchestrator.OutcomePassed, resp.Outcome)
	assert.Equal(t, 1, docs.calls)
}
