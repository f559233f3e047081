package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "rfq-workers/internal/common/errors"
	"rfq-workers/internal/common/validation"
	"rfq-workers/internal/generation"
	"rfq-workers/internal/models"
	"rfq-workers/internal/orchestrator"
	"rfq-workers/internal/search"
)

type NextStepRequest struct {
	History        models.History     `json:"history"`
	Category       models.Category    `json:"category"`
	Credentials    models.Credentials `json:"credentials"`
	QuestionBudget int                `json:"questionBudget,omitempty"`
}

type NextStepResponse struct {
	Step          models.StepEnvelope `json:"step"`
	Terminal      bool                `json:"terminal"`
	QuestionCount int                 `json:"questionCount"`
}

type GenerateRequest struct {
	History     models.History     `json:"history" validate:"dive"`
	Category    models.Category    `json:"category" validate:"required"`
	Credentials models.Credentials `json:"credentials"`
}

type DocumentResponse struct {
	Document models.DocumentEnvelope `json:"document"`
	Summary  string                  `json:"summary"`
	Outcome  string                  `json:"outcome,omitempty"`
	Verdict  *models.AuditVerdict    `json:"verdict,omitempty"`
	Audited  bool                    `json:"audited"`
	Refined  bool                    `json:"refined"`
	Fallback bool                    `json:"fallback"`
	Cached   bool                    `json:"cached"`
}

type RefineRequest struct {
	Document    models.DocumentEnvelope `json:"document"`
	Feedback    string                  `json:"feedback"`
	Credentials models.Credentials      `json:"credentials"`
}

func (s *Server) listModels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"models":  generation.AvailableModels(),
		"default": generation.DefaultModel,
	})
}

func (s *Server) nextStep(c *gin.Context) {
	var req NextStepRequest
	if !s.bind(c, &req) {
		return
	}

	stepReq := orchestrator.StepRequest{
		History:        req.History,
		Category:       req.Category,
		Credentials:    req.Credentials,
		QuestionBudget: req.QuestionBudget,
	}
	if err := validation.Struct(&stepReq); err != nil {
		s.writeError(c, err)
		return
	}

	step, err := s.Engine.NextStep(c.Request.Context(), stepReq)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, NextStepResponse{
		Step:          models.Envelope(step),
		Terminal:      step.Type() != models.StepQuestion,
		QuestionCount: req.History.Len(),
	})
}

func (s *Server) generateAudited(c *gin.Context) {
	var req GenerateRequest
	if !s.bind(c, &req) {
		return
	}
	if err := validation.Struct(&req); err != nil {
		s.writeError(c, err)
		return
	}

	var generator AuditedDocuments = s.Engine
	if s.Documents != nil {
		generator = s.Documents
	}
	res, err := generator.GenerateAudited(c.Request.Context(), req.History, req.Category, req.Credentials)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, DocumentResponse{
		Document: models.Wrap(res.Document),
		Summary:  models.Summary(res.Document),
		Outcome:  res.Outcome(),
		Verdict:  res.Verdict,
		Audited:  res.Audited,
		Refined:  res.Refined,
		Fallback: res.Fallback,
		Cached:   res.Cached,
	})
}

func (s *Server) refine(c *gin.Context) {
	var req RefineRequest
	if !s.bind(c, &req) {
		return
	}
	doc, err := req.Document.Document()
	if err != nil {
		s.writeError(c, apperrors.NewInvalidInputError(err.Error()))
		return
	}

	refined, err := s.Engine.Refine(c.Request.Context(), doc, req.Feedback, req.Credentials)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, DocumentResponse{
		Document: models.Wrap(refined),
		Summary:  models.Summary(refined),
	})
}

func (s *Server) getDocument(c *gin.Context) {
	rec, err := s.Store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) listDocuments(c *gin.Context) {
	category := models.Category(c.Query("category"))
	if category == "" {
		s.writeError(c, apperrors.NewInvalidInputError("category query parameter is required"))
		return
	}
	limit, err := queryInt(c, "limit", 20)
	if err != nil {
		s.writeError(c, err)
		return
	}

	records, err := s.Store.ListByCategory(c.Request.Context(), category, limit)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": records, "count": len(records)})
}

func (s *Server) searchDocuments(c *gin.Context) {
	from, err := queryInt(c, "from", 0)
	if err != nil {
		s.writeError(c, err)
		return
	}
	limit, err := queryInt(c, "limit", 10)
	if err != nil {
		s.writeError(c, err)
		return
	}

	result, err := s.Search.Search(c.Request.Context(), search.Query{
		Text:     c.Query("q"),
		Category: c.Query("category"),
		Kind:     c.Query("kind"),
		From:     from,
		Size:     limit,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperrors.NewInvalidInputError(name + " must be a non-negative integer")
	}
	return n, nil
}
