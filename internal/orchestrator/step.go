package orchestrator

import (
	"context"
	"fmt"

	apperrors "rfq-workers/internal/common/errors"
	"rfq-workers/internal/common/validation"
	"rfq-workers/internal/fallback"
	"rfq-workers/internal/generation"
	"rfq-workers/internal/models"
)

// StepRequest is the input of one step decision.
type StepRequest struct {
	History     models.History     `json:"history" validate:"dive"`
	Category    models.Category    `json:"category" validate:"required"`
	Credentials models.Credentials `json:"credentials"`
	// QuestionBudget overrides the configured budget when positive.
	QuestionBudget int `json:"questionBudget,omitempty" validate:"gte=0"`
}

func (e *Engine) budget(override int) int {
	if override > 0 {
		return override
	}
	return e.cfg.QuestionBudget
}

// NextStep decides whether to ask another question or produce the document.
// Once the history reaches the question budget a document is returned without
// consulting the service.
func (e *Engine) NextStep(ctx context.Context, req StepRequest) (models.NextStep, error) {
	budget := e.budget(req.QuestionBudget)
	log := e.log.With(map[string]interface{}{
		"category":  string(req.Category),
		"questions": req.History.Len(),
		"budget":    budget,
	})

	if req.History.Len() >= budget {
		log.Info("Question budget reached, producing document", nil)
		return models.DocumentStep{Document: e.forcedDocument(ctx, req)}, nil
	}

	creds, err := e.ResolveCredentials(req.Credentials)
	if err != nil {
		if e.cfg.FailurePolicy == PolicyFallback {
			log.Warn("No API key configured, using fallback step", nil)
			e.useFallback("no_credential")
			return fallback.Step(req.History, req.Category, e.cfg.Fallback, e.cfg.Now()), nil
		}
		return nil, err
	}

	var step models.NextStep
	err = e.call(ctx, StageStep, creds, generation.Request{
		SystemPrompt: e.stepPrompt(req.History, req.Category, budget),
		UserPrompt:   fmt.Sprintf(stepUserPrompt, documentNoun(e.cfg.Kind)),
		SchemaName:   "next_step",
		Schema:       e.schema(validation.ShapeNextStep, e.cfg.Kind),
		Temperature:  TemperatureStep,
	}, func(raw string) error {
		var decErr error
		step, decErr = validation.DecodeNextStep(raw, e.cfg.Kind)
		return decErr
	})
	if err != nil {
		if e.cfg.FailurePolicy == PolicyFallback {
			log.WithError(err).Warn("Step decision failed, using fallback step", nil)
			e.useFallback("service_error")
			return fallback.Step(req.History, req.Category, e.cfg.Fallback, e.cfg.Now()), nil
		}
		log.WithError(err).Error("Step decision failed", nil)
		return nil, err
	}

	log.Debug("Step decided", map[string]interface{}{"type": string(step.Type())})
	return step, nil
}

// forcedDocument produces the document once the budget is spent. It never fails.
func (e *Engine) forcedDocument(ctx context.Context, req StepRequest) models.Document {
	if e.cfg.ForcedDocument == ForcedSynthesize {
		doc, err := e.Synthesize(ctx, req.History, req.Category, req.Credentials)
		if err == nil {
			return doc
		}
		e.log.WithError(err).Warn("Forced synthesis failed, using fallback document", map[string]interface{}{
			"code": string(apperrors.CodeOf(err)),
		})
	}
	e.useFallback("budget")
	return fallback.Document(req.History, req.Category, e.cfg.Fallback, e.cfg.Now())
}
