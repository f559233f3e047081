package orchestrator

import (
	"context"

	apperrors "rfq-workers/internal/common/errors"
	"rfq-workers/internal/common/metrics"
	"rfq-workers/internal/common/validation"
	"rfq-workers/internal/fallback"
	"rfq-workers/internal/generation"
	"rfq-workers/internal/models"
)

// Audit outcomes reported by GenerateAudited.
const (
	OutcomePassed       = "passed"
	OutcomeRefined      = "refined"
	OutcomeRefineFailed = "refine_failed"
	OutcomeUnaudited    = "unaudited"
	OutcomeFallback     = "fallback"
)

// AuditedResult is the outcome of GenerateAudited.
type AuditedResult struct {
	Document models.Document `json:"-"`
	// Verdict is nil when the audit call failed.
	Verdict *models.AuditVerdict `json:"verdict,omitempty"`
	Audited bool                 `json:"audited"`
	Refined bool                 `json:"refined"`
	// Fallback is set when the document is the deterministic fallback document.
	Fallback bool `json:"fallback"`
	// Cached is set when the result was served from the document cache.
	Cached bool `json:"cached"`
}

// Cacheable reports whether the result went through a completed audit: the
// verdict passed, or it failed and the refinement succeeded.
func (r *AuditedResult) Cacheable() bool {
	if r.Fallback || !r.Audited || r.Verdict == nil {
		return false
	}
	return r.Verdict.Passed || r.Refined
}

// Outcome names the path GenerateAudited took.
func (r *AuditedResult) Outcome() string {
	switch {
	case r.Fallback:
		return OutcomeFallback
	case !r.Audited:
		return OutcomeUnaudited
	case r.Refined:
		return OutcomeRefined
	case r.Verdict != nil && r.Verdict.Passed:
		return OutcomePassed
	}
	return OutcomeRefineFailed
}

// Audit checks doc against the conversation it was generated from.
func (e *Engine) Audit(ctx context.Context, history models.History, doc models.Document, creds models.Credentials) (*models.AuditVerdict, error) {
	if doc == nil {
		return nil, apperrors.NewInvalidInputError("document is required")
	}
	creds, err := e.ResolveCredentials(creds)
	if err != nil {
		return nil, err
	}

	var verdict *models.AuditVerdict
	err = e.call(ctx, StageAudit, creds, generation.Request{
		SystemPrompt: e.auditPrompt(history, doc),
		UserPrompt:   auditUserPrompt,
		SchemaName:   "audit_verdict",
		Schema:       e.schema(validation.ShapeAudit, doc.Kind()),
		Temperature:  TemperatureAudit,
	}, func(raw string) error {
		var decErr error
		verdict, decErr = validation.DecodeAuditVerdict(raw)
		return decErr
	})
	if err != nil {
		return nil, err
	}
	return verdict, nil
}

// GenerateAudited synthesizes a document, audits it and refines it at most once.
// Only a synthesis failure is returned as an error; a failed audit or refinement
// degrades to the unrefined document.
func (e *Engine) GenerateAudited(ctx context.Context, history models.History, category models.Category, creds models.Credentials) (*AuditedResult, error) {
	log := e.log.With(map[string]interface{}{
		"category":  string(category),
		"questions": history.Len(),
	})

	result, err := e.generateAudited(ctx, history, category, creds)
	if err != nil {
		if e.cfg.FailurePolicy != PolicyFallback {
			log.WithError(err).Error("Document synthesis failed", nil)
			return nil, err
		}
		log.WithError(err).Warn("Document synthesis failed, using fallback document", nil)
		e.useFallback("synthesis_failed")
		result = &AuditedResult{
			Document: fallback.Document(history, category, e.cfg.Fallback, e.cfg.Now()),
			Fallback: true,
		}
	}

	outcome := result.Outcome()
	metrics.AuditOutcomes.WithLabelValues(outcome).Inc()
	e.obs.RecordAudit(ctx, outcome)
	log.Info("Audited generation finished", map[string]interface{}{"outcome": outcome})
	return result, nil
}

func (e *Engine) generateAudited(ctx context.Context, history models.History, category models.Category, creds models.Credentials) (*AuditedResult, error) {
	doc, err := e.Synthesize(ctx, history, category, creds)
	if err != nil {
		return nil, err
	}
	return e.auditAndRefine(ctx, history, doc, creds), nil
}

// auditAndRefine audits doc and refines it at most once. It never fails:
// a passed audit returns doc itself, any failure degrades to doc.
func (e *Engine) auditAndRefine(ctx context.Context, history models.History, doc models.Document, creds models.Credentials) *AuditedResult {
	verdict, err := e.Audit(ctx, history, doc, creds)
	if err != nil {
		e.log.WithError(err).Warn("Audit failed, returning document unaudited", nil)
		return &AuditedResult{Document: doc}
	}
	if verdict.Passed {
		return &AuditedResult{Document: doc, Verdict: verdict, Audited: true}
	}

	e.log.Info("Audit found issues, refining", map[string]interface{}{"issues": len(verdict.Issues)})
	refined, err := e.Refine(ctx, doc, RefinementFeedback(history, verdict), creds)
	if err != nil {
		e.log.WithError(err).Warn("Refinement failed, returning unrefined document", nil)
		return &AuditedResult{Document: doc, Verdict: verdict, Audited: true}
	}
	return &AuditedResult{Document: refined, Verdict: verdict, Audited: true, Refined: true}
}
