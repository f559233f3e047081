// Package orchestrator drives the RFQ/Quote conversation: step decisions,
// document synthesis, audit and refinement against the generation service.
package orchestrator

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	apperrors "rfq-workers/internal/common/errors"
	"rfq-workers/internal/common/logger"
	"rfq-workers/internal/common/metrics"
	"rfq-workers/internal/common/observability"
	"rfq-workers/internal/common/validation"
	"rfq-workers/internal/generation"
	"rfq-workers/internal/models"
)

// Stage names, used for error metadata, metrics and spans.
const (
	StageStep       = "step"
	StageSynthesize = "synthesize"
	StageAudit      = "audit"
	StageRefine     = "refine"
)

// Engine is shared by all sessions. It holds only immutable configuration;
// all session state travels in the arguments.
type Engine struct {
	gen generation.Generator
	cfg Config
	log logger.Logger
	obs *observability.Observability
}

// New builds an Engine. log and obs may be nil.
func New(gen generation.Generator, cfg Config, log logger.Logger, obs *observability.Observability) *Engine {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Engine{
		gen: gen,
		cfg: cfg,
		log: log.With(map[string]interface{}{"component": "orchestrator", "kind": string(cfg.Kind)}),
		obs: obs,
	}
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// ResolveCredentials applies the configured default key and model to creds.
// It fails with NO_CREDENTIAL when no key is left.
func (e *Engine) ResolveCredentials(creds models.Credentials) (models.Credentials, error) {
	creds = creds.WithDefaults(e.cfg.DefaultCredentials)
	if creds.Model == "" {
		creds.Model = generation.DefaultModel
	}
	if !creds.HasKey() {
		return creds, apperrors.NewNoCredentialError()
	}
	return creds, nil
}

// call performs one generation call for stage and hands the raw answer to decode.
// Every failure leaves as SERVICE_ERROR.
func (e *Engine) call(ctx context.Context, stage string, creds models.Credentials, req generation.Request, decode func(raw string) error) (err error) {
	ctx, span := e.obs.StartSpan(ctx, "orchestrator."+stage,
		attribute.String("stage", stage),
		attribute.String("model", creds.Model),
	)
	start := time.Now()
	outcome := "ok"
	defer func() {
		elapsed := time.Since(start)
		metrics.GenerationCalls.WithLabelValues(stage, outcome).Inc()
		metrics.GenerationDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
		e.obs.RecordStage(ctx, stage, elapsed, outcome)
		observability.EndSpan(span, err)
	}()

	callCtx := ctx
	if e.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.cfg.CallTimeout)
		defer cancel()
	}

	req.APIKey = creds.APIKey
	req.Model = creds.Model
	raw, genErr := e.gen.Generate(callCtx, req)
	if genErr != nil {
		if errors.Is(genErr, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			outcome = "timeout"
			return apperrors.NewGenerationTimeoutError(stage, genErr)
		}
		outcome = "service_error"
		return apperrors.NewServiceError(stage, genErr)
	}

	if decErr := decode(raw); decErr != nil {
		outcome = "malformed"
		e.log.Debug("Generation response rejected", map[string]interface{}{
			"stage": stage,
			"error": decErr.Error(),
		})
		return apperrors.AsServiceError(stage, decErr)
	}
	return nil
}

func (e *Engine) schema(shape validation.Shape, kind models.DocumentKind) map[string]interface{} {
	schema, err := validation.ResponseSchema(kind, shape)
	if err != nil {
		// kinds are validated at construction; an unknown shape is a programming error.
		panic(err)
	}
	return schema
}

func (e *Engine) useFallback(reason string) {
	metrics.FallbacksUsed.WithLabelValues(reason).Inc()
}
