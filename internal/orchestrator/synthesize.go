package orchestrator

import (
	"context"
	"fmt"

	"rfq-workers/internal/common/validation"
	"rfq-workers/internal/generation"
	"rfq-workers/internal/models"
)

// Synthesize asks the service for the final document of the configured kind.
func (e *Engine) Synthesize(ctx context.Context, history models.History, category models.Category, creds models.Credentials) (models.Document, error) {
	creds, err := e.ResolveCredentials(creds)
	if err != nil {
		return nil, err
	}

	var doc models.Document
	err = e.call(ctx, StageSynthesize, creds, generation.Request{
		SystemPrompt: e.synthesizePrompt(history, category),
		UserPrompt:   fmt.Sprintf(synthesizeUserPrompt, documentNoun(e.cfg.Kind)),
		SchemaName:   "document",
		Schema:       e.schema(validation.ShapeDocument, e.cfg.Kind),
		Temperature:  TemperatureSynthesize,
	}, func(raw string) error {
		var decErr error
		doc, decErr = validation.DecodeDocument(raw, e.cfg.Kind)
		return decErr
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}
