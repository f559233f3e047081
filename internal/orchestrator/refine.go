package orchestrator

import (
	"context"
	"fmt"
	"strings"

	apperrors "rfq-workers/internal/common/errors"
	"rfq-workers/internal/common/validation"
	"rfq-workers/internal/generation"
	"rfq-workers/internal/models"
)

// Refine applies feedback to doc and returns a full replacement document of the same kind.
// doc itself is never modified.
func (e *Engine) Refine(ctx context.Context, doc models.Document, feedback string, creds models.Credentials) (models.Document, error) {
	if doc == nil {
		return nil, apperrors.NewInvalidInputError("document is required")
	}
	if strings.TrimSpace(feedback) == "" {
		return nil, apperrors.NewInvalidInputError("feedback is required")
	}
	creds, err := e.ResolveCredentials(creds)
	if err != nil {
		return nil, err
	}

	kind := doc.Kind()
	var refined models.Document
	err = e.call(ctx, StageRefine, creds, generation.Request{
		SystemPrompt: e.refinePrompt(doc, feedback),
		UserPrompt:   fmt.Sprintf(refineUserPrompt, documentNoun(kind)),
		SchemaName:   "refined_document",
		Schema:       e.schema(validation.ShapeDocument, kind),
		Temperature:  TemperatureRefine,
	}, func(raw string) error {
		var decErr error
		refined, decErr = validation.DecodeDocument(raw, kind)
		return decErr
	})
	if err != nil {
		return nil, err
	}
	return refined, nil
}
