package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	apperrors "rfq-workers/internal/common/errors"
	"rfq-workers/internal/models"
)

// validate checks raw against schema and returns the schema violations, if any.
func validate(raw string, schema map[string]interface{}) error {
	schemaLoader := gojsonschema.NewGoLoader(schema)
	documentLoader := gojsonschema.NewStringLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("not valid JSON: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("schema violations: %s", strings.Join(errs, "; "))
	}
	return nil
}

func decode(raw string, shape Shape, kind models.DocumentKind, out interface{}) error {
	schema, err := ResponseSchema(kind, shape)
	if err != nil {
		return apperrors.NewMalformedResponseError(string(shape), err.Error())
	}
	if strings.TrimSpace(raw) == "" {
		return apperrors.NewMalformedResponseError(string(shape), "empty content")
	}
	if err := validate(raw, schema); err != nil {
		return apperrors.NewMalformedResponseError(string(shape), err.Error())
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return apperrors.NewMalformedResponseError(string(shape), err.Error())
	}
	return nil
}

// DecodeNextStep validates a step decision response and converts it to a NextStep.
// The populated payload must match the type field and no other payload may be present.
func DecodeNextStep(raw string, kind models.DocumentKind) (models.NextStep, error) {
	var env models.StepEnvelope
	if err := decode(raw, ShapeNextStep, kind, &env); err != nil {
		return nil, err
	}
	step, err := env.Step()
	if err != nil {
		return nil, apperrors.NewMalformedResponseError(string(ShapeNextStep), err.Error())
	}
	return step, nil
}

// DecodeDocument validates a synthesized or refined document of the given kind.
func DecodeDocument(raw string, kind models.DocumentKind) (models.Document, error) {
	var doc models.Document
	switch kind {
	case models.KindQuote:
		doc = &models.Quote{}
	case models.KindRFQ:
		doc = &models.RFQ{}
	default:
		return nil, apperrors.NewMalformedResponseError(string(ShapeDocument), fmt.Sprintf("unknown kind %q", kind))
	}
	if err := decode(raw, ShapeDocument, kind, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// DecodeAuditVerdict validates an audit response, including passed ⇒ no issues ⇒ no instructions.
func DecodeAuditVerdict(raw string) (*models.AuditVerdict, error) {
	var v models.AuditVerdict
	// The audit shape does not depend on the document kind.
	if err := decode(raw, ShapeAudit, models.KindRFQ, &v); err != nil {
		return nil, err
	}
	if err := v.Check(); err != nil {
		return nil, apperrors.NewMalformedResponseError(string(ShapeAudit), err.Error())
	}
	return &v, nil
}
