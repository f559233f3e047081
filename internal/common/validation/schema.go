package validation

import (
	"fmt"

	"rfq-workers/internal/models"
)

// Shape names one of the three response shapes the generation service returns.
type Shape string

const (
	ShapeNextStep Shape = "next_step"
	ShapeDocument Shape = "document"
	ShapeAudit    Shape = "audit"
)

func stringProp() map[string]interface{} {
	return map[string]interface{}{"type": "string"}
}

func stringArray() map[string]interface{} {
	return map[string]interface{}{"type": "array", "items": stringProp()}
}

func object(props map[string]interface{}, required ...string) map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func nullable(schema map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"oneOf": []interface{}{map[string]interface{}{"type": "null"}, schema},
	}
}

func questionSchema() map[string]interface{} {
	return object(map[string]interface{}{
		"text":      map[string]interface{}{"type": "string", "minLength": 1},
		"inputType": map[string]interface{}{"type": "string", "enum": []interface{}{"text", "number", "select"}},
		"options":   nullable(stringArray()),
	}, "text", "inputType")
}

func quoteSchema() map[string]interface{} {
	item := object(map[string]interface{}{
		"name":  stringProp(),
		"qty":   stringProp(),
		"price": stringProp(),
		"total": stringProp(),
	}, "name", "qty", "price", "total")

	return object(map[string]interface{}{
		"project_name": stringProp(),
		"client_name":  stringProp(),
		"date":         stringProp(),
		"items":        map[string]interface{}{"type": "array", "items": item},
		"total_cost":   stringProp(),
	}, "project_name", "client_name", "date", "items", "total_cost")
}

func rfqSchema() map[string]interface{} {
	scope := object(map[string]interface{}{
		"title":       stringProp(),
		"description": stringProp(),
		"deliverable": stringProp(),
	}, "title", "description", "deliverable")

	return object(map[string]interface{}{
		"project_title":          stringProp(),
		"rfq_number":             stringProp(),
		"date_issued":            stringProp(),
		"executive_summary":      stringProp(),
		"scope_of_work":          map[string]interface{}{"type": "array", "items": scope},
		"technical_requirements": stringArray(),
		"project_timeline":       stringProp(),
		"budget_range":           stringProp(),
		"submission_deadline":    stringProp(),
		"contact_info":           stringProp(),
	}, "project_title", "rfq_number", "date_issued", "executive_summary", "scope_of_work",
		"technical_requirements", "project_timeline", "budget_range", "submission_deadline", "contact_info")
}

func documentSchema(kind models.DocumentKind) map[string]interface{} {
	if kind == models.KindQuote {
		return quoteSchema()
	}
	return rfqSchema()
}

func nextStepSchema(kind models.DocumentKind) map[string]interface{} {
	return object(map[string]interface{}{
		"type":       map[string]interface{}{"type": "string", "enum": []interface{}{"question", string(kind)}},
		"question":   nullable(questionSchema()),
		string(kind): nullable(documentSchema(kind)),
	}, "type")
}

func auditSchema() map[string]interface{} {
	return object(map[string]interface{}{
		"passed":                  map[string]interface{}{"type": "boolean"},
		"issues":                  stringArray(),
		"refinement_instructions": nullable(stringProp()),
	}, "passed", "issues")
}

// ResponseSchema returns the JSON Schema a response of the given shape must satisfy.
// The result is a fresh map on every call.
func ResponseSchema(kind models.DocumentKind, shape Shape) (map[string]interface{}, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown document kind %q", kind)
	}
	switch shape {
	case ShapeNextStep:
		return nextStepSchema(kind), nil
	case ShapeDocument:
		return documentSchema(kind), nil
	case ShapeAudit:
		return auditSchema(), nil
	}
	return nil, fmt.Errorf("unknown response shape %q", shape)
}
