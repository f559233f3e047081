// Package generation is the boundary to the external text-generation service.
package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// DefaultModel is used when neither the caller nor the configuration selects a model.
const DefaultModel = "o4-mini"

// ErrEmptyContent is returned when the service answers without content.
var ErrEmptyContent = errors.New("generation: empty content")

// Request is one generation call. Schema is the JSON Schema the answer must satisfy;
// backends that support structured output forward it, the others rely on the prompt.
type Request struct {
	APIKey       string
	Model        string
	SystemPrompt string
	UserPrompt   string
	SchemaName   string
	Schema       map[string]interface{}
	Temperature  float32
}

// Generator produces raw JSON text for a Request. Implementations must not retry.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// Backends selectable by New.
const (
	ProviderOpenAI  = "openai"
	ProviderGateway = "gateway"
)

// New builds the Generator for provider. An empty provider selects OpenAI.
func New(provider, baseURL string, client *http.Client) (Generator, error) {
	switch provider {
	case "", ProviderOpenAI:
		return NewOpenAIGenerator(baseURL, client), nil
	case ProviderGateway:
		if baseURL == "" {
			return nil, fmt.Errorf("generation: gateway provider requires a base URL")
		}
		return NewGatewayGenerator(baseURL, client), nil
	}
	return nil, fmt.Errorf("generation: unknown provider %q", provider)
}

// IsReasoningModel reports whether model is a reasoning model (o-series or gpt-5),
// which rejects a sampling temperature.
func IsReasoningModel(model string) bool {
	return strings.HasPrefix(model, "o") || strings.HasPrefix(model, "gpt-5")
}

func modelOrDefault(model string) string {
	if model == "" {
		return DefaultModel
	}
	return model
}
