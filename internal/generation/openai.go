package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIGenerator calls the chat completions API with a per-request API key.
type OpenAIGenerator struct {
	baseURL    string
	httpClient *http.Client
}

// NewOpenAIGenerator builds a generator. baseURL may be empty for the public endpoint;
// httpClient may be nil for the library default.
func NewOpenAIGenerator(baseURL string, httpClient *http.Client) *OpenAIGenerator {
	return &OpenAIGenerator{baseURL: baseURL, httpClient: httpClient}
}

func (g *OpenAIGenerator) client(apiKey string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if g.baseURL != "" {
		cfg.BaseURL = strings.TrimRight(g.baseURL, "/")
	}
	if g.httpClient != nil {
		cfg.HTTPClient = g.httpClient
	}
	return openai.NewClientWithConfig(cfg)
}

// jsonSchema lets a schema map travel as the json.Marshaler go-openai expects.
type jsonSchema map[string]interface{}

func (s jsonSchema) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}(s))
}

// responseFormat asks for structured output when the request carries a schema,
// plain JSON mode otherwise.
func responseFormat(req Request) *openai.ChatCompletionResponseFormat {
	if req.Schema == nil {
		return &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}
	name := req.SchemaName
	if name == "" {
		name = "response"
	}
	return &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
			Name:   name,
			Schema: jsonSchema(req.Schema),
		},
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (string, error) {
	model := modelOrDefault(req.Model)
	creq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.UserPrompt},
		},
		ResponseFormat: responseFormat(req),
	}
	if !IsReasoningModel(model) {
		creq.Temperature = req.Temperature
	}

	resp, err := g.client(req.APIKey).CreateChatCompletion(ctx, creq)
	if err != nil {
		return "", fmt.Errorf("openai chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices: %w", ErrEmptyContent)
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyContent
	}
	return content, nil
}
