package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// GatewayGenerator calls an HTTP generation gateway at POST {base}/api/ai/generate.
type GatewayGenerator struct {
	baseURL string
	client  *http.Client
}

func NewGatewayGenerator(baseURL string, client *http.Client) *GatewayGenerator {
	if client == nil {
		// No client timeout; the caller's context bounds each call.
		client = &http.Client{}
	}
	return &GatewayGenerator{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

type gatewayRequest struct {
	Model          string                 `json:"model"`
	System         string                 `json:"system"`
	Prompt         string                 `json:"prompt"`
	Temperature    *float32               `json:"temperature,omitempty"`
	ResponseFormat string                 `json:"response_format"`
	SchemaName     string                 `json:"schema_name,omitempty"`
	Schema         map[string]interface{} `json:"schema,omitempty"`
}

type gatewayResponse struct {
	Text string `json:"text"`
}

func (g *GatewayGenerator) Generate(ctx context.Context, req Request) (string, error) {
	model := modelOrDefault(req.Model)
	body := gatewayRequest{
		Model:          model,
		System:         req.SystemPrompt,
		Prompt:         req.UserPrompt,
		ResponseFormat: "json",
		SchemaName:     req.SchemaName,
		Schema:         req.Schema,
	}
	if !IsReasoningModel(model) {
		t := req.Temperature
		body.Temperature = &t
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode gateway request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/ai/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build gateway request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("gateway call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out gatewayResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode gateway response: %w", err)
	}
	if strings.TrimSpace(out.Text) == "" {
		return "", ErrEmptyContent
	}
	return out.Text, nil
}
