package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tickwise/cortex/internal/core"
)

// OllamaProvider generates plans through an Ollama-compatible chat API.
// See: https://github.com/ollama/ollama/blob/main/docs/api.md
type OllamaProvider struct {
	endpoint string
	model    string
	client   *http.Client
}

// NewOllamaProvider creates a provider for the given endpoint and model.
func NewOllamaProvider(endpoint, model string) *OllamaProvider {
	return &OllamaProvider{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		model:    model,
		client: &http.Client{
			Timeout:   120 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (p *OllamaProvider) Name() string { return "ollama" }

// GeneratePlan sends the snapshot to the model and parses the returned
// plan. Connectivity failures, non-200 responses, and unparseable output
// all surface as errors.
func (p *OllamaProvider) GeneratePlan(ctx context.Context, snap *core.WorldSnapshot) (*core.PlanIntent, error) {
	messages, err := BuildMessages(snap)
	if err != nil {
		return nil, err
	}

	ollamaReq := struct {
		Model    string        `json:"model"`
		Messages []ChatMessage `json:"messages"`
		Stream   bool          `json:"stream"`
		Format   string        `json:"format,omitempty"`
	}{
		Model:    p.model,
		Messages: messages,
		Stream:   false,
		Format:   "json",
	}

	body, err := json.Marshal(ollamaReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/chat", p.endpoint)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(respBody))
	}

	var ollamaResp struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		Done bool `json:"done"`
	}
	if err := json.Unmarshal(respBody, &ollamaResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return ParsePlan(ollamaResp.Message.Content)
}
