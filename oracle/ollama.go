package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/smhanov/aspectree"
)

const defaultOllamaModel = "llama3.2"

// Ollama is an aspectree.Oracle backed by a local Ollama server. Local
// inference is free, so every completion reports zero cost.
type Ollama struct {
	endpoint   string
	model      string
	httpClient *http.Client
}

// OllamaOption configures an Ollama client.
type OllamaOption func(*Ollama)

// WithOllamaModel overrides the default model.
func WithOllamaModel(model string) OllamaOption {
	return func(o *Ollama) {
		if model != "" {
			o.model = model
		}
	}
}

// WithOllamaHTTPClient substitutes the HTTP client, mainly for tests.
func WithOllamaHTTPClient(c *http.Client) OllamaOption {
	return func(o *Ollama) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// NewOllama constructs a client for the given endpoint (host:port or full
// URL; a bare host:port gets an http:// prefix).
func NewOllama(endpoint string, opts ...OllamaOption) *Ollama {
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "http://" + endpoint
	}
	o := &Ollama{
		endpoint:   endpoint,
		model:      defaultOllamaModel,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type ollamaRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Complete implements aspectree.Oracle.
func (o *Ollama) Complete(ctx context.Context, req aspectree.CompletionRequest) (aspectree.Completion, error) {
	body := ollamaRequest{
		Model:  o.model,
		Prompt: req.Prompt,
		System: req.System,
		Stream: false,
		Options: map[string]any{
			"temperature": req.Temperature,
		},
	}
	if req.MaxTokens > 0 {
		body.Options["num_predict"] = req.MaxTokens
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return aspectree.Completion{}, &aspectree.OracleError{Op: "complete", Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", o.endpoint+"/api/generate", bytes.NewReader(jsonData))
	if err != nil {
		return aspectree.Completion{}, &aspectree.OracleError{Op: "complete", Err: fmt.Errorf("failed to create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return aspectree.Completion{}, &aspectree.OracleError{Op: "complete", Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return aspectree.Completion{}, &aspectree.OracleError{Op: "complete", Err: fmt.Errorf("failed to read response: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return aspectree.Completion{}, &aspectree.OracleError{
			Op:  "complete",
			Err: fmt.Errorf("ollama API error: %s - %s", resp.Status, string(respBody)),
		}
	}

	var ollamaResp ollamaResponse
	if err := json.Unmarshal(respBody, &ollamaResp); err != nil {
		return aspectree.Completion{}, &aspectree.OracleError{Op: "complete", Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	return aspectree.Completion{Text: strings.TrimSpace(ollamaResp.Response)}, nil
}

var _ aspectree.Oracle = (*Ollama)(nil)
