package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/smhanov/aspectree"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com"
	defaultOpenAIModel   = "gpt-4o-mini"
	defaultTimeout       = 60 * time.Second
	defaultMaxRetries    = 3
	defaultBaseBackoff   = 1 * time.Second
)

// Rate limiter defaults: 50 requests per minute with small bursts.
const (
	defaultRateLimit = 50.0 / 60.0
	defaultBurst     = 5
)

// OpenAI is an aspectree.Oracle backed by an OpenAI-compatible chat
// completions endpoint. Zero value is not usable; construct with NewOpenAI.
type OpenAI struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int

	// Cost per 1K tokens, used to fill Completion.Cost from usage counts.
	promptCostPer1K     float64
	completionCostPer1K float64
}

// OpenAIOption configures an OpenAI client.
type OpenAIOption func(*OpenAI)

// WithModel overrides the default model.
func WithModel(model string) OpenAIOption {
	return func(o *OpenAI) {
		if model != "" {
			o.model = model
		}
	}
}

// WithBaseURL points the client at a different OpenAI-compatible server,
// e.g. a proxy or a local vLLM instance.
func WithBaseURL(url string) OpenAIOption {
	return func(o *OpenAI) {
		if url != "" {
			o.baseURL = url
		}
	}
}

// WithHTTPClient substitutes the HTTP client, mainly for tests.
func WithHTTPClient(c *http.Client) OpenAIOption {
	return func(o *OpenAI) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// WithRateLimit sets the request rate in requests per second.
func WithRateLimit(rps float64, burst int) OpenAIOption {
	return func(o *OpenAI) {
		if rps > 0 && burst > 0 {
			o.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithMaxRetries sets how many times a transient failure is retried.
func WithMaxRetries(n int) OpenAIOption {
	return func(o *OpenAI) {
		if n >= 0 {
			o.maxRetries = n
		}
	}
}

// WithCost sets the dollar cost per 1K prompt and completion tokens so the
// client can report per-call cost. Both default to zero, which reports free
// calls.
func WithCost(promptPer1K, completionPer1K float64) OpenAIOption {
	return func(o *OpenAI) {
		o.promptCostPer1K = promptPer1K
		o.completionCostPer1K = completionPer1K
	}
}

// NewOpenAI constructs a client. The API key is required unless the target
// server ignores authentication.
func NewOpenAI(apiKey string, opts ...OpenAIOption) *OpenAI {
	o := &OpenAI{
		apiKey:     apiKey,
		model:      defaultOpenAIModel,
		baseURL:    defaultOpenAIBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		maxRetries: defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

type chatError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete implements aspectree.Oracle.
func (o *OpenAI) Complete(ctx context.Context, req aspectree.CompletionRequest) (aspectree.Completion, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return aspectree.Completion{}, &aspectree.OracleError{Op: "complete", Err: err}
	}

	messages := make([]chatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	body := chatRequest{
		Model:       o.model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	var lastErr error
	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := defaultBaseBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return aspectree.Completion{}, &aspectree.OracleError{Op: "complete", Err: ctx.Err()}
			}
		}

		completion, err := o.doRequest(ctx, body)
		if err == nil {
			return completion, nil
		}
		lastErr = err
		if !isRetryable(err) {
			return aspectree.Completion{}, &aspectree.OracleError{Op: "complete", Err: err}
		}
	}
	return aspectree.Completion{}, &aspectree.OracleError{
		Op:  "complete",
		Err: fmt.Errorf("max retries exceeded: %w", lastErr),
	}
}

func (o *OpenAI) doRequest(ctx context.Context, req chatRequest) (aspectree.Completion, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return aspectree.Completion{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/v1/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return aspectree.Completion{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if o.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return aspectree.Completion{}, &retryableError{err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return aspectree.Completion{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return aspectree.Completion{}, &retryableError{err: fmt.Errorf("rate limited (429)")}
	}
	if resp.StatusCode >= 500 {
		return aspectree.Completion{}, &retryableError{err: fmt.Errorf("server error (%d): %s", resp.StatusCode, string(respBody))}
	}
	if resp.StatusCode != http.StatusOK {
		var errResp chatError
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			return aspectree.Completion{}, fmt.Errorf("API error (%d): %s", resp.StatusCode, errResp.Error.Message)
		}
		return aspectree.Completion{}, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return aspectree.Completion{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return aspectree.Completion{}, fmt.Errorf("empty response from API")
	}

	cost := float64(chatResp.Usage.PromptTokens)/1000*o.promptCostPer1K +
		float64(chatResp.Usage.CompletionTokens)/1000*o.completionCostPer1K
	return aspectree.Completion{
		Text: chatResp.Choices[0].Message.Content,
		Cost: cost,
	}, nil
}

// retryableError marks a failure worth retrying.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func isRetryable(err error) bool {
	for e := err; e != nil; {
		if _, ok := e.(*retryableError); ok {
			return true
		}
		if unwrapper, ok := e.(interface{ Unwrap() error }); ok {
			e = unwrapper.Unwrap()
		} else {
			break
		}
	}
	return false
}

var _ aspectree.Oracle = (*OpenAI)(nil)
