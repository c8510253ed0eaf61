package reasoning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultTimeout    = 120 * time.Second
	defaultMaxRetries = 3
)

// HTTPProvider talks to a reasoning service over HTTP with bearer auth.
type HTTPProvider struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

// NewHTTPProvider creates an HTTP provider for the given endpoint.
func NewHTTPProvider(endpoint, apiKey, model string) *HTTPProvider {
	return &HTTPProvider{
		endpoint: endpoint,
		apiKey:   apiKey,
		model:    model,
		client:   &http.Client{Timeout: defaultTimeout},
	}
}

// Name identifies the provider for logging.
func (p *HTTPProvider) Name() string { return "http" }

type apiRequest struct {
	Model     string `json:"model"`
	System    string `json:"system,omitempty"`
	Prompt    string `json:"prompt"`
	MaxTokens int    `json:"max_tokens,omitempty"`
}

type apiResponse struct {
	Content string `json:"content"`
	Model   string `json:"model"`
	Error   string `json:"error,omitempty"`
}

// statusError carries the HTTP status of a failed call so retry logic can
// distinguish transient failures.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("reasoning service returned %d: %s", e.code, e.body)
}

func (e *statusError) retryable() bool {
	return e.code == http.StatusTooManyRequests || e.code >= 500
}

// Review sends the prompt, retrying transient failures with exponential
// backoff.
func (p *HTTPProvider) Review(ctx context.Context, req Request) (*Response, error) {
	var resp *Response
	err := retryWithBackoff(ctx, defaultMaxRetries, func() error {
		var callErr error
		resp, callErr = p.call(ctx, req)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (p *HTTPProvider) call(ctx context.Context, req Request) (*Response, error) {
	body, err := json.Marshal(apiRequest{
		Model:     p.model,
		System:    req.SystemPrompt,
		Prompt:    req.UserPrompt,
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling reasoning service: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, &statusError{code: httpResp.StatusCode, body: truncate(string(respBody), 200)}
	}

	var parsed apiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("reasoning service error: %s", parsed.Error)
	}

	return &Response{Content: parsed.Content, Model: parsed.Model}, nil
}

func retryWithBackoff(ctx context.Context, maxRetries int, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		se, ok := lastErr.(*statusError)
		if !ok || !se.retryable() {
			return lastErr
		}

		if attempt < maxRetries {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return lastErr
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
