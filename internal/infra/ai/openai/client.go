package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/datashield/internal/domain/ai"
	"github.com/bryanwahyu/datashield/internal/domain/analysis"
)

const (
	defaultModel     = "gpt-3.5-turbo"
	defaultMaxTokens = 256
	defaultTimeout   = 10 * time.Second
)

type Options struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// Client talks to an OpenAI-compatible chat completion endpoint.
type Client struct {
	api       *openai.Client
	model     string
	maxTokens int
	timeout   time.Duration
	hasKey    bool
}

var _ ai.Client = (*Client)(nil)

func NewClient(opts Options) *Client {
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}

	return &Client{
		api:       openai.NewClientWithConfig(cfg),
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
		timeout:   opts.Timeout,
		hasKey:    strings.TrimSpace(opts.APIKey) != "",
	}
}

// Classify sends one two-message conversation and returns the first choice's
// content verbatim. It never retries.
func (c *Client) Classify(ctx context.Context, p ai.Prompt) (string, error) {
	const op = "classifier.Classify"

	if !c.hasKey {
		return "", analysis.E(analysis.KindClassifierUnavailable, op, ai.ErrMissingCredential)
	}

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.System},
			{Role: openai.ChatMessageRoleUser, Content: p.User},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if isReasoningModel(c.model) {
		req.MaxCompletionTokens = c.maxTokens
	} else {
		req.MaxTokens = c.maxTokens
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", analysis.E(analysis.KindClassifierUnavailable, op, classifyError(err))
	}

	if len(resp.Choices) == 0 {
		return "", analysis.Errorf(analysis.KindClassifierResponseMalformed, op, "response has no choices")
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", analysis.Errorf(analysis.KindClassifierResponseMalformed, op, "first choice has empty content")
	}

	return content, nil
}

func isReasoningModel(model string) bool {
	for _, prefix := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}

// classifyError keeps the provider error but tags quota failures so callers
// can tell them apart in logs.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("%w: %w", ai.ErrQuotaExceeded, err)
		}
		return fmt.Errorf("provider status %d: %w", apiErr.HTTPStatusCode, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("%w: %w", ai.ErrQuotaExceeded, err)
		}
		return fmt.Errorf("provider status %d: %w", reqErr.HTTPStatusCode, err)
	}

	return fmt.Errorf("failed to create chat completion: %w", err)
}
