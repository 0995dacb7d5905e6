package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/datashield/internal/domain/ai"
	"github.com/bryanwahyu/datashield/internal/domain/analysis"
)

type capturedRequest struct {
	Model               string `json:"model"`
	MaxTokens           int    `json:"max_tokens"`
	MaxCompletionTokens int    `json:"max_completion_tokens"`
	Messages            []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func completionServer(t *testing.T, status int, body string, got *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		if got != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func completion(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "gpt-3.5-turbo",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]string{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
	})
	return string(b)
}

func newTestClient(baseURL, model string) *Client {
	return NewClient(Options{APIKey: "sk-test", BaseURL: baseURL + "/v1", Model: model, Timeout: time.Second})
}

func TestClassify_ReturnsFirstChoice(t *testing.T) {
	var got capturedRequest
	srv := completionServer(t, http.StatusOK, completion("85% phishing: fake bank login"), &got)

	verdict, err := newTestClient(srv.URL, "").Classify(context.Background(), ai.Prompt{System: "sys", User: "usr"})
	require.NoError(t, err)

	assert.Equal(t, "85% phishing: fake bank login", verdict)
	assert.Equal(t, "gpt-3.5-turbo", got.Model)
	assert.Equal(t, 256, got.MaxTokens)
	assert.Zero(t, got.MaxCompletionTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "sys", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "usr", got.Messages[1].Content)
}

func TestClassify_ReasoningModelUsesCompletionTokens(t *testing.T) {
	var got capturedRequest
	srv := completionServer(t, http.StatusOK, completion("ok"), &got)

	_, err := newTestClient(srv.URL, "o3-mini").Classify(context.Background(), ai.Prompt{})
	require.NoError(t, err)

	assert.Zero(t, got.MaxTokens)
	assert.Equal(t, 256, got.MaxCompletionTokens)
}

func TestClassify_MissingKey(t *testing.T) {
	c := NewClient(Options{BaseURL: "http://127.0.0.1:1/v1"})

	_, err := c.Classify(context.Background(), ai.Prompt{})

	assert.ErrorIs(t, err, analysis.ErrClassifierUnavailable)
	assert.ErrorIs(t, err, ai.ErrMissingCredential)
}

func TestClassify_ProviderErrors(t *testing.T) {
	const apiError = `{"error":{"message":"nope","type":"invalid_request_error","code":"x"}}`

	tests := []struct {
		name   string
		status int
		quota  bool
	}{
		{"unauthorized", http.StatusUnauthorized, false},
		{"quota", http.StatusTooManyRequests, true},
		{"server error", http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := completionServer(t, tt.status, apiError, nil)

			_, err := newTestClient(srv.URL, "").Classify(context.Background(), ai.Prompt{})

			assert.ErrorIs(t, err, analysis.ErrClassifierUnavailable)
			assert.Equal(t, tt.quota, errors.Is(err, ai.ErrQuotaExceeded))
		})
	}
}

func TestClassify_Malformed(t *testing.T) {
	tests := map[string]string{
		"no choices":    `{"id":"x","object":"chat.completion","choices":[]}`,
		"empty content": completion("   "),
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			srv := completionServer(t, http.StatusOK, body, nil)

			_, err := newTestClient(srv.URL, "").Classify(context.Background(), ai.Prompt{})

			assert.ErrorIs(t, err, analysis.ErrClassifierResponseMalformed)
		})
	}
}

func TestClassify_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewClient(Options{APIKey: "sk-test", BaseURL: srv.URL + "/v1", Timeout: 50 * time.Millisecond})

	start := time.Now()
	_, err := c.Classify(context.Background(), ai.Prompt{})

	assert.ErrorIs(t, err, analysis.ErrClassifierUnavailable)
	assert.Less(t, time.Since(start), time.Second)
}

func TestClassify_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := newTestClient(addr, "").Classify(context.Background(), ai.Prompt{})

	assert.Equal(t, analysis.KindClassifierUnavailable, analysis.KindOf(err))
}
