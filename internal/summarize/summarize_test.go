package summarize

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const completionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-3.5-turbo",
  "choices": [{
    "index": 0,
    "finish_reason": "stop",
    "message": {"role": "assistant", "content": "  1. Finish report\n2. Gym  "}
  }],
  "usage": {"prompt_tokens": 10, "completion_tokens": 8, "total_tokens": 18}
}`

func TestSummarize(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	}))
	defer srv.Close()

	c := New(Config{APIKey: "sk-test", BaseURL: srv.URL, HTTPClient: srv.Client()})
	require.True(t, c.Configured())

	summary, err := c.Summarize(context.Background(), "finish report, gym")
	require.NoError(t, err)
	assert.Equal(t, "1. Finish report\n2. Gym", summary)

	assert.Equal(t, DefaultModel, got["model"])
	assert.EqualValues(t, maxTokens, got["max_completion_tokens"])
	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, systemPrompt, msgs[0].(map[string]any)["content"])
	assert.Equal(t, "finish report, gym", msgs[1].(map[string]any)["content"])
}

func TestSummarizeBlankContentFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "id": "chatcmpl-2",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-3.5-turbo",
  "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": " \n "}}]
}`))
	}))
	defer srv.Close()

	c := New(Config{APIKey: "sk-test", BaseURL: srv.URL, HTTPClient: srv.Client()})
	summary, err := c.Summarize(context.Background(), "finish report")
	require.NoError(t, err)
	assert.Equal(t, "No summary generated.", summary)
}

func TestSummarizeRejectsEmptyText(t *testing.T) {
	c := New(Config{APIKey: "sk-test"})
	_, err := c.Summarize(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestSummarizeNotConfigured(t *testing.T) {
	c := New(Config{})
	assert.False(t, c.Configured())
	_, err := c.Summarize(context.Background(), "tasks")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSummarizeUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	c := New(Config{APIKey: "sk-bad", BaseURL: srv.URL, HTTPClient: srv.Client()})
	_, err := c.Summarize(context.Background(), "tasks")
	assert.Error(t, err)
}
