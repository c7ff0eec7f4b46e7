package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storyframe-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestOpenAIServer(t *testing.T, status int, body string, captured *map[string]interface{}) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		if captured != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIClient_CompleteText(t *testing.T) {
	temp := 0.8

	t.Run("success sends system and user messages", func(t *testing.T) {
		var captured map[string]interface{}
		srv := newTestOpenAIServer(t, http.StatusOK, `{
			"id": "1", "model": "google/gemini-2.5-flash",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Once upon a time"}}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 4, "total_tokens": 14}
		}`, &captured)

		client := newOpenAIClient("key", srv.URL, "google/gemini-2.5-flash", 5*time.Second, zap.NewNop())
		resp, err := client.CompleteText(context.Background(), TextRequest{
			UserID:       "u1",
			SystemPrompt: "system",
			Messages:     []string{"first", "second"},
			Temperature:  &temp,
		})
		require.NoError(t, err)
		assert.Equal(t, "Once upon a time", resp.Content)
		assert.Equal(t, "google/gemini-2.5-flash", resp.Model)
		assert.Equal(t, 14, resp.Usage.TotalTokens)
		assert.False(t, resp.Usage.Estimated)

		msgs, ok := captured["messages"].([]interface{})
		require.True(t, ok)
		require.Len(t, msgs, 3)
		assert.Equal(t, "system", msgs[0].(map[string]interface{})["role"])
		assert.Equal(t, "second", msgs[2].(map[string]interface{})["content"])
		assert.InDelta(t, 0.8, captured["temperature"], 0.001)
	})

	t.Run("429 maps to rate limited", func(t *testing.T) {
		srv := newTestOpenAIServer(t, http.StatusTooManyRequests,
			`{"error": {"message": "Rate limits exceeded", "type": "rate_limit"}}`, nil)
		client := newOpenAIClient("key", srv.URL, "m", 5*time.Second, zap.NewNop())

		_, err := client.CompleteText(context.Background(), TextRequest{SystemPrompt: "s", Messages: []string{"u"}})
		assert.ErrorIs(t, err, models.ErrRateLimited)
	})

	t.Run("402 maps to payment required", func(t *testing.T) {
		srv := newTestOpenAIServer(t, http.StatusPaymentRequired,
			`{"error": {"message": "Payment required", "type": "billing"}}`, nil)
		client := newOpenAIClient("key", srv.URL, "m", 5*time.Second, zap.NewNop())

		_, err := client.CompleteText(context.Background(), TextRequest{SystemPrompt: "s", Messages: []string{"u"}})
		assert.ErrorIs(t, err, models.ErrPaymentRequired)
	})

	t.Run("empty choices is upstream failure", func(t *testing.T) {
		srv := newTestOpenAIServer(t, http.StatusOK, `{"id": "1", "choices": []}`, nil)
		client := newOpenAIClient("key", srv.URL, "m", 5*time.Second, zap.NewNop())

		_, err := client.CompleteText(context.Background(), TextRequest{SystemPrompt: "s", Messages: []string{"u"}})
		assert.ErrorIs(t, err, models.ErrUpstreamFailure)
	})

	t.Run("500 is upstream failure", func(t *testing.T) {
		srv := newTestOpenAIServer(t, http.StatusInternalServerError,
			`{"error": {"message": "boom", "type": "server_error"}}`, nil)
		client := newOpenAIClient("key", srv.URL, "m", 5*time.Second, zap.NewNop())

		_, err := client.CompleteText(context.Background(), TextRequest{SystemPrompt: "s", Messages: []string{"u"}})
		assert.ErrorIs(t, err, models.ErrUpstreamFailure)
		assert.NotErrorIs(t, err, models.ErrRateLimited)
	})
}
