package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviders_MissingAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("DEEPSEEK_API_KEY", "")

	tests := []struct {
		name     string
		provider Provider
	}{
		{"gemini", &GeminiProvider{}},
		{"claude", &ClaudeProvider{}},
		{"deepseek", &DeepSeekProvider{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.provider.GenerateResponse(context.Background(), "hi", "", nil)
			assert.ErrorIs(t, err, ErrMissingAPIKey)
		})
	}
}

func TestDeepSeekProvider_GenerateResponse(t *testing.T) {
	var got DeepSeekRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"choices":[{"message":{"content":"Revenue was $3.08 billion."}}]}`)
	}))
	defer srv.Close()

	p := &DeepSeekProvider{APIKey: "test-key", BaseURL: srv.URL}
	out, err := p.GenerateResponse(context.Background(), "What was revenue?", "Be brief.", map[string]interface{}{
		OptMaxTokens:   500,
		OptTemperature: 0.7,
	})
	require.NoError(t, err)
	assert.Equal(t, "Revenue was $3.08 billion.", out)

	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "What was revenue?", got.Messages[1].Content)
	assert.Equal(t, 500, got.MaxTokens)
	assert.InDelta(t, 0.7, got.Temperature, 1e-9)
	assert.Equal(t, "deepseek-chat", got.Model)
	assert.Nil(t, got.ResponseFormat)
}

func TestDeepSeekProvider_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := &DeepSeekProvider{APIKey: "k", BaseURL: srv.URL}
	_, err := p.GenerateResponse(context.Background(), "q", "", nil)
	assert.ErrorContains(t, err, "status=429")
}

func TestClaudeProvider_GenerateResponse(t *testing.T) {
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-sonnet-4-20250514",
			"content": [{"type": "text", "text": "Data center revenue grew."}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 12, "output_tokens": 5}
		}`)
	}))
	defer srv.Close()

	p := &ClaudeProvider{APIKey: "test-key", BaseURL: srv.URL}
	out, err := p.GenerateResponse(context.Background(), "Summarize.", "", map[string]interface{}{OptMaxTokens: 500})
	require.NoError(t, err)
	assert.Equal(t, "Data center revenue grew.", out)
	assert.EqualValues(t, 500, body["max_tokens"])
	assert.InDelta(t, 0.7, body["temperature"], 1e-9)
}

func TestOptions(t *testing.T) {
	opts := map[string]interface{}{
		OptModel:       "m",
		OptMaxTokens:   float64(256), // as decoded from JSON
		OptTemperature: float32(0.5),
		OptJSON:        true,
	}
	assert.Equal(t, "m", stringOption(opts, OptModel, "d"))
	assert.Equal(t, "d", stringOption(nil, OptModel, "d"))
	assert.Equal(t, 256, intOption(opts, OptMaxTokens, 1))
	assert.InDelta(t, 0.5, floatOption(opts, OptTemperature, 0), 1e-6)
	assert.True(t, boolOption(opts, OptJSON))
	assert.False(t, boolOption(nil, OptJSON))
}
