// internal/services/assistant_service_test.go
package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmrl/metrodocs/internal/config"
)

func newCompletionServer(t *testing.T, status int, body string, seen *chatCompletionRequest, auth *string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		if auth != nil {
			*auth = r.Header.Get("Authorization")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func assistantConfig(url string) config.AssistantConfig {
	return config.AssistantConfig{
		APIKey:      "env-key",
		APIURL:      url,
		Model:       "gpt-3.5-turbo",
		Temperature: 0.3,
		MaxTokens:   300,
		Timeout:     5,
	}
}

func TestAskSuccess(t *testing.T) {
	var seen chatCompletionRequest
	var auth string
	server := newCompletionServer(t, http.StatusOK,
		`{"choices":[{"message":{"role":"assistant","content":"  Upload via the form.  "}}]}`, &seen, &auth)

	service := NewAssistantService(assistantConfig(server.URL))
	reply, err := service.Ask(context.Background(), "How do I upload?", "")
	require.NoError(t, err)
	assert.Equal(t, "Upload via the form.", reply)

	assert.Equal(t, "Bearer env-key", auth)
	assert.Equal(t, "gpt-3.5-turbo", seen.Model)
	assert.Equal(t, 300, seen.MaxTokens)
	assert.InDelta(t, 0.3, seen.Temperature, 1e-9)
	require.Len(t, seen.Messages, 2)
	assert.Equal(t, "system", seen.Messages[0].Role)
	assert.Equal(t, assistantPersona, seen.Messages[0].Content)
	assert.Equal(t, chatMessage{Role: "user", Content: "How do I upload?"}, seen.Messages[1])
}

func TestAskKeyOverride(t *testing.T) {
	var auth string
	server := newCompletionServer(t, http.StatusOK, `{"choices":[{"message":{"content":"ok"}}]}`, nil, &auth)

	cfg := assistantConfig(server.URL)
	cfg.APIKey = ""
	_, err := NewAssistantService(cfg).Ask(context.Background(), "hi", "header-key")
	require.NoError(t, err)
	assert.Equal(t, "Bearer header-key", auth)
}

func TestAskMissingKey(t *testing.T) {
	cfg := assistantConfig("http://127.0.0.1:0")
	cfg.APIKey = ""
	_, err := NewAssistantService(cfg).Ask(context.Background(), "hi", "")
	requireKind(t, err, KindConfig, "OpenAI API key is not configured. Set OPENAI_API_KEY.")
}

func TestAskUpstreamFailures(t *testing.T) {
	server := newCompletionServer(t, http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, nil, nil)
	_, err := NewAssistantService(assistantConfig(server.URL)).Ask(context.Background(), "hi", "")
	requireKind(t, err, KindUpstream, "")
	assert.Contains(t, err.Error(), "Unable to reach OpenAI: 401 Unauthorized")

	closed := httptest.NewServer(http.NotFoundHandler())
	url := closed.URL
	closed.Close()
	_, err = NewAssistantService(assistantConfig(url)).Ask(context.Background(), "hi", "")
	requireKind(t, err, KindUpstream, "")
	assert.Contains(t, err.Error(), "Unable to reach OpenAI: ")
}

func TestAskEmptyResponses(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"no choices", `{"choices":[]}`, "OpenAI response did not include any choices."},
		{"missing choices", `{}`, "OpenAI response did not include any choices."},
		{"blank content", `{"choices":[{"message":{"content":"   "}}]}`, "OpenAI response was empty."},
		{"null content", `{"choices":[{"message":{"content":null}}]}`, "OpenAI response was empty."},
		{"no message", `{"choices":[{}]}`, "OpenAI response was empty."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newCompletionServer(t, http.StatusOK, tt.body, nil, nil)
			_, err := NewAssistantService(assistantConfig(server.URL)).Ask(context.Background(), "hi", "")
			requireKind(t, err, KindValidation, tt.message)
		})
	}
}
