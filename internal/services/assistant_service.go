// internal/services/assistant_service.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kmrl/metrodocs/internal/config"
)

const (
	assistantPersona = "You are MetroDocs AI, an assistant for Kochi Metro Rail Limited's " +
		"document portal. Provide concise, professional answers focused on " +
		"datasets, uploads, and process guidance. If unsure, ask for more details."

	msgAssistantKeyMissing = "OpenAI API key is not configured. Set OPENAI_API_KEY."
	msgAssistantNoChoices  = "OpenAI response did not include any choices."
	msgAssistantEmpty      = "OpenAI response was empty."
)

// AssistantService relays a single prompt to a chat-completion endpoint.
type AssistantService struct {
	config config.AssistantConfig
	client *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func NewAssistantService(cfg config.AssistantConfig) *AssistantService {
	return &AssistantService{
		config: cfg,
		client: &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second},
	}
}

// Ask sends prompt with the fixed persona and returns the trimmed reply.
// apiKeyOverride takes precedence over the configured key when non-empty.
func (s *AssistantService) Ask(ctx context.Context, prompt, apiKeyOverride string) (string, error) {
	apiKey := apiKeyOverride
	if apiKey == "" {
		apiKey = s.config.APIKey
	}
	if apiKey == "" {
		return "", ConfigError(msgAssistantKeyMissing)
	}

	payload, err := json.Marshal(chatCompletionRequest{
		Model: s.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: assistantPersona},
			{Role: "user", Content: prompt},
		},
		Temperature: s.config.Temperature,
		MaxTokens:   s.config.MaxTokens,
	})
	if err != nil {
		return "", InternalError("Assistant error: "+err.Error(), err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIURL, bytes.NewReader(payload))
	if err != nil {
		return "", InternalError("Assistant error: "+err.Error(), err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", unreachable(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		logrus.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"body":   string(snippet),
		}).Warn("Completion endpoint returned an error")
		return "", unreachable(fmt.Errorf("%d %s for url: %s",
			resp.StatusCode, http.StatusText(resp.StatusCode), s.config.APIURL))
	}

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", unreachable(fmt.Errorf("invalid response body: %w", err))
	}

	if len(completion.Choices) == 0 {
		return "", ValidationError(msgAssistantNoChoices)
	}

	var content string
	if msg := completion.Choices[0].Message; msg != nil && msg.Content != nil {
		content = strings.TrimSpace(*msg.Content)
	}
	if content == "" {
		return "", ValidationError(msgAssistantEmpty)
	}

	return content, nil
}

func unreachable(err error) error {
	return UpstreamError("Unable to reach OpenAI: "+err.Error(), err)
}
