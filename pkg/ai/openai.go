package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIClient calls the OpenAI /v1/chat/completions endpoint and
// implements AnswerEngine. The backing deployment is a SQL-reasoning agent
// over the product catalog; from here it is an opaque text-in/text-out
// capability.
type OpenAIClient struct {
	baseURL      string
	apiKey       string
	organization string
	model        string
	httpClient   *http.Client
}

// NewOpenAIClient builds an OpenAI-backed answer engine.
// baseURL should include the /v1 prefix; empty selects the public API.
func NewOpenAIClient(baseURL, apiKey, organization, model string) (*OpenAIClient, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key required")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, fmt.Errorf("openai generation model required")
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &OpenAIClient{
		baseURL:      baseURL,
		apiKey:       apiKey,
		organization: strings.TrimSpace(organization),
		model:        model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

// Answer implements AnswerEngine using the OpenAI chat completions API.
// History entries are sent between the system prompt and the new question.
func (c *OpenAIClient) Answer(ctx context.Context, question string, history []Message) (string, error) {
	messages := make([]oaiMessage, 0, len(history)+2)
	messages = append(messages, oaiMessage{Role: "system", Content: SystemPrompt})
	for _, msg := range history {
		messages = append(messages, oaiMessage{Role: msg.Role, Content: msg.Content})
	}
	messages = append(messages, oaiMessage{Role: "user", Content: question})

	body, err := json.Marshal(oaiChatRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", err
	}

	url := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.organization != "" {
		req.Header.Set("OpenAI-Organization", c.organization)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp oaiErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error.Message != "" {
			return "", fmt.Errorf("openai api error: %s", errResp.Error.Message)
		}
		return "", fmt.Errorf("openai api error: %s", resp.Status)
	}

	var chatResp oaiChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("openai decode: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("empty response from openai api")
	}
	text := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("empty response from openai api")
	}
	return text, nil
}

// OpenAI request/response types.

type oaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type oaiChatRequest struct {
	Model    string       `json:"model"`
	Messages []oaiMessage `json:"messages"`
}

type oaiChatResponse struct {
	Choices []struct {
		Message oaiMessage `json:"message"`
	} `json:"choices"`
}

type oaiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}
