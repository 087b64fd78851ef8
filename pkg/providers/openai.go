package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/models"
)

// Completions stream token by token upstream but are returned whole here,
// so the budget covers the full generation.
const defaultCallTimeout = 120 * time.Second

// OpenAICompatible calls any endpoint speaking the OpenAI chat completions
// protocol. Local serving stacks (llama.cpp, vLLM, LM Studio) and several
// hosted vendors expose this surface.
type OpenAICompatible struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewOpenAICompatible creates a client for one chat completions endpoint.
// The API key may be empty for local serving stacks.
func NewOpenAICompatible(baseURL, apiKey string, logger *slog.Logger) *OpenAICompatible {
	return &OpenAICompatible{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultCallTimeout},
		logger:     logger.With("module", "openai_client"),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
	Seed        *int64        `json:"seed,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

// Call implements CallFunc against the configured endpoint.
func (c *OpenAICompatible) Call(ctx context.Context, modelID string, request *models.GenerationRequest) (*models.JobResult, error) {
	payload := chatRequest{
		Model:    modelID,
		Messages: c.messages(request),
		Seed:     request.Seed,
	}

	if temperature, ok := request.Params["temperature"].(float64); ok {
		payload.Temperature = &temperature
	}

	// JSON numbers arrive as float64
	if maxTokens, ok := request.Params["max_tokens"].(float64); ok {
		tokens := int(maxTokens)
		payload.MaxTokens = &tokens
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal completion request: %w", err)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create completion request: %w", err)
	}

	httpRequest.Header.Set("Content-Type", "application/json")

	if c.apiKey != "" {
		httpRequest.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	c.logger.DebugContext(ctx, "Requesting completion", "model_id", modelID)

	resp, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read completion response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("completion request returned status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(responseBody)))
	}

	var completion chatResponse

	err = json.Unmarshal(responseBody, &completion)
	if err != nil {
		return nil, fmt.Errorf("failed to decode completion response: %w", err)
	}

	if len(completion.Choices) == 0 {
		return nil, errors.New("completion response contains no choices")
	}

	var raw map[string]any

	err = json.Unmarshal(responseBody, &raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode completion response: %w", err)
	}

	return &models.JobResult{
		Outputs: []models.Artifact{},
		Text:    completion.Choices[0].Message.Content,
		Raw:     raw,
	}, nil
}

func (c *OpenAICompatible) messages(request *models.GenerationRequest) []chatMessage {
	messages := make([]chatMessage, 0, 2)

	if system, ok := request.Params["system_prompt"].(string); ok && system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}

	return append(messages, chatMessage{Role: "user", Content: request.Prompt})
}
