package providers_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/models"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func chatRequest() *models.GenerationRequest {
	return &models.GenerationRequest{
		TaskType: "chat",
		ModelID:  "gpt-4o-mini",
		Prompt:   "Name three film noir classics.",
	}
}

func TestRegistryCall(t *testing.T) {
	t.Parallel()

	registry := providers.NewRegistry(testLogger())

	registry.Register(models.ProviderOpenAI, func(_ context.Context, modelID string, request *models.GenerationRequest) (*models.JobResult, error) {
		assert.Equal(t, "gpt-4o-mini", modelID)
		assert.Equal(t, "Name three film noir classics.", request.Prompt)

		return &models.JobResult{Text: "Double Indemnity, Laura, Out of the Past"}, nil
	})

	result, err := registry.Call(t.Context(), models.ProviderOpenAI, "gpt-4o-mini", chatRequest())
	require.NoError(t, err)
	assert.Equal(t, "Double Indemnity, Laura, Out of the Past", result.Text)
}

func TestRegistryCallUnregistered(t *testing.T) {
	t.Parallel()

	registry := providers.NewRegistry(testLogger())

	result, err := registry.Call(t.Context(), models.ProviderAnthropic, "claude", chatRequest())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, providers.ErrProviderUnavailable)
	assert.True(t, providers.IsProviderUnavailable(err))
	assert.Contains(t, err.Error(), "anthropic")
}

func TestRegistryCallErrorsPassThrough(t *testing.T) {
	t.Parallel()

	registry := providers.NewRegistry(testLogger())
	boom := errors.New("rate limited")

	registry.Register(models.ProviderXAI, func(_ context.Context, _ string, _ *models.GenerationRequest) (*models.JobResult, error) {
		return nil, boom
	})

	_, err := registry.Call(t.Context(), models.ProviderXAI, "grok-3", chatRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.False(t, providers.IsProviderUnavailable(err))
}

func TestRegistryAvailable(t *testing.T) {
	t.Parallel()

	registry := providers.NewRegistry(testLogger())

	nop := func(_ context.Context, _ string, _ *models.GenerationRequest) (*models.JobResult, error) {
		return &models.JobResult{}, nil
	}

	registry.Register(models.ProviderOpenAI, nop)
	registry.Register(models.ProviderAnthropic, nop)

	assert.Equal(t, []models.Provider{models.ProviderAnthropic, models.ProviderOpenAI}, registry.Available())
}

func TestOpenAICompatibleCall(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload map[string]any

		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "gpt-4o-mini", payload["model"])
		assert.Equal(t, float64(0.2), payload["temperature"])
		assert.Equal(t, float64(256), payload["max_tokens"])

		messages, ok := payload["messages"].([]any)
		assert.True(t, ok)
		assert.Len(t, messages, 2)

		system, ok := messages[0].(map[string]any)
		assert.True(t, ok)
		assert.Equal(t, "system", system["role"])
		assert.Equal(t, "You are a film historian.", system["content"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"model": "gpt-4o-mini",
			"choices": [{"message": {"role": "assistant", "content": "The Third Man."}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 4, "total_tokens": 16}
		}`))
	}))
	defer server.Close()

	client := providers.NewOpenAICompatible(server.URL+"/v1", "test-key", testLogger())

	request := chatRequest()
	request.Params = map[string]any{
		"system_prompt": "You are a film historian.",
		"temperature":   0.2,
		"max_tokens":    float64(256),
	}

	result, err := client.Call(t.Context(), "gpt-4o-mini", request)
	require.NoError(t, err)
	assert.Equal(t, "The Third Man.", result.Text)
	assert.Empty(t, result.Outputs)
	assert.Contains(t, result.Raw, "usage")
}

func TestOpenAICompatibleCallRejected(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "invalid api key"}}`))
	}))
	defer server.Close()

	client := providers.NewOpenAICompatible(server.URL, "bad-key", testLogger())

	_, err := client.Call(t.Context(), "gpt-4o-mini", chatRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestOpenAICompatibleCallNoChoices(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	client := providers.NewOpenAICompatible(server.URL, "", testLogger())

	_, err := client.Call(t.Context(), "gpt-4o-mini", chatRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}
