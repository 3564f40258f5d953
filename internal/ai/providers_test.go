package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnthropicProcess(t *testing.T) {
	var gotPath string
	var gotHeaders http.Header
	var gotPayload map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotHeaders = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"content": [{"type": "text", "text": "insightful analysis"}],
			"usage": {"input_tokens": 10, "output_tokens": 7}
		}`))
	}))
	defer server.Close()

	client := newAnthropicClient(ModelConfig{
		Provider:  ProviderAnthropic,
		ModelName: "claude-3-haiku",
		APIKey:    "test-key",
		BaseURL:   server.URL,
	})
	defer client.Close()

	result, err := client.Process(context.Background(), "some product data", "act as analyst", "")
	require.NoError(t, err)

	require.Equal(t, "/v1/messages", gotPath)
	require.Equal(t, "test-key", gotHeaders.Get("x-api-key"))
	require.Equal(t, anthropicAPIVersion, gotHeaders.Get("anthropic-version"))
	require.Equal(t, "claude-3-haiku", gotPayload["model"])
	require.Equal(t, "act as analyst", gotPayload["system"])

	require.Equal(t, "insightful analysis", result.ProcessedData)
	require.Equal(t, result.ProcessedData, result.Analysis)
	require.Equal(t, "some product data", result.OriginalData)
	require.Equal(t, 17, result.TokensUsed)
	require.Equal(t, confidenceHosted, result.ConfidenceScore)
}

func TestAnthropicErrorClassification(t *testing.T) {
	status := 429
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(`{"error": {"message": "nope"}}`))
	}))
	defer server.Close()

	client := newAnthropicClient(ModelConfig{Provider: ProviderAnthropic, BaseURL: server.URL})
	defer client.Close()

	_, err := client.Process(context.Background(), "data", "", "")
	require.True(t, IsRateLimit(err))

	status = 402
	_, err = client.Process(context.Background(), "data", "", "")
	require.True(t, IsQuotaExceeded(err))
}

func TestOllamaProcess(t *testing.T) {
	var gotPath string
	var gotPayload map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response": "local answer", "prompt_eval_count": 4, "eval_count": 9}`))
	}))
	defer server.Close()

	client := newOllamaClient(ModelConfig{
		Provider:  ProviderOllama,
		ModelName: "llama3",
		BaseURL:   server.URL,
	})
	defer client.Close()

	result, err := client.Process(context.Background(), "prompt text", "system text", "")
	require.NoError(t, err)

	require.Equal(t, "/api/generate", gotPath)
	require.Equal(t, "llama3", gotPayload["model"])
	require.Equal(t, false, gotPayload["stream"])
	require.Equal(t, "system text", gotPayload["system"])

	require.Equal(t, "local answer", result.ProcessedData)
	require.Equal(t, 13, result.TokensUsed)
	require.Equal(t, confidenceLocal, result.ConfidenceScore)
}

func TestOllamaMissingTokenCountsDefaultToZero(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response": "answer"}`))
	}))
	defer server.Close()

	client := newOllamaClient(ModelConfig{Provider: ProviderOllama, BaseURL: server.URL})
	defer client.Close()

	result, err := client.Process(context.Background(), "data", "", "")
	require.NoError(t, err)
	require.Zero(t, result.TokensUsed)
}

func TestOllamaTreats402AsGenericError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(402)
	}))
	defer server.Close()

	client := newOllamaClient(ModelConfig{Provider: ProviderOllama, BaseURL: server.URL})
	defer client.Close()

	_, err := client.Process(context.Background(), "data", "", "")
	require.Error(t, err)
	require.False(t, IsQuotaExceeded(err))

	var aiErr *Error
	require.ErrorAs(t, err, &aiErr)
	require.Equal(t, KindClient, aiErr.Kind)
}

func TestCustomProcess(t *testing.T) {
	var gotAuth string
	var gotPayload map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response": "custom answer", "tokens_used": 21}`))
	}))
	defer server.Close()

	client := newCustomClient(ModelConfig{
		Provider: ProviderCustom,
		APIKey:   "secret",
		BaseURL:  server.URL,
	})
	defer client.Close()

	result, err := client.Process(context.Background(), "payload", "system", "")
	require.NoError(t, err)

	require.Equal(t, "Bearer secret", gotAuth)
	require.Equal(t, "payload", gotPayload["input"])
	require.Equal(t, "system", gotPayload["system"])

	require.Equal(t, "custom answer", result.ProcessedData)
	require.Equal(t, 21, result.TokensUsed)
	require.Equal(t, confidenceLocal, result.ConfidenceScore)
}

func TestCustomFallsBackToRawBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"answer": "different shape"}`))
	}))
	defer server.Close()

	client := newCustomClient(ModelConfig{Provider: ProviderCustom, BaseURL: server.URL})
	defer client.Close()

	result, err := client.Process(context.Background(), "data", "", "")
	require.NoError(t, err)
	require.JSONEq(t, `{"answer": "different shape"}`, result.ProcessedData)
	require.Zero(t, result.TokensUsed)
}

func TestOpenAIProcess(t *testing.T) {
	var gotPath string
	var gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "cmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-3.5-turbo",
			"choices": [{
				"index": 0,
				"message": {"role": "assistant", "content": "hosted answer"},
				"finish_reason": "stop"
			}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 8, "total_tokens": 20}
		}`))
	}))
	defer server.Close()

	client := newOpenAIClient(ModelConfig{
		Provider:  ProviderOpenAI,
		ModelName: "gpt-3.5-turbo",
		APIKey:    "sk-test",
		BaseURL:   server.URL,
	})
	defer client.Close()

	result, err := client.Process(context.Background(), "data", "system", "")
	require.NoError(t, err)

	require.Equal(t, "/v1/chat/completions", gotPath)
	require.Equal(t, "Bearer sk-test", gotAuth)

	require.Equal(t, "hosted answer", result.ProcessedData)
	require.Equal(t, 20, result.TokensUsed)
	require.Equal(t, confidenceHosted, result.ConfidenceScore)
}

func TestOpenAIErrorClassification(t *testing.T) {
	status := 429
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(`{"error": {"message": "limit reached", "type": "requests"}}`))
	}))
	defer server.Close()

	client := newOpenAIClient(ModelConfig{Provider: ProviderOpenAI, BaseURL: server.URL})
	defer client.Close()

	_, err := client.Process(context.Background(), "data", "", "")
	require.True(t, IsRateLimit(err))

	status = 402
	_, err = client.Process(context.Background(), "data", "", "")
	require.True(t, IsQuotaExceeded(err))
}
