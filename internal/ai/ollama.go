package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

const ollamaDefaultBaseURL = "http://localhost:11434"

// ollamaClient posts single prompts to a local generation endpoint with
// streaming disabled. Token counts default to zero when the runtime omits
// them.
type ollamaClient struct {
	cfg ModelConfig
	hc  *http.Client
}

func newOllamaClient(cfg ModelConfig) *ollamaClient {
	return &ollamaClient{cfg: cfg, hc: newHTTPClient(cfg)}
}

type ollamaResponse struct {
	Response        string `json:"response"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

func (c *ollamaClient) Process(ctx context.Context, data, systemPrompt, userPrompt string) (*AnalysisResult, error) {
	start := time.Now()

	userContent := userPrompt
	if userContent == "" {
		userContent = data
	}

	options := map[string]any{
		"temperature": c.cfg.Temperature,
		"num_predict": c.cfg.maxTokensOrDefault(),
	}
	for key, value := range c.cfg.CustomParams {
		options[key] = value
	}

	payload := map[string]any{
		"model":   c.cfg.ModelName,
		"prompt":  userContent,
		"stream":  false,
		"options": options,
	}
	if systemPrompt != "" {
		payload["system"] = systemPrompt
	}

	baseURL := c.cfg.BaseURL
	if baseURL == "" {
		baseURL = ollamaDefaultBaseURL
	}

	body, err := postJSON(ctx, c.hc, ProviderOllama, strings.TrimRight(baseURL, "/")+"/api/generate", payload, nil)
	if err != nil {
		return nil, err
	}

	var resp ollamaResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &Error{Kind: KindDecode, Provider: ProviderOllama, Message: err.Error()}
	}

	return &AnalysisResult{
		OriginalData:    data,
		ProcessedData:   resp.Response,
		Analysis:        resp.Response,
		ConfidenceScore: confidenceLocal,
		ProcessingTime:  time.Since(start).Seconds(),
		TokensUsed:      resp.PromptEvalCount + resp.EvalCount,
	}, nil
}

func (c *ollamaClient) ProcessBatch(ctx context.Context, inputs []string, systemPrompt, userPromptTemplate string) ([]AnalysisResult, error) {
	// Local models have no provider-side rate limits, so no pacing.
	return processBatch(ctx, c, 0, inputs, systemPrompt, userPromptTemplate)
}

func (c *ollamaClient) Close() error {
	c.hc.CloseIdleConnections()
	return nil
}
