package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

const (
	anthropicDefaultBaseURL = "https://api.anthropic.com"
	anthropicAPIVersion     = "2023-06-01"
)

// anthropicClient speaks the messages API: the system instruction travels in
// its own field, not as a message.
type anthropicClient struct {
	cfg ModelConfig
	hc  *http.Client
}

func newAnthropicClient(cfg ModelConfig) *anthropicClient {
	return &anthropicClient{cfg: cfg, hc: newHTTPClient(cfg)}
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (c *anthropicClient) Process(ctx context.Context, data, systemPrompt, userPrompt string) (*AnalysisResult, error) {
	start := time.Now()

	userContent := userPrompt
	if userContent == "" {
		userContent = data
	}

	payload := map[string]any{
		"model":       c.cfg.ModelName,
		"max_tokens":  c.cfg.maxTokensOrDefault(),
		"temperature": c.cfg.Temperature,
		"messages": []map[string]string{
			{"role": "user", "content": userContent},
		},
	}
	if systemPrompt != "" {
		payload["system"] = systemPrompt
	}
	for key, value := range c.cfg.CustomParams {
		payload[key] = value
	}

	baseURL := c.cfg.BaseURL
	if baseURL == "" {
		baseURL = anthropicDefaultBaseURL
	}

	headers := map[string]string{
		"x-api-key":         c.cfg.APIKey,
		"anthropic-version": anthropicAPIVersion,
	}

	body, err := postJSON(ctx, c.hc, ProviderAnthropic, strings.TrimRight(baseURL, "/")+"/v1/messages", payload, headers)
	if err != nil {
		return nil, err
	}

	var resp anthropicResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &Error{Kind: KindDecode, Provider: ProviderAnthropic, Message: err.Error()}
	}
	if len(resp.Content) == 0 {
		return nil, &Error{Kind: KindDecode, Provider: ProviderAnthropic, Message: "response contained no content blocks"}
	}

	text := resp.Content[0].Text
	return &AnalysisResult{
		OriginalData:    data,
		ProcessedData:   text,
		Analysis:        text,
		ConfidenceScore: confidenceHosted,
		ProcessingTime:  time.Since(start).Seconds(),
		TokensUsed:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
	}, nil
}

func (c *anthropicClient) ProcessBatch(ctx context.Context, inputs []string, systemPrompt, userPromptTemplate string) ([]AnalysisResult, error) {
	return processBatch(ctx, c, anthropicBatchDelay, inputs, systemPrompt, userPromptTemplate)
}

func (c *anthropicClient) Close() error {
	c.hc.CloseIdleConnections()
	return nil
}
