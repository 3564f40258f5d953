package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// customClient posts a generic {input, system, temperature, max_tokens}
// payload to a caller-supplied endpoint. Response shape is unknown: a
// "response" field is used when present, otherwise the whole JSON body is
// returned as text.
type customClient struct {
	cfg ModelConfig
	hc  *http.Client
}

func newCustomClient(cfg ModelConfig) *customClient {
	return &customClient{cfg: cfg, hc: newHTTPClient(cfg)}
}

func (c *customClient) Process(ctx context.Context, data, systemPrompt, userPrompt string) (*AnalysisResult, error) {
	start := time.Now()

	userContent := userPrompt
	if userContent == "" {
		userContent = data
	}

	payload := map[string]any{
		"input":       userContent,
		"system":      systemPrompt,
		"temperature": c.cfg.Temperature,
		"max_tokens":  c.cfg.maxTokensOrDefault(),
	}
	for key, value := range c.cfg.CustomParams {
		payload[key] = value
	}

	headers := map[string]string{}
	if c.cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + c.cfg.APIKey
	}

	body, err := postJSON(ctx, c.hc, ProviderCustom, c.cfg.BaseURL, payload, headers)
	if err != nil {
		return nil, err
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &Error{Kind: KindDecode, Provider: ProviderCustom, Message: err.Error()}
	}

	text, ok := result["response"].(string)
	if !ok {
		text = string(body)
	}

	tokens := 0
	if v, ok := result["tokens_used"].(float64); ok {
		tokens = int(v)
	}

	return &AnalysisResult{
		OriginalData:    data,
		ProcessedData:   text,
		Analysis:        text,
		ConfidenceScore: confidenceLocal,
		ProcessingTime:  time.Since(start).Seconds(),
		TokensUsed:      tokens,
	}, nil
}

func (c *customClient) ProcessBatch(ctx context.Context, inputs []string, systemPrompt, userPromptTemplate string) ([]AnalysisResult, error) {
	return processBatch(ctx, c, 0, inputs, systemPrompt, userPromptTemplate)
}

func (c *customClient) Close() error {
	c.hc.CloseIdleConnections()
	return nil
}
