package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// openAIClient speaks the chat-completions API through the go-openai SDK.
type openAIClient struct {
	cfg ModelConfig
	api *openai.Client
	hc  *http.Client
}

func newOpenAIClient(cfg ModelConfig) *openAIClient {
	hc := newHTTPClient(cfg)

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	apiCfg.HTTPClient = hc
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/") + "/v1"
	}

	return &openAIClient{
		cfg: cfg,
		api: openai.NewClientWithConfig(apiCfg),
		hc:  hc,
	}
}

func (c *openAIClient) Process(ctx context.Context, data, systemPrompt, userPrompt string) (*AnalysisResult, error) {
	start := time.Now()

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}
	userContent := userPrompt
	if userContent == "" {
		userContent = data
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userContent,
	})

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.cfg.ModelName,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.maxTokensOrDefault(),
	})
	if err != nil {
		return nil, classifyOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, &Error{Kind: KindDecode, Provider: ProviderOpenAI, Message: "response contained no choices"}
	}

	content := resp.Choices[0].Message.Content
	return &AnalysisResult{
		OriginalData:    data,
		ProcessedData:   content,
		Analysis:        content,
		ConfidenceScore: confidenceHosted,
		ProcessingTime:  time.Since(start).Seconds(),
		TokensUsed:      resp.Usage.TotalTokens,
	}, nil
}

func (c *openAIClient) ProcessBatch(ctx context.Context, inputs []string, systemPrompt, userPromptTemplate string) ([]AnalysisResult, error) {
	return processBatch(ctx, c, openAIBatchDelay, inputs, systemPrompt, userPromptTemplate)
}

func (c *openAIClient) Close() error {
	c.hc.CloseIdleConnections()
	return nil
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(ProviderOpenAI, apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(ProviderOpenAI, reqErr.HTTPStatusCode, reqErr.Error())
	}
	return classifyTransport(ProviderOpenAI, err)
}
