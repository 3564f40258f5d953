package ai

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Confidence is fixed per provider class, not derived from the response.
// Hosted APIs get 0.8, local/custom endpoints 0.7. Callers must not treat
// these as calibrated scores.
const (
	confidenceHosted = 0.8
	confidenceLocal  = 0.7
)

// AnalysisResult is the canonical outcome of one AI call. Analysis mirrors
// ProcessedData for interface uniformity with batch consumers.
type AnalysisResult struct {
	OriginalData    string  `json:"original_data"`
	ProcessedData   string  `json:"processed_data"`
	Analysis        string  `json:"analysis"`
	ConfidenceScore float64 `json:"confidence_score"`
	ProcessingTime  float64 `json:"processing_time"`
	TokensUsed      int     `json:"tokens_used"`
}

// Client is the uniform interface over the provider variants. UserPrompt,
// when non-empty, overrides data as the user-facing message content.
type Client interface {
	Process(ctx context.Context, data, systemPrompt, userPrompt string) (*AnalysisResult, error)
	ProcessBatch(ctx context.Context, inputs []string, systemPrompt, userPromptTemplate string) ([]AnalysisResult, error)
	Close() error
}

// NewClient selects the concrete client variant for cfg.Provider. Unknown
// providers and a custom provider without an endpoint fail here, before any
// network call.
func NewClient(cfg ModelConfig) (Client, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		return newOpenAIClient(cfg), nil
	case ProviderAnthropic:
		return newAnthropicClient(cfg), nil
	case ProviderOllama:
		return newOllamaClient(cfg), nil
	case ProviderCustom:
		if cfg.BaseURL == "" {
			return nil, &Error{
				Kind:     KindConfig,
				Provider: ProviderCustom,
				Message:  "custom provider requires a base URL",
			}
		}
		return newCustomClient(cfg), nil
	default:
		return nil, &Error{
			Kind:    KindConfig,
			Message: fmt.Sprintf("unsupported AI provider: %q", cfg.Provider),
		}
	}
}

// NewResilientClient builds the provider client and wraps it with the
// circuit breaker and retry layer. This is the constructor services should
// use; NewClient returns the bare variant.
func NewResilientClient(cfg ModelConfig) (Client, error) {
	inner, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return withResilience(inner, cfg.Provider), nil
}

// headerRoundTripper injects configured extra headers into every request so
// all variants share one connection pool per client.
type headerRoundTripper struct {
	headers map[string]string
	base    http.RoundTripper
}

func (rt *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	for key, value := range rt.headers {
		req.Header.Set(key, value)
	}
	return rt.base.RoundTrip(req)
}

func newHTTPClient(cfg ModelConfig) *http.Client {
	var transport http.RoundTripper = &http.Transport{}
	if len(cfg.CustomHeaders) > 0 {
		transport = &headerRoundTripper{headers: cfg.CustomHeaders, base: transport}
	}
	return &http.Client{
		Timeout:   time.Duration(cfg.timeoutOrDefault()) * time.Second,
		Transport: transport,
	}
}
