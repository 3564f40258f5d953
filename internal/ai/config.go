package ai

// Provider identifies one of the supported AI backends. The set is closed:
// the factory rejects anything else at construction time.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderOllama    Provider = "ollama"
	ProviderCustom    Provider = "custom"
)

// ModelConfig describes one provider endpoint. It is treated as immutable
// once a client has been built from it.
type ModelConfig struct {
	Provider      Provider
	ModelName     string
	APIKey        string
	BaseURL       string
	Temperature   float32
	MaxTokens     int
	TimeoutSec    int
	CustomHeaders map[string]string
	CustomParams  map[string]any
}

func (c ModelConfig) timeoutOrDefault() int {
	if c.TimeoutSec <= 0 {
		return 30
	}
	return c.TimeoutSec
}

func (c ModelConfig) maxTokensOrDefault() int {
	if c.MaxTokens <= 0 {
		return 1000
	}
	return c.MaxTokens
}
