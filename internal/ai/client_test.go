package ai

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewClientSelectsProvider(t *testing.T) {
	for _, provider := range []Provider{ProviderOpenAI, ProviderAnthropic, ProviderOllama} {
		client, err := NewClient(ModelConfig{Provider: provider, ModelName: "test-model"})
		require.NoError(t, err, "provider %s", provider)
		require.NotNil(t, client)
		require.NoError(t, client.Close())
	}
}

func TestNewClientCustomRequiresBaseURL(t *testing.T) {
	_, err := NewClient(ModelConfig{Provider: ProviderCustom})
	require.Error(t, err)
	require.True(t, IsConfig(err))

	client, err := NewClient(ModelConfig{Provider: ProviderCustom, BaseURL: "http://localhost:9999"})
	require.NoError(t, err)
	require.NotNil(t, client)
	require.NoError(t, client.Close())
}

func TestNewClientUnknownProvider(t *testing.T) {
	_, err := NewClient(ModelConfig{Provider: "bedrock"})
	require.Error(t, err)
	require.True(t, IsConfig(err))
	require.Contains(t, err.Error(), "bedrock")
}

func TestNewResilientClientPropagatesConfigError(t *testing.T) {
	_, err := NewResilientClient(ModelConfig{Provider: "nope"})
	require.Error(t, err)
	require.True(t, IsConfig(err))
}

func TestModelConfigDefaults(t *testing.T) {
	cfg := ModelConfig{}
	require.Equal(t, 30, cfg.timeoutOrDefault())
	require.Equal(t, 1000, cfg.maxTokensOrDefault())

	cfg = ModelConfig{TimeoutSec: 5, MaxTokens: 64}
	require.Equal(t, 5, cfg.timeoutOrDefault())
	require.Equal(t, 64, cfg.maxTokensOrDefault())
}
