package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name     string
		provider Provider
		status   int
		want     Kind
	}{
		{"openai 429", ProviderOpenAI, 429, KindRateLimit},
		{"anthropic 429", ProviderAnthropic, 429, KindRateLimit},
		{"ollama 429", ProviderOllama, 429, KindRateLimit},
		{"custom 429", ProviderCustom, 429, KindRateLimit},
		{"openai 402", ProviderOpenAI, 402, KindQuotaExceeded},
		{"anthropic 402", ProviderAnthropic, 402, KindQuotaExceeded},
		{"custom 402", ProviderCustom, 402, KindQuotaExceeded},
		{"ollama 402 has no quota", ProviderOllama, 402, KindClient},
		{"openai 500", ProviderOpenAI, 500, KindClient},
		{"anthropic 401", ProviderAnthropic, 401, KindClient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyStatus(tt.provider, tt.status, "boom")
			require.Equal(t, tt.want, err.Kind)
			require.Equal(t, tt.provider, err.Provider)
			require.Equal(t, tt.status, err.StatusCode)
		})
	}
}

type fakeTimeoutError struct{}

func (fakeTimeoutError) Error() string   { return "i/o timeout" }
func (fakeTimeoutError) Timeout() bool   { return true }
func (fakeTimeoutError) Temporary() bool { return true }

func TestClassifyTransport(t *testing.T) {
	err := classifyTransport(ProviderOpenAI, context.DeadlineExceeded)
	require.Equal(t, KindTimeout, err.Kind)

	err = classifyTransport(ProviderOllama, fmt.Errorf("request: %w", fakeTimeoutError{}))
	require.Equal(t, KindTimeout, err.Kind)

	err = classifyTransport(ProviderCustom, errors.New("connection refused"))
	require.Equal(t, KindClient, err.Kind)
}

func TestKindPredicatesUnwrap(t *testing.T) {
	base := &Error{Kind: KindRateLimit, Provider: ProviderOpenAI, StatusCode: 429, Message: "slow down"}
	wrapped := fmt.Errorf("batch item 3: %w", base)

	require.True(t, IsRateLimit(wrapped))
	require.False(t, IsQuotaExceeded(wrapped))
	require.False(t, IsRateLimit(errors.New("plain")))
}

func TestErrorMessageIncludesStatus(t *testing.T) {
	err := &Error{Kind: KindQuotaExceeded, Provider: ProviderAnthropic, StatusCode: 402, Message: "billing"}
	require.Contains(t, err.Error(), "402")
	require.Contains(t, err.Error(), "quota_exceeded")
	require.Contains(t, err.Error(), "anthropic")
}
