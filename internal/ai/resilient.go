package ai

import (
	"context"
	"errors"
	"time"

	"github.com/ai-recommender/backend/pkg/circuitbreaker"
	"github.com/ai-recommender/backend/pkg/logger"
	"github.com/ai-recommender/backend/pkg/retry"
)

// resilientClient wraps a provider client with a circuit breaker and retry.
// Only rate limits and timeouts are retried; quota, config and decode
// failures are final on the first attempt. Breaker rejections are not
// retried either: the breaker reopening takes longer than any backoff.
type resilientClient struct {
	inner    Client
	breaker  *circuitbreaker.CircuitBreaker
	retryCfg retry.Config
}

func withResilience(inner Client, provider Provider) Client {
	retryCfg := retry.DefaultConfig()
	retryCfg.RetryIf = retryable
	retryCfg.Logger = logger.GetLogger()

	return &resilientClient{
		inner: inner,
		breaker: circuitbreaker.NewCircuitBreaker(string(provider), circuitbreaker.Config{
			MaxRequests:      1,
			Timeout:          30 * time.Second,
			FailureThreshold: 5,
			SuccessThreshold: 2,
			Logger:           logger.GetLogger(),
		}),
		retryCfg: retryCfg,
	}
}

func retryable(err error) bool {
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) ||
		errors.Is(err, circuitbreaker.ErrTooManyRequests) {
		return false
	}
	return IsRateLimit(err) || IsTimeout(err)
}

func (c *resilientClient) Process(ctx context.Context, data, systemPrompt, userPrompt string) (*AnalysisResult, error) {
	return retry.DoWithResult(ctx, c.retryCfg, func() (*AnalysisResult, error) {
		var result *AnalysisResult
		err := c.breaker.Execute(ctx, func() error {
			var innerErr error
			result, innerErr = c.inner.Process(ctx, data, systemPrompt, userPrompt)
			return innerErr
		})
		return result, err
	})
}

// ProcessBatch runs under the breaker but without retry: the batch already
// paces itself and aborts on the first item failure.
func (c *resilientClient) ProcessBatch(ctx context.Context, inputs []string, systemPrompt, userPromptTemplate string) ([]AnalysisResult, error) {
	var results []AnalysisResult
	err := c.breaker.Execute(ctx, func() error {
		var innerErr error
		results, innerErr = c.inner.ProcessBatch(ctx, inputs, systemPrompt, userPromptTemplate)
		return innerErr
	})
	return results, err
}

func (c *resilientClient) Close() error {
	return c.inner.Close()
}
