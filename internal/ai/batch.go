package ai

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// dataPlaceholder is the named slot a user prompt template may use for each
// batch item.
const dataPlaceholder = "{data}"

// Inter-call pacing per provider. Calls are sequential by design: fanning
// out concurrently blows straight past paid-API rate limits. The anthropic
// delay is longer because its rate limiting is observably tighter.
const (
	openAIBatchDelay    = 100 * time.Millisecond
	anthropicBatchDelay = 200 * time.Millisecond
)

// processBatch runs Process over inputs one at a time, preserving order, and
// waits delay after each call. The first failure aborts the batch; callers
// that need length-preserving output substitute placeholder results instead
// (the recommendation engine does this per sub-batch).
func processBatch(ctx context.Context, c Client, delay time.Duration, inputs []string, systemPrompt, userPromptTemplate string) ([]AnalysisResult, error) {
	results := make([]AnalysisResult, 0, len(inputs))

	for i, data := range inputs {
		userPrompt := ""
		if userPromptTemplate != "" {
			userPrompt = strings.ReplaceAll(userPromptTemplate, dataPlaceholder, data)
		}

		result, err := c.Process(ctx, data, systemPrompt, userPrompt)
		if err != nil {
			return nil, fmt.Errorf("batch item %d: %w", i, err)
		}
		results = append(results, *result)

		if delay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return results, nil
}

// PlaceholderResult is the explicit stand-in for a failed batch item: empty
// text, zero confidence, zero tokens.
func PlaceholderResult() AnalysisResult {
	return AnalysisResult{}
}
