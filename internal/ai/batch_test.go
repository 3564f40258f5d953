package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	data         string
	systemPrompt string
	userPrompt   string
}

type stubProcessClient struct {
	calls   []recordedCall
	failOn  string
	onCall  func()
	respond func(data string) string
}

func (s *stubProcessClient) Process(ctx context.Context, data, systemPrompt, userPrompt string) (*AnalysisResult, error) {
	s.calls = append(s.calls, recordedCall{data: data, systemPrompt: systemPrompt, userPrompt: userPrompt})
	if s.onCall != nil {
		s.onCall()
	}
	if s.failOn != "" && data == s.failOn {
		return nil, &Error{Kind: KindRateLimit, Provider: ProviderOpenAI, StatusCode: 429, Message: "slow down"}
	}
	text := data
	if s.respond != nil {
		text = s.respond(data)
	}
	return &AnalysisResult{
		OriginalData:    data,
		ProcessedData:   text,
		Analysis:        text,
		ConfidenceScore: confidenceHosted,
	}, nil
}

func (s *stubProcessClient) ProcessBatch(ctx context.Context, inputs []string, systemPrompt, userPromptTemplate string) ([]AnalysisResult, error) {
	return processBatch(ctx, s, 0, inputs, systemPrompt, userPromptTemplate)
}

func (s *stubProcessClient) Close() error { return nil }

func TestProcessBatchPreservesOrder(t *testing.T) {
	stub := &stubProcessClient{respond: func(data string) string { return "analyzed " + data }}
	inputs := []string{"first", "second", "third"}

	results, err := processBatch(context.Background(), stub, 0, inputs, "system", "")
	require.NoError(t, err)
	require.Len(t, results, len(inputs))
	for i, input := range inputs {
		require.Equal(t, input, results[i].OriginalData)
		require.Equal(t, "analyzed "+input, results[i].ProcessedData)
	}
}

func TestProcessBatchTemplateSubstitution(t *testing.T) {
	stub := &stubProcessClient{}

	_, err := processBatch(context.Background(), stub, 0, []string{"widget"}, "system", "Analyze this product: {data}")
	require.NoError(t, err)
	require.Len(t, stub.calls, 1)
	require.Equal(t, "Analyze this product: widget", stub.calls[0].userPrompt)
	require.Equal(t, "widget", stub.calls[0].data)
	require.Equal(t, "system", stub.calls[0].systemPrompt)
}

func TestProcessBatchAbortsOnFirstError(t *testing.T) {
	stub := &stubProcessClient{failOn: "bad"}

	results, err := processBatch(context.Background(), stub, 0, []string{"ok", "bad", "never"}, "", "")
	require.Error(t, err)
	require.Nil(t, results)
	require.Contains(t, err.Error(), "batch item 1")
	require.True(t, IsRateLimit(err))
	// The item after the failure is never attempted.
	require.Len(t, stub.calls, 2)
}

func TestProcessBatchHonorsCancellationDuringPacing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stub := &stubProcessClient{onCall: cancel}

	_, err := processBatch(ctx, stub, 10*time.Millisecond, []string{"a", "b"}, "", "")
	require.Error(t, err)
	require.True(t, errors.Is(err, context.Canceled))
	require.Len(t, stub.calls, 1)
}

func TestPlaceholderResultIsZero(t *testing.T) {
	result := PlaceholderResult()
	require.Empty(t, result.ProcessedData)
	require.Zero(t, result.ConfidenceScore)
	require.Zero(t, result.TokensUsed)
}
