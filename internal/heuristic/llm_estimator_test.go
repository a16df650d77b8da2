package heuristic

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfind-ai/wayfind/internal/collab"
	"github.com/wayfind-ai/wayfind/internal/search"
	"github.com/wayfind-ai/wayfind/internal/similarity"
)

// mockClient is a scripted CompletionClient for estimator tests.
type mockClient struct {
	response string
	err      error
	calls    int
}

func (m *mockClient) Complete(ctx context.Context, req collab.CompletionRequest) (*collab.CompletionResponse, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &collab.CompletionResponse{
		Content:      m.response,
		FinishReason: collab.FinishReasonStop,
	}, nil
}

// mockMemory is a scripted EpisodicMemory for estimator tests.
type mockMemory struct {
	record *collab.ActionHistory
	err    error
}

func (m *mockMemory) Lookup(ctx context.Context, action, category string) (*collab.ActionHistory, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.record, nil
}

// derivedState builds a state one action deep for bias tests.
func derivedState(t *testing.T, goal string) search.State {
	t.Helper()
	arena := search.NewArena(search.NewRootState(goal, nil))
	idx, err := arena.Derive(0, search.ActionStep{Name: "retrieve-documents", Category: "retrieval"}, "found 3 documents")
	require.NoError(t, err)
	state, err := arena.Get(idx)
	require.NoError(t, err)
	return state
}

func newTestEstimator(t *testing.T, client collab.CompletionClient, memory collab.EpisodicMemory, opts ...LLMEstimatorOption) *LLMEstimator {
	t.Helper()
	e, err := NewLLMEstimator(client, memory, similarity.NewDetector(similarity.DefaultThreshold), opts...)
	require.NoError(t, err)
	return e
}

func TestFallbackValue(t *testing.T) {
	tests := []struct {
		name        string
		targetSteps int
		historyLen  int
		want        float64
	}{
		{name: "root state", targetSteps: 6, historyLen: 0, want: 6},
		{name: "mid plan", targetSteps: 6, historyLen: 4, want: 2},
		{name: "at target", targetSteps: 6, historyLen: 6, want: 1},
		{name: "past target never below one", targetSteps: 6, historyLen: 10, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FallbackValue(tt.targetSteps, tt.historyLen))
		})
	}
}

func TestLLMEstimator_ModelEstimate(t *testing.T) {
	client := &mockClient{response: "I estimate about 4 more steps."}
	e := newTestEstimator(t, client, nil)

	got, err := e.Estimate(context.Background(), search.NewRootState("summarize the report", nil))
	require.NoError(t, err)

	assert.Equal(t, 4.0, got.Value)
	assert.Equal(t, ConfidenceHigh, got.Confidence)
	assert.Equal(t, SourceModel, got.Source)
	assert.Equal(t, int64(1), e.Stats().ModelCalls)
	assert.Equal(t, int64(0), e.Stats().Fallbacks)
}

func TestLLMEstimator_CacheHit(t *testing.T) {
	client := &mockClient{response: "3"}
	e := newTestEstimator(t, client, nil)

	state := search.NewRootState("summarize the report", nil)

	first, err := e.Estimate(context.Background(), state)
	require.NoError(t, err)
	second, err := e.Estimate(context.Background(), state)
	require.NoError(t, err)

	assert.Equal(t, SourceModel, first.Source)
	assert.Equal(t, SourceCache, second.Source)
	assert.Equal(t, first.Value, second.Value)
	assert.Equal(t, first.Confidence, second.Confidence)
	assert.Equal(t, 1, client.calls, "cached state must not re-call the collaborator")
	assert.Equal(t, int64(1), e.Stats().CacheHits)
}

func TestLLMEstimator_FallbackOnClientError(t *testing.T) {
	client := &mockClient{err: errors.New("connection refused")}
	e := newTestEstimator(t, client, nil, WithTargetSteps(6))

	state := derivedState(t, "summarize the report")

	got, err := e.Estimate(context.Background(), state)
	require.NoError(t, err, "collaborator failure must not abort estimation")

	assert.Equal(t, 5.0, got.Value, "max(1, targetSteps - historyLen)")
	assert.Equal(t, ConfidenceLow, got.Confidence)
	assert.Equal(t, SourceFallback, got.Source)
	assert.Equal(t, int64(1), e.Stats().Fallbacks)
}

func TestLLMEstimator_FallbackOnUnparseableResponse(t *testing.T) {
	client := &mockClient{response: "several more steps, hard to say"}
	e := newTestEstimator(t, client, nil)

	got, err := e.Estimate(context.Background(), search.NewRootState("goal", nil))
	require.NoError(t, err)

	assert.Equal(t, ConfidenceLow, got.Confidence)
	assert.Equal(t, SourceFallback, got.Source)
}

func TestLLMEstimator_NilClientUsesFallback(t *testing.T) {
	e := newTestEstimator(t, nil, nil, WithTargetSteps(4))

	got, err := e.Estimate(context.Background(), search.NewRootState("goal", nil))
	require.NoError(t, err)

	assert.Equal(t, 4.0, got.Value)
	assert.Equal(t, ConfidenceLow, got.Confidence)
	assert.Equal(t, SourceFallback, got.Source)
	assert.Equal(t, int64(0), e.Stats().ModelCalls)
}

func TestLLMEstimator_MemoryBias(t *testing.T) {
	tests := []struct {
		name        string
		successRate float64
		want        float64
	}{
		{name: "neutral history leaves estimate alone", successRate: 0.5, want: 4.0},
		{name: "perfect history lowers by 30 percent", successRate: 1.0, want: 2.8},
		{name: "failing history raises by 30 percent", successRate: 0.0, want: 5.2},
		{name: "good history lowers proportionally", successRate: 0.75, want: 3.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockClient{response: "4"}
			memory := &mockMemory{record: &collab.ActionHistory{
				Action:      "retrieve-documents",
				Category:    "retrieval",
				SuccessRate: tt.successRate,
				SampleSize:  12,
			}}
			e := newTestEstimator(t, client, memory)

			got, err := e.Estimate(context.Background(), derivedState(t, "goal"))
			require.NoError(t, err)

			assert.InDelta(t, tt.want, got.Value, 0.0001)
			assert.Equal(t, ConfidenceHigh, got.Confidence)
		})
	}
}

func TestLLMEstimator_EmptyMemoryRecordSkipsBias(t *testing.T) {
	client := &mockClient{response: "4"}
	memory := &mockMemory{record: nil}
	e := newTestEstimator(t, client, memory)

	got, err := e.Estimate(context.Background(), derivedState(t, "goal"))
	require.NoError(t, err)

	assert.Equal(t, 4.0, got.Value)
	assert.Equal(t, ConfidenceHigh, got.Confidence, "no history is not a failure")
}

func TestLLMEstimator_MemoryErrorDegradesToFallback(t *testing.T) {
	client := &mockClient{response: "4"}
	memory := &mockMemory{err: errors.New("store unavailable")}
	e := newTestEstimator(t, client, memory, WithTargetSteps(6))

	got, err := e.Estimate(context.Background(), derivedState(t, "goal"))
	require.NoError(t, err)

	assert.Equal(t, 5.0, got.Value, "raw model estimate is discarded, not trusted uncorrected")
	assert.Equal(t, ConfidenceLow, got.Confidence)
	assert.Equal(t, SourceFallback, got.Source)
	assert.Equal(t, int64(1), e.Stats().MemoryErrors)
}

func TestLLMEstimator_RootStateSkipsMemoryLookup(t *testing.T) {
	client := &mockClient{response: "6"}
	memory := &mockMemory{err: errors.New("store unavailable")}
	e := newTestEstimator(t, client, memory)

	// The root has no latest action to key history on, so the broken
	// memory store is never consulted.
	got, err := e.Estimate(context.Background(), search.NewRootState("goal", nil))
	require.NoError(t, err)

	assert.Equal(t, 6.0, got.Value)
	assert.Equal(t, ConfidenceHigh, got.Confidence)
}

func TestLLMEstimator_NegativeEstimateClamped(t *testing.T) {
	client := &mockClient{response: "it went backwards, -3 I think"}
	e := newTestEstimator(t, client, nil)

	got, err := e.Estimate(context.Background(), search.NewRootState("goal", nil))
	require.NoError(t, err)

	assert.Equal(t, 0.0, got.Value)
	assert.GreaterOrEqual(t, got.Value, 0.0)
}
