package planner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfind-ai/wayfind/internal/capability"
	"github.com/wayfind-ai/wayfind/internal/collab"
	"github.com/wayfind-ai/wayfind/internal/expand"
	"github.com/wayfind-ai/wayfind/internal/heuristic"
	"github.com/wayfind-ai/wayfind/internal/search"
	"github.com/wayfind-ai/wayfind/internal/similarity"
)

// mockEstimator scores states with a caller-supplied function.
type mockEstimator struct {
	fn func(state search.State) heuristic.Estimate
}

func (m *mockEstimator) Estimate(ctx context.Context, state search.State) (heuristic.Estimate, error) {
	if m.fn == nil {
		return heuristic.Estimate{
			Value:      1,
			Confidence: heuristic.ConfidenceHigh,
			Source:     heuristic.SourceModel,
		}, nil
	}
	return m.fn(state), nil
}

// failingClient refuses every completion call, forcing fallback paths.
type failingClient struct{}

func (failingClient) Complete(ctx context.Context, req collab.CompletionRequest) (*collab.CompletionResponse, error) {
	return nil, errors.New("connection refused")
}

// recordingEmitter captures emitted events for assertions.
type recordingEmitter struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingEmitter) Emit(ctx context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingEmitter) Subscribe(ctx context.Context) (<-chan Event, func()) {
	ch := make(chan Event)
	close(ch)
	return ch, func() {}
}

func (r *recordingEmitter) Close() error { return nil }

func (r *recordingEmitter) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

// documentRegistry is a minimal three-step catalog: extract the structure,
// summarize a section, synthesize the final summary.
func documentRegistry(t *testing.T) *capability.Registry {
	t.Helper()

	requires := func(name string) capability.Precondition {
		return func(state capability.StateView) bool {
			for _, a := range state.ActionNames() {
				if a == name {
					return true
				}
			}
			return false
		}
	}

	r, err := capability.NewRegistry([]capability.Capability{
		{
			Name:     "extract-structure",
			Category: capability.CategoryDocumentAnalysis,
			Effect:   "Extract the section structure of the working document.",
		},
		{
			Name:         "summarize-section",
			Category:     capability.CategoryDocumentAnalysis,
			Effect:       "Summarize one section of the working document.",
			Repeatable:   true,
			Precondition: requires("extract-structure"),
		},
		{
			Name:         "synthesize-summary",
			Category:     capability.CategorySynthesis,
			Effect:       "Synthesize the section summaries into a final summary.",
			Precondition: requires("summarize-section"),
		},
	})
	require.NoError(t, err)
	return r
}

// loopingRegistry has no terminal action, so runs over it never succeed.
func loopingRegistry(t *testing.T) *capability.Registry {
	t.Helper()
	r, err := capability.NewRegistry([]capability.Capability{
		{
			Name:       "poll-feed-a",
			Category:   capability.CategoryDocumentAnalysis,
			Effect:     "Check feed a for updates.",
			Repeatable: true,
		},
		{
			Name:       "poll-feed-b",
			Category:   capability.CategoryDocumentAnalysis,
			Effect:     "Check feed b for updates.",
			Repeatable: true,
		},
	})
	require.NoError(t, err)
	return r
}

// goalwardEstimator scores states so that f strictly decreases toward a
// three-step plan, keeping the search on the direct path.
func goalwardEstimator() *mockEstimator {
	return &mockEstimator{fn: func(state search.State) heuristic.Estimate {
		remaining := 3 - state.Depth()
		if remaining < 0 {
			remaining = 0
		}
		return heuristic.Estimate{
			Value:      float64(2 * remaining),
			Confidence: heuristic.ConfidenceHigh,
			Source:     heuristic.SourceModel,
		}
	}}
}

func newTestPlanner(t *testing.T, registry *capability.Registry, estimator heuristic.Estimator, opts ...Option) *Planner {
	t.Helper()

	detector := similarity.NewDetector(similarity.DefaultThreshold)
	expander, err := expand.NewLLMExpander(registry, nil, detector)
	require.NoError(t, err)

	p, err := New(estimator, expander, detector, opts...)
	require.NoError(t, err)
	return p
}

func TestNew_RequiredCollaborators(t *testing.T) {
	detector := similarity.NewDetector(similarity.DefaultThreshold)
	expander, err := expand.NewLLMExpander(documentRegistry(t), nil, detector)
	require.NoError(t, err)
	estimator := &mockEstimator{}

	_, err = New(nil, expander, detector)
	assert.Error(t, err)

	_, err = New(estimator, nil, detector)
	assert.Error(t, err)

	_, err = New(estimator, expander, nil)
	assert.Error(t, err)

	_, err = New(estimator, expander, detector)
	assert.NoError(t, err)
}

func TestRun_FindsThreeStepPlan(t *testing.T) {
	p := newTestPlanner(t, documentRegistry(t), goalwardEstimator())

	result, err := p.Run(context.Background(), "summarize the quarterly report", nil)
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, PhaseGoalFound, result.TerminalPhase)
	assert.Equal(t, []string{"extract-structure", "summarize-section", "synthesize-summary"},
		result.ActionNames())
	assert.Equal(t, 3, result.Cost)
	assert.False(t, result.LowConfidence)
	assert.True(t, result.Succeeded())

	// Ordering invariant: each step's position is its path cost.
	for i, step := range result.Actions {
		assert.NotEmpty(t, step.Name, "step %d", i)
	}
	assert.Equal(t, 3, result.Diagnostics.NodesExpanded)
	assert.Positive(t, result.Diagnostics.NodesGenerated)
}

func TestRun_Deterministic(t *testing.T) {
	p := newTestPlanner(t, documentRegistry(t), goalwardEstimator())

	first, err := p.Run(context.Background(), "summarize the quarterly report", nil)
	require.NoError(t, err)
	second, err := p.Run(context.Background(), "summarize the quarterly report", nil)
	require.NoError(t, err)

	assert.Equal(t, first.ActionNames(), second.ActionNames())
	assert.Equal(t, first.Cost, second.Cost)
	assert.Equal(t, first.Status, second.Status)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRun_StagnationTerminates(t *testing.T) {
	flat := &mockEstimator{fn: func(state search.State) heuristic.Estimate {
		return heuristic.Estimate{
			Value:      5,
			Confidence: heuristic.ConfidenceHigh,
			Source:     heuristic.SourceModel,
		}
	}}
	p := newTestPlanner(t, loopingRegistry(t), flat,
		WithStagnationWindow(3),
		WithNodeBudget(50),
	)

	result, err := p.Run(context.Background(), "watch the feeds", nil)
	require.NoError(t, err)

	assert.Equal(t, PhaseStagnating, result.TerminalPhase)
	assert.Equal(t, StatusPartial, result.Status)
	assert.False(t, result.Succeeded())
	// The best partial path found so far is still reported.
	assert.NotEmpty(t, result.ActionNames())
	assert.Equal(t, result.Cost, len(result.Actions))
}

func TestRun_NodeBudgetExhausted(t *testing.T) {
	p := newTestPlanner(t, loopingRegistry(t), &mockEstimator{},
		WithNodeBudget(1),
		WithStagnationWindow(100),
	)

	result, err := p.Run(context.Background(), "watch the feeds", nil)
	require.NoError(t, err)

	assert.Equal(t, PhaseBudgetExhausted, result.TerminalPhase)
	assert.Equal(t, StatusExhausted, result.Status)
	assert.Equal(t, 1, result.Diagnostics.NodesExpanded)
}

func TestRun_WallClockExhausted(t *testing.T) {
	slow := &mockEstimator{fn: func(state search.State) heuristic.Estimate {
		time.Sleep(5 * time.Millisecond)
		return heuristic.Estimate{Value: 5, Confidence: heuristic.ConfidenceHigh, Source: heuristic.SourceModel}
	}}
	p := newTestPlanner(t, loopingRegistry(t), slow,
		WithWallClock(time.Millisecond),
		WithStagnationWindow(1000),
	)

	result, err := p.Run(context.Background(), "watch the feeds", nil)
	require.NoError(t, err)

	assert.Equal(t, PhaseBudgetExhausted, result.TerminalPhase)
	assert.Equal(t, StatusExhausted, result.Status)
}

func TestRun_Cancellation(t *testing.T) {
	p := newTestPlanner(t, documentRegistry(t), goalwardEstimator())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := p.Run(ctx, "summarize the quarterly report", nil)
	require.NoError(t, err, "cancellation is a terminal outcome, not an error")

	assert.Equal(t, PhaseCancelled, result.TerminalPhase)
	assert.Equal(t, StatusCancelled, result.Status)
}

func TestRun_CollaboratorFailureStillPlans(t *testing.T) {
	// Both collaborators are down: estimation and ranking degrade to their
	// deterministic fallbacks and the run still produces a complete plan.
	detector := similarity.NewDetector(similarity.DefaultThreshold)
	estimator, err := heuristic.NewLLMEstimator(failingClient{}, nil, detector)
	require.NoError(t, err)
	expander, err := expand.NewLLMExpander(documentRegistry(t), failingClient{}, detector)
	require.NoError(t, err)

	p, err := New(estimator, expander, detector, WithStagnationWindow(20))
	require.NoError(t, err)

	result, err := p.Run(context.Background(), "summarize the quarterly report", nil)
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, []string{"extract-structure", "summarize-section", "synthesize-summary"},
		result.ActionNames())
	assert.True(t, result.LowConfidence, "fallback estimates must mark the plan low confidence")
	assert.Positive(t, result.Diagnostics.EstimatorStats.Fallbacks)
}

func TestRun_PrunesDominatedChildren(t *testing.T) {
	p := newTestPlanner(t, documentRegistry(t), goalwardEstimator())

	result, err := p.Run(context.Background(), "summarize the quarterly report", nil)
	require.NoError(t, err)

	// Expanding the two-step state proposes revisiting extract-structure
	// and repeating summarize-section; both are near-duplicates of cheaper
	// admitted states and must be pruned.
	assert.Positive(t, result.Diagnostics.NodesPruned)
}

func TestRun_CustomGoalPredicate(t *testing.T) {
	reached := func(state search.State) bool {
		return state.Depth() >= 2
	}
	p := newTestPlanner(t, documentRegistry(t), goalwardEstimator(),
		WithGoalPredicate(reached))

	result, err := p.Run(context.Background(), "summarize the quarterly report", nil)
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Len(t, result.Actions, 2)
}

func TestRun_EmitsLifecycleEvents(t *testing.T) {
	emitter := &recordingEmitter{}
	p := newTestPlanner(t, documentRegistry(t), goalwardEstimator(),
		WithEmitter(emitter))

	_, err := p.Run(context.Background(), "summarize the quarterly report", nil)
	require.NoError(t, err)

	got := emitter.types()
	require.NotEmpty(t, got)
	assert.Equal(t, EventRunStarted, got[0])
	assert.Equal(t, EventRunTerminated, got[len(got)-1])
	assert.Contains(t, got, EventNodeExpanded)
	assert.Contains(t, got, EventChildPruned)
}

func TestRun_AdvisoryUnavailableWithoutCritic(t *testing.T) {
	p := newTestPlanner(t, documentRegistry(t), goalwardEstimator())

	result, err := p.Run(context.Background(), "summarize the quarterly report", nil)
	require.NoError(t, err)

	assert.True(t, result.Advisory.Unavailable, "no critic means the plan stands unreviewed")
}

func TestRun_SnapshotSharedAcrossStates(t *testing.T) {
	snapshot := &search.ContextSnapshot{Documents: []string{"quarterly report, 3 sections"}}

	var seen []*search.ContextSnapshot
	var mu sync.Mutex
	est := &mockEstimator{fn: func(state search.State) heuristic.Estimate {
		mu.Lock()
		seen = append(seen, state.Context())
		mu.Unlock()
		remaining := 3 - state.Depth()
		if remaining < 0 {
			remaining = 0
		}
		return heuristic.Estimate{
			Value:      float64(2 * remaining),
			Confidence: heuristic.ConfidenceHigh,
			Source:     heuristic.SourceModel,
		}
	}}

	p := newTestPlanner(t, documentRegistry(t), est)

	_, err := p.Run(context.Background(), "summarize the quarterly report", snapshot)
	require.NoError(t, err)

	require.NotEmpty(t, seen)
	for _, s := range seen {
		assert.Same(t, snapshot, s, "snapshot is shared, never copied")
	}
}
