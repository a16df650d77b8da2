package heuristic

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/wayfind-ai/wayfind/internal/collab"
	"github.com/wayfind-ai/wayfind/internal/search"
	"github.com/wayfind-ai/wayfind/internal/similarity"
)

const (
	// defaultCacheSize bounds the fingerprint -> estimate cache.
	defaultCacheSize = 500

	// defaultTargetSteps is the typical plan length assumed by the
	// deterministic fallback proxy.
	defaultTargetSteps = 6

	// defaultCallTimeout bounds each collaborator call.
	defaultCallTimeout = 10 * time.Second

	// biasBound caps the historical adjustment at +/-30% of the raw
	// estimate so memory bias cannot destabilize the frontier order.
	biasBound = 0.3
)

// cachedEstimate is one fingerprint -> estimate cache entry.
type cachedEstimate struct {
	value      float64
	confidence Confidence
}

// Stats counts estimator activity for run diagnostics. Counters are atomic
// because the cache is shared across concurrent runs.
type Stats struct {
	CacheHits    int64 `json:"cache_hits"`
	ModelCalls   int64 `json:"model_calls"`
	Fallbacks    int64 `json:"fallbacks"`
	MemoryErrors int64 `json:"memory_errors"`
}

// LLMEstimator implements Estimator against the language-model and
// episodic-memory collaborators.
//
// Estimation order:
//  1. Fingerprint the state; a cache hit returns immediately with no
//     external call.
//  2. On miss, prompt the estimation collaborator with goal, history, and
//     context, and parse a numeric step estimate from its free-text reply.
//     Call or parse failure falls back to the deterministic proxy with low
//     confidence.
//  3. Adjust the estimate by historical performance for (latest action,
//     task category) from episodic memory: poor history raises h, strong
//     history lowers it, clamped to +/-30% of the raw value.
//  4. Cache the final value (bounded LRU).
type LLMEstimator struct {
	client   collab.CompletionClient
	memory   collab.EpisodicMemory
	detector *similarity.Detector
	cache    *lru.Cache[string, cachedEstimate]
	logger   *slog.Logger

	targetSteps int
	callTimeout time.Duration

	cacheHits    atomic.Int64
	modelCalls   atomic.Int64
	fallbacks    atomic.Int64
	memoryErrors atomic.Int64
}

// LLMEstimatorOption configures optional LLMEstimator behavior.
type LLMEstimatorOption func(*llmEstimatorConfig)

type llmEstimatorConfig struct {
	cacheSize   int
	targetSteps int
	callTimeout time.Duration
	logger      *slog.Logger
}

// WithCacheSize bounds the estimate cache to size entries.
func WithCacheSize(size int) LLMEstimatorOption {
	return func(c *llmEstimatorConfig) {
		if size > 0 {
			c.cacheSize = size
		}
	}
}

// WithTargetSteps sets the typical plan length assumed by the deterministic
// fallback proxy.
func WithTargetSteps(steps int) LLMEstimatorOption {
	return func(c *llmEstimatorConfig) {
		if steps > 0 {
			c.targetSteps = steps
		}
	}
}

// WithCallTimeout bounds each collaborator call.
func WithCallTimeout(timeout time.Duration) LLMEstimatorOption {
	return func(c *llmEstimatorConfig) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithLogger sets the estimator's logger.
func WithLogger(logger *slog.Logger) LLMEstimatorOption {
	return func(c *llmEstimatorConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewLLMEstimator creates an estimator backed by the given collaborators.
// Either collaborator may be nil; a nil client makes every estimate use the
// deterministic fallback, and a nil memory skips bias correction.
func NewLLMEstimator(client collab.CompletionClient, memory collab.EpisodicMemory, detector *similarity.Detector, opts ...LLMEstimatorOption) (*LLMEstimator, error) {
	cfg := llmEstimatorConfig{
		cacheSize:   defaultCacheSize,
		targetSteps: defaultTargetSteps,
		callTimeout: defaultCallTimeout,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	cache, err := lru.New[string, cachedEstimate](cfg.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create estimate cache: %w", err)
	}

	return &LLMEstimator{
		client:      client,
		memory:      memory,
		detector:    detector,
		cache:       cache,
		logger:      cfg.logger,
		targetSteps: cfg.targetSteps,
		callTimeout: cfg.callTimeout,
	}, nil
}

// Estimate produces the cost-to-go estimate for state.
func (e *LLMEstimator) Estimate(ctx context.Context, state search.State) (Estimate, error) {
	fingerprint := e.detector.Fingerprint(state.ActionNames(), state.Observation())

	if cached, ok := e.cache.Get(fingerprint); ok {
		e.cacheHits.Add(1)
		return Estimate{
			Value:      cached.value,
			Confidence: cached.confidence,
			Source:     SourceCache,
		}, nil
	}

	estimate := e.estimateUncached(ctx, state)

	e.cache.Add(fingerprint, cachedEstimate{
		value:      estimate.Value,
		confidence: estimate.Confidence,
	})

	return estimate, nil
}

// Stats returns a snapshot of estimator activity counters.
func (e *LLMEstimator) Stats() Stats {
	return Stats{
		CacheHits:    e.cacheHits.Load(),
		ModelCalls:   e.modelCalls.Load(),
		Fallbacks:    e.fallbacks.Load(),
		MemoryErrors: e.memoryErrors.Load(),
	}
}

// estimateUncached runs the model call, bias correction, and fallback logic.
func (e *LLMEstimator) estimateUncached(ctx context.Context, state search.State) Estimate {
	raw, err := e.queryModel(ctx, state)
	if err != nil {
		e.fallbacks.Add(1)
		e.logger.Debug("heuristic estimation fell back to deterministic proxy",
			"reason", err, "history_len", state.Depth())
		return Estimate{
			Value:      FallbackValue(e.targetSteps, state.Depth()),
			Confidence: ConfidenceLow,
			Source:     SourceFallback,
		}
	}

	adjusted, memErr := e.applyMemoryBias(ctx, state, raw)
	if memErr != nil {
		// Memory collaborator unavailable: degrade to the deterministic
		// proxy with low confidence rather than trusting an uncorrected
		// estimate.
		e.memoryErrors.Add(1)
		e.fallbacks.Add(1)
		e.logger.Debug("episodic memory unavailable during estimation",
			"reason", memErr)
		return Estimate{
			Value:      FallbackValue(e.targetSteps, state.Depth()),
			Confidence: ConfidenceLow,
			Source:     SourceFallback,
		}
	}

	return Estimate{
		Value:      adjusted,
		Confidence: ConfidenceHigh,
		Source:     SourceModel,
	}
}

// queryModel asks the estimation collaborator for a step estimate and parses
// a non-negative number from its reply.
func (e *LLMEstimator) queryModel(ctx context.Context, state search.State) (float64, error) {
	if e.client == nil {
		return 0, fmt.Errorf("no estimation collaborator configured")
	}

	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	e.modelCalls.Add(1)
	resp, err := e.client.Complete(callCtx, collab.CompletionRequest{
		Messages: []collab.Message{
			collab.NewSystemMessage(estimatorSystemPrompt),
			collab.NewUserMessage(e.buildPrompt(state)),
		},
		Temperature: 0.1,
		MaxTokens:   100,
	})
	if err != nil {
		return 0, fmt.Errorf("estimation call failed: %w", err)
	}

	value, err := collab.ExtractNumber(resp.Content)
	if err != nil {
		return 0, fmt.Errorf("estimation response unparseable: %w", err)
	}
	if value < 0 {
		value = 0
	}

	return value, nil
}

// applyMemoryBias corrects the raw estimate using historical performance for
// the state's latest action and task category. A missing record leaves the
// estimate untouched; a lookup error is returned for the caller to degrade.
func (e *LLMEstimator) applyMemoryBias(ctx context.Context, state search.State, raw float64) (float64, error) {
	if e.memory == nil {
		return raw, nil
	}

	step, ok := state.LatestStep()
	if !ok {
		// Root state has no action to key history on.
		return raw, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	record, err := e.memory.Lookup(callCtx, step.Name, step.Category.String())
	if err != nil {
		return raw, fmt.Errorf("memory lookup failed: %w", err)
	}
	if record == nil || record.SampleSize == 0 {
		return raw, nil
	}

	// Map success rate to a bias in [-1, 1]: 0.5 is neutral, poor history
	// raises the estimate, strong history lowers it. The correction is
	// clamped to +/-30% of the raw value.
	bias := (0.5 - record.SuccessRate) * 2
	if bias > 1 {
		bias = 1
	}
	if bias < -1 {
		bias = -1
	}

	adjusted := raw * (1 + bias*biasBound)
	if adjusted < 0 {
		adjusted = 0
	}

	return adjusted, nil
}

const estimatorSystemPrompt = `You are a planning cost estimator for an assistant that composes plans from a fixed catalog of actions.

Given a goal, the actions taken so far, and the latest observation, estimate how many MORE actions are needed to complete the goal.

Respond with a single non-negative number. No explanation.`

// buildPrompt renders the estimation request for one state.
func (e *LLMEstimator) buildPrompt(state search.State) string {
	var b strings.Builder

	b.WriteString("Goal: ")
	b.WriteString(state.Goal())
	b.WriteString("\n\nActions taken so far:\n")

	history := state.ActionNames()
	if len(history) == 0 {
		b.WriteString("(none)\n")
	}
	for i, action := range history {
		fmt.Fprintf(&b, "%d. %s\n", i+1, action)
	}

	if obs := state.Observation(); obs != "" {
		b.WriteString("\nLatest observation: ")
		b.WriteString(obs)
		b.WriteString("\n")
	}

	if snapshot := state.Context(); snapshot != nil {
		if len(snapshot.Documents) > 0 {
			fmt.Fprintf(&b, "\nRetrieved documents available: %d\n", len(snapshot.Documents))
		}
		if len(snapshot.MemoryHits) > 0 {
			fmt.Fprintf(&b, "Relevant memory entries: %d\n", len(snapshot.MemoryHits))
		}
	}

	b.WriteString("\nHow many more actions are needed? Answer with one number.")
	return b.String()
}
