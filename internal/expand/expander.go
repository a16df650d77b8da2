// Package expand generates and ranks candidate successor actions for a
// planning state. Candidates are the registry capabilities whose
// preconditions hold, minus trivial self-loops; when more candidates remain
// than the branching factor allows, the language-model collaborator ranks
// them, with a fixed category-affinity ordering as the fallback.
package expand

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/wayfind-ai/wayfind/internal/capability"
	"github.com/wayfind-ai/wayfind/internal/collab"
	"github.com/wayfind-ai/wayfind/internal/search"
	"github.com/wayfind-ai/wayfind/internal/similarity"
)

const (
	// DefaultBranchingFactor bounds how many successor candidates one
	// expansion may produce.
	DefaultBranchingFactor = 5

	// defaultRankCacheSize bounds the fingerprint -> ranked candidates cache.
	defaultRankCacheSize = 256

	// defaultCallTimeout bounds each ranking collaborator call.
	defaultCallTimeout = 10 * time.Second
)

// categoryAffinity is the fixed fallback ordering used when the ranking
// collaborator is unavailable: retrieval-first, then analysis, memory,
// synthesis, conversation, and meta-reasoning control last. It suits the
// research-style tasks the planner is built for.
var categoryAffinity = map[capability.Category]int{
	capability.CategoryRetrieval:        0,
	capability.CategoryDocumentAnalysis: 1,
	capability.CategoryMemoryOperation:  2,
	capability.CategorySynthesis:        3,
	capability.CategoryConversation:     4,
	capability.CategoryMetaReasoning:    5,
}

// Proposal is one candidate successor action: a capability plus a concrete
// parameter assignment.
type Proposal struct {
	Capability capability.Capability
	Params     capability.Params
}

// Expander generates ordered successor proposals for planning states.
type Expander interface {
	// Expand returns candidate successor actions for state, best first,
	// bounded by the branching factor. An empty slice means no viable
	// actions exist; that is normal pruning, not an error.
	Expand(ctx context.Context, state search.State) ([]Proposal, error)
}

// Stats counts expander activity for run diagnostics.
type Stats struct {
	RankCalls     int64 `json:"rank_calls"`
	RankFallbacks int64 `json:"rank_fallbacks"`
	CacheHits     int64 `json:"cache_hits"`
}

// LLMExpander implements Expander against the capability registry and the
// language-model ranking collaborator.
type LLMExpander struct {
	registry *capability.Registry
	client   collab.CompletionClient
	detector *similarity.Detector
	cache    *lru.Cache[string, []string]
	logger   *slog.Logger

	branchingFactor int
	callTimeout     time.Duration

	rankCalls     atomic.Int64
	rankFallbacks atomic.Int64
	cacheHits     atomic.Int64
}

// LLMExpanderOption configures optional LLMExpander behavior.
type LLMExpanderOption func(*llmExpanderConfig)

type llmExpanderConfig struct {
	branchingFactor int
	cacheSize       int
	callTimeout     time.Duration
	logger          *slog.Logger
}

// WithBranchingFactor bounds how many proposals one expansion may produce.
func WithBranchingFactor(n int) LLMExpanderOption {
	return func(c *llmExpanderConfig) {
		if n > 0 {
			c.branchingFactor = n
		}
	}
}

// WithRankCacheSize bounds the ranked-candidate cache to size entries.
func WithRankCacheSize(size int) LLMExpanderOption {
	return func(c *llmExpanderConfig) {
		if size > 0 {
			c.cacheSize = size
		}
	}
}

// WithCallTimeout bounds each ranking collaborator call.
func WithCallTimeout(timeout time.Duration) LLMExpanderOption {
	return func(c *llmExpanderConfig) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithLogger sets the expander's logger.
func WithLogger(logger *slog.Logger) LLMExpanderOption {
	return func(c *llmExpanderConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewLLMExpander creates an expander over the given registry. The ranking
// client may be nil, in which case every expansion uses the category-affinity
// fallback ordering.
func NewLLMExpander(registry *capability.Registry, client collab.CompletionClient, detector *similarity.Detector, opts ...LLMExpanderOption) (*LLMExpander, error) {
	cfg := llmExpanderConfig{
		branchingFactor: DefaultBranchingFactor,
		cacheSize:       defaultRankCacheSize,
		callTimeout:     defaultCallTimeout,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	cache, err := lru.New[string, []string](cfg.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create rank cache: %w", err)
	}

	return &LLMExpander{
		registry:        registry,
		client:          client,
		detector:        detector,
		cache:           cache,
		logger:          cfg.logger,
		branchingFactor: cfg.branchingFactor,
		callTimeout:     cfg.callTimeout,
	}, nil
}

// Expand returns candidate successor actions for state, best first.
func (e *LLMExpander) Expand(ctx context.Context, state search.State) ([]Proposal, error) {
	eligible := e.eligibleCapabilities(state)
	if len(eligible) == 0 {
		return nil, nil
	}

	ordered := eligible
	if len(eligible) > e.branchingFactor {
		ordered = e.rank(ctx, state, eligible)
		ordered = ordered[:e.branchingFactor]
	}

	proposals := make([]Proposal, 0, len(ordered))
	for _, c := range ordered {
		proposals = append(proposals, Proposal{
			Capability: c,
			Params:     defaultParams(c, state),
		})
	}

	return proposals, nil
}

// Stats returns a snapshot of expander activity counters.
func (e *LLMExpander) Stats() Stats {
	return Stats{
		RankCalls:     e.rankCalls.Load(),
		RankFallbacks: e.rankFallbacks.Load(),
		CacheHits:     e.cacheHits.Load(),
	}
}

// eligibleCapabilities filters the registry down to capabilities whose
// preconditions hold, excluding a repeat of the immediately preceding action
// unless the capability is explicitly repeatable.
func (e *LLMExpander) eligibleCapabilities(state search.State) []capability.Capability {
	last := state.LatestAction()

	var eligible []capability.Capability
	for _, c := range e.registry.List() {
		if c.Name == last && !c.Repeatable {
			continue
		}
		if !c.Applicable(state) {
			continue
		}
		eligible = append(eligible, c)
	}

	return eligible
}

// rank orders eligible capabilities best first, consulting the ranking
// collaborator (with per-fingerprint caching) and degrading to the
// category-affinity ordering on any failure.
func (e *LLMExpander) rank(ctx context.Context, state search.State, eligible []capability.Capability) []capability.Capability {
	fingerprint := e.detector.Fingerprint(state.ActionNames(), state.Observation())

	if names, ok := e.cache.Get(fingerprint); ok {
		e.cacheHits.Add(1)
		return applyRanking(eligible, names)
	}

	names, err := e.queryRanking(ctx, state, eligible)
	if err != nil {
		e.rankFallbacks.Add(1)
		e.logger.Debug("ranking fell back to category affinity", "reason", err)
		return affinityOrder(eligible)
	}

	e.cache.Add(fingerprint, names)
	return applyRanking(eligible, names)
}

// queryRanking asks the collaborator to order the candidate names and parses
// a JSON array of names from its reply.
func (e *LLMExpander) queryRanking(ctx context.Context, state search.State, eligible []capability.Capability) ([]string, error) {
	if e.client == nil {
		return nil, fmt.Errorf("no ranking collaborator configured")
	}

	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	e.rankCalls.Add(1)
	resp, err := e.client.Complete(callCtx, collab.CompletionRequest{
		Messages: []collab.Message{
			collab.NewSystemMessage(rankerSystemPrompt),
			collab.NewUserMessage(buildRankingPrompt(state, eligible)),
		},
		Temperature: 0.2,
		MaxTokens:   300,
	})
	if err != nil {
		return nil, fmt.Errorf("ranking call failed: %w", err)
	}

	names, err := collab.ExtractJSONAs[[]string](resp.Content)
	if err != nil {
		return nil, fmt.Errorf("ranking response unparseable: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("ranking response contained no candidates")
	}

	return names, nil
}

// applyRanking orders eligible by the collaborator's name order. Names the
// collaborator skipped keep their affinity order after the ranked ones;
// names it invented are ignored.
func applyRanking(eligible []capability.Capability, names []string) []capability.Capability {
	byName := make(map[string]capability.Capability, len(eligible))
	for _, c := range eligible {
		byName[c.Name] = c
	}

	ordered := make([]capability.Capability, 0, len(eligible))
	used := make(map[string]bool, len(eligible))

	for _, name := range names {
		if c, ok := byName[name]; ok && !used[name] {
			ordered = append(ordered, c)
			used[name] = true
		}
	}

	for _, c := range affinityOrder(eligible) {
		if !used[c.Name] {
			ordered = append(ordered, c)
		}
	}

	return ordered
}

// affinityOrder sorts capabilities by the fixed category-affinity ordering,
// stable within a category by registration order.
func affinityOrder(caps []capability.Capability) []capability.Capability {
	ordered := make([]capability.Capability, len(caps))
	copy(ordered, caps)

	// Insertion sort keeps the ordering stable without extra bookkeeping;
	// candidate lists are tiny.
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && categoryAffinity[ordered[j].Category] < categoryAffinity[ordered[j-1].Category]; j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}

	return ordered
}

// defaultParams derives the parameter assignment for a proposal from the
// capability's declared shape and the state.
func defaultParams(c capability.Capability, state search.State) capability.Params {
	switch c.Params.Kind {
	case capability.ParamQuery:
		return capability.Params{Kind: capability.ParamQuery, Query: state.Goal()}
	case capability.ParamSection:
		return capability.Params{Kind: capability.ParamSection, Section: "next"}
	case capability.ParamFreeForm:
		return capability.Params{Kind: capability.ParamFreeForm, Instructions: state.Goal()}
	default:
		return capability.NoParams()
	}
}

const rankerSystemPrompt = `You rank candidate next actions for a planning assistant.

Given a goal, the actions taken so far, and a list of candidate actions with their effects, order the candidates from most to least promising.

Respond with a JSON array of action names, best first. Include only names from the candidate list.`

// buildRankingPrompt renders the ranking request for one state.
func buildRankingPrompt(state search.State, eligible []capability.Capability) string {
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

	b.WriteString("\nCandidate actions:\n")
	for _, c := range eligible {
		fmt.Fprintf(&b, "- %s (%s): %s\n", c.Name, c.Category, c.Effect)
	}

	b.WriteString("\nOrder the candidates best first as a JSON array of names.")
	return b.String()
}
