// Package planner drives best-first search over planning states: it pops the
// most promising frontier node, expands it through the action expander,
// scores children with the heuristic estimator, prunes dominated states, and
// repeats until the goal predicate holds, a budget runs out, search
// stagnates, or the caller cancels. Every terminal branch produces a result
// record; the planner never hangs and never executes actions.
package planner

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/wayfind-ai/wayfind/internal/expand"
	"github.com/wayfind-ai/wayfind/internal/heuristic"
	"github.com/wayfind-ai/wayfind/internal/search"
	"github.com/wayfind-ai/wayfind/internal/similarity"
	"github.com/wayfind-ai/wayfind/internal/types"
	"github.com/wayfind-ai/wayfind/internal/validate"
)

const (
	// DefaultNodeBudget bounds how many nodes one run may expand.
	DefaultNodeBudget = 100

	// DefaultWallClock bounds one run's elapsed time.
	DefaultWallClock = 60 * time.Second

	// DefaultStagnationWindow is K: how many iterations without frontier
	// improvement trigger stagnation.
	DefaultStagnationWindow = 5

	// DefaultStagnationEpsilon is the improvement threshold as a fraction
	// of the initial best f.
	DefaultStagnationEpsilon = 0.01

	// DefaultScoringWorkers bounds the pool scoring sibling candidates
	// concurrently.
	DefaultScoringWorkers = 4
)

// GoalPredicate decides whether a state satisfies the goal. The predicate is
// caller-supplied; DefaultGoalPredicate is used when none is given.
type GoalPredicate func(state search.State) bool

// DefaultGoalPredicate holds when the state's most recent action belongs to
// a terminal category (synthesis or response generation). The root state
// never satisfies it.
func DefaultGoalPredicate(state search.State) bool {
	step, ok := state.LatestStep()
	return ok && step.Category.IsTerminal()
}

// estimatorStats and expanderStats are implemented by estimators and
// expanders that expose activity counters for run diagnostics.
type estimatorStats interface {
	Stats() heuristic.Stats
}

type expanderStats interface {
	Stats() expand.Stats
}

// Planner coordinates one or more planning runs over a shared registry,
// estimator, and expander. The shared pieces are read-mostly and safe for
// concurrent runs; all per-run state (arena, frontier, closed set,
// similarity index) is created inside Run.
type Planner struct {
	estimator heuristic.Estimator
	expander  expand.Expander
	detector  *similarity.Detector
	validator *validate.Validator
	emitter   EventEmitter
	tracer    trace.Tracer
	logger    *slog.Logger

	nodeBudget        int
	wallClock         time.Duration
	stagnationWindow  int
	stagnationEpsilon float64
	scoringWorkers    int
	goalPredicate     GoalPredicate
}

// Option is a functional option for configuring a Planner.
type Option func(*Planner)

// WithNodeBudget bounds how many nodes one run may expand.
func WithNodeBudget(n int) Option {
	return func(p *Planner) {
		if n > 0 {
			p.nodeBudget = n
		}
	}
}

// WithWallClock bounds one run's elapsed time.
func WithWallClock(d time.Duration) Option {
	return func(p *Planner) {
		if d > 0 {
			p.wallClock = d
		}
	}
}

// WithStagnationWindow sets K, the number of iterations without improvement
// that trigger stagnation.
func WithStagnationWindow(k int) Option {
	return func(p *Planner) {
		if k > 0 {
			p.stagnationWindow = k
		}
	}
}

// WithStagnationEpsilon sets the improvement threshold as a fraction of the
// initial best f.
func WithStagnationEpsilon(eps float64) Option {
	return func(p *Planner) {
		if eps > 0 {
			p.stagnationEpsilon = eps
		}
	}
}

// WithScoringWorkers bounds the pool scoring sibling candidates concurrently.
func WithScoringWorkers(n int) Option {
	return func(p *Planner) {
		if n > 0 {
			p.scoringWorkers = n
		}
	}
}

// WithGoalPredicate sets the caller-supplied goal predicate.
func WithGoalPredicate(pred GoalPredicate) Option {
	return func(p *Planner) {
		if pred != nil {
			p.goalPredicate = pred
		}
	}
}

// WithValidator sets the post-hoc plan validator. Without one, results carry
// an Unavailable advisory.
func WithValidator(v *validate.Validator) Option {
	return func(p *Planner) {
		p.validator = v
	}
}

// WithEmitter sets the planner event emitter.
func WithEmitter(e EventEmitter) Option {
	return func(p *Planner) {
		if e != nil {
			p.emitter = e
		}
	}
}

// WithTracer sets the otel tracer for run spans.
func WithTracer(t trace.Tracer) Option {
	return func(p *Planner) {
		if t != nil {
			p.tracer = t
		}
	}
}

// WithLogger sets the planner's logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Planner) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a Planner. The estimator, expander, and detector are required;
// everything else has defaults. The capability registry is injected into the
// expander by the caller, keeping runs independently testable.
func New(estimator heuristic.Estimator, expander expand.Expander, detector *similarity.Detector, opts ...Option) (*Planner, error) {
	if estimator == nil {
		return nil, NewPlanningError(ErrorTypeInvalidParameter, "estimator is required")
	}
	if expander == nil {
		return nil, NewPlanningError(ErrorTypeInvalidParameter, "expander is required")
	}
	if detector == nil {
		return nil, NewPlanningError(ErrorTypeInvalidParameter, "similarity detector is required")
	}

	p := &Planner{
		estimator:         estimator,
		expander:          expander,
		detector:          detector,
		validator:         validate.NewValidator(nil),
		emitter:           nopEmitter{},
		tracer:            noop.NewTracerProvider().Tracer("wayfind/planner"),
		logger:            slog.Default(),
		nodeBudget:        DefaultNodeBudget,
		wallClock:         DefaultWallClock,
		stagnationWindow:  DefaultStagnationWindow,
		stagnationEpsilon: DefaultStagnationEpsilon,
		scoringWorkers:    DefaultScoringWorkers,
		goalPredicate:     DefaultGoalPredicate,
	}
	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// run carries all per-run mutable state so concurrent runs never share it.
type run struct {
	id       types.ID
	goal     string
	arena    *search.Arena
	frontier *search.Frontier
	closed   *search.ClosedSet
	index    *similarity.Index
	start    time.Time
	deadline time.Time

	// bestPartial is the most goal-ward node popped so far: lowest h,
	// ties broken by higher g. Returned when no complete plan is found.
	bestPartial search.Node

	// Stagnation tracking.
	bestFSeen        float64
	epsilonAbs       float64
	sinceImprovement int

	report Report
}

// Run executes one planning run for goal. The optional snapshot attaches
// read-only retrieved-document and memory context to every state in the run.
//
// Run always returns a terminal Result for every recoverable condition; a
// non-nil error means a corrupted internal invariant aborted the run.
func (p *Planner) Run(ctx context.Context, goal string, snapshot *search.ContextSnapshot) (*Result, error) {
	ctx, span := p.tracer.Start(ctx, "planner.run",
		trace.WithAttributes(attribute.String("planner.goal", goal)))
	defer span.End()

	r := &run{
		id:       types.NewID(),
		goal:     goal,
		start:    time.Now(),
		arena:    search.NewArena(search.NewRootState(goal, snapshot)),
		frontier: search.NewFrontier(p.nodeBudget),
		closed:   search.NewClosedSet(),
		index:    similarity.NewIndex(p.detector),
	}
	r.deadline = r.start.Add(p.wallClock)
	span.SetAttributes(attribute.String("planner.run_id", r.id.String()))

	phase, goalNode, err := p.loop(ctx, r)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "planning run aborted")
		return nil, err
	}

	result, err := p.finish(ctx, r, phase, goalNode)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "planning run aborted")
		return nil, err
	}

	span.SetAttributes(
		attribute.String("planner.status", string(result.Status)),
		attribute.Int("planner.nodes_expanded", result.Diagnostics.NodesExpanded),
		attribute.Int("planner.plan_length", len(result.Actions)),
	)
	return result, nil
}

// loop runs INIT and the EXPANDING state until a terminal phase is reached.
// It returns the terminal phase and, for GOAL_FOUND, the goal node.
func (p *Planner) loop(ctx context.Context, r *run) (Phase, search.Node, error) {
	// INIT: score the root, seed the frontier, admit the root into the
	// similarity index.
	rootState, err := r.arena.Get(r.arena.Root())
	if err != nil {
		return PhaseInit, search.Node{}, err
	}

	rootEstimate, err := p.estimator.Estimate(ctx, rootState)
	if err != nil {
		return PhaseInit, search.Node{}, WrapPlanningError(ErrorTypeInvariant,
			"root estimation failed", err)
	}

	rootNormalized := similarity.Normalize(rootState.ActionNames(), rootState.Observation())
	rootNode := search.Node{
		StateIndex:    r.arena.Root(),
		Fingerprint:   p.detector.Fingerprint(rootState.ActionNames(), rootState.Observation()),
		G:             0,
		H:             rootEstimate.Value,
		F:             rootEstimate.Value,
		LowConfidence: rootEstimate.Confidence == heuristic.ConfidenceLow,
	}
	r.frontier.Insert(rootNode)
	r.index.Admit(rootNode.Fingerprint, rootNormalized, 0)

	r.bestPartial = rootNode
	r.bestFSeen = rootNode.F
	r.epsilonAbs = p.stagnationEpsilon * rootNode.F

	p.emit(ctx, r, EventRunStarted, map[string]any{
		"goal":   r.goal,
		"root_f": rootNode.F,
	})

	// EXPANDING: the main loop. Terminal guards run every iteration.
	for {
		r.report.Iterations++

		if ctx.Err() != nil {
			return PhaseCancelled, search.Node{}, nil
		}
		if time.Now().After(r.deadline) {
			return PhaseBudgetExhausted, search.Node{}, nil
		}
		if r.report.NodesExpanded >= p.nodeBudget {
			return PhaseBudgetExhausted, search.Node{}, nil
		}
		if stagnating := p.checkStagnation(ctx, r); stagnating {
			return PhaseStagnating, search.Node{}, nil
		}

		node, ok := r.frontier.PopBest()
		if !ok {
			// Search space exhausted without reaching the goal.
			return PhaseBudgetExhausted, search.Node{}, nil
		}

		// Lazy deletion: a stale duplicate of an already-closed state is
		// discarded without re-expansion.
		if r.closed.IsStale(node.Fingerprint, node.G) {
			r.report.StaleDropped++
			p.emit(ctx, r, EventStaleDropped, map[string]any{"g": node.G})
			continue
		}

		state, err := r.arena.Get(node.StateIndex)
		if err != nil {
			return PhaseExpanding, search.Node{}, err
		}

		if p.goalPredicate(state) {
			return PhaseGoalFound, node, nil
		}

		r.closed.Close(node.Fingerprint, node.G)
		r.trackBestPartial(node)

		if err := p.expandNode(ctx, r, node, state); err != nil {
			return PhaseExpanding, search.Node{}, err
		}
	}
}

// checkStagnation updates improvement tracking from the current frontier
// best and reports whether the run has stagnated: best f not improved by
// more than epsilon over the last K iterations.
func (p *Planner) checkStagnation(ctx context.Context, r *run) bool {
	best, ok := r.frontier.PeekBest()
	if !ok {
		return false
	}

	if best.F < r.bestFSeen-r.epsilonAbs {
		r.bestFSeen = best.F
		r.sinceImprovement = 0
		return false
	}

	r.sinceImprovement++
	if r.sinceImprovement < p.stagnationWindow {
		return false
	}

	p.emit(ctx, r, EventStagnationDetected, map[string]any{
		"best_f":     best.F,
		"window":     p.stagnationWindow,
		"iterations": r.report.Iterations,
	})
	return true
}

// trackBestPartial keeps the most goal-ward popped node for diagnostics:
// lowest h, ties broken by higher g.
func (r *run) trackBestPartial(node search.Node) {
	best := r.bestPartial
	if node.H < best.H || (node.H == best.H && node.G > best.G) {
		r.bestPartial = node
	}
}

// expandNode generates the node's children, scores them concurrently with a
// bounded worker pool, prunes dominated candidates, and pushes survivors
// onto the frontier. Tie-break order is fixed at submission time, so the
// concurrent scoring cannot affect determinism.
func (p *Planner) expandNode(ctx context.Context, r *run, node search.Node, state search.State) error {
	r.report.NodesExpanded++
	p.emit(ctx, r, EventNodeExpanded, map[string]any{
		"g": node.G,
		"f": node.F,
	})

	proposals, err := p.expander.Expand(ctx, state)
	if err != nil {
		// The expander handles its own fallbacks; an error here is a
		// corrupted invariant.
		return WrapPlanningError(ErrorTypeInvariant, "expansion failed", err)
	}
	if len(proposals) == 0 {
		// NoViableActions: normal pruning, the node is dropped silently.
		p.logger.Debug("no viable actions for state",
			"run_id", r.id, "depth", state.Depth())
		return nil
	}

	// Derive all children first so arena indices and sibling order are
	// fixed before any concurrent work starts.
	childIndexes := make([]int, len(proposals))
	childStates := make([]search.State, len(proposals))
	for i, proposal := range proposals {
		step := search.ActionStep{
			Name:     proposal.Capability.Name,
			Category: proposal.Capability.Category,
			Params:   proposal.Params,
		}
		idx, err := r.arena.Derive(node.StateIndex, step, proposal.Capability.Effect)
		if err != nil {
			return err
		}
		childIndexes[i] = idx
		childState, err := r.arena.Get(idx)
		if err != nil {
			return err
		}
		childStates[i] = childState
		r.report.NodesGenerated++
	}

	// Score siblings concurrently: bounded pool, explicit join before any
	// frontier insertion.
	estimates := make([]heuristic.Estimate, len(proposals))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.scoringWorkers)
	for i := range childStates {
		group.Go(func() error {
			estimate, err := p.estimator.Estimate(groupCtx, childStates[i])
			if err != nil {
				return err
			}
			estimates[i] = estimate
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return WrapPlanningError(ErrorTypeInvariant, "child scoring failed", err)
	}

	// Prune dominated children and push survivors, in submission order.
	for i, childIdx := range childIndexes {
		childState := childStates[i]
		childG := childState.Cost()
		normalized := similarity.Normalize(childState.ActionNames(), childState.Observation())

		if r.index.Dominated(normalized, childG) {
			r.report.NodesPruned++
			p.emit(ctx, r, EventChildPruned, map[string]any{
				"action": childState.LatestAction(),
				"g":      childG,
			})
			continue
		}

		fingerprint := p.detector.Fingerprint(childState.ActionNames(), childState.Observation())
		r.index.Admit(fingerprint, normalized, childG)

		child := search.Node{
			StateIndex:    childIdx,
			Fingerprint:   fingerprint,
			G:             childG,
			H:             estimates[i].Value,
			F:             float64(childG) + estimates[i].Value,
			LowConfidence: node.LowConfidence || estimates[i].Confidence == heuristic.ConfidenceLow,
		}
		if !r.frontier.Insert(child) {
			p.logger.Debug("frontier at capacity, child rejected",
				"run_id", r.id, "g", childG)
		}
		if r.frontier.Len() > r.report.FrontierPeak {
			r.report.FrontierPeak = r.frontier.Len()
		}
	}

	return nil
}

// finish assembles the terminal result: path reconstruction, advisory
// critique, and diagnostics.
func (p *Planner) finish(ctx context.Context, r *run, phase Phase, goalNode search.Node) (*Result, error) {
	final := r.bestPartial
	if phase == PhaseGoalFound {
		final = goalNode
	}

	actions, err := r.arena.PathTo(final.StateIndex)
	if err != nil {
		return nil, err
	}

	result := &Result{
		RunID:         r.id,
		Goal:          r.goal,
		Status:        statusForPhase(phase),
		TerminalPhase: phase,
		Actions:       actions,
		Cost:          final.G,
		LowConfidence: final.LowConfidence,
	}

	// Post-hoc critique is advisory only and must not fail the run. The
	// validator returns an Unavailable report on collaborator failure.
	result.Advisory = p.validator.Annotate(ctx, r.goal, result.ActionNames())

	r.report.Elapsed = time.Since(r.start)
	if src, ok := p.estimator.(estimatorStats); ok {
		r.report.EstimatorStats = src.Stats()
	}
	if src, ok := p.expander.(expanderStats); ok {
		r.report.ExpanderStats = src.Stats()
	}
	result.Diagnostics = r.report

	p.emit(ctx, r, EventRunTerminated, map[string]any{
		"status":         string(result.Status),
		"terminal_phase": string(phase),
		"plan_length":    len(result.Actions),
		"cost":           result.Cost,
	})

	p.logger.Info("planning run terminated",
		"run_id", r.id,
		"status", result.Status,
		"plan_length", len(result.Actions),
		"nodes_expanded", r.report.NodesExpanded,
		"elapsed", r.report.Elapsed)

	return result, nil
}

// emit publishes a planner event, ignoring emitter errors so observability
// can never disturb the run.
func (p *Planner) emit(ctx context.Context, r *run, eventType EventType, payload map[string]any) {
	_ = p.emitter.Emit(ctx, newEvent(eventType, r.id, payload))
}
