package planner

import (
	"time"

	"github.com/wayfind-ai/wayfind/internal/expand"
	"github.com/wayfind-ai/wayfind/internal/heuristic"
	"github.com/wayfind-ai/wayfind/internal/search"
	"github.com/wayfind-ai/wayfind/internal/types"
	"github.com/wayfind-ai/wayfind/internal/validate"
)

// Phase is one state of the planner's control state machine.
type Phase string

const (
	// PhaseInit is the starting phase: root state creation and insertion.
	PhaseInit Phase = "INIT"

	// PhaseExpanding is the main loop: pop, test goal, expand, score,
	// prune, push.
	PhaseExpanding Phase = "EXPANDING"

	// PhaseGoalFound means a popped node satisfied the goal predicate.
	PhaseGoalFound Phase = "GOAL_FOUND"

	// PhaseBudgetExhausted means the node or wall-clock budget ran out
	// before the goal.
	PhaseBudgetExhausted Phase = "BUDGET_EXHAUSTED"

	// PhaseStagnating means the best frontier cost stopped improving over
	// the stagnation window.
	PhaseStagnating Phase = "STAGNATING"

	// PhaseCancelled means the caller's cancel signal ended the run.
	PhaseCancelled Phase = "CANCELLED"

	// PhaseTerminated is the final phase every terminal branch converges
	// to once the result record is assembled.
	PhaseTerminated Phase = "TERMINATED"
)

// Status classifies the outcome of a run for the execution engine.
type Status string

const (
	// StatusSuccess means a complete plan reaching the goal was found.
	StatusSuccess Status = "success"

	// StatusPartial means search stagnated; the best partial path is
	// returned for diagnostics.
	StatusPartial Status = "partial"

	// StatusCancelled means the run was cancelled; the best path found so
	// far is returned.
	StatusCancelled Status = "cancelled"

	// StatusExhausted means a resource budget ran out before the goal.
	StatusExhausted Status = "exhausted"
)

// statusForPhase maps a terminal phase to the result status.
func statusForPhase(p Phase) Status {
	switch p {
	case PhaseGoalFound:
		return StatusSuccess
	case PhaseStagnating:
		return StatusPartial
	case PhaseCancelled:
		return StatusCancelled
	default:
		return StatusExhausted
	}
}

// Report carries run diagnostics: counters, cache activity, and timing.
type Report struct {
	// Iterations is how many loop iterations ran.
	Iterations int `json:"iterations"`

	// NodesExpanded is how many nodes were popped and expanded.
	NodesExpanded int `json:"nodes_expanded"`

	// NodesGenerated is how many child states were created.
	NodesGenerated int `json:"nodes_generated"`

	// NodesPruned is how many children were discarded as dominated.
	NodesPruned int `json:"nodes_pruned"`

	// StaleDropped is how many popped nodes were lazily deleted against
	// the closed set.
	StaleDropped int `json:"stale_dropped"`

	// FrontierPeak is the largest open-set size observed.
	FrontierPeak int `json:"frontier_peak"`

	// EstimatorStats snapshots heuristic cache and fallback activity.
	EstimatorStats heuristic.Stats `json:"estimator_stats"`

	// ExpanderStats snapshots ranking cache and fallback activity.
	ExpanderStats expand.Stats `json:"expander_stats"`

	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration `json:"elapsed"`
}

// Result is the record handed to the execution engine when a run terminates.
// The planner never executes actions; Actions is an ordered recommendation.
type Result struct {
	// RunID uniquely identifies the planning run.
	RunID types.ID `json:"run_id"`

	// Goal is the natural-language goal the run planned for.
	Goal string `json:"goal"`

	// Status classifies the outcome.
	Status Status `json:"status"`

	// TerminalPhase is the state-machine phase that ended the run.
	TerminalPhase Phase `json:"terminal_phase"`

	// Actions is the ordered plan: the full path for success, the best
	// partial path otherwise.
	Actions []search.ActionStep `json:"actions"`

	// Cost is the accumulated g of the returned path.
	Cost int `json:"cost"`

	// LowConfidence is set when the returned path's heuristic relied on
	// the deterministic fallback at any point.
	LowConfidence bool `json:"low_confidence"`

	// Advisory is the validator's annotation. Advisory findings never
	// block the plan; final go/no-go is the caller's decision.
	Advisory validate.Report `json:"advisory"`

	// Diagnostics carries run counters and timing.
	Diagnostics Report `json:"diagnostics"`
}

// ActionNames returns the ordered capability names of the plan.
func (r *Result) ActionNames() []string {
	names := make([]string, len(r.Actions))
	for i, step := range r.Actions {
		names[i] = step.Name
	}
	return names
}

// Succeeded reports whether the run found a complete plan.
func (r *Result) Succeeded() bool {
	return r.Status == StatusSuccess
}
