// Package search holds the state model and frontier for best-first planning
// search: immutable planning states linked through an arena by integer
// indices, heap-ordered search nodes, and the closed set used for lazy
// deletion of stale duplicates.
package search

import (
	"github.com/wayfind-ai/wayfind/internal/capability"
)

// ActionStep is one planned capability invocation in a state's history.
type ActionStep struct {
	// Name is the capability name.
	Name string `json:"name"`

	// Category is the capability's category tag, carried so downstream
	// consumers don't need registry access to classify steps.
	Category capability.Category `json:"category"`

	// Params is the concrete parameter assignment for the invocation.
	Params capability.Params `json:"params"`
}

// ContextSnapshot carries optional read-only context attached to a state:
// retrieved document excerpts and episodic memory hits available at planning
// time. Snapshots are shared between parent and child states, never copied
// or mutated.
type ContextSnapshot struct {
	// Documents holds excerpts of retrieved documents.
	Documents []string `json:"documents,omitempty"`

	// MemoryHits holds summaries of relevant memory entries.
	MemoryHits []string `json:"memory_hits,omitempty"`
}

// State represents one planning node: the goal, the ordered action history
// taken to reach it, the latest observation, the parent's arena index, and
// the accumulated cost g. States are immutable once created; deriving a
// child always produces a new value.
type State struct {
	goal        string
	history     []ActionStep
	observation string
	parent      int // arena index, -1 for the root
	cost        int // accumulated cost g
	context     *ContextSnapshot
}

// NewRootState creates the root state for a planning run: empty history,
// g = 0, no parent.
func NewRootState(goal string, snapshot *ContextSnapshot) State {
	return State{
		goal:    goal,
		parent:  -1,
		context: snapshot,
	}
}

// Goal returns the natural-language goal text.
func (s State) Goal() string {
	return s.goal
}

// History returns the ordered action history. The returned slice is a copy
// and safe to modify.
func (s State) History() []ActionStep {
	out := make([]ActionStep, len(s.history))
	copy(out, s.history)
	return out
}

// ActionNames returns the ordered capability names in the history.
func (s State) ActionNames() []string {
	names := make([]string, len(s.history))
	for i, step := range s.history {
		names[i] = step.Name
	}
	return names
}

// LatestStep returns the most recent action step and true, or a zero step
// and false for the root state.
func (s State) LatestStep() (ActionStep, bool) {
	if len(s.history) == 0 {
		return ActionStep{}, false
	}
	return s.history[len(s.history)-1], true
}

// LatestAction returns the most recent capability name, or "" for the root.
func (s State) LatestAction() string {
	if len(s.history) == 0 {
		return ""
	}
	return s.history[len(s.history)-1].Name
}

// Observation returns the latest observation text.
func (s State) Observation() string {
	return s.observation
}

// Parent returns the arena index of the parent state, -1 for the root.
func (s State) Parent() int {
	return s.parent
}

// Cost returns the accumulated path cost g.
func (s State) Cost() int {
	return s.cost
}

// Depth returns the number of actions taken to reach this state.
func (s State) Depth() int {
	return len(s.history)
}

// Context returns the read-only context snapshot, possibly nil.
func (s State) Context() *ContextSnapshot {
	return s.context
}

// derive produces the child state reached by taking step from s and
// observing observation. Every action costs at least one, so the child's g
// is strictly greater than the parent's. Only the arena derives states, so
// parent indices are always assigned consistently.
func (s State) derive(parentIndex int, step ActionStep, observation string) State {
	history := make([]ActionStep, len(s.history)+1)
	copy(history, s.history)
	history[len(s.history)] = step

	return State{
		goal:        s.goal,
		history:     history,
		observation: observation,
		parent:      parentIndex,
		cost:        s.cost + 1,
		context:     s.context,
	}
}

// compile-time check: State satisfies the precondition view contract.
var _ capability.StateView = State{}
