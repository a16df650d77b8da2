package search

import (
	"fmt"

	"github.com/wayfind-ai/wayfind/internal/types"
)

// Arena owns every state created during one planning run. States reference
// their parents by arena index rather than by pointer, which keeps the
// parent tree free of cyclic-reference and lifetime concerns and makes path
// reconstruction a simple index walk to the root. The arena lives exactly as
// long as its run and is discarded wholesale at termination.
type Arena struct {
	states []State
}

// NewArena creates an arena seeded with the root state at index 0.
func NewArena(root State) *Arena {
	return &Arena{states: []State{root}}
}

// Root returns the index of the root state.
func (a *Arena) Root() int {
	return 0
}

// Len returns the number of states in the arena.
func (a *Arena) Len() int {
	return len(a.states)
}

// Get returns the state at the given index.
func (a *Arena) Get(index int) (State, error) {
	if index < 0 || index >= len(a.states) {
		return State{}, types.NewError(types.PLAN_INVARIANT_VIOLATED,
			fmt.Sprintf("arena index %d out of range [0,%d)", index, len(a.states)))
	}
	return a.states[index], nil
}

// Derive creates the child of the state at parentIndex reached by taking
// step and observing observation, appends it to the arena, and returns its
// index. The child's cost is strictly greater than the parent's.
func (a *Arena) Derive(parentIndex int, step ActionStep, observation string) (int, error) {
	parent, err := a.Get(parentIndex)
	if err != nil {
		return -1, err
	}

	child := parent.derive(parentIndex, step, observation)
	if child.Cost() <= parent.Cost() {
		// Unreachable unless the state model is corrupted; treated as fatal.
		return -1, types.NewError(types.PLAN_INVARIANT_VIOLATED,
			fmt.Sprintf("child cost %d not greater than parent cost %d",
				child.Cost(), parent.Cost()))
	}

	a.states = append(a.states, child)
	return len(a.states) - 1, nil
}

// PathTo reconstructs the ordered action path from the root to the state at
// index by walking parent indices.
func (a *Arena) PathTo(index int) ([]ActionStep, error) {
	state, err := a.Get(index)
	if err != nil {
		return nil, err
	}
	return state.History(), nil
}
