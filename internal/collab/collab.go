package collab

import (
	"context"
	"time"
)

// CompletionClient is the language-model estimation/ranking collaborator.
// Implementations wrap whatever provider the hosting application uses.
type CompletionClient interface {
	// Complete sends a completion request and returns the full response.
	// This is a blocking call that waits for the entire response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// ActionHistory summarizes historical performance for a (action, category)
// pair, as reported by the episodic-memory collaborator.
type ActionHistory struct {
	// Action is the capability name the record refers to.
	Action string `json:"action"`

	// Category is the task category the record was aggregated under.
	Category string `json:"category"`

	// SuccessRate is the historical success rate (0.0-1.0) for this action.
	SuccessRate float64 `json:"success_rate"`

	// AvgStepCount is the average number of plan steps in episodes that
	// used this action.
	AvgStepCount float64 `json:"avg_step_count"`

	// SampleSize is how many episodes the aggregate covers.
	SampleSize int `json:"sample_size"`

	// LastUsed is when this action was last recorded.
	LastUsed time.Time `json:"last_used"`
}

// EpisodicMemory is the episodic-memory lookup collaborator. It answers
// queries about how an action has performed historically for a task category.
type EpisodicMemory interface {
	// Lookup returns the historical record for the given action and task
	// category. A nil record with a nil error means no history exists; that
	// is a normal outcome, not a failure.
	Lookup(ctx context.Context, action, category string) (*ActionHistory, error)
}

// Severity classifies the weight of an advisory finding.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// ordinal returns a comparable rank for severity ordering.
func (s Severity) ordinal() int {
	switch s {
	case SeverityCritical:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether s is at least as severe as other.
func (s Severity) AtLeast(other Severity) bool {
	return s.ordinal() >= other.ordinal()
}

// Finding is one advisory observation from the critique collaborator.
type Finding struct {
	// Severity is how serious the finding is.
	Severity Severity `json:"severity"`

	// Category classifies the concern (e.g., "risk", "ethics", "utility").
	Category string `json:"category"`

	// Message is the human-readable advisory text.
	Message string `json:"message"`
}

// Critic is the meta-reasoning critique collaborator. It reviews a finished
// ordered action list against the goal and returns advisory findings only;
// it has no authority to block or mutate the plan.
type Critic interface {
	// Critique reviews the ordered action names against the goal.
	Critique(ctx context.Context, goal string, actions []string) ([]Finding, error)
}
