// Package heuristic estimates the remaining cost to reach the goal from a
// planning state. The primary estimator asks the language-model collaborator
// for a step estimate, corrects it with historical performance from episodic
// memory, and caches results per fingerprint. Collaborator failures always
// degrade to a deterministic proxy; estimation never aborts a run.
package heuristic

import (
	"context"

	"github.com/wayfind-ai/wayfind/internal/search"
)

// Confidence flags how trustworthy an estimate is.
type Confidence string

const (
	// ConfidenceHigh means the estimate came from the estimation
	// collaborator (possibly bias-corrected).
	ConfidenceHigh Confidence = "high"

	// ConfidenceLow means a collaborator failed and the deterministic
	// proxy was used instead.
	ConfidenceLow Confidence = "low"
)

// Source records where an estimate came from, for diagnostics.
type Source string

const (
	SourceCache    Source = "cache"
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
)

// Estimate is a non-negative cost-to-go estimate plus provenance.
type Estimate struct {
	// Value is the estimated remaining cost, always >= 0.
	Value float64 `json:"value"`

	// Confidence flags whether the estimation collaborator produced the
	// value or the deterministic fallback did.
	Confidence Confidence `json:"confidence"`

	// Source records cache/model/fallback provenance.
	Source Source `json:"source"`
}

// Estimator produces cost-to-go estimates for planning states.
// Implementations must never return an error for collaborator failures;
// those degrade to low-confidence fallback estimates. An error indicates a
// corrupted internal invariant and aborts the run.
type Estimator interface {
	Estimate(ctx context.Context, state search.State) (Estimate, error)
}

// FallbackValue is the deterministic proxy used when collaborators are
// unavailable: the expected remaining steps assuming a typical plan of
// targetSteps actions, never below one.
func FallbackValue(targetSteps, historyLen int) float64 {
	remaining := targetSteps - historyLen
	if remaining < 1 {
		remaining = 1
	}
	return float64(remaining)
}
